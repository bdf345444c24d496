package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/sidverma/vidtube/internal/common"
	"github.com/sidverma/vidtube/internal/server/models"
	"github.com/sidverma/vidtube/internal/server/repositories/repomanager"
)

// ProfileService exposes the two read-model projections. It has no side
// effects; each call is a single aggregation query.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager) *ProfileService {
	return &ProfileService{db: db, repomanager: m}
}

// ChannelProfile returns the channel view of the named user. viewerID (the
// requesting user) drives isSubscribed and may be empty.
func (s *ProfileService) ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, common.NewError(common.KindValidation, "username is required")
	}

	profile, err := s.repomanager.Profiles(s.db).ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.KindNotFound, "channel does not exist")
		}
		return nil, common.WrapError(common.KindInternal, "could not load channel profile", err)
	}

	return profile, nil
}

// WatchHistory returns the user's watched videos in stored order.
func (s *ProfileService) WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	history, err := s.repomanager.Profiles(s.db).WatchHistory(ctx, userID)
	if err != nil {
		return nil, common.WrapError(common.KindInternal, "could not load watch history", err)
	}
	return history, nil
}
