// Package profiles builds the read-model projections: channel profile and
// watch history. Both are pure reads and each executes as a single SQL
// statement so the projection is consistent and never degrades into N+1
// lookups.
package profiles

import (
	"context"

	"github.com/sidverma/vidtube/internal/server/models"
)

type Repository interface {
	// ChannelProfile projects the channel view of the user with the given
	// (normalized) username. viewerID determines isSubscribed and may be
	// empty, in which case isSubscribed is false.
	ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error)

	// WatchHistory returns the user's watched videos in stored order, each
	// carrying a single owner projection.
	WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
}
