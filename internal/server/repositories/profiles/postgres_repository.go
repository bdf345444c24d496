package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sidverma/vidtube/internal/common"
	"github.com/sidverma/vidtube/internal/dbx"
	"github.com/sidverma/vidtube/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error) {

	// NULLIF turns an absent viewer into a NULL uuid, which can never match a
	// subscriber edge.
	query :=
		`SELECT u.fullname, u.username, u.email, u.avatar_url, u.cover_image_url,
                (SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscriber_count,
                (SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channels_subscribed_to_count,
                EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = NULLIF($2, '')::uuid) AS is_subscribed
         FROM users u
         WHERE u.username = $1
		 `

	profile := &models.ChannelProfile{}
	err := r.db.QueryRowContext(ctx, query, username, viewerID).Scan(
		&profile.Fullname, &profile.Username, &profile.Email,
		&profile.AvatarURL, &profile.CoverImageURL,
		&profile.SubscriberCount, &profile.ChannelsSubscribedToCount,
		&profile.IsSubscribed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

func (r *PostgresRepository) WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {

	query :=
		`SELECT v.id, v.video_url, v.thumbnail_url, v.title, v.description,
                v.duration, v.views, v.is_published, v.created_at,
                o.id, o.fullname, o.username, o.avatar_url
         FROM watch_history wh
         JOIN videos v ON v.id = wh.video_id
         JOIN users o ON o.id = v.owner_id
         WHERE wh.user_id = $1
         ORDER BY wh.position
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	history := []models.WatchHistoryEntry{}
	for rows.Next() {
		var entry models.WatchHistoryEntry
		err := rows.Scan(&entry.ID, &entry.VideoURL, &entry.ThumbnailURL,
			&entry.Title, &entry.Description, &entry.Duration, &entry.Views,
			&entry.IsPublished, &entry.CreatedAt,
			&entry.Owner.ID, &entry.Owner.Fullname, &entry.Owner.Username,
			&entry.Owner.AvatarURL)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		entry.OwnerID = entry.Owner.ID
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return history, nil
}
