// Package users implements the credential store: the single place where a
// user's password hash, refresh token, and media URLs are persisted.
package users

import (
	"context"

	"github.com/sidverma/vidtube/internal/server/models"
)

type Repository interface {
	// Create persists a new user and fills in the generated id and timestamps.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByUsernameOrEmail matches the identifier against both unique columns.
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)

	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// UpdatePassword stores a new password hash. The plaintext never reaches
	// this layer.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// UpdateRefreshToken overwrites the stored refresh token; nil clears it.
	// Only the token column is touched (partial save).
	UpdateRefreshToken(ctx context.Context, id string, token *string) error

	// RotateRefreshToken replaces the stored token with next only when the
	// stored value still equals presented. Returns false when the compare
	// failed, which covers reuse-after-rotation, reuse-after-logout, and the
	// losing side of a concurrent refresh.
	RotateRefreshToken(ctx context.Context, id, presented, next string) (bool, error)

	UpdateAvatar(ctx context.Context, id, url string) (*models.User, error)
	UpdateCoverImage(ctx context.Context, id, url string) (*models.User, error)
}
