// Package services contains the server-side business logic. This file
// implements UserService, which owns the session lifecycle: registration,
// login, logout, refresh-token rotation, password changes, and profile media
// updates.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/sidverma/vidtube/internal/common"
	"github.com/sidverma/vidtube/internal/dbx"
	"github.com/sidverma/vidtube/internal/logging"
	"github.com/sidverma/vidtube/internal/server/auth"
	"github.com/sidverma/vidtube/internal/server/config"
	"github.com/sidverma/vidtube/internal/server/media"
	"github.com/sidverma/vidtube/internal/server/models"
	"github.com/sidverma/vidtube/internal/server/repositories/repomanager"
)

// bcryptCost matches the cost the accounts were originally hashed with.
// Changing it only affects new hashes; verification reads the cost from the
// stored hash.
const bcryptCost = 8

const pgUniqueViolation = "23505"

// UserService provides the account/session operations:
//   - Register: create users with uploaded media
//   - Login: verify credentials and mint a token pair
//   - RefreshAccess: rotate the refresh token and mint a new pair
//   - Logout, ChangePassword, CurrentUser, UpdateAvatar, UpdateCoverImage
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	media       media.Store
	logger      logging.Logger

	accessSecret                 []byte
	refreshSecret                []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService. All token parameters come from the
// injected config; nothing reads ambient state at verification time.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, store media.Store, logger logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		media:                        store,
		logger:                       logger.With("module", "user_service"),
		accessSecret:                 []byte(cfg.AccessTokenSecret),
		refreshSecret:                []byte(cfg.RefreshTokenSecret),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// RegisterInput carries the registration form plus the local paths the
// multipart layer saved the uploaded files to.
type RegisterInput struct {
	Username            string
	Email               string
	Fullname            string
	Password            string
	AvatarLocalPath     string
	CoverImageLocalPath string
}

// Register validates the input, uploads the media, and creates the account.
// The avatar is mandatory; a failed cover-image upload is tolerated and the
// account is created without one.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.UserView, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullname := strings.TrimSpace(in.Fullname)

	if username == "" || email == "" || fullname == "" || in.Password == "" {
		return nil, common.NewError(common.KindValidation, "all fields are required")
	}
	if in.AvatarLocalPath == "" {
		return nil, common.NewError(common.KindUpload, "avatar file is required")
	}

	exists, err := s.repomanager.Users(s.db).ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, common.WrapError(common.KindInternal, "could not check existing users", err)
	}
	if exists {
		return nil, common.NewError(common.KindConflict, "username or email already exists")
	}

	avatarURL, err := s.media.Upload(ctx, in.AvatarLocalPath)
	if err != nil {
		return nil, common.WrapError(common.KindUpload, "could not upload avatar", err)
	}

	coverImageURL := ""
	if in.CoverImageLocalPath != "" {
		coverImageURL, err = s.media.Upload(ctx, in.CoverImageLocalPath)
		if err != nil {
			s.logger.Warn(ctx, "cover image upload failed", "error", err.Error())
			coverImageURL = ""
		}
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, common.WrapError(common.KindInternal, "could not hash password", err)
	}

	user := &models.User{
		Username:      username,
		Email:         email,
		Fullname:      fullname,
		PasswordHash:  hash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.repomanager.Users(tx).Create(ctx, user)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent registration; same outcome as the
			// earlier existence check.
			return nil, common.NewError(common.KindConflict, "username or email already exists")
		}
		return nil, common.WrapError(common.KindInternal, "could not create user", err)
	}

	s.logger.Info(ctx, "user registered", "username", username)
	return user.View(), nil
}

// Login verifies the password for the user matching identifier (username or
// email) and issues a fresh token pair.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*models.UserView, *models.TokenPair, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return nil, nil, common.NewError(common.KindValidation, "username or email is required")
	}

	user, err := s.repomanager.Users(s.db).GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.NewError(common.KindNotFound, "user does not exist")
		}
		return nil, nil, common.WrapError(common.KindInternal, "could not load user", err)
	}

	if !verifyPassword(user.PasswordHash, password) {
		return nil, nil, common.NewError(common.KindUnauthorized, "incorrect password")
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "user logged in", "username", user.Username)
	return user.View(), pair, nil
}

// Logout revokes the stored refresh token. It is idempotent: logging out an
// already-logged-out session succeeds and leaves the token absent.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	err := s.repomanager.Users(s.db).UpdateRefreshToken(ctx, userID, nil)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return common.WrapError(common.KindInternal, "could not clear refresh token", err)
	}
	return nil
}

// RefreshAccess rotates a refresh token: the presented token must carry a
// valid signature, be unexpired, and equal the stored value. The store swap is
// conditional, so a token can be spent exactly once — reuse after rotation or
// logout, and the loser of a concurrent refresh, are all rejected.
func (s *UserService) RefreshAccess(ctx context.Context, presented string) (*models.TokenPair, error) {
	if presented == "" {
		return nil, common.NewError(common.KindUnauthorized, "refresh token is missing")
	}

	userID, err := auth.ParseRefreshToken(presented, s.refreshSecret)
	if err != nil {
		return nil, common.WrapError(common.KindUnauthorized, "invalid refresh token", err)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.KindUnauthorized, "invalid refresh token")
		}
		return nil, common.WrapError(common.KindInternal, "could not load user", err)
	}

	accessToken, err := auth.GenerateAccessToken(user.ID, user.Email, user.Username, s.accessSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.WrapError(common.KindInternal, "could not issue tokens", err)
	}
	refreshToken, err := auth.GenerateRefreshToken(user.ID, s.refreshSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.WrapError(common.KindInternal, "could not issue tokens", err)
	}

	rotated, err := s.repomanager.Users(s.db).RotateRefreshToken(ctx, user.ID, presented, refreshToken)
	if err != nil {
		return nil, common.WrapError(common.KindInternal, "could not rotate refresh token", err)
	}
	if !rotated {
		return nil, common.WrapError(common.KindUnauthorized, "refresh token is expired or used", common.ErrTokenMismatch)
	}

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ChangePassword re-verifies the old password and stores a hash of the new
// one. Setting the same password again is a no-op so the stored hash is never
// recomputed without an actual change.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return common.NewError(common.KindValidation, "new password is required")
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewError(common.KindUnauthorized, "invalid session")
		}
		return common.WrapError(common.KindInternal, "could not load user", err)
	}

	if !verifyPassword(user.PasswordHash, oldPassword) {
		return common.NewError(common.KindUnauthorized, "invalid old password")
	}
	if newPassword == oldPassword {
		return nil
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return common.WrapError(common.KindInternal, "could not hash password", err)
	}

	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, userID, hash); err != nil {
		return common.WrapError(common.KindInternal, "could not update password", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// CurrentUser returns the password-free view of the authenticated user.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (*models.UserView, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.KindNotFound, "user does not exist")
		}
		return nil, common.WrapError(common.KindInternal, "could not load user", err)
	}
	return user.View(), nil
}

// UpdateAvatar uploads the replacement, commits its URL, and then deletes the
// superseded object best-effort. A failed delete is logged and does not fail
// the update.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, localPath string) (*models.UserView, error) {
	return s.updateImage(ctx, userID, localPath, "avatar",
		func(u *models.User) string { return u.AvatarURL },
		s.repomanager.Users(s.db).UpdateAvatar)
}

// UpdateCoverImage behaves like UpdateAvatar for the optional cover image.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*models.UserView, error) {
	return s.updateImage(ctx, userID, localPath, "cover image",
		func(u *models.User) string { return u.CoverImageURL },
		s.repomanager.Users(s.db).UpdateCoverImage)
}

func (s *UserService) updateImage(ctx context.Context, userID, localPath, label string,
	currentURL func(*models.User) string,
	commit func(ctx context.Context, id, url string) (*models.User, error)) (*models.UserView, error) {

	if localPath == "" {
		return nil, common.NewError(common.KindValidation, label+" file is missing")
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.KindNotFound, "user does not exist")
		}
		return nil, common.WrapError(common.KindInternal, "could not load user", err)
	}
	oldURL := currentURL(user)

	newURL, err := s.media.Upload(ctx, localPath)
	if err != nil {
		return nil, common.WrapError(common.KindUpload, "could not upload "+label, err)
	}

	updated, err := commit(ctx, userID, newURL)
	if err != nil {
		return nil, common.WrapError(common.KindInternal, "could not update "+label, err)
	}

	if oldURL != "" {
		if err := s.media.Delete(ctx, oldURL); err != nil {
			s.logger.Error(ctx, "stale "+label+" not deleted from media store", "url", oldURL, "error", err.Error())
		}
	}

	return updated.View(), nil
}

// issuePair signs a new access/refresh pair and persists the refresh token so
// it becomes the single valid one for the user.
func (s *UserService) issuePair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	accessToken, err := auth.GenerateAccessToken(user.ID, user.Email, user.Username, s.accessSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.WrapError(common.KindInternal, "could not issue tokens", err)
	}

	refreshToken, err := auth.GenerateRefreshToken(user.ID, s.refreshSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.WrapError(common.KindInternal, "could not issue tokens", err)
	}

	if err := s.repomanager.Users(s.db).UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return nil, common.WrapError(common.KindInternal, "could not issue tokens", err)
	}

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func hashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
