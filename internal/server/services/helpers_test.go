package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/sidverma/vidtube/internal/common"
	"github.com/sidverma/vidtube/internal/dbx"
	"github.com/sidverma/vidtube/internal/logging"
	"github.com/sidverma/vidtube/internal/server/config"
	"github.com/sidverma/vidtube/internal/server/models"
	profilesrepo "github.com/sidverma/vidtube/internal/server/repositories/profiles"
	usersrepo "github.com/sidverma/vidtube/internal/server/repositories/users"
)

// --- fakes ---

type fakeUsersRepo struct {
	seq  int
	byID map[string]*models.User

	existsOut bool
	existsErr error
	createErr error

	updatePasswordCalls int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) seed(u *models.User) *models.User {
	f.seq++
	u.ID = fmt.Sprintf("u-%d", f.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, u := range f.byID {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23505"})
		}
	}
	return f.seed(user), nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUsersRepo) GetByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Username == identifier || u.Email == identifier {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	return f.existsOut, f.existsErr
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	f.updatePasswordCalls++
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUsersRepo) UpdateRefreshToken(ctx context.Context, id string, token *string) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	u.RefreshToken = token
	return nil
}

func (f *fakeUsersRepo) RotateRefreshToken(ctx context.Context, id, presented, next string) (bool, error) {
	u, ok := f.byID[id]
	if !ok || u.RefreshToken == nil || *u.RefreshToken != presented {
		return false, nil
	}
	u.RefreshToken = &next
	return true, nil
}

func (f *fakeUsersRepo) UpdateAvatar(ctx context.Context, id, url string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.AvatarURL = url
	clone := *u
	return &clone, nil
}

func (f *fakeUsersRepo) UpdateCoverImage(ctx context.Context, id, url string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.CoverImageURL = url
	clone := *u
	return &clone, nil
}

type fakeProfilesRepo struct {
	channelIn  []string
	channelOut *models.ChannelProfile
	channelErr error

	historyOut []models.WatchHistoryEntry
	historyErr error
}

func (f *fakeProfilesRepo) ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error) {
	f.channelIn = []string{username, viewerID}
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	return f.channelOut, nil
}

func (f *fakeProfilesRepo) WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.historyOut, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakeProfilesRepo
}

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Profiles(db dbx.DBTX) profilesrepo.Repository { return m.p }
func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

type fakeMedia struct {
	uploads   []string
	uploadErr map[string]error

	deletes   []string
	deleteErr error
}

func (f *fakeMedia) Upload(ctx context.Context, localPath string) (string, error) {
	if err := f.uploadErr[localPath]; err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, localPath)
	base := localPath[strings.LastIndex(localPath, "/")+1:]
	return "http://cdn/media/" + base, nil
}

func (f *fakeMedia) Delete(ctx context.Context, url string) error {
	f.deletes = append(f.deletes, url)
	return f.deleteErr
}

// --- helpers ---

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:            "test-access-secret",
		RefreshTokenSecret:           "test-refresh-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newUserService(t *testing.T, db *sql.DB, rm *fakeRepoManager, store *fakeMedia) *UserService {
	t.Helper()
	if rm.u == nil {
		rm.u = newFakeUsersRepo()
	}
	return NewUserService(db, rm, store, testLogger(), testConfig())
}

func seedUser(t *testing.T, repo *fakeUsersRepo, username, email, password string) *models.User {
	t.Helper()
	hash, err := hashPassword(password)
	require.NoError(t, err)
	return repo.seed(&models.User{
		Username:     username,
		Email:        email,
		Fullname:     "Seeded User",
		PasswordHash: hash,
		AvatarURL:    "http://cdn/media/old-avatar.png",
	})
}
