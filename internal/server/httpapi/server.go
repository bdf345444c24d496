// Package httpapi exposes the account and profile services over HTTP. It owns
// routing, the JSON envelope, auth-token cookies, and the mapping from the
// error taxonomy to status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sidverma/vidtube/internal/logging"
	"github.com/sidverma/vidtube/internal/server/config"
	"github.com/sidverma/vidtube/internal/server/models"
	"github.com/sidverma/vidtube/internal/server/services"
)

// UserAPI is the slice of the user service the transport needs.
type UserAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.UserView, error)
	Login(ctx context.Context, identifier, password string) (*models.UserView, *models.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	RefreshAccess(ctx context.Context, presented string) (*models.TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*models.UserView, error)
	UpdateAvatar(ctx context.Context, userID, localPath string) (*models.UserView, error)
	UpdateCoverImage(ctx context.Context, userID, localPath string) (*models.UserView, error)
}

// ProfileAPI is the slice of the profile service the transport needs.
type ProfileAPI interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
}

type Server struct {
	address  string
	logger   logging.Logger
	users    UserAPI
	profiles ProfileAPI

	accessSecret       []byte
	accessTokenMaxAge  int
	refreshTokenMaxAge int
	allowedOrigins     []string
}

func NewServer(cfg *config.Config, l logging.Logger, users UserAPI, profiles ProfileAPI) *Server {
	return &Server{
		address:            cfg.EndpointAddrHTTP,
		logger:             l.With("module", "http_server"),
		users:              users,
		profiles:           profiles,
		accessSecret:       []byte(cfg.AccessTokenSecret),
		accessTokenMaxAge:  int(cfg.AccessTokenValidityDuration.Seconds()),
		refreshTokenMaxAge: int(cfg.RefreshTokenValidityDuration.Seconds()),
		allowedOrigins:     strings.Split(cfg.CORSAllowedOrigins, ","),
	}
}

// Handler builds the router. Exposed separately from Run so tests can drive it
// with httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh-token", s.handleRefreshToken)

		r.With(s.maybeAuthenticate).Get("/c/{username}", s.handleChannelProfile)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleCurrentUser)
			r.Post("/change-password", s.handleChangePassword)
			r.Patch("/avatar", s.handleUpdateAvatar)
			r.Patch("/cover-image", s.handleUpdateCoverImage)
			r.Get("/history", s.handleWatchHistory)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
