package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/sidverma/vidtube/internal/common"
	"github.com/sidverma/vidtube/internal/server/auth"
)

type ctxKey int

const claimsKey ctxKey = iota

// authenticate verifies the access token from the accessToken cookie or the
// Authorization header and injects the claims into the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.claimsFromRequest(r)
		if err != nil {
			s.writeError(w, r, common.NewError(common.KindUnauthorized, "not authenticated"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// maybeAuthenticate is authenticate for routes that also serve anonymous
// callers. A missing or invalid token leaves the request anonymous instead of
// rejecting it.
func (s *Server) maybeAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := s.claimsFromRequest(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), claimsKey, claims))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) claimsFromRequest(r *http.Request) (*auth.AccessClaims, error) {
	token := tokenFromRequest(r, accessTokenCookie)
	if token == "" {
		return nil, common.ErrInvalidToken
	}
	return auth.ParseAccessToken(token, s.accessSecret)
}

// tokenFromRequest reads a token from the named cookie, falling back to a
// bearer Authorization header.
func tokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// userIDFrom returns the authenticated user id, or "" for anonymous requests.
func userIDFrom(ctx context.Context) string {
	if claims, ok := ctx.Value(claimsKey).(*auth.AccessClaims); ok {
		return claims.UserID
	}
	return ""
}
