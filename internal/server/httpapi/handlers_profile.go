package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleChannelProfile(w http.ResponseWriter, r *http.Request) {
	// viewerID is empty for anonymous callers; isSubscribed is then false.
	profile, err := s.profiles.ChannelProfile(r.Context(), chi.URLParam(r, "username"), userIDFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile, "Channel profile fetched")
}

func (s *Server) handleWatchHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.profiles.WatchHistory(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, history, "Watch history fetched")
}
