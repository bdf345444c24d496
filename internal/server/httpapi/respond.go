package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sidverma/vidtube/internal/common"
)

type envelope struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data, Message: message})
}

// writeError maps the workflow error to a status code and a client-safe body.
// Internal causes are logged, never returned to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := common.KindOf(err)
	if kind == common.KindInternal {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusOf(kind))
	_ = json.NewEncoder(w).Encode(errorBody{Error: common.Message(err)})
}

func statusOf(kind common.Kind) int {
	switch kind {
	case common.KindValidation, common.KindUpload:
		return http.StatusBadRequest
	case common.KindUnauthorized:
		return http.StatusUnauthorized
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
