package httpapi

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/trainmining/delaystats/delaystats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const contentTypeJSON = "application/json"

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "encoding response failed", "error", err, "path", r.URL.Path)
		payload, status = []byte(`{"status":500,"message":"encoding response failed"}`), http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	if _, writeErr := w.Write(payload); writeErr != nil {
		s.logger.DebugContext(r.Context(), "writing response failed", "error", writeErr, "path", r.URL.Path)
	}
}

// writeError writes err as a normalized envelope. Server-side failures are logged, validation failures are not.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	envelope := delaystats.NormalizeError(err)

	if envelope.Status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"error", envelope.Message,
			"status", envelope.Status,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
		)
	}

	s.writeJSON(w, r, envelope.Status, envelope)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusNotFound, delaystats.ErrorEnvelope{
		Status:  http.StatusNotFound,
		Message: "no route for " + r.URL.Path,
	})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusMethodNotAllowed, delaystats.ErrorEnvelope{
		Status:  http.StatusMethodNotAllowed,
		Message: "method " + r.Method + " not allowed for " + r.URL.Path,
	})
}
