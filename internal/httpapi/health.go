package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type healthResponse struct {
	Status string      `json:"status"`
	Pool   *poolHealth `json:"pool,omitempty"`
}

type poolHealth struct {
	Capacity int  `json:"capacity"`
	Leased   int  `json:"leased"`
	Draining bool `json:"draining"`
}

// health answers 200 while the pool accepts leases and 503 once it drains.
func (s *Server) health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.pool == nil {
		s.writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
		return
	}

	stats := s.pool.Stats()
	response := healthResponse{
		Status: "ok",
		Pool:   &poolHealth{Capacity: stats.Capacity, Leased: stats.Leased, Draining: stats.Draining},
	}

	status := http.StatusOK
	if stats.Draining {
		response.Status = "draining"
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, r, status, response)
}
