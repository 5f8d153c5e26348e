package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/trainmining/delaystats/delaystats"
)

// endpoint serves one Template. The control flow is the same for every route:
// parse the filter, query the store once, map the rows, write them.
type endpoint[R any] struct {
	server   *Server
	template delaystats.Template
	parse    filterParser
	mapper   delaystats.RecordMapper[R]
}

func (e endpoint[R]) handle(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := e.parse(e.server.validate, r.URL.Query())
	if err != nil {
		e.server.writeError(w, r, err)
		return
	}

	rows, err := e.server.store.Query(r.Context(), e.template, filter)
	if err != nil {
		e.server.writeError(w, r, err)
		return
	}

	e.server.writeJSON(w, r, http.StatusOK, delaystats.MapRows(rows, e.mapper))
}
