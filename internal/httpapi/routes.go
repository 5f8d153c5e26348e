package httpapi

import (
	"github.com/julienschmidt/httprouter"

	"github.com/trainmining/delaystats/delaystats"
)

type route struct {
	path   string
	handle httprouter.Handle
}

// routes lists every statistics route. Routes differ only in template, parameter parser and record type.
func (s *Server) routes() []route {
	return []route{
		newRoute(s, "/stations", delaystats.StationDelayTemplate(delaystats.FilterNone), parseNoFilter, delaystats.StationDelayFromRow),
		newRoute(s, "/stations/date", delaystats.StationDelayTemplate(delaystats.FilterExactDate), parseExactDate, delaystats.StationDelayFromRow),
		newRoute(s, "/stations/timeframe", delaystats.StationDelayTemplate(delaystats.FilterTimeRange), parseTimeRange, delaystats.StationDelayFromRow),
		newRoute(s, "/stations/prime", delaystats.StationDelayTemplate(delaystats.FilterPrimeTime), parsePrimeTime, delaystats.StationDelayFromRow),

		newRoute(s, "/lines", delaystats.LineDelayTemplate(delaystats.FilterNone), parseNoFilter, delaystats.LineDelayFromRow),
		newRoute(s, "/lines/date", delaystats.LineDelayTemplate(delaystats.FilterExactDate), parseExactDate, delaystats.LineDelayFromRow),
		newRoute(s, "/lines/timeframe", delaystats.LineDelayTemplate(delaystats.FilterTimeRange), parseTimeRange, delaystats.LineDelayFromRow),
		newRoute(s, "/lines/prime", delaystats.LineDelayTemplate(delaystats.FilterPrimeTime), parsePrimeTime, delaystats.LineDelayFromRow),

		newRoute(s, "/infos", delaystats.StationInfoTemplate(delaystats.FilterNone), parseNoFilter, delaystats.StationInfoFromRow),
		newRoute(s, "/infos/date", delaystats.StationInfoTemplate(delaystats.FilterExactDate), parseExactDate, delaystats.StationInfoFromRow),
		newRoute(s, "/infos/timeframe", delaystats.StationInfoTemplate(delaystats.FilterTimeRange), parseTimeRange, delaystats.StationInfoFromRow),

		newRoute(s, "/incidents", delaystats.IncidentTemplate(), parseLineAndDate, delaystats.IncidentFromRow),
	}
}

func newRoute[R any](
	s *Server,
	path string,
	template delaystats.Template,
	parse filterParser,
	mapper delaystats.RecordMapper[R],
) route {
	e := endpoint[R]{server: s, template: template, parse: parse, mapper: mapper}

	return route{path: path, handle: e.handle}
}
