package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"

	"github.com/trainmining/delaystats/delaystats"
	"github.com/trainmining/delaystats/delaystats/postgresengine"
)

// QueriesDelays runs a Template with a Filter and returns the converted rows in store order.
// *postgresengine.DelayStore implements it.
type QueriesDelays interface {
	Query(ctx context.Context, template delaystats.Template, filter delaystats.Filter) ([]delaystats.Row, error)
}

// ReportsPoolStats exposes the lease pool's state for the health route.
// *postgresengine.ConnectionPool implements it.
type ReportsPoolStats interface {
	Stats() postgresengine.PoolStats
}

// Option defines a functional option for configuring Server.
type Option func(*Server) error

// WithLogger sets the logger for request logs and failed requests.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("nil logger supplied")
		}

		s.logger = logger

		return nil
	}
}

// WithPoolStats enables pool details on GET /health.
func WithPoolStats(pool ReportsPoolStats) Option {
	return func(s *Server) error {
		s.pool = pool
		return nil
	}
}

// Server dispatches the delaystats routes. It is safe for concurrent use.
type Server struct {
	store    QueriesDelays
	pool     ReportsPoolStats
	logger   *slog.Logger
	validate *validator.Validate
	handler  http.Handler
}

// NewServer creates a Server that answers every statistics route from store.
func NewServer(store QueriesDelays, options ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.New("nil store supplied")
	}

	s := &Server{
		store:    store,
		logger:   slog.New(slog.DiscardHandler),
		validate: newParamValidator(),
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	s.handler = s.middleware(s.router())

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) router() *httprouter.Router {
	router := httprouter.New()
	router.RedirectTrailingSlash = false
	router.NotFound = http.HandlerFunc(s.notFound)
	router.MethodNotAllowed = http.HandlerFunc(s.methodNotAllowed)

	for _, r := range s.routes() {
		router.GET(r.path, r.handle)
	}

	router.GET("/health", s.health)

	return router
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return requestID(cors(newRequestLogging(s.logger)(next)))
}
