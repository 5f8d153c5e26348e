package httpapi_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainmining/delaystats/delaystats"
	"github.com/trainmining/delaystats/delaystats/postgresengine"
	"github.com/trainmining/delaystats/internal/httpapi"
)

type storeCall struct {
	template delaystats.Template
	filter   delaystats.Filter
}

type fakeStore struct {
	mu    sync.Mutex
	rows  []delaystats.Row
	err   error
	calls []storeCall
}

func (s *fakeStore) Query(_ context.Context, template delaystats.Template, filter delaystats.Filter) ([]delaystats.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, storeCall{template: template, filter: filter})

	return s.rows, s.err
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.calls)
}

type fakePool struct {
	stats postgresengine.PoolStats
}

func (p fakePool) Stats() postgresengine.PoolStats {
	return p.stats
}

func newTestServer(t *testing.T, store *fakeStore, options ...httpapi.Option) *httpapi.Server {
	t.Helper()

	server, err := httpapi.NewServer(store, options...)
	require.NoError(t, err)

	return server
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	return recorder
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) delaystats.ErrorEnvelope {
	t.Helper()

	var envelope delaystats.ErrorEnvelope
	require.NoError(t, jsoniter.Unmarshal(recorder.Body.Bytes(), &envelope))

	return envelope
}

func Test_NewServer_When_StoreIsNil(t *testing.T) {
	_, err := httpapi.NewServer(nil)

	assert.Error(t, err)
}

//nolint:funlen
func Test_Server_RoutesDispatchTemplateAndFilter(t *testing.T) {
	monday := delaystats.Date{Year: 2024, Month: time.March, Day: 4}
	timeframe := "?" + url.Values{
		"lower_limit": {"2024-03-04 06:00:00"},
		"upper_limit": {"2024-03-04 09:30:00"},
	}.Encode()

	tests := []struct {
		target           string
		expectedTemplate string
		expectedKind     delaystats.FilterKind
	}{
		{target: "/stations", expectedTemplate: "station_delays_none", expectedKind: delaystats.FilterNone},
		{target: "/stations/date?date=2024-03-04", expectedTemplate: "station_delays_date", expectedKind: delaystats.FilterExactDate},
		{target: "/stations/timeframe" + timeframe, expectedTemplate: "station_delays_timeframe", expectedKind: delaystats.FilterTimeRange},
		{target: "/stations/prime", expectedTemplate: "station_delays_prime", expectedKind: delaystats.FilterPrimeTime},
		{target: "/lines", expectedTemplate: "line_delays_none", expectedKind: delaystats.FilterNone},
		{target: "/lines/date?date=2024-03-04", expectedTemplate: "line_delays_date", expectedKind: delaystats.FilterExactDate},
		{target: "/lines/timeframe" + timeframe, expectedTemplate: "line_delays_timeframe", expectedKind: delaystats.FilterTimeRange},
		{target: "/lines/prime", expectedTemplate: "line_delays_prime", expectedKind: delaystats.FilterPrimeTime},
		{target: "/infos", expectedTemplate: "station_infos_none", expectedKind: delaystats.FilterNone},
		{target: "/infos/date?date=2024-03-04", expectedTemplate: "station_infos_date", expectedKind: delaystats.FilterExactDate},
		{target: "/infos/timeframe" + timeframe, expectedTemplate: "station_infos_timeframe", expectedKind: delaystats.FilterTimeRange},
		{target: "/incidents?line=1&date=2024-03-04", expectedTemplate: "incidents_line_and_date", expectedKind: delaystats.FilterLineAndDate},
	}

	for _, tt := range tests {
		t.Run(tt.expectedTemplate, func(t *testing.T) {
			// arrange
			store := &fakeStore{}
			server := newTestServer(t, store)

			// act
			recorder := get(t, server, tt.target)

			// assert
			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
			assert.JSONEq(t, "[]", recorder.Body.String())

			require.Len(t, store.calls, 1)
			call := store.calls[0]
			assert.Equal(t, tt.expectedTemplate, call.template.Name())
			assert.Equal(t, tt.expectedKind, call.filter.Kind())
			assert.True(t, call.template.Accepts(call.filter))

			switch tt.expectedKind {
			case delaystats.FilterExactDate:
				assert.Equal(t, monday, call.filter.Date())
			case delaystats.FilterTimeRange:
				assert.Equal(t, time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC), call.filter.Lower())
				assert.Equal(t, time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC), call.filter.Upper())
			case delaystats.FilterLineAndDate:
				assert.Equal(t, "1", call.filter.Line())
				assert.Equal(t, monday, call.filter.Date())
			}
		})
	}
}

func Test_Server_WritesRecordsInStoreOrder(t *testing.T) {
	// arrange
	store := &fakeStore{rows: []delaystats.Row{
		delaystats.NewRow("Altstadt", "4", 1.5),
		delaystats.NewRow("Hauptbahnhof", "", 3.0),
	}}
	server := newTestServer(t, store)

	// act
	recorder := get(t, server, "/stations")

	// assert
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `[
		{"name":"Altstadt","line":"4","avg_delay":1.5},
		{"name":"Hauptbahnhof","line":"","avg_delay":3}
	]`, recorder.Body.String())
}

func Test_Server_WritesIncidentDates(t *testing.T) {
	// arrange
	day := delaystats.Date{Year: 2024, Month: time.March, Day: 4}
	store := &fakeStore{rows: []delaystats.Row{delaystats.NewRow("Nord", "1", int64(4711), "signal failure", day)}}
	server := newTestServer(t, store)

	// act
	recorder := get(t, server, "/incidents?line=S%201&date=2024-03-04")

	// assert
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t,
		`[{"station":"Nord","line":"1","train_number":4711,"incident":"signal failure","date":"2024-03-04"}]`,
		recorder.Body.String(),
	)
	require.Len(t, store.calls, 1)
	assert.Equal(t, "1", store.calls[0].filter.Line(), "a full transportation name is reduced to its line code")
}

func Test_Server_When_ParametersAreInvalid(t *testing.T) {
	tests := []struct {
		name            string
		target          string
		expectedMessage string
	}{
		{name: "date_missing", target: "/stations/date", expectedMessage: `"date": is required`},
		{name: "date_malformed", target: "/lines/date?date=not-a-date", expectedMessage: `"date": must have the format YYYY-MM-DD`},
		{name: "date_impossible", target: "/infos/date?date=2024-02-30", expectedMessage: `"date"`},
		{name: "timeframe_upper_missing", target: "/lines/timeframe?lower_limit=2024-03-04%2006:00:00", expectedMessage: `"upper_limit": is required`},
		{name: "timeframe_date_only", target: "/stations/timeframe?lower_limit=2024-03-04&upper_limit=2024-03-05", expectedMessage: "YYYY-MM-DD hh:mm:ss"},
		{name: "timeframe_reversed", target: "/infos/timeframe?lower_limit=2024-03-05%2000:00:00&upper_limit=2024-03-04%2000:00:00", expectedMessage: `"upper_limit": must be after lower_limit`},
		{name: "timeframe_empty", target: "/lines/timeframe?lower_limit=2024-03-04%2006:00:00&upper_limit=2024-03-04%2006:00:00", expectedMessage: "upper_limit"},
		{name: "injection_in_date", target: "/stations/date?date=2024-03-04'%20OR%20'1'='1", expectedMessage: `"date"`},
		{name: "line_missing", target: "/incidents?date=2024-03-04", expectedMessage: `"line": is required`},
		{name: "line_not_alphanumeric", target: "/incidents?line=S1%27--&date=2024-03-04", expectedMessage: `"line": must be alphanumeric`},
		{name: "line_too_long", target: "/incidents?line=12345678901234567&date=2024-03-04", expectedMessage: `"line": must be at most 16 characters long`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// arrange
			store := &fakeStore{}
			server := newTestServer(t, store)

			// act
			recorder := get(t, server, tt.target)

			// assert
			assert.Equal(t, http.StatusBadRequest, recorder.Code)

			envelope := decodeEnvelope(t, recorder)
			assert.Equal(t, http.StatusBadRequest, envelope.Status)
			assert.Contains(t, envelope.Message, tt.expectedMessage)
			assert.Zero(t, store.callCount(), "invalid input must never reach the store")
		})
	}
}

func Test_Server_When_StoreFails(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "pool_exhausted",
			err:            errors.Join(delaystats.ErrPoolAcquisitionFailed, context.DeadlineExceeded),
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "query_failed",
			err:            errors.Join(delaystats.ErrQueryExecutionFailed, errors.New("connection reset")),
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "mapping_failed",
			err:            errors.Join(delaystats.ErrResultMappingFailed, errors.New("column 1: expected float")),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// arrange
			var logs bytes.Buffer
			store := &fakeStore{err: tt.err}
			server := newTestServer(t, store, httpapi.WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))

			// act
			recorder := get(t, server, "/lines")

			// assert
			assert.Equal(t, tt.expectedStatus, recorder.Code)

			envelope := decodeEnvelope(t, recorder)
			assert.Equal(t, tt.expectedStatus, envelope.Status)
			assert.Equal(t, delaystats.NormalizeError(tt.err).Message, envelope.Message)
			assert.Equal(t, 1, store.callCount(), "the store is attempted exactly once")
			assert.Contains(t, logs.String(), `"msg":"request failed"`)
		})
	}
}

func Test_Server_UnknownRouteAndMethod(t *testing.T) {
	// arrange
	server := newTestServer(t, &fakeStore{})

	// act
	notFound := get(t, server, "/trains")

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/stations", nil))

	// assert
	assert.Equal(t, http.StatusNotFound, notFound.Code)
	assert.Equal(t, delaystats.ErrorEnvelope{Status: 404, Message: "no route for /trains"}, decodeEnvelope(t, notFound))

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	assert.Equal(t, http.StatusMethodNotAllowed, decodeEnvelope(t, recorder).Status)
}

func Test_Server_Health(t *testing.T) {
	// arrange
	ready := newTestServer(t, &fakeStore{}, httpapi.WithPoolStats(fakePool{stats: postgresengine.PoolStats{Capacity: 8, Leased: 2}}))
	draining := newTestServer(t, &fakeStore{}, httpapi.WithPoolStats(fakePool{stats: postgresengine.PoolStats{Capacity: 8, Draining: true}}))
	bare := newTestServer(t, &fakeStore{})

	// act
	readyResponse := get(t, ready, "/health")
	drainingResponse := get(t, draining, "/health")
	bareResponse := get(t, bare, "/health")

	// assert
	assert.Equal(t, http.StatusOK, readyResponse.Code)
	assert.JSONEq(t, `{"status":"ok","pool":{"capacity":8,"leased":2,"draining":false}}`, readyResponse.Body.String())

	assert.Equal(t, http.StatusServiceUnavailable, drainingResponse.Code)
	assert.JSONEq(t, `{"status":"draining","pool":{"capacity":8,"leased":0,"draining":true}}`, drainingResponse.Body.String())

	assert.Equal(t, http.StatusOK, bareResponse.Code)
	assert.JSONEq(t, `{"status":"ok"}`, bareResponse.Body.String())
}

func Test_Server_PassesRequestContextToStore(t *testing.T) {
	// arrange
	store := &contextCapturingStore{}
	server, err := httpapi.NewServer(store)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/lines", nil).WithContext(ctx))

	// assert
	require.NotNil(t, store.ctx)
	assert.ErrorIs(t, store.ctx.Err(), context.Canceled)
	assert.NotEmpty(t, httpapi.RequestIDFromContext(store.ctx))
}

type contextCapturingStore struct {
	ctx context.Context
}

func (s *contextCapturingStore) Query(ctx context.Context, _ delaystats.Template, _ delaystats.Filter) ([]delaystats.Row, error) {
	s.ctx = ctx
	return nil, ctx.Err()
}
