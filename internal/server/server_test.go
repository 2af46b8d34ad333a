package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskOffRotator/internal/model"
)

type stubSignal struct {
	sig *model.RegimeSignal
	at  time.Time
}

func (s *stubSignal) LatestSignal() (*model.RegimeSignal, time.Time, bool) {
	return s.sig, s.at, s.sig != nil
}

type stubState struct{ state model.PortfolioState }

func (s stubState) GetState() model.PortfolioState { return s.state }

func do(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s := New(":0", prometheus.NewRegistry(), nil, nil)
	rec := do(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSignal(t *testing.T) {
	src := &stubSignal{}
	s := New(":0", prometheus.NewRegistry(), src, nil)

	rec := do(t, s.Handler(), "/signal")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	src.sig = &model.RegimeSignal{Suspended: true, DaysSinceBear: 3, Window: 60, SuspendDays: 14}
	src.at = time.Date(2024, 3, 1, 14, 31, 0, 0, time.UTC)
	rec = do(t, s.Handler(), "/signal")
	require.Equal(t, http.StatusOK, rec.Code)

	var body signalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Signal.Suspended)
	assert.Equal(t, 3, body.Signal.DaysSinceBear)
	assert.True(t, body.EvaluatedAt.Equal(src.at))
}

func TestPortfolio(t *testing.T) {
	s := New(":0", prometheus.NewRegistry(), nil, stubState{state: model.PortfolioState{
		Allocation: model.AllocationSafe,
		Weights:    model.TargetWeights{"IEF": 0.5, "TLT": 0.5},
	}})
	rec := do(t, s.Handler(), "/portfolio")
	require.Equal(t, http.StatusOK, rec.Code)

	var state model.PortfolioState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, model.AllocationSafe, state.Allocation)
	assert.Equal(t, 0.5, state.Weights["TLT"])
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "riskoff_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	s := New(":0", reg, nil, nil)
	rec := do(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "riskoff_test_total 1"))
}

func TestMethodNotAllowed(t *testing.T) {
	s := New(":0", prometheus.NewRegistry(), nil, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
