package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/trading-council/internal/council"
	"github.com/aristath/trading-council/internal/domain"
	"github.com/aristath/trading-council/internal/execution"
	"github.com/aristath/trading-council/internal/scheduler"
)

type stubStore struct {
	mu      sync.Mutex
	signals map[string]*domain.Signal
}

func newStubStore() *stubStore { return &stubStore{signals: make(map[string]*domain.Signal)} }

func (s *stubStore) Insert(_ context.Context, sig *domain.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[sig.ID] = sig
	return nil
}
func (s *stubStore) Get(_ context.Context, id string) (*domain.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signals[id], nil
}
func (s *stubStore) UpdateStatus(_ context.Context, id string, status domain.SignalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sig, ok := s.signals[id]; ok {
		sig.Status = status
	}
	return nil
}
func (s *stubStore) MarkExecuted(context.Context, string, float64, float64, string) error { return nil }
func (s *stubStore) List(_ context.Context, status domain.SignalStatus, limit int) ([]*domain.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Signal
	for _, sig := range s.signals {
		if sig.Status == status {
			out = append(out, sig)
		}
	}
	return out, nil
}
func (s *stubStore) AcquireProcessingLock(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}
func (s *stubStore) ReleaseProcessingLock(context.Context, string) error { return nil }
func (s *stubStore) RestorePending(context.Context) ([]*domain.Signal, error) { return nil, nil }

type stubJob struct{ ran bool }

func (j *stubJob) Name() string { return "stub_job" }
func (j *stubJob) Run() error   { j.ran = true; return nil }

func newTestServer(t *testing.T) (*Server, *stubStore, *stubJob) {
	t.Helper()
	store := newStubStore()
	store.signals["sig-1"] = &domain.Signal{ID: "sig-1", Symbol: "AAPL", Status: domain.SignalStatusPending}

	pipeline := execution.New(store, nil, nil, zerolog.Nop())
	job := &stubJob{}

	srv := New(Config{
		Log:      zerolog.Nop(),
		Port:     0,
		Signals:  store,
		Pipeline: pipeline,
		Meetings: council.NewRegistry(10),
		Jobs:     map[string]scheduler.Job{"stub_job": job},
	})
	return srv, store, job
}

func TestHandleHealthz_ReturnsOK(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleGetSignal_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/signals/missing", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleApproveSignal_TransitionsPendingToApproved(t *testing.T) {
	srv, store, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/signals/sig-1/approve", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	got, _ := store.Get(context.Background(), "sig-1")
	assert.Equal(t, domain.SignalStatusApproved, got.Status)
}

func TestHandleRunJob_UnknownJobReturns404(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/does_not_exist/run", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
