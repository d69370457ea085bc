package execution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aristath/trading-council/internal/domain"
	"github.com/aristath/trading-council/internal/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	signals map[string]*domain.Signal
	locks   map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{signals: make(map[string]*domain.Signal), locks: make(map[string]time.Time)}
}

func (m *memStore) Insert(_ context.Context, s *domain.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.signals[s.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*domain.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.signals[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status domain.SignalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.signals[id]; ok {
		s.Status = status
	}
	return nil
}

func (m *memStore) MarkExecuted(_ context.Context, id string, qty, price float64, orderNo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.signals[id]; ok {
		s.IsExecuted = true
		s.SuggestedQuantity = qty
	}
	return nil
}

func (m *memStore) List(_ context.Context, status domain.SignalStatus, limit int) ([]*domain.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Signal
	for _, s := range m.signals {
		if s.Status == status {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) AcquireProcessingLock(_ context.Context, id string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if until, ok := m.locks[id]; ok && until.After(time.Now()) {
		return false, nil
	}
	m.locks[id] = time.Now().Add(ttl)
	return true, nil
}

func (m *memStore) ReleaseProcessingLock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, id)
	return nil
}

func (m *memStore) RestorePending(_ context.Context) ([]*domain.Signal, error) {
	return m.List(context.Background(), domain.SignalStatusPending, 0)
}

type fakeBroker struct {
	result domain.OrderResult
	err    error
}

func (f *fakeBroker) GetStockPrice(context.Context, string) (*domain.StockPrice, error) {
	return &domain.StockPrice{Price: 70000}, nil
}
func (f *fakeBroker) GetDailyPrices(context.Context, string, *time.Time) ([]domain.PriceBar, error) {
	return nil, nil
}
func (f *fakeBroker) GetBalance(context.Context) (domain.Balance, error) { return domain.Balance{}, nil }
func (f *fakeBroker) GetHoldings(context.Context) ([]domain.Holding, error) { return nil, nil }
func (f *fakeBroker) GetRealizedPnL(context.Context, time.Time, time.Time) ([]domain.PnLItem, error) {
	return nil, nil
}
func (f *fakeBroker) PlaceOrder(context.Context, string, domain.OrderSide, float64, float64, domain.OrderType) (domain.OrderResult, error) {
	return f.result, f.err
}
func (f *fakeBroker) CancelOrder(context.Context, string, string, float64) (domain.OrderResult, error) {
	return domain.OrderResult{}, nil
}
func (f *fakeBroker) ModifyOrder(context.Context, string, string, float64, float64) (domain.OrderResult, error) {
	return domain.OrderResult{}, nil
}

func TestSubmit_AutoExecutesAboveConfidenceBar(t *testing.T) {
	store := newMemStore()
	b := &fakeBroker{result: domain.OrderResult{Status: domain.OrderStatusSubmitted, OrderNo: "ORD-1"}}
	bus := events.NewBus()
	mgr := events.NewManager(bus, zerolog.Nop())
	p := New(store, b, mgr, zerolog.Nop(), WithAutoExecute(true))

	sig := &domain.Signal{ID: "sig-1", Symbol: "005930", Action: domain.ActionBuy, Confidence: 0.8, Status: domain.SignalStatusPending, SuggestedQuantity: 10}
	err := p.Submit(context.Background(), sig, 0.7)
	require.NoError(t, err)

	got, _ := store.Get(context.Background(), "sig-1")
	assert.Equal(t, domain.SignalStatusAutoExecuted, got.Status)
	assert.True(t, got.IsExecuted)
}

func TestSubmit_BelowConfidenceBarStaysPending(t *testing.T) {
	store := newMemStore()
	b := &fakeBroker{result: domain.OrderResult{Status: domain.OrderStatusSubmitted}}
	p := New(store, b, nil, zerolog.Nop(), WithAutoExecute(true))

	sig := &domain.Signal{ID: "sig-2", Symbol: "005930", Action: domain.ActionBuy, Confidence: 0.3, Status: domain.SignalStatusPending, SuggestedQuantity: 10}
	require.NoError(t, p.Submit(context.Background(), sig, 0.7))

	got, _ := store.Get(context.Background(), "sig-2")
	assert.Equal(t, domain.SignalStatusPending, got.Status)
}

func TestExecute_BrokerRejectionRequeues(t *testing.T) {
	store := newMemStore()
	store.Insert(context.Background(), &domain.Signal{ID: "sig-3", Symbol: "005930", Action: domain.ActionBuy, Status: domain.SignalStatusApproved, SuggestedQuantity: 5})
	b := &fakeBroker{result: domain.OrderResult{Status: domain.OrderStatusRejected}}
	p := New(store, b, nil, zerolog.Nop())

	require.NoError(t, p.Execute(context.Background(), "sig-3", false))

	got, _ := store.Get(context.Background(), "sig-3")
	assert.Equal(t, domain.SignalStatusQueued, got.Status)
	assert.False(t, got.IsExecuted)
}

func TestExecute_DoubleSubmitBlockedByLock(t *testing.T) {
	store := newMemStore()
	store.Insert(context.Background(), &domain.Signal{ID: "sig-4", Symbol: "005930", Action: domain.ActionBuy, Status: domain.SignalStatusApproved, SuggestedQuantity: 5})
	ok1, _ := store.AcquireProcessingLock(context.Background(), "sig-4", time.Minute)
	ok2, _ := store.AcquireProcessingLock(context.Background(), "sig-4", time.Minute)
	assert.True(t, ok1)
	assert.False(t, ok2)

	// With the lock still held, Execute skips the signal without placing an order.
	p := New(store, &fakeBroker{result: domain.OrderResult{Status: domain.OrderStatusSubmitted}}, nil, zerolog.Nop())
	require.NoError(t, p.Execute(context.Background(), "sig-4", false))
	got, _ := store.Get(context.Background(), "sig-4")
	assert.False(t, got.IsExecuted)
	assert.Equal(t, domain.SignalStatusApproved, got.Status)
}

func TestApprove_RejectsWrongState(t *testing.T) {
	store := newMemStore()
	store.Insert(context.Background(), &domain.Signal{ID: "sig-5", Status: domain.SignalStatusExecuted})
	p := New(store, &fakeBroker{}, nil, zerolog.Nop())
	err := p.Approve(context.Background(), "sig-5")
	assert.Error(t, err)
}

func TestDrainQueue_RetriesQueuedSignals(t *testing.T) {
	store := newMemStore()
	store.Insert(context.Background(), &domain.Signal{ID: "sig-6", Symbol: "005930", Action: domain.ActionBuy, Status: domain.SignalStatusQueued, SuggestedQuantity: 5})
	b := &fakeBroker{result: domain.OrderResult{Status: domain.OrderStatusSubmitted, OrderNo: "ORD-6"}}
	p := New(store, b, nil, zerolog.Nop())

	drained, err := p.DrainQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, drained)

	got, _ := store.Get(context.Background(), "sig-6")
	assert.Equal(t, domain.SignalStatusExecuted, got.Status)
}
