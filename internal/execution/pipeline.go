package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/trading-council/internal/broker"
	"github.com/aristath/trading-council/internal/domain"
	"github.com/aristath/trading-council/internal/events"
	"github.com/aristath/trading-council/internal/riskgate"
	"github.com/rs/zerolog"
)

// defaultLockTTL bounds how long a signal may sit claimed by one worker
// before another may reclaim it (e.g. after a crash mid-submission).
const defaultLockTTL = 5 * time.Minute

// Pipeline drives a Signal from PENDING through to a terminal state,
// submitting BUY/SELL orders through the Broker Adapter once a signal is
// approved (manually, or automatically when auto-execute is enabled).
type Pipeline struct {
	store        SignalStore
	broker       broker.Broker
	events       *events.Manager
	log          zerolog.Logger
	autoExecute  bool
	lockTTL      time.Duration
	limits       riskgate.Limits
}

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

// WithAutoExecute enables the AUTO_EXECUTED path for signals above the
// configured confidence bar, bypassing manual approval.
func WithAutoExecute(enabled bool) Option {
	return func(p *Pipeline) { p.autoExecute = enabled }
}

// WithLockTTL overrides the default processing-lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(p *Pipeline) { p.lockTTL = ttl }
}

// WithGateLimits supplies the policy thresholds Gate A/B/C evaluate
// against before any BUY signal reaches the broker.
func WithGateLimits(limits riskgate.Limits) Option {
	return func(p *Pipeline) { p.limits = limits }
}

// New creates a Pipeline.
func New(store SignalStore, b broker.Broker, evt *events.Manager, log zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		store: store, broker: b, events: evt,
		log: log.With().Str("component", "execution").Logger(),
		lockTTL: defaultLockTTL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit persists a freshly created signal and, if auto-execute applies,
// immediately routes it to execution instead of waiting for approval.
func (p *Pipeline) Submit(ctx context.Context, sig *domain.Signal, confidenceBar float64) error {
	if err := p.store.Insert(ctx, sig); err != nil {
		return err
	}

	if p.autoExecute && sig.Confidence >= confidenceBar && sig.Action != domain.ActionHold {
		return p.Execute(ctx, sig.ID, true)
	}
	return nil
}

// Approve transitions a PENDING signal to APPROVED, the precondition for
// manual execution.
func (p *Pipeline) Approve(ctx context.Context, id string) error {
	sig, err := p.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if sig == nil {
		return fmt.Errorf("execution: signal %s not found", id)
	}
	if sig.Status != domain.SignalStatusPending {
		return fmt.Errorf("execution: signal %s is %s, not PENDING", id, sig.Status)
	}
	if err := p.store.UpdateStatus(ctx, id, domain.SignalStatusApproved); err != nil {
		return err
	}
	if p.events != nil {
		p.events.EmitTyped(events.SignalApproved, "execution", &events.SignalApprovedData{SignalID: id})
	}
	return nil
}

// Reject transitions a PENDING or APPROVED signal to REJECTED.
func (p *Pipeline) Reject(ctx context.Context, id, reason string) error {
	if err := p.store.UpdateStatus(ctx, id, domain.SignalStatusRejected); err != nil {
		return err
	}
	if p.events != nil {
		p.events.EmitTyped(events.SignalRejected, "execution", &events.SignalRejectedData{SignalID: id, Reason: reason})
	}
	return nil
}

// Execute acquires the per-signal processing lock, submits the order to
// the Broker Adapter, and marks the signal EXECUTED or AUTO_EXECUTED.
// On broker rejection the signal is requeued (QUEUED) for the next
// drainer pass rather than marked terminal, since the rejection may be
// transient (e.g. a momentary price-limit lockout).
func (p *Pipeline) Execute(ctx context.Context, id string, auto bool) error {
	acquired, err := p.store.AcquireProcessingLock(ctx, id, p.lockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		p.log.Debug().Str("signal_id", id).Msg("processing lock held, skipping")
		return nil
	}
	defer p.store.ReleaseProcessingLock(ctx, id)

	sig, err := p.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if sig == nil {
		return fmt.Errorf("execution: signal %s not found", id)
	}
	if sig.IsExecuted {
		p.log.Debug().Str("signal_id", id).Msg("already executed, skipping")
		return nil
	}

	side := domain.OrderSideBuy
	if sig.Action == domain.ActionSell || sig.Action == domain.ActionPartialSell || sig.Action == domain.ActionStrongSell {
		side = domain.OrderSideSell
	}

	if side == domain.OrderSideBuy {
		if block := p.checkGates(ctx, sig); block != nil {
			p.log.Warn().Str("signal_id", id).Str("gate", block.Gate).Msg(block.Error())
			_ = p.store.UpdateStatus(ctx, id, domain.SignalStatusRejected)
			if p.events != nil {
				p.events.EmitTyped(events.GateBlocked, "execution", &events.SignalRejectedData{
					SignalID: id, Reason: block.Reason, Gate: block.Gate,
				})
			}
			return block
		}
	}

	result, err := p.broker.PlaceOrder(ctx, sig.Symbol, side, sig.SuggestedQuantity, 0, domain.OrderTypeMarket)
	if err != nil {
		p.log.Error().Err(err).Str("signal_id", id).Msg("order submission failed")
		_ = p.store.UpdateStatus(ctx, id, domain.SignalStatusQueued)
		return err
	}

	if result.Status != domain.OrderStatusSubmitted {
		p.log.Warn().Str("signal_id", id).Str("broker_status", string(result.Status)).Msg("order not accepted, requeuing")
		return p.store.UpdateStatus(ctx, id, domain.SignalStatusQueued)
	}

	// PARTIAL_SELL is considered executed as soon as the broker reports
	// submission; the remaining position is tracked by a future signal.
	if err := p.store.MarkExecuted(ctx, id, sig.SuggestedQuantity, sig.TargetPrice, result.OrderNo); err != nil {
		return err
	}

	status := domain.SignalStatusExecuted
	if auto {
		status = domain.SignalStatusAutoExecuted
	}
	if err := p.store.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	if p.events != nil {
		p.events.EmitTyped(events.SignalExecuted, "execution", &events.SignalExecutedData{
			SignalID: id, OrderNo: result.OrderNo, ExecutedAt: time.Now().Unix(),
		})
	}
	return nil
}

// checkGates evaluates Gate A/B/C for a proposed BUY against the
// broker's current balance and holdings. A broker error during
// evaluation is fail-safe blocked with gate name "error".
func (p *Pipeline) checkGates(ctx context.Context, sig *domain.Signal) *riskgate.GateBlock {
	balance, err := p.broker.GetBalance(ctx)
	if err != nil {
		return &riskgate.GateBlock{Gate: "error", Reason: fmt.Sprintf("balance lookup failed: %v", err)}
	}
	holdings, err := p.broker.GetHoldings(ctx)
	if err != nil {
		return &riskgate.GateBlock{Gate: "error", Reason: fmt.Sprintf("holdings lookup failed: %v", err)}
	}
	held := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		held[h.Symbol] = true
	}
	return riskgate.CheckGates(p.limits, sig.Symbol, sig.SuggestedAmount, balance, held)
}

// DrainQueue retries every QUEUED and APPROVED signal once, intended to
// run on a short periodic schedule so transient broker rejections don't
// strand a signal indefinitely.
func (p *Pipeline) DrainQueue(ctx context.Context) (int, error) {
	drained := 0
	for _, status := range []domain.SignalStatus{domain.SignalStatusApproved, domain.SignalStatusQueued} {
		sigs, err := p.store.List(ctx, status, 50)
		if err != nil {
			return drained, err
		}
		for _, sig := range sigs {
			if err := p.Execute(ctx, sig.ID, false); err != nil {
				p.log.Error().Err(err).Str("signal_id", sig.ID).Msg("drain execute failed")
				continue
			}
			drained++
		}
	}
	return drained, nil
}

// RestoreOnStartup reads every PENDING/QUEUED/APPROVED signal with
// quantity > 0 left over from a prior run, logs each one and returns the
// count. Statuses are left as stored: QUEUED and APPROVED signals are
// picked up by the next DrainQueue pass, PENDING ones still await approval.
func (p *Pipeline) RestoreOnStartup(ctx context.Context) (int, error) {
	sigs, err := p.store.RestorePending(ctx)
	if err != nil {
		return 0, err
	}
	for _, sig := range sigs {
		p.log.Info().Str("signal_id", sig.ID).Str("status", string(sig.Status)).Msg("restored pending signal")
	}
	return len(sigs), nil
}
