package council

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aristath/trading-council/internal/domain"
	"github.com/aristath/trading-council/internal/events"
	"github.com/aristath/trading-council/internal/riskgate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// analystTimeout bounds every individual analyst invocation; on timeout
// or error a deterministic fallback message is appended in its place.
const analystTimeout = 60 * time.Second

// CostGate is the subset of the Cost & Depth Manager the Orchestrator
// needs: pick a depth tier before dispatching to the council, and
// record the spend once the meeting concludes.
type CostGate interface {
	DetermineDepth(now time.Time, newsScore int, symbol string, isHolding bool, portfolioWeight float64, priority domain.SignalPriority) (domain.DepthTier, string)
	RecordAnalysis(now time.Time, symbol string, tier domain.DepthTier, success bool)
}

// Orchestrator runs the three-round council deliberation and produces
// one Investment Signal per call. It never inspects analyst internals
// beyond the structured fields the state machine requires.
type Orchestrator struct {
	analyst  Analyst
	events   *events.Manager
	limits   riskgate.Limits
	costGate CostGate
	registry *Registry
	log      zerolog.Logger
}

// Option configures an Orchestrator at construction.
type Option func(*Orchestrator)

// WithCostGate wires the Cost & Depth Manager into StartMeeting so it
// gates how much of the council runs per the configured budget. Without
// one, every meeting runs at FULL depth (the prior behavior).
func WithCostGate(cg CostGate) Option {
	return func(o *Orchestrator) { o.costGate = cg }
}

// New creates an Orchestrator.
func New(analyst Analyst, evt *events.Manager, limits riskgate.Limits, log zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		analyst:  analyst,
		events:   evt,
		limits:   limits,
		registry: NewRegistry(500),
		log:      log.With().Str("component", "council").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Registry exposes the in-memory recent-meetings lookup the server uses
// to serve GET /api/meetings/{id}.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// StartMeeting runs the council deliberation for symbol at the depth tier
// the CostGate allows (FULL when no CostGate is wired: two analyst rounds
// plus the moderator's round 3; QUICK skips the analysts entirely) and
// returns the resulting Meeting (with an attached Signal if consensus was
// reached cleanly through the data-quality gate).
func (o *Orchestrator) StartMeeting(ctx context.Context, symbol, company, title string, triggerScore int, availableAmount, currentPrice float64, triggerSource domain.TriggerSource, snapshot domain.IndicatorSnapshot, triggers []domain.TriggerResult) *domain.Meeting {
	now := time.Now()
	meeting := &domain.Meeting{
		ID:            uuid.NewString(),
		Symbol:        symbol,
		Company:       company,
		TriggerTitle:  title,
		TriggerScore:  triggerScore,
		TriggerSource: triggerSource,
		MaxRounds:     3,
		StartedAt:     now,
	}

	tier := domain.DepthFull
	if o.costGate != nil {
		var reason string
		tier, reason = o.costGate.DetermineDepth(now, triggerScore, symbol, false, 0, domain.PriorityNormal)
		o.log.Debug().Str("symbol", symbol).Str("tier", string(tier)).Str("reason", reason).Msg("depth determined")
	}

	o.appendMessage(meeting, domain.CouncilMessage{
		ID: uuid.NewString(), Role: domain.RoleSystem, Speaker: "system",
		Content: fmt.Sprintf("convening council for %s because of %s (depth %s)", symbol, title, tier),
	})

	if tier == domain.DepthQuick {
		if o.costGate != nil {
			o.costGate.RecordAnalysis(now, symbol, tier, true)
		}
		o.closeMeeting(meeting, "council skipped: QUICK depth, no analyst call", now)
		return meeting
	}

	baseReq := Request{
		Symbol: symbol, Company: company, Title: title,
		TriggerSource: triggerSource, TriggerScore: triggerScore,
		CurrentPrice: currentPrice, AvailableAmount: availableAmount,
		Snapshot: snapshot, Triggers: triggers,
	}

	meeting.Round = 1
	msg1 := o.call(ctx, meeting, domain.RoleQuant, baseReq)
	pct1 := dataPercent(msg1)
	score1 := dataScore(msg1)
	msg3 := msg1 // the round-2 quant message, when one runs; defaults to round 1's

	pct2 := pct1
	score2 := score1
	if tier != domain.DepthLight {
		msg2 := o.call(ctx, meeting, domain.RoleFundamental, baseReq)
		pct2 = dataPercent(msg2)
		score2 = dataScore(msg2)
	}

	finalPct := (pct1 + pct2) / 2

	if tier == domain.DepthFull || tier == domain.DepthDeep {
		meeting.Round = 2
		respondReq := baseReq
		respondReq.PriorSuggestedPercent1 = pct1
		respondReq.PriorSuggestedPercent2 = pct2
		msg3 = o.call(ctx, meeting, domain.RoleQuant, respondReq)
		if p := dataPercent(msg3); p != 0 {
			pct1 = p
		}
		if s := dataScore(msg3); s != 0 {
			score1 = s
		}

		msg4 := o.call(ctx, meeting, domain.RoleFundamental, respondReq)
		if p := dataPercent(msg4); p != 0 {
			pct2 = p
		}
		if s := dataScore(msg4); s != 0 {
			score2 = s
		}

		if tier == domain.DepthDeep {
			extraReq := respondReq
			extraReq.PriorSuggestedPercent1 = pct1
			extraReq.PriorSuggestedPercent2 = pct2
			msg3 = o.call(ctx, meeting, domain.RoleQuant, extraReq)
			if p := dataPercent(msg3); p != 0 {
				pct1 = p
			}
			if s := dataScore(msg3); s != 0 {
				score1 = s
			}
			msgExtra := o.call(ctx, meeting, domain.RoleFundamental, extraReq)
			if p := dataPercent(msgExtra); p != 0 {
				pct2 = p
			}
			if s := dataScore(msgExtra); s != 0 {
				score2 = s
			}
		}

		meeting.Round = 3
		consensusReq := baseReq
		consensusReq.PriorSuggestedPercent1 = pct1
		consensusReq.PriorSuggestedPercent2 = pct2
		msg5 := o.call(ctx, meeting, domain.RoleModerator, consensusReq)

		if p := dataPercent(msg5); p != 0 {
			finalPct = p
		} else {
			finalPct = (pct1 + pct2) / 2
		}
	}

	confidence := float64(score1+score2) / 20

	if block := riskgate.DataQualityGate(meeting.AnalystFailures()); block != nil {
		o.log.Warn().Str("symbol", symbol).Str("meeting_id", meeting.ID).Msg(block.Error())
		if o.costGate != nil {
			o.costGate.RecordAnalysis(now, symbol, tier, false)
		}
		o.closeMeeting(meeting, fmt.Sprintf("council discarded: %s", block.Error()), now)
		return meeting
	}

	if o.costGate != nil {
		o.costGate.RecordAnalysis(now, symbol, tier, true)
	}

	action := riskgate.DetermineAction(finalPct, score1, score2, triggerScore, triggerSource)
	stopLoss := riskgate.ClampStopLoss(o.limits, currentPrice, dataStop(msg3))
	target := riskgate.ClampTargetPrice(o.limits, currentPrice, dataTarget(msg3))

	suggestedAmount := math.Round(availableAmount * finalPct / 100)
	suggestedQuantity := 0.0
	if currentPrice > 0 {
		suggestedQuantity = suggestedAmount / currentPrice
	}

	signal := &domain.Signal{
		ID:                uuid.NewString(),
		Symbol:            symbol,
		Company:           company,
		Action:            action,
		AllocationPercent: finalPct,
		SuggestedAmount:   suggestedAmount,
		SuggestedQuantity: suggestedQuantity,
		EntryPrice:        currentPrice,
		TargetPrice:       target,
		StopLossPrice:     stopLoss,
		Confidence:        confidence,
		QuantScore:        score1,
		FundamentalScore:  score2,
		Status:            domain.SignalStatusPending,
		TriggerSource:     triggerSource,
		Triggers:          triggers,
		CreatedAt:         now,
	}
	meeting.Signal = signal

	if o.events != nil {
		o.events.EmitTyped(events.SignalCreated, "council", &events.SignalCreatedData{
			SignalID: signal.ID, Symbol: symbol, Action: string(action),
			AllocationPercent: finalPct, Status: string(signal.Status),
		})
	}

	o.closeMeeting(meeting, fmt.Sprintf("decision: %s at %.1f%% allocation", action, finalPct), now)
	return meeting
}

// StartSellMeeting is a one-round LIGHT variant consulting only the
// quant analyst, used to evaluate a position already held.
func (o *Orchestrator) StartSellMeeting(ctx context.Context, symbol, company, reason string, holdingsQty, avgBuyPrice, currentPrice float64) *domain.Meeting {
	now := time.Now()
	meeting := &domain.Meeting{
		ID: uuid.NewString(), Symbol: symbol, Company: company,
		TriggerTitle: reason, TriggerSource: domain.TriggerSourceSell, MaxRounds: 1, StartedAt: now,
	}

	o.appendMessage(meeting, domain.CouncilMessage{
		ID: uuid.NewString(), Role: domain.RoleSystem, Speaker: "system",
		Content: fmt.Sprintf("convening sell review for %s: %s", symbol, reason),
	})

	profitRate := 0.0
	if avgBuyPrice > 0 {
		profitRate = (currentPrice - avgBuyPrice) / avgBuyPrice * 100
	}

	req := Request{Symbol: symbol, Company: company, Title: reason, TriggerSource: domain.TriggerSourceSell, CurrentPrice: currentPrice, ProfitRate: profitRate}
	meeting.Round = 1
	msg := o.call(ctx, meeting, domain.RoleQuant, req)
	score := dataScore(msg)

	sellPercent := dataPercent(msg)
	switch {
	case profitRate < -o.limits.StopLossPct:
		sellPercent = 100
	case profitRate > o.limits.TakeProfitPct:
		sellPercent = 50
	}

	action := domain.ActionSell
	if sellPercent > 0 && sellPercent < 100 {
		action = domain.ActionPartialSell
	}

	signal := &domain.Signal{
		ID: uuid.NewString(), Symbol: symbol, Company: company, Action: action,
		AllocationPercent: sellPercent, Confidence: float64(score) / 10,
		QuantScore: score, EntryPrice: currentPrice, Status: domain.SignalStatusPending,
		TriggerSource: domain.TriggerSourceSell, CreatedAt: now,
	}
	meeting.Signal = signal

	if o.events != nil {
		o.events.EmitTyped(events.SignalCreated, "council", &events.SignalCreatedData{
			SignalID: signal.ID, Symbol: symbol, Action: string(action),
			AllocationPercent: sellPercent, Status: string(signal.Status),
		})
	}

	o.closeMeeting(meeting, fmt.Sprintf("sell decision: %s at %.1f%%", action, sellPercent), now)
	return meeting
}

// RebalanceReview is the outcome of StartRebalanceReview: it does not
// produce a Signal, only an update to an existing one.
type RebalanceReview struct {
	Score        int
	NewTarget    float64
	NewStop      float64
	RecommendSell bool
}

// StartRebalanceReview is a LIGHT quant-only pass re-evaluating an
// already-held position's target/stop prices.
func (o *Orchestrator) StartRebalanceReview(ctx context.Context, symbol, company string, holdingsQty, avgBuyPrice, currentPrice, prevTarget, prevStop float64) RebalanceReview {
	meeting := &domain.Meeting{ID: uuid.NewString(), Symbol: symbol, Company: company, TriggerSource: domain.TriggerSourceRebalance, MaxRounds: 1, StartedAt: time.Now()}
	req := Request{Symbol: symbol, Company: company, TriggerSource: domain.TriggerSourceRebalance, CurrentPrice: currentPrice}

	msg := o.call(ctx, meeting, domain.RoleQuant, req)
	score := dataScore(msg)

	return RebalanceReview{
		Score:         score,
		NewTarget:     riskgate.ClampTargetPrice(o.limits, currentPrice, dataTarget(msg)),
		NewStop:       riskgate.ClampStopLoss(o.limits, currentPrice, dataStop(msg)),
		RecommendSell: score <= 3,
	}
}

func (o *Orchestrator) call(ctx context.Context, meeting *domain.Meeting, role domain.MeetingRole, req Request) domain.CouncilMessage {
	timeoutCtx, cancel := context.WithTimeout(ctx, analystTimeout)
	defer cancel()

	resultCh := make(chan domain.CouncilMessage, 1)
	errCh := make(chan error, 1)
	go func() {
		msg, err := o.analyst.Respond(timeoutCtx, role, meeting.Messages, req)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- msg
	}()

	var msg domain.CouncilMessage
	select {
	case msg = <-resultCh:
	case <-errCh:
		msg = o.fallbackMessage(role, req)
	case <-timeoutCtx.Done():
		msg = o.fallbackMessage(role, req)
	}

	o.appendMessage(meeting, msg)
	return msg
}

func (o *Orchestrator) fallbackMessage(role domain.MeetingRole, req Request) domain.CouncilMessage {
	suggestedPct := 30.0
	if req.TriggerSource == domain.TriggerSourceSell {
		if req.ProfitRate < 0 {
			suggestedPct = 100
		} else {
			suggestedPct = 30
		}
	}
	return domain.CouncilMessage{
		ID: uuid.NewString(), Role: domain.RoleSystem, Speaker: string(role),
		Content: fmt.Sprintf("[system warning] %s analyst timed out or errored, using fallback", role),
		Data:    &domain.StructuredData{Score: 5, SuggestedPercent: suggestedPct},
	}
}

func (o *Orchestrator) appendMessage(meeting *domain.Meeting, msg domain.CouncilMessage) {
	msg.Seq = len(meeting.Messages)
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	meeting.Messages = append(meeting.Messages, msg)

	if o.events != nil {
		o.events.EmitTyped(events.MeetingUpdate, "council", &events.MeetingUpdateData{
			MeetingID: meeting.ID, Symbol: meeting.Symbol, Round: meeting.Round,
			MessageCount: len(meeting.Messages), ConsensusReached: meeting.ConsensusReached,
		})
	}
}

func (o *Orchestrator) closeMeeting(meeting *domain.Meeting, summary string, now time.Time) {
	meeting.ConsensusReached = meeting.Signal != nil
	o.appendMessage(meeting, domain.CouncilMessage{
		ID: uuid.NewString(), Role: domain.RoleSystem, Speaker: "system", Content: summary,
	})
	ended := time.Now()
	meeting.EndedAt = &ended
	o.registry.Put(meeting)
}

func dataPercent(msg domain.CouncilMessage) float64 {
	if msg.Data == nil {
		return 0
	}
	return msg.Data.SuggestedPercent
}

func dataScore(msg domain.CouncilMessage) int {
	if msg.Data == nil {
		return 5
	}
	return msg.Data.Score
}

func dataTarget(msg domain.CouncilMessage) float64 {
	if msg.Data == nil {
		return 0
	}
	return msg.Data.TargetPrice
}

func dataStop(msg domain.CouncilMessage) float64 {
	if msg.Data == nil {
		return 0
	}
	return msg.Data.StopLoss
}
