// Package domain holds the core entities shared by the council, risk,
// execution and scheduler packages. Types here are plain data; behaviour
// lives in the package that owns the entity's lifecycle.
package domain

import "time"

// PriceBar is one OHLCV observation for one symbol. Prices are in the
// smallest market unit (KRW, not thousand-KRW).
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// StockPrice is a point-in-time snapshot from the Broker Adapter.
type StockPrice struct {
	Symbol      string    `json:"symbol"`
	Price       float64   `json:"price"`
	ChangePct   float64   `json:"change_pct"`
	Volume      int64     `json:"volume"`
	AsOf        time.Time `json:"as_of"`
}

// Holding is a read-only snapshot of a current position, cached ≤60s by
// the caller.
type Holding struct {
	Symbol        string  `json:"symbol"`
	Company       string  `json:"company"`
	Quantity      float64 `json:"quantity"`
	AvgBuyPrice   float64 `json:"avg_buy_price"`
	CurrentPrice  float64 `json:"current_price"`
	Evaluation    float64 `json:"evaluation"`
	ProfitLoss    float64 `json:"profit_loss"`
	ProfitRate    float64 `json:"profit_rate"` // percent, e.g. -3.2 for -3.2%
}

// Balance is a read-only account snapshot, cached ≤10s by the caller.
type Balance struct {
	TotalDeposit     float64 `json:"total_deposit"`
	AvailableAmount  float64 `json:"available_amount"`
	TotalPurchase    float64 `json:"total_purchase"`
	TotalEvaluation  float64 `json:"total_evaluation"`
	TotalProfitLoss  float64 `json:"total_profit_loss"`
	ProfitRate       float64 `json:"profit_rate"`
}

// TotalAssets is available cash plus the current evaluation of all
// holdings, the denominator for Gate A/B's percentage checks.
func (b Balance) TotalAssets() float64 {
	return b.AvailableAmount + b.TotalEvaluation
}

// PnLItem is one realised profit/loss record returned by GetRealizedPnL.
type PnLItem struct {
	Symbol     string    `json:"symbol"`
	ClosedAt   time.Time `json:"closed_at"`
	Quantity   float64   `json:"quantity"`
	ProfitLoss float64   `json:"profit_loss"`
}

// OrderSide is BUY or SELL.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType is LIMIT or MARKET.
type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

// OrderStatus is the Broker Adapter's report on a submitted order.
type OrderStatus string

const (
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusError     OrderStatus = "error"
)

// OrderResult is the Broker Adapter's response to Place/Cancel/ModifyOrder.
type OrderResult struct {
	Status  OrderStatus `json:"status"`
	OrderNo string      `json:"order_no,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Action is the categorical decision attached to a Signal.
type Action string

const (
	ActionStrongBuy   Action = "STRONG_BUY"
	ActionBuy         Action = "BUY"
	ActionHold        Action = "HOLD"
	ActionSell        Action = "SELL"
	ActionStrongSell  Action = "STRONG_SELL"
	ActionPartialSell Action = "PARTIAL_SELL"
)

// TriggerSource is where a council meeting originated.
type TriggerSource string

const (
	TriggerSourceNews      TriggerSource = "news"
	TriggerSourceQuant     TriggerSource = "quant"
	TriggerSourceSell      TriggerSource = "sell"
	TriggerSourceRebalance TriggerSource = "rebalance"
)

// SignalStatus is a node in the Execution Pipeline's state machine (§4.6).
type SignalStatus string

const (
	SignalStatusPending       SignalStatus = "PENDING"
	SignalStatusApproved      SignalStatus = "APPROVED"
	SignalStatusQueued        SignalStatus = "QUEUED"
	SignalStatusExecuted      SignalStatus = "EXECUTED"
	SignalStatusAutoExecuted  SignalStatus = "AUTO_EXECUTED"
	SignalStatusRejected      SignalStatus = "REJECTED"
	SignalStatusExpired       SignalStatus = "EXPIRED"
)

// Signal is the core decision record produced by a Meeting and owned by
// the Execution Pipeline once routed.
type Signal struct {
	ID                string        `json:"id"`
	DBID              int64         `json:"db_id,omitempty"`
	Symbol            string        `json:"symbol"`
	Company            string       `json:"company"`
	Action            Action        `json:"action"`
	AllocationPercent float64       `json:"allocation_percent"`
	SuggestedAmount   float64       `json:"suggested_amount"`
	SuggestedQuantity float64       `json:"suggested_quantity"`
	EntryPrice        float64       `json:"entry_price,omitempty"`
	TargetPrice       float64       `json:"target_price,omitempty"`
	StopLossPrice     float64       `json:"stop_loss_price,omitempty"`
	QuantSummary      string        `json:"quant_summary"`
	FundamentalSummary string       `json:"fundamental_summary"`
	ConsensusSummary  string        `json:"consensus_summary"`
	Confidence        float64       `json:"confidence"`
	QuantScore        int           `json:"quant_score"`
	FundamentalScore  int           `json:"fundamental_score"`
	Status            SignalStatus  `json:"status"`
	TriggerSource     TriggerSource `json:"trigger_source"`
	HoldingDeadline   *time.Time    `json:"holding_deadline,omitempty"`
	Triggers          []TriggerResult `json:"triggers,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	ExecutedAt        *time.Time    `json:"executed_at,omitempty"`
	IsExecuted        bool          `json:"is_executed"`
}

// MeetingRole is a Council participant.
type MeetingRole string

const (
	RoleQuant       MeetingRole = "gpt_quant"
	RoleFundamental MeetingRole = "claude_fundamental"
	RoleModerator   MeetingRole = "moderator"
	RoleSystem      MeetingRole = "gemini_judge"
)

// StructuredData is the tagged-variant payload an analyst message may
// carry, replacing the source's dynamic dict-shaped payloads (§9).
type StructuredData struct {
	Score             int     `json:"score,omitempty"`
	SuggestedPercent  float64 `json:"suggested_percent,omitempty"`
	TargetPrice       float64 `json:"target_price,omitempty"`
	StopLoss          float64 `json:"stop_loss,omitempty"`
	HoldingDays       int     `json:"holding_days,omitempty"`
}

// CouncilMessage is one append-only entry in a Meeting's transcript.
type CouncilMessage struct {
	ID        string          `json:"id"`
	Seq       int             `json:"seq"`
	Role      MeetingRole     `json:"role"`
	Speaker   string          `json:"speaker"`
	Content   string          `json:"content"`
	Data      *StructuredData `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Meeting is one invocation of the Council: a transcript and, if
// consensus was reached, a resulting Signal.
type Meeting struct {
	ID               string          `json:"id"`
	Symbol           string          `json:"symbol"`
	Company          string          `json:"company"`
	TriggerTitle     string          `json:"trigger_title"`
	TriggerScore     int             `json:"trigger_score"`
	TriggerSource    TriggerSource   `json:"trigger_source"`
	Messages         []CouncilMessage `json:"messages"`
	Round            int             `json:"round"`
	MaxRounds        int             `json:"max_rounds"`
	Signal           *Signal         `json:"signal,omitempty"`
	ConsensusReached bool            `json:"consensus_reached"`
	StartedAt        time.Time       `json:"started_at"`
	EndedAt          *time.Time      `json:"ended_at,omitempty"`
}

// AnalystFailures counts timeouts/errors recorded during deliberation,
// the input to the data-quality gate (§4.5). The meeting's own opening
// and closing framing messages are also RoleSystem but carry
// Speaker "system"; a fallback message instead carries the role it
// stood in for (e.g. "gpt_quant"), which is what distinguishes it here.
func (m *Meeting) AnalystFailures() int {
	failures := 0
	for _, msg := range m.Messages {
		if msg.Role != RoleSystem || msg.Speaker == "system" {
			continue
		}
		failures++
	}
	return failures
}

// DepthTier is one of the Cost & Depth Manager's analysis-depth tiers.
type DepthTier string

const (
	DepthQuick    DepthTier = "QUICK"
	DepthLight    DepthTier = "LIGHT"
	DepthStandard DepthTier = "STANDARD"
	DepthFull     DepthTier = "FULL"
	DepthDeep     DepthTier = "DEEP"
)

// SignalPriority influences depth-tier escalation in DetermineDepth.
type SignalPriority string

const (
	PriorityNormal   SignalPriority = "normal"
	PriorityCritical SignalPriority = "critical"
)

// CostRecord is an append-only entry in the Cost & Depth Manager's
// rolling history.
type CostRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	Depth           DepthTier `json:"depth"`
	Symbol          string    `json:"symbol"`
	EstimatedCostUSD float64  `json:"estimated_cost_usd"`
	Success         bool      `json:"success"`
}

// Session is the Clock & Session Calendar's classification of a timestamp.
type Session string

const (
	SessionClosed     Session = "CLOSED"
	SessionPreMarket  Session = "PRE_MARKET"
	SessionRegular    Session = "REGULAR"
	SessionPostMarket Session = "POST_MARKET"
)

// TriggerSignal is the direction a Trigger Result votes.
type TriggerSignal string

const (
	TriggerBullish TriggerSignal = "bullish"
	TriggerBearish TriggerSignal = "bearish"
	TriggerNeutral TriggerSignal = "neutral"
)

// TriggerStrength qualifies a Trigger Result's conviction.
type TriggerStrength string

const (
	StrengthVeryStrong TriggerStrength = "very_strong"
	StrengthStrong     TriggerStrength = "strong"
	StrengthModerate   TriggerStrength = "moderate"
	StrengthWeak       TriggerStrength = "weak"
	StrengthNone       TriggerStrength = "none"
)

// TriggerResult is one of the 42 rule-based technical checks (§4.3).
type TriggerResult struct {
	ID      string          `json:"id"` // "T-01".."T-42"
	Name    string          `json:"name"`
	Signal  TriggerSignal   `json:"signal"`
	Strength TriggerStrength `json:"strength"`
	Score   int             `json:"score"` // 0..10
	Details string          `json:"details"`
}

// IndicatorSnapshot is the set of scalar fields derived from a symbol's
// recent price bars (§3). Zero value is "no data".
type IndicatorSnapshot struct {
	Symbol string `json:"symbol"`
	Bars   int    `json:"bars"`

	MA5, MA20, MA60, MA120 float64

	TradingValue5, TradingValue20 float64
	TVRatio5to20                  float64
	VolumeSpike                   bool
	Volume5, Volume20             float64
	VolumeRatio5to20               float64

	OBV5, OBV10, OBV23, OBV56 float64

	AVWAP20, AVWAP60             float64
	AVWAP20PctDev, AVWAP60PctDev float64

	CMF, CLV float64

	ADX, PlusDI, MinusDI float64

	BollUpper, BollMiddle, BollLower, BollWidth float64
	BBWP      float64
	TTMSqueeze bool

	ATR, ATRPct float64

	MFI float64

	UDVR60 float64

	RVOL20, RVOL50 float64

	High52Week, Low52Week, Position52Week float64

	CurrentPrice float64
}

// ScanAction is the composite-score-derived action attached to a
// Signal Scan Result (§4.3's action mapping).
type ScanAction string

const (
	ScanActionStrongBuy  ScanAction = "STRONG_BUY"
	ScanActionBuy        ScanAction = "BUY"
	ScanActionHold       ScanAction = "HOLD"
	ScanActionSell       ScanAction = "SELL"
	ScanActionStrongSell ScanAction = "STRONG_SELL"
)

// SignalScanResult is the outcome of running the Indicator & Trigger
// Engine over one symbol during a quant scan.
type SignalScanResult struct {
	Symbol         string            `json:"symbol"`
	Snapshot       IndicatorSnapshot `json:"snapshot"`
	Triggers       []TriggerResult   `json:"triggers"`
	CompositeScore int               `json:"composite_score"` // 1..100
	Bullish        int               `json:"bullish_count"`
	Bearish        int               `json:"bearish_count"`
	Neutral        int               `json:"neutral_count"`
	Action         ScanAction        `json:"action"`
	ScannedAt      time.Time         `json:"scanned_at"`
}
