// Package council implements the three-round deliberation state machine
// that turns a trigger (news or quant) into an Investment Signal.
package council

import (
	"context"

	"github.com/aristath/trading-council/internal/domain"
)

// Request carries everything an analyst may need to produce one message.
type Request struct {
	Symbol          string
	Company         string
	Title           string
	TriggerSource   domain.TriggerSource
	TriggerScore    int
	CurrentPrice    float64
	AvailableAmount float64
	ProfitRate      float64 // only meaningful for sell/rebalance requests

	Snapshot domain.IndicatorSnapshot
	Triggers []domain.TriggerResult

	Fundamentals   FinancialSnapshot
	HasFundamentals bool

	PriorSuggestedPercent1 float64
	PriorSuggestedPercent2 float64
}

// FinancialSnapshot is the minimal external financial-report shape the
// fundamental analyst consumes, when available.
type FinancialSnapshot struct {
	PER, PBR, ROE float64
	RevenueGrowth float64
	DebtRatio     float64
}

// Analyst is one Council participant: quant, fundamental, or moderator.
type Analyst interface {
	Respond(ctx context.Context, role domain.MeetingRole, priorMessages []domain.CouncilMessage, req Request) (domain.CouncilMessage, error)
}
