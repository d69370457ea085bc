// Package localanalyst is a deterministic, rule-based stand-in for all
// three council roles, so the system is runnable without a live LLM
// integration. It derives scores directly from the Indicator & Trigger
// Engine's composite score and, when available, simple fundamental
// ratios — no network calls, no randomness.
package localanalyst

import (
	"context"
	"fmt"

	"github.com/aristath/trading-council/internal/council"
	"github.com/aristath/trading-council/internal/domain"
	"github.com/aristath/trading-council/internal/indicators"
	"github.com/google/uuid"
)

// Analyst implements council.Analyst for all three roles.
type Analyst struct{}

// New creates a local rule-based Analyst.
func New() *Analyst { return &Analyst{} }

// Respond dispatches to the role-specific rule set.
func (a *Analyst) Respond(_ context.Context, role domain.MeetingRole, priorMessages []domain.CouncilMessage, req council.Request) (domain.CouncilMessage, error) {
	switch role {
	case domain.RoleQuant:
		return a.quant(req), nil
	case domain.RoleFundamental:
		return a.fundamental(priorMessages, req), nil
	case domain.RoleModerator:
		return a.moderate(priorMessages, req), nil
	default:
		return domain.CouncilMessage{}, fmt.Errorf("localanalyst: unsupported role %q", role)
	}
}

func newMessage(role domain.MeetingRole, content string, data *domain.StructuredData) domain.CouncilMessage {
	return domain.CouncilMessage{
		ID:      uuid.NewString(),
		Role:    role,
		Speaker: string(role),
		Content: content,
		Data:    data,
	}
}

func (a *Analyst) quant(req council.Request) domain.CouncilMessage {
	score := 5
	if len(req.Triggers) > 0 {
		composite := indicators.CompositeScore(req.Triggers)
		score = composite / 10
		if score < 1 {
			score = 1
		}
		if score > 10 {
			score = 10
		}
	} else if req.Snapshot.Bars > 0 {
		// snapshot present without triggers precomputed: derive on the fly
		composite := indicators.CompositeScore(indicators.EvaluateTriggers(req.Snapshot))
		score = clampScore(composite / 10)
	}

	suggestedPct := percentFromScore(score)
	content := fmt.Sprintf("technical read for %s: composite-derived score %d/10, suggesting %.1f%% allocation", req.Symbol, score, suggestedPct)

	data := &domain.StructuredData{
		Score:            score,
		SuggestedPercent: suggestedPct,
	}
	if req.CurrentPrice > 0 {
		data.StopLoss = req.CurrentPrice * (1 - 0.07)
		data.TargetPrice = req.CurrentPrice * (1 + 0.15)
	}

	return newMessage(domain.RoleQuant, content, data)
}

func (a *Analyst) fundamental(prior []domain.CouncilMessage, req council.Request) domain.CouncilMessage {
	if !req.HasFundamentals {
		// no-data mode: a distinct, cautious prompt/response
		score := 5
		content := fmt.Sprintf("no fundamental data available for %s; defaulting to neutral stance", req.Symbol)
		return newMessage(domain.RoleFundamental, content, &domain.StructuredData{Score: score, SuggestedPercent: percentFromScore(score)})
	}

	f := req.Fundamentals
	score := 5
	switch {
	case f.ROE >= 15 && f.PER > 0 && f.PER <= 15 && f.DebtRatio < 100:
		score = 9
	case f.ROE >= 10 && f.DebtRatio < 150:
		score = 7
	case f.ROE < 0 || f.DebtRatio >= 300:
		score = 2
	}

	content := fmt.Sprintf("fundamentals for %s: ROE=%.1f%% PER=%.1f debt_ratio=%.1f%% -> score %d/10", req.Symbol, f.ROE, f.PER, f.DebtRatio, score)
	return newMessage(domain.RoleFundamental, content, &domain.StructuredData{Score: score, SuggestedPercent: percentFromScore(score)})
}

func (a *Analyst) moderate(prior []domain.CouncilMessage, req council.Request) domain.CouncilMessage {
	pct1 := req.PriorSuggestedPercent1
	pct2 := req.PriorSuggestedPercent2
	finalPct := (pct1 + pct2) / 2

	holdingDays := 10
	if req.TriggerSource == domain.TriggerSourceNews {
		holdingDays = 7
	}
	if holdingDays < 5 {
		holdingDays = 5
	}
	if holdingDays > 21 {
		holdingDays = 21
	}

	content := fmt.Sprintf("consensus for %s: averaging quant (%.1f%%) and fundamental (%.1f%%) suggestions to %.1f%% over %d days", req.Symbol, pct1, pct2, finalPct, holdingDays)
	return newMessage(domain.RoleModerator, content, &domain.StructuredData{
		SuggestedPercent: finalPct,
		HoldingDays:      holdingDays,
	})
}

func percentFromScore(score int) float64 {
	// Linear map: score 1 -> 0%, score 10 -> 25%.
	pct := float64(score-1) / 9 * 25
	if pct < 0 {
		pct = 0
	}
	return pct
}

func clampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
