package server

import "github.com/aristath/trading-council/internal/domain"

func statusOf(s string) domain.SignalStatus {
	return domain.SignalStatus(s)
}
