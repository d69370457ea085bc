package httpbroker

import "github.com/aristath/trading-council/internal/broker"

var _ broker.Broker = (*Client)(nil)
