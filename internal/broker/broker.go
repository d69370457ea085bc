// Package broker defines the Broker Adapter contract the council's
// execution pipeline and monitoring scheduler depend on.
package broker

import (
	"context"
	"time"

	"github.com/aristath/trading-council/internal/domain"
)

// Broker is the capability set required from any brokerage integration.
type Broker interface {
	GetStockPrice(ctx context.Context, symbol string) (*domain.StockPrice, error)
	GetDailyPrices(ctx context.Context, symbol string, endDate *time.Time) ([]domain.PriceBar, error)
	GetBalance(ctx context.Context) (domain.Balance, error)
	GetHoldings(ctx context.Context) ([]domain.Holding, error)
	GetRealizedPnL(ctx context.Context, start, end time.Time) ([]domain.PnLItem, error)
	PlaceOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity float64, price float64, orderType domain.OrderType) (domain.OrderResult, error)
	CancelOrder(ctx context.Context, orderNo, symbol string, quantity float64) (domain.OrderResult, error)
	ModifyOrder(ctx context.Context, orderNo, symbol string, quantity, price float64) (domain.OrderResult, error)
}
