package httpbroker

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/trading-council/internal/domain"
)

// GetStockPrice returns a point-in-time snapshot for symbol.
func (c *Client) GetStockPrice(ctx context.Context, symbol string) (*domain.StockPrice, error) {
	var resp struct {
		Symbol    string  `json:"symbol"`
		Price     float64 `json:"price"`
		ChangePct float64 `json:"change_pct"`
		Volume    int64   `json:"volume"`
	}
	if err := c.authenticatedGet(ctx, "/quote/"+symbol, &resp); err != nil {
		return nil, fmt.Errorf("get stock price %s: %w", symbol, err)
	}
	return &domain.StockPrice{
		Symbol:    resp.Symbol,
		Price:     resp.Price,
		ChangePct: resp.ChangePct,
		Volume:    resp.Volume,
		AsOf:      time.Now(),
	}, nil
}

// GetDailyPrices returns at least 260 daily bars, latest-first, ending at
// endDate (or today if nil).
func (c *Client) GetDailyPrices(ctx context.Context, symbol string, endDate *time.Time) ([]domain.PriceBar, error) {
	path := "/history/" + symbol
	if endDate != nil {
		path += "?end=" + endDate.Format("2006-01-02")
	}

	var resp struct {
		Bars []struct {
			Date   string  `json:"date"`
			Open   float64 `json:"open"`
			High   float64 `json:"high"`
			Low    float64 `json:"low"`
			Close  float64 `json:"close"`
			Volume int64   `json:"volume"`
		} `json:"bars"`
	}
	if err := c.authenticatedGet(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("get daily prices %s: %w", symbol, err)
	}

	bars := make([]domain.PriceBar, 0, len(resp.Bars))
	for _, b := range resp.Bars {
		date, _ := time.Parse("2006-01-02", b.Date)
		bars = append(bars, domain.PriceBar{
			Date: date, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		})
	}
	return bars, nil
}

// GetBalance returns the current account balance snapshot.
func (c *Client) GetBalance(ctx context.Context) (domain.Balance, error) {
	var resp domain.Balance
	if err := c.authenticatedGet(ctx, "/account/balance", &resp); err != nil {
		return domain.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return resp, nil
}

// GetHoldings returns all current positions.
func (c *Client) GetHoldings(ctx context.Context) ([]domain.Holding, error) {
	var resp struct {
		Holdings []domain.Holding `json:"holdings"`
	}
	if err := c.authenticatedGet(ctx, "/account/holdings", &resp); err != nil {
		return nil, fmt.Errorf("get holdings: %w", err)
	}
	return resp.Holdings, nil
}

// GetRealizedPnL returns realised profit/loss records in [start, end],
// transparently following the venue's continuation-token pagination.
func (c *Client) GetRealizedPnL(ctx context.Context, start, end time.Time) ([]domain.PnLItem, error) {
	var items []domain.PnLItem
	cursor := ""
	for {
		path := fmt.Sprintf("/account/realized-pnl?start=%s&end=%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
		if cursor != "" {
			path += "&cursor=" + cursor
		}

		var resp struct {
			Items      []domain.PnLItem `json:"items"`
			NextCursor string            `json:"next_cursor"`
		}
		if err := c.authenticatedGet(ctx, path, &resp); err != nil {
			return nil, fmt.Errorf("get realized pnl: %w", err)
		}
		items = append(items, resp.Items...)

		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	return items, nil
}

// PlaceOrder submits an order. Market orders are converted to a limit
// order at the currently quoted price before submission, since the
// upstream venue accepts only limit orders.
func (c *Client) PlaceOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity float64, price float64, orderType domain.OrderType) (domain.OrderResult, error) {
	if orderType == domain.OrderTypeMarket {
		quote, err := c.GetStockPrice(ctx, symbol)
		if err != nil {
			return domain.OrderResult{Status: domain.OrderStatusError, Message: err.Error()}, err
		}
		price = quote.Price
		orderType = domain.OrderTypeLimit
	}

	var resp domain.OrderResult
	body := map[string]interface{}{
		"symbol": symbol, "side": side, "quantity": quantity, "price": price, "order_type": orderType,
	}
	if err := c.authenticatedPost(ctx, "/orders", body, &resp); err != nil {
		return domain.OrderResult{Status: domain.OrderStatusError, Message: err.Error()}, err
	}
	return resp, nil
}

// CancelOrder cancels a previously submitted order.
func (c *Client) CancelOrder(ctx context.Context, orderNo, symbol string, quantity float64) (domain.OrderResult, error) {
	var resp domain.OrderResult
	body := map[string]interface{}{"order_no": orderNo, "symbol": symbol, "quantity": quantity}
	if err := c.authenticatedPost(ctx, "/orders/cancel", body, &resp); err != nil {
		return domain.OrderResult{Status: domain.OrderStatusError, Message: err.Error()}, err
	}
	return resp, nil
}

// ModifyOrder changes the quantity/price of a previously submitted order.
func (c *Client) ModifyOrder(ctx context.Context, orderNo, symbol string, quantity, price float64) (domain.OrderResult, error) {
	var resp domain.OrderResult
	body := map[string]interface{}{"order_no": orderNo, "symbol": symbol, "quantity": quantity, "price": price}
	if err := c.authenticatedPost(ctx, "/orders/modify", body, &resp); err != nil {
		return domain.OrderResult{Status: domain.OrderStatusError, Message: err.Error()}, err
	}
	return resp, nil
}
