package twelvedata

import (
	"context"
	"net/url"

	"github.com/lfarina18/metafar-challenge/internal/market"
)

// DefaultExchange is listed when StockList is given no exchange.
const DefaultExchange = "NASDAQ"

// StockListResponse is the /stocks payload.
type StockListResponse struct {
	Data   []market.Instrument `json:"data" validate:"required,dive"`
	Status string              `json:"status" validate:"eq=ok"`
}

// StockList lists every instrument of an exchange.
func (c *Client) StockList(ctx context.Context, exchange string) (*StockListResponse, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	params := url.Values{}
	params.Set("source", "docs")
	params.Set("exchange", exchange)

	var out StockListResponse
	if err := c.get(ctx, endpointStocks, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StockDetail returns the instrument records matching symbol. The same
// symbol can be listed on several venues, so Data may hold more than one.
func (c *Client) StockDetail(ctx context.Context, symbol string) (*StockListResponse, error) {
	params := url.Values{}
	params.Set("source", "docs")
	params.Set("symbol", symbol)

	var out StockListResponse
	if err := c.get(ctx, endpointStocks, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
