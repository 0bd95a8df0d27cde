package twelvedata

import (
	"context"
	"net/url"

	"github.com/lfarina18/metafar-challenge/internal/market"
)

// Quote fetches the latest quote snapshot for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*market.QuoteSnapshot, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var out market.QuoteSnapshot
	if err := c.get(ctx, endpointQuote, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
