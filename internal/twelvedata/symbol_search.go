package twelvedata

import (
	"context"
	"net/url"
	"strconv"

	"github.com/lfarina18/metafar-challenge/internal/market"
)

// SymbolSearchResponse is the /symbol_search payload.
type SymbolSearchResponse struct {
	Data   []market.SymbolMatch `json:"data" validate:"required,dive"`
	Status string               `json:"status" validate:"eq=ok"`
}

// SymbolSearch returns candidates for a free text query, ranked upstream.
func (c *Client) SymbolSearch(ctx context.Context, query string, outputSize int) (*SymbolSearchResponse, error) {
	if outputSize <= 0 {
		outputSize = DefaultOutputSize
	}
	params := url.Values{}
	params.Set("symbol", query)
	params.Set("outputsize", strconv.Itoa(outputSize))

	var out SymbolSearchResponse
	if err := c.get(ctx, endpointSymbolSearch, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
