package twelvedata_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lfarina18/metafar-challenge/internal/twelvedata"
)

func TestQuote_WithFixture(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(respond(http.StatusOK, fixture(t, "quote_aapl.json"))).
		Times(1)

	client, err := twelvedata.New("", twelvedata.WithHTTPClient(httpClient))
	require.NoError(t, err)

	quote, err := client.Quote(t.Context(), "AAPL")
	require.NoError(t, err)

	require.Equal(t, "243.85001", quote.Close)
	require.Equal(t, int64(1735830000), quote.Timestamp)
	require.NotNil(t, quote.IsMarketOpen)
	require.False(t, *quote.IsMarketOpen)
	require.NotNil(t, quote.FiftyTwoWeek)
	require.Equal(t, "164.08000", quote.FiftyTwoWeek.Low)
}

func TestQuote_ErrMissingPrice(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(respond(http.StatusOK, `{"symbol":"AAPL","datetime":"2025-01-02","timestamp":1735830000}`)).
		Times(1)

	client, err := twelvedata.New("", twelvedata.WithHTTPClient(httpClient))
	require.NoError(t, err)

	quote, err := client.Quote(t.Context(), "AAPL")
	require.Error(t, err)
	require.Nil(t, quote)
}
