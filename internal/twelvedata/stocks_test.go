package twelvedata_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lfarina18/metafar-challenge/internal/twelvedata"
)

func TestStockList(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "/stocks", req.URL.Path)
			require.Equal(t, "docs", req.URL.Query().Get("source"))
			require.Equal(t, "NYSE", req.URL.Query().Get("exchange"))
			return respond(http.StatusOK, fixture(t, "stocks_nasdaq.json"))(req)
		}).
		Times(1)

	// Arrange: setup a new client
	client, err := twelvedata.New("test-key", twelvedata.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act: call StockList
	res, err := client.StockList(t.Context(), "NYSE")
	require.NoError(t, err)

	// Assert: instruments should be unmarshalled from the fixture
	require.Len(t, res.Data, 2)
	require.Equal(t, "AAPL", res.Data[0].Symbol)
	require.Equal(t, "XNGS", res.Data[0].MICCode)
	require.NotNil(t, res.Data[0].Access)
	require.Equal(t, "Basic", res.Data[0].Access.Plan)
	require.Nil(t, res.Data[1].Access)
}

func TestStockList_DefaultExchange(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, twelvedata.DefaultExchange, req.URL.Query().Get("exchange"))
			return respond(http.StatusOK, `{"data":[],"status":"ok"}`)(req)
		}).
		Times(1)

	client, err := twelvedata.New("", twelvedata.WithHTTPClient(httpClient))
	require.NoError(t, err)

	res, err := client.StockList(t.Context(), "")
	require.NoError(t, err)
	require.Empty(t, res.Data)
}

func TestStockList_ErrMissingSymbol(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(respond(http.StatusOK, `{"data":[{"name":"Nameless"}],"status":"ok"}`)).
		Times(1)

	client, err := twelvedata.New("", twelvedata.WithHTTPClient(httpClient))
	require.NoError(t, err)

	res, err := client.StockList(t.Context(), "")
	require.Error(t, err)
	require.Nil(t, res)
}

func TestStockDetail(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			require.Equal(t, "AAPL", q.Get("symbol"))
			require.Equal(t, "docs", q.Get("source"))
			require.False(t, q.Has("exchange"))
			return respond(http.StatusOK, fixture(t, "stocks_nasdaq.json"))(req)
		}).
		Times(1)

	client, err := twelvedata.New("", twelvedata.WithHTTPClient(httpClient))
	require.NoError(t, err)

	res, err := client.StockDetail(t.Context(), "AAPL")
	require.NoError(t, err)
	require.NotEmpty(t, res.Data)
}
