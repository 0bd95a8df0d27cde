package twelvedata_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lfarina18/metafar-challenge/internal/schema"
	"github.com/lfarina18/metafar-challenge/internal/twelvedata"
)

func respond(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("fixtures/" + name)
	require.NoError(t, err)
	return string(b)
}

func TestNew_ErrInvalidBaseURL(t *testing.T) {
	t.Parallel()

	client, err := twelvedata.New("key", twelvedata.WithBaseURL(string([]rune{0x7f})))
	require.Error(t, err)
	require.Nil(t, client)
}

func TestClient_SendsKeyAndHeaders(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: the request carries the key, the base url and the extra header
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "test-key", req.URL.Query().Get("apikey"))
			require.Equal(t, "example.test", req.URL.Host)
			require.Equal(t, "/quote", req.URL.Path)
			require.Equal(t, "stocks/1.0", req.Header.Get("User-Agent"))
			return respond(http.StatusOK, fixture(t, "quote_aapl.json"))(req)
		}).
		Times(1)

	// Arrange: setup a new client
	client, err := twelvedata.New("test-key",
		twelvedata.WithHTTPClient(httpClient),
		twelvedata.WithBaseURL("https://example.test/"),
		twelvedata.WithHeader(http.Header{"User-Agent": {"stocks/1.0"}}),
	)
	require.NoError(t, err)

	// Act
	quote, err := client.Quote(t.Context(), "AAPL")

	// Assert
	require.NoError(t, err)
	require.Equal(t, "AAPL", quote.Symbol)
}

func TestClient_ErrPerformingRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	observer := NewMockRequestObserver(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("connection refused")
		}).
		Times(1)
	observer.EXPECT().ObserveRequest("/quote", 0, gomock.Any()).Times(1)

	client, err := twelvedata.New("", twelvedata.WithHTTPClient(httpClient), twelvedata.WithObserver(observer))
	require.NoError(t, err)

	quote, err := client.Quote(t.Context(), "AAPL")
	require.ErrorContains(t, err, "connection refused")
	require.Nil(t, quote)
}

func TestClient_ErrUnexpectedStatusCode(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	observer := NewMockRequestObserver(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(respond(http.StatusTooManyRequests, strings.Repeat("x", 4096))).
		Times(1)
	observer.EXPECT().
		ObserveRequest("/stocks", http.StatusTooManyRequests, gomock.AssignableToTypeOf(time.Duration(0))).
		Times(1)

	client, err := twelvedata.New("", twelvedata.WithHTTPClient(httpClient), twelvedata.WithObserver(observer))
	require.NoError(t, err)

	res, err := client.StockList(t.Context(), "")
	require.Nil(t, res)

	// Assert: the status survives and the body is truncated
	var httpErr *twelvedata.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusTooManyRequests, httpErr.HTTPStatus())
	require.Equal(t, "/stocks", httpErr.Endpoint)
	require.Len(t, httpErr.Body, 2048)
}

func TestClient_ErrApiEnvelope(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(respond(http.StatusOK, `{"code":404,"message":"**symbol** not found: ZZZZ","status":"error"}`)).
		Times(1)

	client, err := twelvedata.New("", twelvedata.WithHTTPClient(httpClient))
	require.NoError(t, err)

	res, err := client.TimeSeries(t.Context(), twelvedata.TimeSeriesParams{Symbol: "ZZZZ"})
	require.Nil(t, res)

	var apiErr *schema.ApiError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 404, apiErr.Code)
	require.Equal(t, "**symbol** not found: ZZZZ", apiErr.RawMessage)
}

func TestClient_ErrDecodingResponse(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			buffer := &bytes.Buffer{}
			buffer.WriteString("invalid json")
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(buffer)}, nil
		}).
		Times(1)

	client, err := twelvedata.New("", twelvedata.WithHTTPClient(httpClient))
	require.NoError(t, err)

	res, err := client.SymbolSearch(t.Context(), "app", 0)
	require.Nil(t, res)

	var validationErr *schema.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, schema.PublicMessage, validationErr.Error())
}

func TestClient_ErrContextCanceled(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return nil, req.Context().Err()
		}).
		Times(1)

	client, err := twelvedata.New("", twelvedata.WithHTTPClient(httpClient))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = client.Quote(ctx, "AAPL")
	require.True(t, errors.Is(err, context.Canceled))
}
