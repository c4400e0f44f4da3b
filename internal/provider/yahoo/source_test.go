package yahoo_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"marketquotes/internal/provider"
	"marketquotes/internal/provider/yahoo"
)

func TestSparkSource_Fetch(t *testing.T) {
	t.Parallel()

	// Arrange: one spark call returning two of three symbols
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(t, http.StatusOK, sparkPayload(map[string][3]any{
				"NVDA": {100.0, 95.0, "USD"},
				"AAPL": {200.0, 210.0, "USD"},
			})), nil
		}).
		Times(1)

	client, err := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)
	src := yahoo.NewSparkSource(client)
	require.Equal(t, "yahoo-spark", src.Name())

	// Act
	batch, err := src.Fetch(t.Context(), []string{"NVDA", "AAPL", "LIT"})
	require.NoError(t, err)

	// Assert
	fi, err := batch.Lookup("NVDA")
	require.NoError(t, err)
	require.Equal(t, provider.FastInfo{LastPrice: 100, PreviousClose: 95, Currency: "USD"}, fi)

	_, err = batch.Lookup("LIT")
	require.ErrorIs(t, err, provider.ErrNotFound)
	require.Equal(t, 2, batch.Resolved())
}

func TestSparkSource_FetchError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(nil, fmt.Errorf("dial tcp: i/o timeout")).
		Times(1)

	client, err := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)

	batch, err := yahoo.NewSparkSource(client).Fetch(t.Context(), []string{"NVDA"})
	require.ErrorContains(t, err, "i/o timeout")
	require.Nil(t, batch)
}

func TestChartSource_PartialFailure(t *testing.T) {
	t.Parallel()

	// Arrange: LIT fails, the rest resolve
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			sym := strings.TrimPrefix(req.URL.Path, "/v8/finance/chart/")
			if sym == "LIT" {
				return nil, fmt.Errorf("connection reset by peer")
			}
			return jsonResponse(t, http.StatusOK, chartPayload(sym, 2.0, 1.0, "USD")), nil
		}).
		Times(3)

	client, err := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)
	src := yahoo.NewChartSource(client, 2)

	// Act
	batch, err := src.Fetch(t.Context(), []string{"NVDA", "LIT", "AAPL"})
	require.NoError(t, err)

	// Assert
	require.Equal(t, 2, batch.Resolved())
	_, err = batch.Lookup("LIT")
	require.ErrorContains(t, err, "connection reset by peer")
	fi, err := batch.Lookup("AAPL")
	require.NoError(t, err)
	require.Equal(t, 2.0, fi.LastPrice)
}

func TestChartSource_AllFail(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(nil, fmt.Errorf("network unreachable")).
		Times(2)

	client, err := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)

	batch, err := yahoo.NewChartSource(client, 4).Fetch(t.Context(), []string{"NVDA", "AAPL"})
	require.ErrorContains(t, err, "network unreachable")
	require.Nil(t, batch)
}

func TestChartSource_KeepsResultsWhenDeadlinePassesAfterLastCall(t *testing.T) {
	t.Parallel()

	// Arrange: the ctx ends right after the final chart response arrives
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	var calls atomic.Int32

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			sym := strings.TrimPrefix(req.URL.Path, "/v8/finance/chart/")
			if calls.Add(1) == 2 {
				defer cancel()
			}
			return jsonResponse(t, http.StatusOK, chartPayload(sym, 2.0, 1.0, "USD")), nil
		}).
		Times(2)

	client, err := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act
	batch, err := yahoo.NewChartSource(client, 1).Fetch(ctx, []string{"NVDA", "AAPL"})

	// Assert
	require.NoError(t, err)
	require.Error(t, ctx.Err())
	require.Equal(t, 2, batch.Resolved())
}

func TestChartSource_CanceledBeforeAnyResult(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return nil, req.Context().Err()
		}).
		Times(2)

	client, err := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)

	batch, err := yahoo.NewChartSource(client, 2).Fetch(ctx, []string{"NVDA", "AAPL"})
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, batch)
}

func TestChartSource_RespectsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			return jsonResponse(t, http.StatusOK, chartPayload("X", 2.0, 1.0, "USD")), nil
		}).
		Times(6)

	client, err := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, err = yahoo.NewChartSource(client, 2).Fetch(t.Context(), []string{"A", "B", "C", "D", "E", "F"})
	require.NoError(t, err)
	require.LessOrEqual(t, peak.Load(), int32(2))
}
