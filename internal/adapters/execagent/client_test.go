package execagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemScoutBot/internal/domain"
	"gemScoutBot/internal/ports"
)

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (noopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{BaseURL: srv.URL, Logger: noopLogger{}, Timeout: time.Second})
	require.NoError(t, err)
	return client
}

func TestRequestEntryConfirmed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/entries", r.URL.Path)

		var req entryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "addr-1", req.Address)
		assert.Equal(t, 0.5, req.SizeHint)

		json.NewEncoder(w).Encode(entryResponse{Confirmed: true, FillPrice: 0.002})
	})

	receipt, err := client.RequestEntry(context.Background(), "addr-1", 0.5)
	require.NoError(t, err)
	assert.True(t, receipt.Confirmed)
	assert.Equal(t, 0.002, receipt.FillPrice)
}

func TestRequestEntryDeclined(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(entryResponse{Confirmed: false, Reason: "slippage limit exceeded"})
	})

	receipt, err := client.RequestEntry(context.Background(), "addr-1", 0.5)
	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, ports.ErrRejected)
	assert.Contains(t, err.Error(), "slippage limit exceeded")
}

func TestRequestEntryStatusMapping(t *testing.T) {
	cases := []struct {
		status  int
		wantErr error
	}{
		{http.StatusUnprocessableEntity, ports.ErrRejected},
		{http.StatusBadRequest, ports.ErrRejected},
		{http.StatusInternalServerError, ports.ErrAgentUnreachable},
		{http.StatusBadGateway, ports.ErrAgentUnreachable},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})

		_, err := client.RequestEntry(context.Background(), "addr-1", 0.5)
		assert.ErrorIs(t, err, tc.wantErr, "status %d", tc.status)
	}
}

func TestRequestExit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/exits", r.URL.Path)

		var req exitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "addr-1", req.Address)
		assert.Equal(t, 25.0, req.Percent)
		assert.Equal(t, "PROFIT_TARGET", req.Reason)

		w.WriteHeader(http.StatusOK)
	})

	err := client.RequestExit(context.Background(), "addr-1", 25, domain.CloseReasonProfitTarget)
	assert.NoError(t, err)
}

func TestRequestExitRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	err := client.RequestExit(context.Background(), "addr-1", 100, domain.CloseReasonStopLoss)
	assert.ErrorIs(t, err, ports.ErrRejected)
}

func TestRequestEntryAgentDown(t *testing.T) {
	client, err := New(Config{BaseURL: "http://127.0.0.1:1", Logger: noopLogger{}, Timeout: 200 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.RequestEntry(context.Background(), "addr-1", 0.5)
	assert.ErrorIs(t, err, ports.ErrAgentUnreachable)
}
