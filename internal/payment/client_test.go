package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientInitiatePay(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/pay", r.URL.Path)

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "order-1", in["order_id"])
		assert.Equal(t, "47.50", in["amount"])

		json.NewEncoder(w).Encode(map[string]string{"pay_url": "https://gateway.example/p/abc"})
	}))
	defer srv.Close()

	url, err := NewHTTPClient(srv.URL).InitiatePay(context.Background(),
		"order-1", decimal.RequireFromString("47.5"), "order-1 checkout")
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example/p/abc", url)
}

func TestHTTPClientQueryStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "order-1", r.URL.Query().Get("order_id"))
		json.NewEncoder(w).Encode(Status{State: StateSucceeded, TransactionID: "txn-9"})
	}))
	defer srv.Close()

	st, err := NewHTTPClient(srv.URL).QueryStatus(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, st.State)
	assert.Equal(t, "txn-9", st.TransactionID)
}

func TestHTTPClientGatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).QueryStatus(context.Background(), "order-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
