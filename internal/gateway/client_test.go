package gateway

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plc-assistant/backend/internal/testutil"
)

func newClient(t *testing.T, baseURL, transport string) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL:     baseURL,
		DefaultHost: "192.168.0.10",
		DefaultPort: 5007,
		Timeout:     2 * time.Second,
		Transport:   transport,
	}, nil)
	require.NoError(t, err)
	return c
}

func TestClient_Read(t *testing.T) {
	for _, transport := range []string{TransportJSON, TransportMsgpack} {
		t.Run(transport, func(t *testing.T) {
			gw := testutil.NewFakeGateway(t, map[string][]int{"D100": {1, 2, 3, 4, 5, 6}})
			c := newClient(t, gw.URL, transport)

			got := c.Read(context.Background(), "d100:3", Options{})
			assert.True(t, got.Success)
			assert.Empty(t, got.Error)
			assert.Equal(t, "D100", got.Label)
			assert.Equal(t, []int{1, 2, 3}, got.Values)

			calls := gw.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, "/api/read", calls[0].Path)
			assert.Equal(t, "D", calls[0].Device)
			assert.Equal(t, "100", calls[0].Addr)
			assert.Equal(t, 3, calls[0].Length)
			assert.Equal(t, "192.168.0.10", calls[0].IP)
			assert.Equal(t, 5007, calls[0].Port)
		})
	}
}

func TestClient_ReadOverridesEndpoint(t *testing.T) {
	gw := testutil.NewFakeGateway(t, map[string][]int{"M10": {1}})
	c := newClient(t, gw.URL, "")

	got := c.Read(context.Background(), "M10", Options{Host: "10.0.0.2", Port: 6000})
	assert.True(t, got.Success)
	calls := gw.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "10.0.0.2", calls[0].IP)
	assert.Equal(t, 6000, calls[0].Port)
}

func TestClient_ReadFailures(t *testing.T) {
	t.Run("gateway reports failure", func(t *testing.T) {
		gw := testutil.NewFakeGateway(t, nil)
		got := newClient(t, gw.URL, "").Read(context.Background(), "D1", Options{})
		assert.False(t, got.Success)
		assert.Contains(t, got.Error, "unknown device D1")
		assert.Equal(t, "D1", got.Label)
	})

	t.Run("missing success flag means success", func(t *testing.T) {
		gw := testutil.NewFakeGateway(t, map[string][]int{"W2": {7}})
		gw.OmitSuccess(true)
		got := newClient(t, gw.URL, "").Read(context.Background(), "W2", Options{})
		assert.True(t, got.Success)
		assert.Equal(t, []int{7}, got.Values)
	})

	t.Run("non-200 status", func(t *testing.T) {
		gw := testutil.NewFakeGateway(t, map[string][]int{"D1": {1}})
		gw.FailWith(http.StatusBadGateway)
		got := newClient(t, gw.URL, "").Read(context.Background(), "D1", Options{})
		assert.False(t, got.Success)
		assert.Contains(t, got.Error, "502")
	})

	t.Run("unreachable host", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		require.NoError(t, ln.Close())

		got := newClient(t, "http://"+addr, "").Read(context.Background(), "D100", Options{Timeout: 500 * time.Millisecond})
		assert.False(t, got.Success)
		assert.NotEmpty(t, got.Error)
		assert.Equal(t, []int{}, got.Values)
	})

	t.Run("cancelled context", func(t *testing.T) {
		gw := testutil.NewFakeGateway(t, map[string][]int{"D1": {1}})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		got := newClient(t, gw.URL, "").Read(ctx, "D1", Options{})
		assert.False(t, got.Success)
		assert.NotEmpty(t, got.Error)
	})
}

func TestClient_ReadBatch(t *testing.T) {
	for _, transport := range []string{TransportJSON, TransportMsgpack} {
		t.Run(transport, func(t *testing.T) {
			gw := testutil.NewFakeGateway(t, map[string][]int{"D100": {10, 11}, "M0": {1}})
			c := newClient(t, gw.URL, transport)

			got := c.ReadBatch(context.Background(), []string{"D100:2", "X9", "m0"}, Options{})
			require.True(t, got.Success)
			require.Len(t, got.Results, 3)

			assert.Equal(t, "D100", got.Results[0].Label)
			assert.Equal(t, []int{10, 11}, got.Results[0].Values)
			assert.True(t, got.Results[0].Success)

			assert.Equal(t, "X9", got.Results[1].Label)
			assert.False(t, got.Results[1].Success)
			assert.NotEmpty(t, got.Results[1].Error)

			assert.Equal(t, "M0", got.Results[2].Label)
			assert.True(t, got.Results[2].Success)

			calls := gw.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, "/api/read_batch", calls[0].Path)
			assert.Equal(t, []string{"D100:2", "X9", "m0"}, calls[0].Devices)
		})
	}
}

func TestClient_ReadBatchTransportFailure(t *testing.T) {
	gw := testutil.NewFakeGateway(t, nil)
	gw.FailWith(http.StatusInternalServerError)

	got := newClient(t, gw.URL, "").ReadBatch(context.Background(), []string{"D1", "D2"}, Options{})
	assert.False(t, got.Success)
	assert.NotEmpty(t, got.Error)
	require.Len(t, got.Results, 2)
	for _, r := range got.Results {
		assert.False(t, r.Success)
		assert.Equal(t, got.Error, r.Error)
	}
	assert.Equal(t, "D2", got.Results[1].Label)
}

func TestClient_ReadBatchTopLevelError(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantResults []bool
	}{
		{
			name:        "items kept",
			body:        `{"error":"PLC busy","results":[{"device":"D1","values":[5],"success":true},{"device":"D2","success":false,"error":"timeout"}]}`,
			wantResults: []bool{true, false},
		},
		{
			name:        "no items",
			body:        `{"error":"PLC busy"}`,
			wantResults: []bool{false, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			got := newClient(t, srv.URL, TransportJSON).ReadBatch(context.Background(), []string{"D1", "D2"}, Options{})
			assert.False(t, got.Success)
			assert.Equal(t, "PLC busy", got.Error)
			require.Len(t, got.Results, len(tt.wantResults))
			for i, want := range tt.wantResults {
				assert.Equal(t, want, got.Results[i].Success, got.Results[i].Label)
			}
		})
	}
}

func TestNew_UnknownTransport(t *testing.T) {
	_, err := New(Config{Transport: "xml"}, nil)
	assert.Error(t, err)

	c, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}
