package rpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "presence/pkg/domainerrors"
)

type echoRequest struct {
	Value string `json:"value"`
}

type echoResponse struct {
	Value string `json:"value"`
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(slog.New(slog.DiscardHandler))
	mux := http.NewServeMux()
	mux.Handle("/rpc", srv)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestClientServer_RoundTrip(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Handle("echo", func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := Decode[echoRequest](payload)
		if err != nil {
			return nil, err
		}
		return echoResponse{Value: req.Value}, nil
	})

	client := NewClient(ts.URL)
	var out echoResponse
	err := client.Call(context.Background(), "echo", echoRequest{Value: "hello"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Value)
}

func TestClientServer_DomainErrorSurvivesWire(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Handle("fail", func(ctx context.Context, payload json.RawMessage) (any, error) {
		return nil, dErrors.New(dErrors.CodeConflict, "already_checked_in")
	})

	client := NewClient(ts.URL)
	err := client.Call(context.Background(), "fail", struct{}{}, nil)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Equal(t, "already_checked_in", dErrors.MessageOf(err))
}

func TestClientServer_InternalErrorHidesDetail(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Handle("boom", func(ctx context.Context, payload json.RawMessage) (any, error) {
		return nil, dErrors.New(dErrors.CodeInternal, "connection pool exhausted")
	})

	client := NewClient(ts.URL)
	err := client.Call(context.Background(), "boom", struct{}{}, nil)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInternal))
	assert.NotContains(t, err.Error(), "connection pool")
}

func TestServer_UnknownCommand(t *testing.T) {
	_, ts := newTestServer(t)

	client := NewClient(ts.URL)
	err := client.Call(context.Background(), "does_not_exist", struct{}{}, nil)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	assert.Equal(t, "unknown_command", dErrors.MessageOf(err))
}

func TestClient_UnreachableUpstream(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	err := client.Call(context.Background(), "echo", struct{}{}, nil)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))
}

func TestDecode_MalformedPayload(t *testing.T) {
	_, err := Decode[echoRequest](json.RawMessage(`{"value":`))
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}

func TestClient_ForwardsRequestID(t *testing.T) {
	var seen string
	mux := http.NewServeMux()
	srv := NewServer(slog.New(slog.DiscardHandler))
	srv.Handle("echo", func(ctx context.Context, payload json.RawMessage) (any, error) {
		return echoResponse{}, nil
	})
	mux.HandleFunc("/rpc", func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
		srv.ServeHTTP(w, r)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	client := NewClient(ts.URL)
	ctx := WithRequestID(context.Background(), "req-42")
	require.NoError(t, client.Call(ctx, "echo", struct{}{}, nil))
	assert.Equal(t, "req-42", seen)
}
