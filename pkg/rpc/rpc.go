// Package rpc implements the request/response message channel between the
// gateway and the leaf services: a tagged command plus a JSON payload over
// HTTP POST. Each service registers a handler per command and dispatches
// exhaustively; unknown commands are rejected, never silently dropped.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	dErrors "presence/pkg/domainerrors"
	"presence/pkg/platform/httputil"
)

// Request is the wire envelope for a single command invocation.
type Request struct {
	Cmd     string          `json:"cmd"`
	Payload json.RawMessage `json:"payload"`
}

type successEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// HandlerFunc executes one command. The returned value is serialized into
// the success envelope; errors must be domain errors so the caller sees a
// stable code.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

// Server dispatches command envelopes to registered handlers.
type Server struct {
	logger   *slog.Logger
	handlers map[string]HandlerFunc
}

func NewServer(logger *slog.Logger) *Server {
	return &Server{
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers fn for cmd. Later registrations overwrite earlier ones.
func (s *Server) Handle(cmd string, fn HandlerFunc) {
	s.handlers[cmd] = fn
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid_envelope"))
		return
	}

	fn, ok := s.handlers[req.Cmd]
	if !ok {
		s.logger.WarnContext(r.Context(), "unknown rpc command", "cmd", req.Cmd)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown_command"))
		return
	}

	result, err := fn(r.Context(), req.Payload)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			s.logger.ErrorContext(r.Context(), "rpc command failed", "cmd", req.Cmd, "error", err)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": result})
}

// Decode unmarshals a command payload, reporting malformed input as a
// bad request rather than an internal failure.
func Decode[T any](payload json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid_payload")
	}
	return &v, nil
}

type contextKeyRequestID struct{}

// WithRequestID attaches a correlation id that Call forwards as
// X-Request-ID so gateway and leaf-service logs line up.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID{}, requestID)
}

func requestIDFrom(ctx context.Context) string {
	requestID, _ := ctx.Value(contextKeyRequestID{}).(string)
	return requestID
}

// Client calls a single service's command endpoint. The HTTP client
// timeout bounds every downstream call so an unreachable service cannot
// stall the gateway indefinitely.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// DefaultTimeout bounds one downstream round trip.
const DefaultTimeout = 10 * time.Second

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Call invokes cmd with payload and, when out is non-nil, unmarshals the
// success envelope's data into it. Error envelopes are rebuilt into
// domain errors; transport failures surface as unavailable.
func (c *Client) Call(ctx context.Context, cmd string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return dErrors.New(dErrors.CodeInternal, "marshal_payload")
	}
	body, err := json.Marshal(Request{Cmd: cmd, Payload: raw})
	if err != nil {
		return dErrors.New(dErrors.CodeInternal, "marshal_envelope")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc", bytes.NewReader(body))
	if err != nil {
		return dErrors.New(dErrors.CodeInternal, "build_request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if requestID := requestIDFrom(ctx); requestID != "" {
		httpReq.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return dErrors.New(dErrors.CodeUnavailable, "upstream_unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return dErrors.New(dErrors.CodeUnavailable, "upstream_read_failed")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope errorEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error == "" {
			return dErrors.New(dErrors.CodeUnavailable, "upstream_malformed_error")
		}
		return dErrors.New(dErrors.FromCode(envelope.Error), envelope.Description)
	}

	if out == nil {
		return nil
	}
	var envelope successEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return dErrors.New(dErrors.CodeUnavailable, "upstream_malformed_response")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return dErrors.New(dErrors.CodeUnavailable, "upstream_malformed_response")
	}
	return nil
}
