// Package transport exposes the evidence service over the command
// envelope.
package transport

import (
	"context"
	"encoding/json"

	"presence/internal/evidence/api"
	"presence/internal/evidence/service"
	"presence/internal/platform/metrics"
	"presence/pkg/rpc"
)

// Register wires the evidence commands into the RPC server.
func Register(srv *rpc.Server, svc *service.Service, m *metrics.Metrics) {
	srv.Handle(api.CmdUploadEvidence, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := rpc.Decode[api.UploadRequest](payload)
		if err != nil {
			return nil, err
		}
		reference, err := svc.Upload(ctx, req.Filename, req.ContentType, req.Payload)
		if err != nil {
			return nil, err
		}
		m.UploadsTotal.Inc()
		return api.UploadResponse{Reference: reference}, nil
	})

	srv.Handle(api.CmdResolveEvidence, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := rpc.Decode[api.ResolveRequest](payload)
		if err != nil {
			return nil, err
		}
		url, err := svc.Resolve(ctx, req.Reference)
		if err != nil {
			return nil, err
		}
		return api.ResolveResponse{
			URL:              url,
			ExpiresInSeconds: int(service.URLExpiry.Seconds()),
		}, nil
	})
}
