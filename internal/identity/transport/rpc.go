// Package transport exposes the identity service over the command
// envelope.
package transport

import (
	"context"
	"encoding/json"

	"presence/internal/identity/api"
	"presence/internal/identity/service"
	"presence/internal/platform/metrics"
	"presence/pkg/rpc"
)

// Register wires every identity command into the RPC server.
func Register(srv *rpc.Server, svc *service.Service, m *metrics.Metrics) {
	srv.Handle(api.CmdLogin, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := rpc.Decode[api.LoginRequest](payload)
		if err != nil {
			return nil, err
		}
		tok, err := svc.Login(ctx, req.Email, req.Password)
		if err != nil {
			m.LoginFailures.Inc()
			return nil, err
		}
		m.LoginsTotal.Inc()
		return api.LoginResponse{AccessToken: tok}, nil
	})

	srv.Handle(api.CmdVerifyToken, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := rpc.Decode[api.VerifyTokenRequest](payload)
		if err != nil {
			return nil, err
		}
		principal, err := svc.Verify(ctx, req.Token)
		if err != nil {
			return nil, err
		}
		return api.VerifyTokenResponse{Principal: *principal}, nil
	})

	srv.Handle(api.CmdRegisterUser, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := rpc.Decode[api.RegisterUserRequest](payload)
		if err != nil {
			return nil, err
		}
		userID, err := svc.Register(ctx, req.Registration)
		if err != nil {
			return nil, err
		}
		return api.RegisterUserResponse{UserID: userID}, nil
	})

	srv.Handle(api.CmdGetHomeArea, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := rpc.Decode[api.GetHomeAreaRequest](payload)
		if err != nil {
			return nil, err
		}
		area, err := svc.HomeArea(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		return api.HomeAreaResponse{Lat: area.Lat, Lon: area.Lon}, nil
	})

	srv.Handle(api.CmdUpdateHomeArea, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := rpc.Decode[api.UpdateHomeAreaRequest](payload)
		if err != nil {
			return nil, err
		}
		area, err := svc.UpdateHomeArea(ctx, req.UserID, req.Lat, req.Lon)
		if err != nil {
			return nil, err
		}
		return api.HomeAreaResponse{Lat: area.Lat, Lon: area.Lon}, nil
	})
}
