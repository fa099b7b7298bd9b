// Package transport exposes the ledger service over the command envelope.
package transport

import (
	"context"
	"encoding/json"

	"presence/internal/ledger/api"
	"presence/internal/ledger/service"
	"presence/internal/platform/metrics"
	dErrors "presence/pkg/domainerrors"
	"presence/pkg/rpc"
)

// Register wires the ledger commands into the RPC server.
func Register(srv *rpc.Server, svc *service.Service, m *metrics.Metrics) {
	srv.Handle(api.CmdCheckIn, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := rpc.Decode[api.CheckInRequest](payload)
		if err != nil {
			return nil, err
		}
		id, err := svc.CheckIn(ctx, req.UserID, req.Lat, req.Lon, req.EvidenceRef)
		if err != nil {
			if dErrors.Is(err, dErrors.CodeConflict) {
				m.ConflictsTotal.Inc()
			}
			return nil, err
		}
		m.CheckInsTotal.Inc()
		return api.CheckInResponse{EventID: id}, nil
	})

	srv.Handle(api.CmdCheckOut, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := rpc.Decode[api.CheckOutRequest](payload)
		if err != nil {
			return nil, err
		}
		id, err := svc.CheckOut(ctx, req.UserID, req.Lat, req.Lon)
		if err != nil {
			if dErrors.Is(err, dErrors.CodeConflict) {
				m.ConflictsTotal.Inc()
			}
			return nil, err
		}
		m.CheckOutsTotal.Inc()
		return api.CheckOutResponse{EventID: id}, nil
	})

	srv.Handle(api.CmdGetStatus, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := rpc.Decode[api.StatusRequest](payload)
		if err != nil {
			return nil, err
		}
		status, err := svc.Status(ctx, req.UserID, req.Day)
		if err != nil {
			return nil, err
		}
		return api.StatusResponse{DayStatus: status}, nil
	})

	srv.Handle(api.CmdGetHistory, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := rpc.Decode[api.HistoryRequest](payload)
		if err != nil {
			return nil, err
		}
		page, err := svc.History(ctx, req.Page, req.Limit)
		if err != nil {
			return nil, err
		}
		return api.HistoryResponse{HistoryPage: page}, nil
	})

	srv.Handle(api.CmdGetStats, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := rpc.Decode[api.StatsRequest](payload)
		if err != nil {
			return nil, err
		}
		stats, err := svc.Stats(ctx, req.UserID, req.StartDay, req.EndDay)
		if err != nil {
			return nil, err
		}
		return api.StatsResponse{Stats: stats}, nil
	})
}
