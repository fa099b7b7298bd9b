// Package client is the typed RPC client for the ledger service.
package client

import (
	"context"

	"presence/internal/ledger/api"
	"presence/internal/ledger/models"
	"presence/pkg/rpc"
)

// Client calls the ledger service over the command envelope.
type Client struct {
	rpc *rpc.Client
}

func New(baseURL string) *Client {
	return &Client{rpc: rpc.NewClient(baseURL)}
}

func (c *Client) CheckIn(ctx context.Context, userID int64, lat, lon float64, evidenceRef string) (int64, error) {
	var resp api.CheckInResponse
	err := c.rpc.Call(ctx, api.CmdCheckIn, api.CheckInRequest{
		UserID:      userID,
		Lat:         lat,
		Lon:         lon,
		EvidenceRef: evidenceRef,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.EventID, nil
}

func (c *Client) CheckOut(ctx context.Context, userID int64, lat, lon float64) (int64, error) {
	var resp api.CheckOutResponse
	err := c.rpc.Call(ctx, api.CmdCheckOut, api.CheckOutRequest{UserID: userID, Lat: lat, Lon: lon}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.EventID, nil
}

func (c *Client) Status(ctx context.Context, userID int64, day string) (models.DayStatus, error) {
	var resp api.StatusResponse
	err := c.rpc.Call(ctx, api.CmdGetStatus, api.StatusRequest{UserID: userID, Day: day}, &resp)
	if err != nil {
		return models.DayStatus{}, err
	}
	return resp.DayStatus, nil
}

func (c *Client) History(ctx context.Context, page, limit int) (models.HistoryPage, error) {
	var resp api.HistoryResponse
	err := c.rpc.Call(ctx, api.CmdGetHistory, api.HistoryRequest{Page: page, Limit: limit}, &resp)
	if err != nil {
		return models.HistoryPage{}, err
	}
	return resp.HistoryPage, nil
}

func (c *Client) Stats(ctx context.Context, userID int64, startDay, endDay string) (models.Stats, error) {
	var resp api.StatsResponse
	err := c.rpc.Call(ctx, api.CmdGetStats, api.StatsRequest{
		UserID:   userID,
		StartDay: startDay,
		EndDay:   endDay,
	}, &resp)
	if err != nil {
		return models.Stats{}, err
	}
	return resp.Stats, nil
}
