// Package client is the typed RPC client for the identity service.
package client

import (
	"context"

	"presence/internal/identity/api"
	"presence/internal/identity/models"
	"presence/pkg/rpc"
)

// Client calls the identity service over the command envelope.
type Client struct {
	rpc *rpc.Client
}

func New(baseURL string) *Client {
	return &Client{rpc: rpc.NewClient(baseURL)}
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp api.LoginResponse
	if err := c.rpc.Call(ctx, api.CmdLogin, api.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Verify validates a token and returns the embedded principal.
func (c *Client) Verify(ctx context.Context, token string) (*models.Principal, error) {
	var resp api.VerifyTokenResponse
	if err := c.rpc.Call(ctx, api.CmdVerifyToken, api.VerifyTokenRequest{Token: token}, &resp); err != nil {
		return nil, err
	}
	return &resp.Principal, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, reg models.Registration) (int64, error) {
	var resp api.RegisterUserResponse
	if err := c.rpc.Call(ctx, api.CmdRegisterUser, api.RegisterUserRequest{Registration: reg}, &resp); err != nil {
		return 0, err
	}
	return resp.UserID, nil
}

// HomeArea fetches the user's designated area center.
func (c *Client) HomeArea(ctx context.Context, userID int64) (*models.HomeArea, error) {
	var resp api.HomeAreaResponse
	if err := c.rpc.Call(ctx, api.CmdGetHomeArea, api.GetHomeAreaRequest{UserID: userID}, &resp); err != nil {
		return nil, err
	}
	return &models.HomeArea{Lat: resp.Lat, Lon: resp.Lon}, nil
}

// UpdateHomeArea overwrites the user's designated area center.
func (c *Client) UpdateHomeArea(ctx context.Context, userID int64, lat, lon float64) (*models.HomeArea, error) {
	var resp api.HomeAreaResponse
	if err := c.rpc.Call(ctx, api.CmdUpdateHomeArea, api.UpdateHomeAreaRequest{UserID: userID, Lat: lat, Lon: lon}, &resp); err != nil {
		return nil, err
	}
	return &models.HomeArea{Lat: resp.Lat, Lon: resp.Lon}, nil
}
