// Package client is the typed RPC client for the evidence service.
package client

import (
	"context"

	"presence/internal/evidence/api"
	"presence/pkg/rpc"
)

// Client calls the evidence service over the command envelope.
type Client struct {
	rpc *rpc.Client
}

func New(baseURL string) *Client {
	return &Client{rpc: rpc.NewClient(baseURL)}
}

// Upload stores an evidence payload and returns its opaque reference.
func (c *Client) Upload(ctx context.Context, filename, contentType string, payload []byte) (string, error) {
	var resp api.UploadResponse
	err := c.rpc.Call(ctx, api.CmdUploadEvidence, api.UploadRequest{
		Filename:    filename,
		ContentType: contentType,
		Payload:     payload,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Reference, nil
}

// Resolve exchanges a reference for a time-limited retrieval URL.
func (c *Client) Resolve(ctx context.Context, reference string) (string, int, error) {
	var resp api.ResolveResponse
	if err := c.rpc.Call(ctx, api.CmdResolveEvidence, api.ResolveRequest{Reference: reference}, &resp); err != nil {
		return "", 0, err
	}
	return resp.URL, resp.ExpiresInSeconds, nil
}
