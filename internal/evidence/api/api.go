// Package api declares the evidence service's command tags and wire
// payloads. The binary payload travels base64-encoded inside the JSON
// envelope.
package api

const (
	CmdUploadEvidence  = "upload_evidence"
	CmdResolveEvidence = "resolve_evidence"
)

type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	// Payload is base64-encoded by encoding/json.
	Payload []byte `json:"payload"`
}

type UploadResponse struct {
	Reference string `json:"reference"`
}

type ResolveRequest struct {
	Reference string `json:"reference"`
}

type ResolveResponse struct {
	URL              string `json:"url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}
