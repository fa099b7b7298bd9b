// Package service implements the evidence store gateway: payload
// validation, opaque reference naming, and time-limited retrieval URLs.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	dErrors "presence/pkg/domainerrors"
)

const (
	// MaxPayloadBytes is the upload size ceiling.
	MaxPayloadBytes = 5 * 1024 * 1024
	// URLExpiry bounds how long a resolved retrieval URL stays valid.
	URLExpiry = time.Hour
)

// AllowedContentTypes lists the accepted evidence MIME types.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Store holds binary evidence objects. The production store is MinIO.
type Store interface {
	Put(ctx context.Context, objectName string, payload []byte, contentType string) error
	PresignedGet(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Service validates and names evidence payloads before they reach the
// store.
type Service struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ValidatePayload enforces the size and type limits. Exported so the
// gateway can reject bad uploads before any network call is made.
func ValidatePayload(contentType string, size int64) error {
	if size == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "empty_evidence")
	}
	if size > MaxPayloadBytes {
		return dErrors.New(dErrors.CodeBadRequest, "evidence_too_large")
	}
	if !AllowedContentTypes[contentType] {
		return dErrors.New(dErrors.CodeBadRequest, "unsupported_evidence_type")
	}
	return nil
}

// Upload stores the payload under a fresh opaque reference. Every call
// creates a new object; identical bytes do not dedupe.
func (s *Service) Upload(ctx context.Context, filename, contentType string, payload []byte) (string, error) {
	if err := ValidatePayload(contentType, int64(len(payload))); err != nil {
		return "", err
	}

	reference := uuid.NewString() + "-" + filename
	if err := s.store.Put(ctx, reference, payload, contentType); err != nil {
		s.logger.ErrorContext(ctx, "evidence upload failed", "reference", reference, "error", err)
		return "", dErrors.New(dErrors.CodeUnavailable, "evidence_store_unavailable")
	}
	return reference, nil
}

// Resolve produces a time-limited retrieval URL for a stored reference.
func (s *Service) Resolve(ctx context.Context, reference string) (string, error) {
	if reference == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "missing_reference")
	}
	url, err := s.store.PresignedGet(ctx, reference, URLExpiry)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return "", err
		}
		s.logger.ErrorContext(ctx, "evidence resolve failed", "reference", reference, "error", err)
		return "", dErrors.New(dErrors.CodeUnavailable, "evidence_store_unavailable")
	}
	return url, nil
}
