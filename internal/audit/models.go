// Package audit captures an append-only trail of notable actions:
// registrations, attendance writes, and evidence left orphaned by failed
// check-ins.
package audit

import "time"

// Actions recorded by the gateway.
const (
	ActionUserRegistered   = "user_registered"
	ActionCheckIn          = "check_in"
	ActionCheckOut         = "check_out"
	ActionEvidenceOrphaned = "evidence_orphaned"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        int64
	Timestamp time.Time
	UserID    int64
	Action    string
	Detail    string
	RequestID string
}
