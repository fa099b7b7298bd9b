// Package models holds the attendance ledger domain types.
package models

import "time"

// DayFormat is the wire and storage format for attendance days.
const DayFormat = "2006-01-02"

// Action is the kind of attendance event.
type Action string

const (
	ActionCheckIn  Action = "check-in"
	ActionCheckOut Action = "check-out"
	ActionOnLeave  Action = "on-leave"
)

// Event is an immutable attendance fact. Events are created only by the
// ledger on successful commit and never mutated or deleted.
type Event struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Day         string    `json:"day"`
	Time        time.Time `json:"time"`
	Action      Action    `json:"action"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	EvidenceRef *string   `json:"evidence_ref,omitempty"`
	Note        *string   `json:"note,omitempty"`
}

// DayStatus is the reduction of one user's events for one day. A missing
// check-out is a null, not an error.
type DayStatus struct {
	CheckIn          *time.Time `json:"check_in"`
	CheckOut         *time.Time `json:"check_out"`
	CheckInEvidence  *string    `json:"check_in_evidence,omitempty"`
	CheckOutEvidence *string    `json:"check_out_evidence,omitempty"`
}

// HistoryRow is one (user, day) group in the administrative history view:
// earliest check-in, latest check-out, joined with the user's identity.
type HistoryRow struct {
	UserID           int64      `json:"user_id"`
	FullName         string     `json:"full_name"`
	Email            string     `json:"email"`
	Day              string     `json:"day"`
	CheckInTime      *time.Time `json:"check_in_time"`
	CheckInEvidence  *string    `json:"check_in_evidence,omitempty"`
	CheckOutTime     *time.Time `json:"check_out_time"`
	CheckOutEvidence *string    `json:"check_out_evidence,omitempty"`
}

// HistoryPage is one page of history rows with the grand total for
// pagination.
type HistoryPage struct {
	Rows        []HistoryRow `json:"rows"`
	TotalItems  int          `json:"total_items"`
	CurrentPage int          `json:"current_page"`
}

// Stats summarizes one user's attendance over a date range. Every
// checked-in day counts as an attendance day; a day missing its
// check-out counts in TotalIncompleteDays as well.
type Stats struct {
	TotalAttendanceDays int `json:"total_attendance_days"`
	TotalLeaves         int `json:"total_leaves"`
	TotalIncompleteDays int `json:"total_incomplete_days"`
}
