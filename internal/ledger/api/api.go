// Package api defines the ledger service command names and payloads.
package api

import "presence/internal/ledger/models"

const (
	CmdCheckIn    = "check_in"
	CmdCheckOut   = "check_out"
	CmdGetStatus  = "get_status"
	CmdGetHistory = "get_history"
	CmdGetStats   = "get_stats"
)

type CheckInRequest struct {
	UserID      int64   `json:"user_id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	EvidenceRef string  `json:"evidence_ref"`
}

type CheckInResponse struct {
	EventID int64 `json:"event_id"`
}

type CheckOutRequest struct {
	UserID int64   `json:"user_id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

type CheckOutResponse struct {
	EventID int64 `json:"event_id"`
}

type StatusRequest struct {
	UserID int64  `json:"user_id"`
	Day    string `json:"day"`
}

type StatusResponse struct {
	models.DayStatus
}

type HistoryRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type HistoryResponse struct {
	models.HistoryPage
}

type StatsRequest struct {
	UserID   int64  `json:"user_id"`
	StartDay string `json:"start_day"`
	EndDay   string `json:"end_day"`
}

type StatsResponse struct {
	models.Stats
}
