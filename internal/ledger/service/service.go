// Package service implements the attendance ledger: the append-only record
// of check-in and check-out events and the read models derived from it.
package service

import (
	"context"
	"log/slog"
	"time"

	"presence/internal/geo"
	identitymodels "presence/internal/identity/models"
	"presence/internal/ledger/models"
	dErrors "presence/pkg/domainerrors"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// Store persists attendance events and serves the derived read models. The
// append operations enforce the per-day state machine atomically.
type Store interface {
	AppendCheckIn(ctx context.Context, userID int64, day string, at time.Time, lat, lon float64, evidenceRef string) (int64, error)
	AppendCheckOut(ctx context.Context, userID int64, day string, at time.Time, lat, lon float64) (int64, error)
	DayEvents(ctx context.Context, userID int64, day string) ([]models.Event, error)
	HistoryPage(ctx context.Context, limit, offset int) ([]models.HistoryRow, int, error)
	Stats(ctx context.Context, userID int64, startDay, endDay string) (models.Stats, error)
}

// AreaResolver looks up a user's registered home area. It is backed by the
// identity service in production.
type AreaResolver interface {
	HomeArea(ctx context.Context, userID int64) (*identitymodels.HomeArea, error)
}

type Config struct {
	EnforceGeofence bool
	GeofenceRadiusM float64
}

type Service struct {
	store  Store
	areas  AreaResolver
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

func New(store Store, areas AreaResolver, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		areas:  areas,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CheckIn appends a check-in event for the caller's current UTC day. The
// reported position must fall inside the user's home area when geofence
// enforcement is on.
func (s *Service) CheckIn(ctx context.Context, userID int64, lat, lon float64, evidenceRef string) (int64, error) {
	if err := validateRequest(userID, lat, lon); err != nil {
		return 0, err
	}
	if evidenceRef == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, "missing_evidence_ref")
	}
	if err := s.checkGeofence(ctx, userID, lat, lon); err != nil {
		return 0, err
	}

	at := s.now().UTC()
	day := at.Format(models.DayFormat)
	id, err := s.store.AppendCheckIn(ctx, userID, day, at, lat, lon, evidenceRef)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "check-in recorded", "user_id", userID, "day", day, "event_id", id)
	return id, nil
}

// CheckOut appends a check-out event for the caller's current UTC day. It
// requires a prior check-in on the same day.
func (s *Service) CheckOut(ctx context.Context, userID int64, lat, lon float64) (int64, error) {
	if err := validateRequest(userID, lat, lon); err != nil {
		return 0, err
	}

	at := s.now().UTC()
	day := at.Format(models.DayFormat)
	id, err := s.store.AppendCheckOut(ctx, userID, day, at, lat, lon)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "check-out recorded", "user_id", userID, "day", day, "event_id", id)
	return id, nil
}

// checkGeofence re-validates the reported position against the user's home
// area. Users without a registered home area pass: the fence cannot be
// evaluated before onboarding completes.
func (s *Service) checkGeofence(ctx context.Context, userID int64, lat, lon float64) error {
	if !s.cfg.EnforceGeofence {
		return nil
	}
	area, err := s.areas.HomeArea(ctx, userID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil
		}
		return err
	}
	fence := geo.Area{
		Center:  geo.Point{Lat: area.Lat, Lon: area.Lon},
		RadiusM: s.cfg.GeofenceRadiusM,
	}
	if !geo.IsWithin(geo.Point{Lat: lat, Lon: lon}, fence) {
		s.logger.WarnContext(ctx, "check-in outside home area",
			"user_id", userID,
			"distance_m", geo.DistanceM(geo.Point{Lat: lat, Lon: lon}, fence.Center))
		return dErrors.New(dErrors.CodeBadRequest, "out_of_designated_area")
	}
	return nil
}

// Status reduces one user's events for one day into a check-in/check-out
// pair. A day with no events at all is NotFound; a missing check-out is a
// null field.
func (s *Service) Status(ctx context.Context, userID int64, day string) (models.DayStatus, error) {
	if userID <= 0 {
		return models.DayStatus{}, dErrors.New(dErrors.CodeBadRequest, "invalid_user_id")
	}
	if _, err := time.Parse(models.DayFormat, day); err != nil {
		return models.DayStatus{}, dErrors.New(dErrors.CodeBadRequest, "invalid_date")
	}

	events, err := s.store.DayEvents(ctx, userID, day)
	if err != nil {
		return models.DayStatus{}, err
	}
	if len(events) == 0 {
		return models.DayStatus{}, dErrors.New(dErrors.CodeNotFound, "no_attendance_record")
	}

	var status models.DayStatus
	for i := range events {
		ev := events[i]
		switch ev.Action {
		case models.ActionCheckIn:
			if status.CheckIn == nil || ev.Time.Before(*status.CheckIn) {
				t := ev.Time
				status.CheckIn = &t
				status.CheckInEvidence = ev.EvidenceRef
			}
		case models.ActionCheckOut:
			if status.CheckOut == nil || ev.Time.After(*status.CheckOut) {
				t := ev.Time
				status.CheckOut = &t
				status.CheckOutEvidence = ev.EvidenceRef
			}
		}
	}
	return status, nil
}

// History returns one page of the administrative attendance view. Page and
// limit are clamped to sane bounds rather than rejected.
func (s *Service) History(ctx context.Context, page, limit int) (models.HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, total, err := s.store.HistoryPage(ctx, limit, (page-1)*limit)
	if err != nil {
		return models.HistoryPage{}, err
	}
	return models.HistoryPage{Rows: rows, TotalItems: total, CurrentPage: page}, nil
}

// Stats summarizes one user's attendance over an inclusive date range.
func (s *Service) Stats(ctx context.Context, userID int64, startDay, endDay string) (models.Stats, error) {
	if userID <= 0 {
		return models.Stats{}, dErrors.New(dErrors.CodeBadRequest, "invalid_user_id")
	}
	start, err := time.Parse(models.DayFormat, startDay)
	if err != nil {
		return models.Stats{}, dErrors.New(dErrors.CodeBadRequest, "invalid_date")
	}
	end, err := time.Parse(models.DayFormat, endDay)
	if err != nil {
		return models.Stats{}, dErrors.New(dErrors.CodeBadRequest, "invalid_date")
	}
	if end.Before(start) {
		return models.Stats{}, dErrors.New(dErrors.CodeBadRequest, "invalid_date_range")
	}
	return s.store.Stats(ctx, userID, startDay, endDay)
}

func validateRequest(userID int64, lat, lon float64) error {
	if userID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "invalid_user_id")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return dErrors.New(dErrors.CodeBadRequest, "invalid_coordinate")
	}
	return nil
}
