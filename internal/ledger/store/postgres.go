// Package store persists attendance events.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"presence/internal/ledger/models"
	dErrors "presence/pkg/domainerrors"
)

// Postgres stores attendance events in PostgreSQL. State-machine checks run
// inside a transaction holding row locks on the day's existing events; the
// unique index on (user_id, attendance_day, action) backstops first-writer
// races where there is no row to lock yet.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// AppendCheckIn records a check-in for (userID, day). It returns a conflict
// when a check-in already exists for that day.
func (s *Postgres) AppendCheckIn(ctx context.Context, userID int64, day string, at time.Time, lat, lon float64, evidenceRef string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin check-in tx: %w", err)
	}
	defer tx.Rollback()

	hasCheckIn, _, err := dayActions(ctx, tx, userID, day)
	if err != nil {
		return 0, err
	}
	if hasCheckIn {
		return 0, dErrors.New(dErrors.CodeConflict, "already_checked_in")
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO attendance_events (user_id, attendance_day, event_time, action, lat, lon, evidence_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		userID, day, at, models.ActionCheckIn, lat, lon, evidenceRef,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, dErrors.New(dErrors.CodeConflict, "already_checked_in")
		}
		return 0, fmt.Errorf("insert check-in: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit check-in: %w", err)
	}
	return id, nil
}

// AppendCheckOut records a check-out for (userID, day). It requires a prior
// check-in and rejects a second check-out.
func (s *Postgres) AppendCheckOut(ctx context.Context, userID int64, day string, at time.Time, lat, lon float64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin check-out tx: %w", err)
	}
	defer tx.Rollback()

	hasCheckIn, hasCheckOut, err := dayActions(ctx, tx, userID, day)
	if err != nil {
		return 0, err
	}
	if !hasCheckIn {
		return 0, dErrors.New(dErrors.CodePreconditionFailed, "not_checked_in")
	}
	if hasCheckOut {
		return 0, dErrors.New(dErrors.CodeConflict, "already_checked_out")
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO attendance_events (user_id, attendance_day, event_time, action, lat, lon)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		userID, day, at, models.ActionCheckOut, lat, lon,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, dErrors.New(dErrors.CodeConflict, "already_checked_out")
		}
		return 0, fmt.Errorf("insert check-out: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit check-out: %w", err)
	}
	return id, nil
}

// dayActions reports which actions already exist for (userID, day), locking
// the matching rows for the duration of the transaction.
func dayActions(ctx context.Context, tx *sql.Tx, userID int64, day string) (hasCheckIn, hasCheckOut bool, err error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT action FROM attendance_events
		WHERE user_id = $1 AND attendance_day = $2
		FOR UPDATE`,
		userID, day)
	if err != nil {
		return false, false, fmt.Errorf("lock day events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var action models.Action
		if err := rows.Scan(&action); err != nil {
			return false, false, fmt.Errorf("scan day action: %w", err)
		}
		switch action {
		case models.ActionCheckIn:
			hasCheckIn = true
		case models.ActionCheckOut:
			hasCheckOut = true
		}
	}
	if err := rows.Err(); err != nil {
		return false, false, fmt.Errorf("iterate day actions: %w", err)
	}
	return hasCheckIn, hasCheckOut, nil
}

// DayEvents returns all events for (userID, day) ordered by event time.
func (s *Postgres) DayEvents(ctx context.Context, userID int64, day string) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, attendance_day, event_time, action, lat, lon, evidence_ref, note
		FROM attendance_events
		WHERE user_id = $1 AND attendance_day = $2
		ORDER BY event_time ASC`,
		userID, day)
	if err != nil {
		return nil, fmt.Errorf("query day events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			ev      models.Event
			evDay   time.Time
			evidRef sql.NullString
			note    sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &evDay, &ev.Time, &ev.Action, &ev.Lat, &ev.Lon, &evidRef, &note); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Day = evDay.Format(models.DayFormat)
		if evidRef.Valid {
			ev.EvidenceRef = &evidRef.String
		}
		if note.Valid {
			ev.Note = &note.String
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day events: %w", err)
	}
	return events, nil
}

// HistoryPage returns one page of grouped (user, day) rows and the total
// group count. The two queries run concurrently; the count may drift from
// the page under concurrent writes, which the read path tolerates.
func (s *Postgres) HistoryPage(ctx context.Context, limit, offset int) ([]models.HistoryRow, int, error) {
	var (
		historyRows []models.HistoryRow
		total       int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.db.QueryContext(gctx, `
			SELECT e.user_id,
			       TRIM(CONCAT_WS(' ', u.first_name, u.last_name)),
			       u.email,
			       e.attendance_day,
			       MIN(e.event_time) FILTER (WHERE e.action = 'check-in'),
			       MIN(e.evidence_ref) FILTER (WHERE e.action = 'check-in'),
			       MAX(e.event_time) FILTER (WHERE e.action = 'check-out'),
			       MAX(e.evidence_ref) FILTER (WHERE e.action = 'check-out')
			FROM attendance_events e
			JOIN users u ON u.id = e.user_id
			GROUP BY e.user_id, u.first_name, u.last_name, u.email, e.attendance_day
			ORDER BY e.attendance_day DESC, e.user_id ASC
			LIMIT $1 OFFSET $2`,
			limit, offset)
		if err != nil {
			return fmt.Errorf("query history page: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				row          models.HistoryRow
				day          time.Time
				checkInTime  sql.NullTime
				checkInRef   sql.NullString
				checkOutTime sql.NullTime
				checkOutRef  sql.NullString
			)
			if err := rows.Scan(&row.UserID, &row.FullName, &row.Email, &day,
				&checkInTime, &checkInRef, &checkOutTime, &checkOutRef); err != nil {
				return fmt.Errorf("scan history row: %w", err)
			}
			row.Day = day.Format(models.DayFormat)
			if checkInTime.Valid {
				row.CheckInTime = &checkInTime.Time
			}
			if checkInRef.Valid {
				row.CheckInEvidence = &checkInRef.String
			}
			if checkOutTime.Valid {
				row.CheckOutTime = &checkOutTime.Time
			}
			if checkOutRef.Valid {
				row.CheckOutEvidence = &checkOutRef.String
			}
			historyRows = append(historyRows, row)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate history rows: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.db.QueryRowContext(gctx, `
			SELECT COUNT(*) FROM (
				SELECT 1 FROM attendance_events GROUP BY user_id, attendance_day
			) groups`).Scan(&total)
		if err != nil {
			return fmt.Errorf("count history groups: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return historyRows, total, nil
}

// Stats computes one user's attendance summary over [startDay, endDay] in a
// single aggregate query.
func (s *Postgres) Stats(ctx context.Context, userID int64, startDay, endDay string) (models.Stats, error) {
	var stats models.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE has_check_in),
		       COUNT(*) FILTER (WHERE has_leave),
		       COUNT(*) FILTER (WHERE has_check_in AND NOT has_check_out)
		FROM (
			SELECT bool_or(action = 'check-in')  AS has_check_in,
			       bool_or(action = 'check-out') AS has_check_out,
			       bool_or(action = 'on-leave')  AS has_leave
			FROM attendance_events
			WHERE user_id = $1 AND attendance_day BETWEEN $2 AND $3
			GROUP BY attendance_day
		) days`,
		userID, startDay, endDay,
	).Scan(&stats.TotalAttendanceDays, &stats.TotalLeaves, &stats.TotalIncompleteDays)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Stats{}, nil
		}
		return models.Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
