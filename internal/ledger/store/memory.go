package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"presence/internal/ledger/models"
	dErrors "presence/pkg/domainerrors"
)

type memoryUser struct {
	FullName string
	Email    string
}

// Memory is an in-memory event store for tests. It enforces the same
// state-machine rules as Postgres under a single mutex.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	events []models.Event
	users  map[int64]memoryUser
}

func NewMemory() *Memory {
	return &Memory{users: make(map[int64]memoryUser)}
}

// SeedUser registers identity data for history rows. Test helper.
func (s *Memory) SeedUser(id int64, fullName, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = memoryUser{FullName: fullName, Email: email}
}

func (s *Memory) AppendCheckIn(ctx context.Context, userID int64, day string, at time.Time, lat, lon float64, evidenceRef string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hasCheckIn, _ := s.dayActions(userID, day)
	if hasCheckIn {
		return 0, dErrors.New(dErrors.CodeConflict, "already_checked_in")
	}

	s.nextID++
	ref := evidenceRef
	s.events = append(s.events, models.Event{
		ID:          s.nextID,
		UserID:      userID,
		Day:         day,
		Time:        at,
		Action:      models.ActionCheckIn,
		Lat:         lat,
		Lon:         lon,
		EvidenceRef: &ref,
	})
	return s.nextID, nil
}

func (s *Memory) AppendCheckOut(ctx context.Context, userID int64, day string, at time.Time, lat, lon float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hasCheckIn, hasCheckOut := s.dayActions(userID, day)
	if !hasCheckIn {
		return 0, dErrors.New(dErrors.CodePreconditionFailed, "not_checked_in")
	}
	if hasCheckOut {
		return 0, dErrors.New(dErrors.CodeConflict, "already_checked_out")
	}

	s.nextID++
	s.events = append(s.events, models.Event{
		ID:     s.nextID,
		UserID: userID,
		Day:    day,
		Time:   at,
		Action: models.ActionCheckOut,
		Lat:    lat,
		Lon:    lon,
	})
	return s.nextID, nil
}

// AppendLeave records an on-leave marker for a day. Test helper for stats.
func (s *Memory) AppendLeave(userID int64, day string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.events = append(s.events, models.Event{
		ID:     s.nextID,
		UserID: userID,
		Day:    day,
		Time:   at,
		Action: models.ActionOnLeave,
	})
}

func (s *Memory) dayActions(userID int64, day string) (hasCheckIn, hasCheckOut bool) {
	for _, ev := range s.events {
		if ev.UserID != userID || ev.Day != day {
			continue
		}
		switch ev.Action {
		case models.ActionCheckIn:
			hasCheckIn = true
		case models.ActionCheckOut:
			hasCheckOut = true
		}
	}
	return hasCheckIn, hasCheckOut
}

func (s *Memory) DayEvents(ctx context.Context, userID int64, day string) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []models.Event
	for _, ev := range s.events {
		if ev.UserID == userID && ev.Day == day {
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })
	return events, nil
}

func (s *Memory) HistoryPage(ctx context.Context, limit, offset int) ([]models.HistoryRow, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type groupKey struct {
		userID int64
		day    string
	}
	groups := make(map[groupKey]*models.HistoryRow)
	for i := range s.events {
		ev := s.events[i]
		key := groupKey{userID: ev.UserID, day: ev.Day}
		row, ok := groups[key]
		if !ok {
			u := s.users[ev.UserID]
			row = &models.HistoryRow{
				UserID:   ev.UserID,
				FullName: u.FullName,
				Email:    u.Email,
				Day:      ev.Day,
			}
			groups[key] = row
		}
		switch ev.Action {
		case models.ActionCheckIn:
			if row.CheckInTime == nil || ev.Time.Before(*row.CheckInTime) {
				t := ev.Time
				row.CheckInTime = &t
				row.CheckInEvidence = ev.EvidenceRef
			}
		case models.ActionCheckOut:
			if row.CheckOutTime == nil || ev.Time.After(*row.CheckOutTime) {
				t := ev.Time
				row.CheckOutTime = &t
				row.CheckOutEvidence = ev.EvidenceRef
			}
		}
	}

	all := make([]models.HistoryRow, 0, len(groups))
	for _, row := range groups {
		all = append(all, *row)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Day != all[j].Day {
			return all[i].Day > all[j].Day
		}
		return all[i].UserID < all[j].UserID
	})

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *Memory) Stats(ctx context.Context, userID int64, startDay, endDay string) (models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type dayFlags struct {
		checkIn, checkOut, leave bool
	}
	days := make(map[string]*dayFlags)
	for _, ev := range s.events {
		if ev.UserID != userID || ev.Day < startDay || ev.Day > endDay {
			continue
		}
		flags, ok := days[ev.Day]
		if !ok {
			flags = &dayFlags{}
			days[ev.Day] = flags
		}
		switch ev.Action {
		case models.ActionCheckIn:
			flags.checkIn = true
		case models.ActionCheckOut:
			flags.checkOut = true
		case models.ActionOnLeave:
			flags.leave = true
		}
	}

	var stats models.Stats
	for _, flags := range days {
		// Every checked-in day counts as attendance; a missing check-out
		// additionally marks the day incomplete.
		if flags.checkIn {
			stats.TotalAttendanceDays++
			if !flags.checkOut {
				stats.TotalIncompleteDays++
			}
		}
		if flags.leave {
			stats.TotalLeaves++
		}
	}
	return stats, nil
}

// Events returns a copy of every stored event. Test helper.
func (s *Memory) Events() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}
