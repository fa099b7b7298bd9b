package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identitymodels "presence/internal/identity/models"
	"presence/internal/ledger/models"
	"presence/internal/ledger/store"
	dErrors "presence/pkg/domainerrors"
)

type fakeAreas struct {
	areas map[int64]*identitymodels.HomeArea
	err   error
}

func (f *fakeAreas) HomeArea(ctx context.Context, userID int64) (*identitymodels.HomeArea, error) {
	if f.err != nil {
		return nil, f.err
	}
	area, ok := f.areas[userID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "home_area_not_set")
	}
	return area, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var noon = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

func newService(st Store, areas AreaResolver, enforce bool) *Service {
	return New(st, areas, Config{EnforceGeofence: enforce, GeofenceRadiusM: 100}, slog.New(slog.DiscardHandler)).
		WithClock(fixedClock(noon))
}

func TestCheckIn_ThenCheckOut(t *testing.T) {
	st := store.NewMemory()
	svc := newService(st, &fakeAreas{}, false)

	inID, err := svc.CheckIn(context.Background(), 1, 10.0, 20.0, "ref-1.jpg")
	require.NoError(t, err)

	outID, err := svc.CheckOut(context.Background(), 1, 10.0, 20.0)
	require.NoError(t, err)
	assert.NotEqual(t, inID, outID)

	status, err := svc.Status(context.Background(), 1, "2026-03-02")
	require.NoError(t, err)
	require.NotNil(t, status.CheckIn)
	require.NotNil(t, status.CheckOut)
	require.NotNil(t, status.CheckInEvidence)
	assert.Equal(t, "ref-1.jpg", *status.CheckInEvidence)
}

func TestCheckIn_SecondSameDayConflicts(t *testing.T) {
	svc := newService(store.NewMemory(), &fakeAreas{}, false)

	_, err := svc.CheckIn(context.Background(), 1, 0, 0, "a.jpg")
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), 1, 0, 0, "b.jpg")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Equal(t, "already_checked_in", dErrors.MessageOf(err))
}

func TestCheckIn_ConcurrentSameDay(t *testing.T) {
	svc := newService(store.NewMemory(), &fakeAreas{}, false)

	const n = 20
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CheckIn(context.Background(), 1, 0, 0, "race.jpg")
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case dErrors.Is(err, dErrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent check-in must win")
	assert.Equal(t, n-1, conflicts)
}

func TestCheckIn_IndependentUsersAndDays(t *testing.T) {
	st := store.NewMemory()
	svc := newService(st, &fakeAreas{}, false)

	_, err := svc.CheckIn(context.Background(), 1, 0, 0, "u1.jpg")
	require.NoError(t, err)
	_, err = svc.CheckIn(context.Background(), 2, 0, 0, "u2.jpg")
	require.NoError(t, err, "a different user on the same day is unaffected")

	svc.WithClock(fixedClock(noon.AddDate(0, 0, 1)))
	_, err = svc.CheckIn(context.Background(), 1, 0, 0, "next-day.jpg")
	require.NoError(t, err, "the next day starts a fresh state machine")
}

func TestCheckOut_WithoutCheckIn(t *testing.T) {
	svc := newService(store.NewMemory(), &fakeAreas{}, false)

	_, err := svc.CheckOut(context.Background(), 1, 0, 0)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodePreconditionFailed))
	assert.Equal(t, "not_checked_in", dErrors.MessageOf(err))
}

func TestCheckOut_SecondSameDayConflicts(t *testing.T) {
	svc := newService(store.NewMemory(), &fakeAreas{}, false)

	_, err := svc.CheckIn(context.Background(), 1, 0, 0, "a.jpg")
	require.NoError(t, err)
	_, err = svc.CheckOut(context.Background(), 1, 0, 0)
	require.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), 1, 0, 0)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Equal(t, "already_checked_out", dErrors.MessageOf(err))
}

func TestCheckIn_Validation(t *testing.T) {
	svc := newService(store.NewMemory(), &fakeAreas{}, false)

	tests := []struct {
		name   string
		userID int64
		lat    float64
		lon    float64
		ref    string
		reason string
	}{
		{name: "zero user", userID: 0, ref: "a.jpg", reason: "invalid_user_id"},
		{name: "lat too high", userID: 1, lat: 91, ref: "a.jpg", reason: "invalid_coordinate"},
		{name: "lon too low", userID: 1, lon: -181, ref: "a.jpg", reason: "invalid_coordinate"},
		{name: "no evidence", userID: 1, ref: "", reason: "missing_evidence_ref"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CheckIn(context.Background(), tc.userID, tc.lat, tc.lon, tc.ref)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
			assert.Equal(t, tc.reason, dErrors.MessageOf(err))
		})
	}
}

func TestCheckIn_GeofenceRejectsRemotePosition(t *testing.T) {
	areas := &fakeAreas{areas: map[int64]*identitymodels.HomeArea{
		1: {Lat: 52.5200, Lon: 13.4050},
	}}
	svc := newService(store.NewMemory(), areas, true)

	// Roughly 1.1km north of the registered home point.
	_, err := svc.CheckIn(context.Background(), 1, 52.5300, 13.4050, "far.jpg")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	assert.Equal(t, "out_of_designated_area", dErrors.MessageOf(err))
}

func TestCheckIn_GeofenceAcceptsNearbyPosition(t *testing.T) {
	areas := &fakeAreas{areas: map[int64]*identitymodels.HomeArea{
		1: {Lat: 52.5200, Lon: 13.4050},
	}}
	svc := newService(store.NewMemory(), areas, true)

	_, err := svc.CheckIn(context.Background(), 1, 52.5200, 13.4051, "near.jpg")
	require.NoError(t, err)
}

func TestCheckIn_GeofenceSkipsUnsetHomeArea(t *testing.T) {
	svc := newService(store.NewMemory(), &fakeAreas{}, true)

	_, err := svc.CheckIn(context.Background(), 1, 52.5200, 13.4050, "anywhere.jpg")
	require.NoError(t, err, "users without a registered home area are not fenced")
}

func TestCheckIn_GeofenceResolverOutage(t *testing.T) {
	areas := &fakeAreas{err: dErrors.New(dErrors.CodeUnavailable, "upstream_unreachable")}
	svc := newService(store.NewMemory(), areas, true)

	_, err := svc.CheckIn(context.Background(), 1, 0, 0, "a.jpg")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable), "an outage must not silently bypass the fence")
}

func TestStatus_NoEvents(t *testing.T) {
	svc := newService(store.NewMemory(), &fakeAreas{}, false)

	_, err := svc.Status(context.Background(), 1, "2026-03-02")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	assert.Equal(t, "no_attendance_record", dErrors.MessageOf(err))
}

func TestStatus_CheckInOnly(t *testing.T) {
	svc := newService(store.NewMemory(), &fakeAreas{}, false)

	_, err := svc.CheckIn(context.Background(), 1, 0, 0, "half.jpg")
	require.NoError(t, err)

	status, err := svc.Status(context.Background(), 1, "2026-03-02")
	require.NoError(t, err)
	assert.NotNil(t, status.CheckIn)
	assert.Nil(t, status.CheckOut, "a missing check-out is a null, not an error")
}

func TestStatus_RejectsMalformedDate(t *testing.T) {
	svc := newService(store.NewMemory(), &fakeAreas{}, false)

	_, err := svc.Status(context.Background(), 1, "02-03-2026")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	assert.Equal(t, "invalid_date", dErrors.MessageOf(err))
}

func TestHistory_PaginationAndClamping(t *testing.T) {
	st := store.NewMemory()
	st.SeedUser(1, "Ava Li", "ava@example.com")
	st.SeedUser(2, "Ben Ortiz", "ben@example.com")
	svc := newService(st, &fakeAreas{}, false)

	_, err := svc.CheckIn(context.Background(), 1, 0, 0, "d1-u1.jpg")
	require.NoError(t, err)
	_, err = svc.CheckOut(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	_, err = svc.CheckIn(context.Background(), 2, 0, 0, "d1-u2.jpg")
	require.NoError(t, err)

	svc.WithClock(fixedClock(noon.AddDate(0, 0, 1)))
	_, err = svc.CheckIn(context.Background(), 1, 0, 0, "d2-u1.jpg")
	require.NoError(t, err)

	page, err := svc.History(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "2026-03-03", page.Rows[0].Day, "newest day first")
	assert.Equal(t, "Ava Li", page.Rows[0].FullName)

	page, err = svc.History(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "Ben Ortiz", page.Rows[0].FullName)
	assert.Nil(t, page.Rows[0].CheckOutTime)

	page, err = svc.History(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage, "page clamps up to 1")
	assert.Len(t, page.Rows, 3, "limit clamps to the default")
}

func TestStats_CountsDayKinds(t *testing.T) {
	st := store.NewMemory()
	svc := newService(st, &fakeAreas{}, false)

	_, err := svc.CheckIn(context.Background(), 1, 0, 0, "full.jpg")
	require.NoError(t, err)
	_, err = svc.CheckOut(context.Background(), 1, 0, 0)
	require.NoError(t, err)

	svc.WithClock(fixedClock(noon.AddDate(0, 0, 1)))
	_, err = svc.CheckIn(context.Background(), 1, 0, 0, "incomplete.jpg")
	require.NoError(t, err)

	st.AppendLeave(1, "2026-03-04", noon.AddDate(0, 0, 2))

	stats, err := svc.Stats(context.Background(), 1, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, models.Stats{
		TotalAttendanceDays: 2,
		TotalLeaves:         1,
		TotalIncompleteDays: 1,
	}, stats, "a check-in-only day counts as attendance and incomplete")
}

func TestStats_RangeValidation(t *testing.T) {
	svc := newService(store.NewMemory(), &fakeAreas{}, false)

	_, err := svc.Stats(context.Background(), 1, "2026-03-31", "2026-03-01")
	require.Error(t, err)
	assert.Equal(t, "invalid_date_range", dErrors.MessageOf(err))

	_, err = svc.Stats(context.Background(), 1, "not-a-date", "2026-03-01")
	require.Error(t, err)
	assert.Equal(t, "invalid_date", dErrors.MessageOf(err))
}
