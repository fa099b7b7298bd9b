package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"presence/internal/identity/models"
	"presence/internal/identity/store"
	"presence/internal/identity/token"
	dErrors "presence/pkg/domainerrors"
)

func newService(t *testing.T, st Store, throttle Throttle) *Service {
	t.Helper()
	tokens := token.NewService("test-signing-key", "presence-identity", time.Hour)
	return New(st, tokens, throttle, 3, slog.New(slog.DiscardHandler))
}

func seedUser(t *testing.T, st *store.Memory, email, password string, roles ...string) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return st.Seed(models.UserWithCredential{
		User: models.User{
			FirstName: "Jane",
			LastName:  "Smith",
			Email:     email,
			Status:    "active",
		},
		Credential: models.Credential{PasswordHash: string(hash)},
		Roles:      roles,
	})
}

func TestLogin_Success(t *testing.T) {
	st := store.NewMemory()
	seedUser(t, st, "jane@example.com", "correct horse", "Employee")
	svc := newService(t, st, nil)

	tok, err := svc.Login(context.Background(), "jane@example.com", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	principal, err := svc.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", principal.Name)
	assert.Equal(t, "jane@example.com", principal.Email)
	assert.True(t, principal.HasRole("Employee"))
	assert.False(t, principal.HasRole("Admin"))
	assert.False(t, principal.HasRole("employee"), "role match must be case-sensitive")
}

func TestLogin_WrongPasswordIncrementsCounter(t *testing.T) {
	st := store.NewMemory()
	id := seedUser(t, st, "jane@example.com", "correct horse", "Employee")
	svc := newService(t, st, nil)

	_, err := svc.Login(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	assert.Equal(t, 1, st.FailedLoginAttempts(id))

	_, err = svc.Login(context.Background(), "jane@example.com", "still wrong")
	require.Error(t, err)
	assert.Equal(t, 2, st.FailedLoginAttempts(id))
}

func TestLogin_UnknownEmailIndistinguishable(t *testing.T) {
	st := store.NewMemory()
	seedUser(t, st, "jane@example.com", "correct horse")
	svc := newService(t, st, nil)

	_, errUnknown := svc.Login(context.Background(), "nobody@example.com", "whatever")
	_, errWrongPass := svc.Login(context.Background(), "jane@example.com", "wrong")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPass)
	assert.Equal(t, dErrors.MessageOf(errUnknown), dErrors.MessageOf(errWrongPass))
}

type fakeThrottle struct {
	failures map[string]int
}

func newFakeThrottle() *fakeThrottle {
	return &fakeThrottle{failures: make(map[string]int)}
}

func (f *fakeThrottle) Failures(ctx context.Context, email string) (int, error) {
	return f.failures[email], nil
}

func (f *fakeThrottle) RecordFailure(ctx context.Context, email string) error {
	f.failures[email]++
	return nil
}

func (f *fakeThrottle) Reset(ctx context.Context, email string) error {
	delete(f.failures, email)
	return nil
}

func TestLogin_ThrottleBlocksAfterLimit(t *testing.T) {
	st := store.NewMemory()
	seedUser(t, st, "jane@example.com", "correct horse")
	throttle := newFakeThrottle()
	svc := newService(t, st, throttle)

	for range 3 {
		_, err := svc.Login(context.Background(), "jane@example.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, "invalid_credentials", dErrors.MessageOf(err))
	}

	// Limit reached: even the correct password is refused now.
	_, err := svc.Login(context.Background(), "jane@example.com", "correct horse")
	require.Error(t, err)
	assert.Equal(t, "too_many_failed_attempts", dErrors.MessageOf(err))
}

func TestLogin_SuccessResetsThrottle(t *testing.T) {
	st := store.NewMemory()
	seedUser(t, st, "jane@example.com", "correct horse")
	throttle := newFakeThrottle()
	svc := newService(t, st, throttle)

	_, err := svc.Login(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)

	_, err = svc.Login(context.Background(), "jane@example.com", "correct horse")
	require.NoError(t, err)
	assert.Zero(t, throttle.failures["jane@example.com"])
}

func TestRegister(t *testing.T) {
	st := store.NewMemory()
	svc := newService(t, st, nil)

	id, err := svc.Register(context.Background(), models.Registration{
		FirstName: "New",
		LastName:  "Hire",
		Email:     "new@example.com",
		Password:  "long enough password",
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	// Registered users can log in with the default role.
	tok, err := svc.Login(context.Background(), "new@example.com", "long enough password")
	require.NoError(t, err)
	principal, err := svc.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.True(t, principal.HasRole(models.DefaultRole))

	// Same email again conflicts.
	_, err = svc.Register(context.Background(), models.Registration{
		FirstName: "Other",
		Email:     "new@example.com",
		Password:  "another password",
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Equal(t, "email_already_registered", dErrors.MessageOf(err))
}

func TestRegister_Validation(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil)

	cases := []struct {
		name string
		reg  models.Registration
		want string
	}{
		{"missing first name", models.Registration{Email: "a@b.c", Password: "12345678"}, "missing_first_name"},
		{"bad email", models.Registration{FirstName: "A", Email: "not-an-email", Password: "12345678"}, "invalid_email"},
		{"short password", models.Registration{FirstName: "A", Email: "a@b.c", Password: "short"}, "password_too_short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.reg)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
			assert.Equal(t, tc.want, dErrors.MessageOf(err))
		})
	}
}

func TestHomeArea_Lifecycle(t *testing.T) {
	st := store.NewMemory()
	id := seedUser(t, st, "jane@example.com", "pw")
	svc := newService(t, st, nil)

	_, err := svc.HomeArea(context.Background(), id)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))

	area, err := svc.UpdateHomeArea(context.Background(), id, -6.2088, 106.8456)
	require.NoError(t, err)
	assert.Equal(t, -6.2088, area.Lat)

	got, err := svc.HomeArea(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 106.8456, got.Lon)

	// Overwritten on each update, one current value per user.
	_, err = svc.UpdateHomeArea(context.Background(), id, 1, 2)
	require.NoError(t, err)
	got, err = svc.HomeArea(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Lat)
	assert.Equal(t, 2.0, got.Lon)
}

func TestUpdateHomeArea_InvalidCoordinate(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil)

	_, err := svc.UpdateHomeArea(context.Background(), 1, 91, 0)
	require.Error(t, err)
	assert.Equal(t, "invalid_coordinate", dErrors.MessageOf(err))

	_, err = svc.UpdateHomeArea(context.Background(), 1, 0, -181)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}
