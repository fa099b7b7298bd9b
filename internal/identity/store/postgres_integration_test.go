//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence/internal/identity/models"
	dErrors "presence/pkg/domainerrors"
	"presence/pkg/testutil/containers"
)

func TestPostgres_CreateAndFindUser(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	st := NewPostgres(pg.DB)
	ctx := context.Background()

	reg := models.Registration{
		FirstName: "Ava",
		LastName:  "Li",
		Email:     "ava@example.com",
		Password:  "ignored-here",
	}
	userID, err := st.CreateUser(ctx, reg, "$2a$10$fakehash")
	require.NoError(t, err)
	assert.Positive(t, userID)

	user, err := st.FindUserByEmail(ctx, "ava@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, userID, user.User.ID)
	assert.Equal(t, "Ava Li", user.FullName())
	assert.Equal(t, "$2a$10$fakehash", user.PasswordHash)
	assert.Equal(t, []string{models.DefaultRole}, user.Roles)

	missing, err := st.FindUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing, "unknown email is nil, not an error")
}

func TestPostgres_DuplicateEmail(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	st := NewPostgres(pg.DB)
	ctx := context.Background()

	reg := models.Registration{FirstName: "Ben", Email: "ben@example.com", Password: "x"}
	_, err := st.CreateUser(ctx, reg, "$2a$10$fakehash")
	require.NoError(t, err)

	_, err = st.CreateUser(ctx, reg, "$2a$10$otherhash")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Equal(t, "email_already_registered", dErrors.MessageOf(err))
}

func TestPostgres_FailedLoginCounter(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	st := NewPostgres(pg.DB)
	ctx := context.Background()

	userID, err := st.CreateUser(ctx, models.Registration{
		FirstName: "Cara", Email: "cara@example.com", Password: "x",
	}, "$2a$10$fakehash")
	require.NoError(t, err)

	require.NoError(t, st.RecordFailedLogin(ctx, userID, 1))
	require.NoError(t, st.RecordFailedLogin(ctx, userID, 2))

	user, err := st.FindUserByEmail(ctx, "cara@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, user.FailedLoginAttempts)
}

func TestPostgres_HomeAreaLifecycle(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	st := NewPostgres(pg.DB)
	ctx := context.Background()

	userID, err := st.CreateUser(ctx, models.Registration{
		FirstName: "Dev", Email: "dev@example.com", Password: "x",
	}, "$2a$10$fakehash")
	require.NoError(t, err)

	area, err := st.GetHomeArea(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, area, "unset area is nil, not an error")

	require.NoError(t, st.UpdateHomeArea(ctx, userID, 52.52, 13.405))

	area, err = st.GetHomeArea(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, area)
	assert.Equal(t, 52.52, area.Lat)
	assert.Equal(t, 13.405, area.Lon)

	err = st.UpdateHomeArea(ctx, 999999, 0, 0)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
