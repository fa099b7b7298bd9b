package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence/internal/identity/models"
	dErrors "presence/pkg/domainerrors"
)

var testPrincipal = &models.Principal{
	ID:    42,
	Name:  "Jane Smith",
	Email: "jane@example.com",
	Roles: []string{"Employee"},
}

func TestIssueAndVerify(t *testing.T) {
	svc := NewService("test-signing-key", "presence-identity", time.Hour)

	tok, err := svc.Issue(testPrincipal)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	got, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, testPrincipal.ID, got.ID)
	assert.Equal(t, testPrincipal.Name, got.Name)
	assert.Equal(t, testPrincipal.Email, got.Email)
	assert.Equal(t, testPrincipal.Roles, got.Roles)
}

func TestVerify_ExpiredToken(t *testing.T) {
	svc := NewService("test-signing-key", "presence-identity", -time.Minute)

	tok, err := svc.Issue(testPrincipal)
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "token_expired", dErrors.MessageOf(err))
}

func TestVerify_WrongKey(t *testing.T) {
	issuer := NewService("key-one", "presence-identity", time.Hour)
	verifier := NewService("key-two", "presence-identity", time.Hour)

	tok, err := issuer.Issue(testPrincipal)
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "invalid_token", dErrors.MessageOf(err))
}

func TestVerify_Garbage(t *testing.T) {
	svc := NewService("test-signing-key", "presence-identity", time.Hour)

	_, err := svc.Verify("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
