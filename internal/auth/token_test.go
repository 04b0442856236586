package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthshare/vault-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-key", "vault-service")

	token, err := m.Issue(domain.User{ID: "u1", Name: "Dad", Role: domain.RoleAdmin}, "vault-1", time.Hour)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Dad", claims.UserName)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, "vault-1", claims.VaultID)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuer := NewManager("key-one", "vault-service")
	verifier := NewManager("key-two", "vault-service")

	token, err := issuer.Issue(domain.User{ID: "u1", Name: "Dad"}, "vault-1", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-key", "vault-service")

	token, err := m.Issue(domain.User{ID: "u1", Name: "Dad"}, "vault-1", -time.Minute)
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewManager("test-key", "vault-service")

	_, err := m.Validate("not.a.token")
	assert.Error(t, err)
}
