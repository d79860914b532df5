package service

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", "test-issuer", 30*time.Minute)

	token, expiresAt, err := svc.Issue("admin1", models.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin1", claims.Subject)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.True(t, claims.Roles.Has(models.RoleAdmin))
	assert.False(t, claims.Roles.Has(models.RoleStudent))
}

func TestTokenServiceRolesAlwaysArray(t *testing.T) {
	svc := NewTokenService("test-secret", "test-issuer", time.Minute)

	token, _, err := svc.Issue("12345", models.RoleStudent)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &decoded))
	raw, ok := decoded["roles"]
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(raw)), "["), "roles claim must be a JSON array, got %s", raw)
}

func TestTokenServiceExpired(t *testing.T) {
	svc := NewTokenService("test-secret", "test-issuer", -time.Minute)

	token, _, err := svc.Issue("12345", models.RoleStudent)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
}

func TestTokenServiceTampered(t *testing.T) {
	svc := NewTokenService("test-secret", "test-issuer", time.Minute)

	token, _, err := svc.Issue("12345", models.RoleStudent)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.Verify(tampered)
	require.Error(t, err)
}

func TestTokenServiceWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", "test-issuer", time.Minute)
	verifier := NewTokenService("secret-b", "test-issuer", time.Minute)

	token, _, err := issuer.Issue("12345", models.RoleStudent)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestTokenServiceGarbage(t *testing.T) {
	svc := NewTokenService("test-secret", "test-issuer", time.Minute)

	_, err := svc.Verify("not-a-token")
	require.Error(t, err)
}
