package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "creditrisk-test",
		Expiration: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, []string{RoleBank, RoleAdmin})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, []string{RoleBank, RoleAdmin}, claims.Roles)
	assert.Equal(t, "creditrisk-test", claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestValidateToken_Expired(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s", Issuer: "creditrisk-test", Expiration: -time.Hour})
	require.NoError(t, err)

	token, err := svc.GenerateToken(uuid.New(), []string{RoleApplicant})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_InvalidSignature(t *testing.T) {
	svc1, err := NewJWTService(JWTConfig{Secret: "secret-one", Expiration: time.Minute})
	require.NoError(t, err)
	svc2, err := NewJWTService(JWTConfig{Secret: "secret-two", Expiration: time.Minute})
	require.NoError(t, err)

	token, err := svc1.GenerateToken(uuid.New(), []string{RoleApplicant})
	require.NoError(t, err)

	_, err = svc2.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	issuer, err := NewJWTService(JWTConfig{Secret: "s", Issuer: "someone-else", Expiration: time.Minute})
	require.NoError(t, err)
	token, err := issuer.GenerateToken(uuid.New(), nil)
	require.NoError(t, err)

	_, err = newTestJWTService(t).ValidateToken(token)
	assert.Error(t, err)
}

func TestRSAKeyPair(t *testing.T) {
	privPEM, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	signer, err := NewJWTService(JWTConfig{PrivateKeyPEM: string(privPEM), Expiration: time.Minute})
	require.NoError(t, err)
	validator, err := NewJWTService(JWTConfig{PublicKeyPEM: string(pubPEM)})
	require.NoError(t, err)

	userID := uuid.New()
	token, err := signer.GenerateToken(userID, []string{RoleBank})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	_, err = validator.GenerateToken(userID, nil)
	assert.ErrorContains(t, err, "validation-only")
}

func TestResolveConfig(t *testing.T) {
	_, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)
	keyFile := filepath.Join(t.TempDir(), "jwt.pub")
	require.NoError(t, os.WriteFile(keyFile, pubPEM, 0o600))

	t.Run("inline key wins", func(t *testing.T) {
		cfg, err := ResolveConfig("iss", string(pubPEM), keyFile, "secret")
		require.NoError(t, err)
		assert.Equal(t, string(pubPEM), cfg.PublicKeyPEM)
		assert.Empty(t, cfg.Secret)
	})

	t.Run("key file", func(t *testing.T) {
		cfg, err := ResolveConfig("iss", "", keyFile, "secret")
		require.NoError(t, err)
		assert.Equal(t, string(pubPEM), cfg.PublicKeyPEM)
	})

	t.Run("secret fallback", func(t *testing.T) {
		cfg, err := ResolveConfig("iss", "", "", "secret")
		require.NoError(t, err)
		assert.Equal(t, "secret", cfg.Secret)
		assert.Equal(t, "iss", cfg.Issuer)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := ResolveConfig("iss", "", "", "")
		assert.Error(t, err)
	})
}

func TestHasRole(t *testing.T) {
	claims := Claims{Roles: []string{RoleBank}}

	assert.True(t, claims.HasRole(RoleBank))
	assert.False(t, claims.HasRole(RoleAdmin))
	assert.True(t, claims.HasAnyRole(RoleAdmin, RoleBank))
	assert.False(t, claims.HasAnyRole(RoleApplicant))
}

func TestClaimsFromContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	want := &Claims{UserID: uuid.New()}
	got, ok := ClaimsFromContext(ContextWithClaims(context.Background(), want))
	require.True(t, ok)
	assert.Same(t, want, got)
}
