// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/advisory-backend/internal/config"
	"github.com/carterperez-dev/advisory-backend/internal/core"
)

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(privatePath, publicPath))

	m, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     privatePath,
		PublicKeyPath:      publicPath,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: time.Hour,
		Issuer:             "advisory-backend-test",
		Audience:           "advisory-backend-test-api",
	})
	require.NoError(t, err)
	return m
}

func TestJWTManagerRoundTrip(t *testing.T) {
	m := newTestJWTManager(t)

	token, err := m.CreateAccessToken(AccessTokenClaims{
		UserID:       "user-1",
		Role:         "programmer",
		TokenVersion: 3,
	})
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "programmer", claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.NotEmpty(t, claims.JTI)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt, 5*time.Second)
	assert.NotEmpty(t, m.GetKeyID())
}

func TestJWTManagerRejectsForeignTokens(t *testing.T) {
	m := newTestJWTManager(t)
	other := newTestJWTManager(t)

	token, err := other.CreateAccessToken(AccessTokenClaims{UserID: "user-1", Role: "client"})
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(context.Background(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTokenInvalid))

	_, err = m.VerifyAccessToken(context.Background(), "not-a-jwt")
	assert.True(t, errors.Is(err, core.ErrTokenInvalid))
}

func TestCreateRefreshToken(t *testing.T) {
	m := newTestJWTManager(t)

	data, err := m.CreateRefreshToken("user-1", "")
	require.NoError(t, err)

	assert.NotEmpty(t, data.FamilyID)
	assert.True(t, m.VerifyRefreshTokenHash(data.Token, data.Hash))
	assert.False(t, m.VerifyRefreshTokenHash("tampered", data.Hash))

	next, err := m.CreateRefreshToken("user-1", data.FamilyID)
	require.NoError(t, err)
	assert.Equal(t, data.FamilyID, next.FamilyID)
}

func TestJWTManagerReportsExpiryOnlyForGenuineTokens(t *testing.T) {
	m := newTestJWTManager(t)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	stale, err := m.CreateAccessToken(AccessTokenClaims{UserID: "user-1", Role: "client"})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyAccessToken(context.Background(), stale)
	assert.ErrorIs(t, err, core.ErrTokenExpired)

	forged := newTestJWTManager(t)
	forged.now = m.now
	foreign, err := forged.CreateAccessToken(AccessTokenClaims{UserID: "user-1", Role: "client"})
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(context.Background(), foreign)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestGenerateKeyPairWritesLoadableKeys(t *testing.T) {
	dir := t.TempDir()
	privatePath := filepath.Join(dir, "k.pem")
	publicPath := filepath.Join(dir, "k.pub.pem")
	require.NoError(t, GenerateKeyPair(privatePath, publicPath))

	info, err := os.Stat(privatePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(privateKeyMode), info.Mode().Perm())

	key, err := loadSigningKey(privatePath)
	require.NoError(t, err)
	kid, ok := key.KeyID()
	assert.True(t, ok)
	assert.Len(t, kid, 8)
}
