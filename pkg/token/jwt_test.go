package token

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)
	tenantID := uuid.New()

	tokenString, err := manager.GenerateToken(42, tenantID, "alice", "USER")
	require.NoError(t, err)

	claims, err := manager.VerifyToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, tenantID, claims.TenantID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "USER", claims.Role)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)
	tokenString, err := manager.GenerateToken(42, uuid.New(), "alice", "USER")
	require.NoError(t, err)

	other := NewJWTManager("another-secret", 1, 7)
	_, err = other.VerifyToken(tokenString)
	assert.Error(t, err)
}

func TestVerifyTokenTampered(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)
	tokenString, err := manager.GenerateToken(42, uuid.New(), "alice", "USER")
	require.NoError(t, err)

	parts := strings.Split(tokenString, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + ".eyJ1c2VySWQiOjF9." + parts[2]
	_, err = manager.VerifyToken(tampered)
	assert.Error(t, err)
}

func TestVerifyTokenExpired(t *testing.T) {
	// 负的有效期让 token 生成即过期
	manager := NewJWTManager("test-secret", -1, -1)
	tokenString, err := manager.GenerateToken(42, uuid.New(), "alice", "USER")
	require.NoError(t, err)

	_, err = manager.VerifyToken(tokenString)
	assert.Error(t, err)
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	// access token 已过期时 refresh token 仍然有效
	manager := NewJWTManager("test-secret", -1, 7)
	refresh, err := manager.GenerateRefreshToken(42, uuid.New(), "alice", "USER")
	require.NoError(t, err)

	claims, err := manager.VerifyToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
}
