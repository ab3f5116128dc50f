package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := NewJWTManager("test-secret", "cardmarket", time.Hour)

	token, err := manager.GenerateToken(42, "ash", "user")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "ash", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "cardmarket", claims.Issuer)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	manager := NewJWTManager("test-secret", "cardmarket", time.Hour)
	other := NewJWTManager("other-secret", "cardmarket", time.Hour)

	token, err := manager.GenerateToken(1, "ash", "user")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_Expired(t *testing.T) {
	manager := NewJWTManager("test-secret", "cardmarket", -time.Minute)

	token, err := manager.GenerateToken(1, "ash", "user")
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_Garbage(t *testing.T) {
	manager := NewJWTManager("test-secret", "cardmarket", time.Hour)

	_, err := manager.ValidateToken("not.a.token")
	assert.Error(t, err)
}
