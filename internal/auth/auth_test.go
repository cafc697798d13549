package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eukexpress-backend/internal/config"
	"eukexpress-backend/internal/models"
)

func testManager() *JWTManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "eukexpress-backend"
	cfg.JWT.ExpirationHours = 2
	return NewJWTManager(cfg)
}

func TestTokenRoundTrip(t *testing.T) {
	m := testManager()
	admin := &models.Admin{ID: uuid.New(), Username: "ops"}

	token, exp, err := m.GenerateToken(admin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), exp, time.Minute)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID.String(), claims.AdminID)
	assert.Equal(t, "ops", claims.Username)
}

func TestTokenRejected(t *testing.T) {
	m := testManager()
	admin := &models.Admin{ID: uuid.New(), Username: "ops"}
	token, _, err := m.GenerateToken(admin)
	require.NoError(t, err)

	other := testManager()
	other.secret = []byte("another-secret")
	_, err = other.ValidateToken(token)
	assert.Error(t, err, "wrong secret")

	m.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
	_, err = m.ValidateToken(token)
	assert.Error(t, err, "expired")

	_, err = m.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
