package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key-32-bytes-long!!!", time.Hour, "voucherbox")
	userID := uuid.New()

	token, expiry, err := svc.Generate(userID, "user@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestJWTTokenService_RejectsWrongSecret(t *testing.T) {
	svc1 := NewJWTTokenService("secret-one-aaaaaaaaaaaaaaaaaaaaaa", time.Hour, "voucherbox")
	svc2 := NewJWTTokenService("secret-two-bbbbbbbbbbbbbbbbbbbbbb", time.Hour, "voucherbox")

	token, _, err := svc1.Generate(uuid.New(), "user@example.com")
	require.NoError(t, err)

	_, err = svc2.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key-32-bytes-long!!!", -time.Minute, "voucherbox")

	token, _, err := svc.Generate(uuid.New(), "user@example.com")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsGarbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key-32-bytes-long!!!", time.Hour, "voucherbox")

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
}
