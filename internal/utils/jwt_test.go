package utils_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes_system/internal/domain"
	"notes_system/internal/utils"
)

func TestTokenService_IssueAndExtract(t *testing.T) {
	tokens := utils.NewTokenService([]byte("test-secret"))

	token, err := tokens.Issue("alice@example.com")
	require.NoError(t, err)

	subject, err := tokens.ExtractSubject(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", subject)
	assert.True(t, tokens.IsValid(token))
}

func TestTokenService_Expiry(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens := utils.NewTokenService([]byte("test-secret")).WithClock(func() time.Time { return issued })

	token, err := tokens.Issue("alice@example.com")
	require.NoError(t, err)

	justBefore := tokens.WithClock(func() time.Time { return issued.Add(utils.TokenTTL - time.Second) })
	assert.True(t, justBefore.IsValid(token))

	after := tokens.WithClock(func() time.Time { return issued.Add(utils.TokenTTL + time.Second) })
	assert.False(t, after.IsValid(token))

	// The subject stays readable after expiry
	subject, err := after.ExtractSubject(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", subject)
}

func TestTokenService_RejectsForeignSignature(t *testing.T) {
	token, err := utils.NewTokenService([]byte("other-secret")).Issue("alice@example.com")
	require.NoError(t, err)

	tokens := utils.NewTokenService([]byte("test-secret"))
	_, err = tokens.ExtractSubject(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.False(t, tokens.IsValid(token))
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	tokens := utils.NewTokenService([]byte("test-secret"))
	_, err := tokens.ExtractSubject("not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.False(t, tokens.IsValid("not-a-token"))
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	secret := []byte("test-secret")
	claims := jwt.RegisteredClaims{
		Subject:   "alice@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)

	tokens := utils.NewTokenService(secret)
	_, err = tokens.ExtractSubject(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenService_RequiresExpiry(t *testing.T) {
	secret := []byte("test-secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice@example.com"}).SignedString(secret)
	require.NoError(t, err)

	assert.False(t, utils.NewTokenService(secret).IsValid(token))
}
