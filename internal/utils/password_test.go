package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"notes_system/internal/utils"
)

func TestBcryptHasher(t *testing.T) {
	hasher := utils.NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, hasher.Verify("s3cret", hash))
	assert.False(t, hasher.Verify("wrong", hash))

	// Salted: two hashes of the same password differ
	again, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}

func TestBcryptHasher_CostOutOfRange(t *testing.T) {
	hasher := utils.NewBcryptHasher(100)
	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestBcryptHasher_VerifyMalformedHash(t *testing.T) {
	assert.False(t, utils.NewBcryptHasher(bcrypt.MinCost).Verify("s3cret", "plaintext"))
}
