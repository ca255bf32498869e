package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_SaltedAndVerifiable(t *testing.T) {
	h1, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "fresh salt per hash")
	assert.NotContains(t, h1, "hunter2")
	assert.True(t, VerifyPassword(h1, "hunter2"))
	assert.True(t, VerifyPassword(h2, "hunter2"))
	assert.False(t, VerifyPassword(h1, "hunter3"))
	assert.False(t, VerifyPassword("not-a-hash", "hunter2"))
}

func TestHashPassword_InvalidCost(t *testing.T) {
	_, err := HashPassword("x", 99)
	assert.Error(t, err)
}

func TestBurnPasswordCheck_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { BurnPasswordCheck("anything") })
}
