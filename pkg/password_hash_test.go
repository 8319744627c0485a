package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	passwordHash, err := HashPasswordWithCost("Secr3t!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEmpty(t, passwordHash)
	assert.NotEqual(t, "Secr3t!", passwordHash)
	assert.True(t, CheckPasswordHash("Secr3t!", passwordHash))
	assert.False(t, CheckPasswordHash("secr3t!", passwordHash))

	// salted: same password, different hash
	otherHash, err := HashPasswordWithCost("Secr3t!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, passwordHash, otherHash)
}

func TestCheckPasswordHash_KnownHash(t *testing.T) {
	assert.True(t, CheckPasswordHash("testpass", "$2a$14$6Gmhg85si2etd3K9oB8nYu1cxfbrdmhkg6wI6OXsa88IF4L2r/L9i"))
	assert.False(t, CheckPasswordHash("testpass", "not-a-hash"))
}
