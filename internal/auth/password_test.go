package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Passw0rd1")
	require.NoError(t, err)
	require.NotEqual(t, "Passw0rd1", hash)

	require.NoError(t, CheckPassword(hash, "Passw0rd1"))
	require.Error(t, CheckPassword(hash, "wrong"))
	require.Error(t, CheckPassword(hash, ""))
}

func TestHashPasswordSalted(t *testing.T) {
	a, err := HashPassword("Passw0rd1")
	require.NoError(t, err)
	b, err := HashPassword("Passw0rd1")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
