package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetTokenRoundTrip(t *testing.T) {
	token, exp, err := NewResetToken("secret", "amy@example.com")
	require.NoError(t, err)
	require.False(t, exp.IsZero())

	email, err := ParseResetToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, "amy@example.com", email)
}

func TestResetTokenWrongSecret(t *testing.T) {
	token, _, err := NewResetToken("secret", "amy@example.com")
	require.NoError(t, err)

	_, err = ParseResetToken("other-secret", token)
	require.Error(t, err)
}

func TestAccessTokenIsNotAResetToken(t *testing.T) {
	at, err := NewAccessToken("secret", 5, "amy@example.com", 15)
	require.NoError(t, err)

	_, err = ParseResetToken("secret", at.Token)
	require.Error(t, err)
}

func TestRefreshTokenHashIsStable(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	require.Len(t, rt.Raw, 96)
	require.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))

	other, err := NewRefreshToken(7)
	require.NoError(t, err)
	require.NotEqual(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(other.Raw))
}
