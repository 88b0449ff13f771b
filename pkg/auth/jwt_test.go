package auth_test

import (
	"testing"
	"time"

	"github.com/diagnosis/guestlobby/pkg/auth"
	"github.com/stretchr/testify/require"
)

func TestGuestSessionToken(t *testing.T) {
	token, err := auth.NewGuestSessionToken("s1", "p1", "g@example.com", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := auth.ParseGuestSessionToken(token, "secret")
	require.NoError(t, err)
	require.Equal(t, "s1", claims.SessionID)
	require.Equal(t, "p1", claims.ProjectID)
	require.Equal(t, "g@example.com", claims.Email)
}

func TestGuestSessionTokenWrongSecret(t *testing.T) {
	token, err := auth.NewGuestSessionToken("s1", "p1", "g@example.com", "secret", time.Hour)
	require.NoError(t, err)

	_, err = auth.ParseGuestSessionToken(token, "other-secret")
	require.Error(t, err)
}

func TestGuestSessionTokenExpired(t *testing.T) {
	token, err := auth.NewGuestSessionToken("s1", "p1", "g@example.com", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = auth.ParseGuestSessionToken(token, "secret")
	require.Error(t, err)
}
