package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	userID := uuid.New().String()

	t.Run("Round Trip", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(userID, "rider@example.com", []string{"passenger"})
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := svc.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "rider@example.com", claims.Email)
		assert.Equal(t, []string{"passenger"}, claims.Roles)
		assert.Equal(t, "ridelink-booking", claims.Issuer)
	})

	t.Run("Wrong Secret Rejected", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(userID, "rider@example.com", nil)
		require.NoError(t, err)

		other := NewService("other-secret", time.Hour)
		_, err = other.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Expired Token Rejected", func(t *testing.T) {
		expired := NewService("test-secret", -time.Minute)
		token, err := expired.GenerateAccessToken(userID, "rider@example.com", nil)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Garbage Token Rejected", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not.a.token")
		assert.Error(t, err)
	})
}
