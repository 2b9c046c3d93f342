package auth_test

import (
	"testing"

	"github.com/jrsteele09/backoffice-console/auth"
	"github.com/jrsteele09/backoffice-console/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidateCredentials(t *testing.T) {
	v := auth.NewValidator()

	t.Run("valid credentials", func(t *testing.T) {
		require.NoError(t, v.ValidateCredentials("user@example.com", "password123"))
	})

	t.Run("empty email", func(t *testing.T) {
		require.ErrorIs(t, v.ValidateCredentials("  ", "password123"), auth.ErrEmailRequired)
	})

	t.Run("invalid email format", func(t *testing.T) {
		for _, email := range []string{"userexample.com", "@example.com", "user@localhost", "us er@example.com"} {
			require.ErrorIs(t, v.ValidateCredentials(email, "password123"), auth.ErrInvalidEmail, email)
		}
	})

	t.Run("empty password", func(t *testing.T) {
		require.ErrorIs(t, v.ValidateCredentials("user@example.com", ""), auth.ErrPasswordRequired)
	})
}

func TestValidator_ValidateProfileUpdate(t *testing.T) {
	v := auth.NewValidator()

	require.ErrorIs(t, v.ValidateProfileUpdate(auth.ProfileUpdate{}), auth.ErrEmptyUpdate)
	require.ErrorIs(t, v.ValidateProfileUpdate(auth.ProfileUpdate{Email: utils.Ptr("nope")}), auth.ErrInvalidEmail)
	require.Error(t, v.ValidateProfileUpdate(auth.ProfileUpdate{Name: utils.Ptr(" ")}))
	require.NoError(t, v.ValidateProfileUpdate(auth.ProfileUpdate{Name: utils.Ptr("Amina"), Phone: utils.Ptr("0600000000")}))
	require.NoError(t, v.ValidateProfileUpdate(auth.ProfileUpdate{Email: utils.Ptr(" user@example.com ")}))
}
