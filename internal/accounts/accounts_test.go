package accounts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"auction-platform/internal/accounts/tokens"
	"auction-platform/internal/auctionerrors"
	model "auction-platform/internal/models"
	"auction-platform/internal/repository"
)

var testSecret = []byte("test-secret")

func newService() *Service {
	return NewService(repository.NewMemoryLedger(), testSecret, time.Hour)
}

// Tests Register
func TestService_Register(t *testing.T) {
	t.Parallel()
	service := newService()

	tests := []struct {
		name    string
		params  RegisterParams
		wantErr error
	}{
		{name: "valid_buyer", params: RegisterParams{Email: "alice@example.com", Username: "alice", Password: "secret123"}, wantErr: nil},
		{name: "valid_seller", params: RegisterParams{Email: "bob@example.com", Username: "bob", Password: "secret123", Role: model.RoleSeller}, wantErr: nil},
		{name: "missing_email", params: RegisterParams{Username: "carol", Password: "secret123"}, wantErr: auctionerrors.ErrInvalidCredentials},
		{name: "missing_password", params: RegisterParams{Email: "carol@example.com", Username: "carol"}, wantErr: auctionerrors.ErrInvalidCredentials},
		{name: "duplicate_email", params: RegisterParams{Email: "alice@example.com", Username: "alice2", Password: "secret123"}, wantErr: auctionerrors.ErrDuplicateUser},
		{name: "duplicate_username", params: RegisterParams{Email: "alice2@example.com", Username: "alice", Password: "secret123"}, wantErr: auctionerrors.ErrDuplicateUser},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			user, err := service.Register(tc.params)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, user.UserID)
			require.True(t, user.Balance.IsZero())
			require.NotEqual(t, tc.params.Password, user.PasswordHash)
			if tc.params.Role == "" {
				require.Equal(t, model.RoleBuyer, user.Role)
			} else {
				require.Equal(t, tc.params.Role, user.Role)
			}
		})
	}
}

// Tests Login
func TestService_Login(t *testing.T) {
	t.Parallel()
	service := newService()

	registered, err := service.Register(RegisterParams{Email: "alice@example.com", Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	t.Run("valid_credentials", func(t *testing.T) {
		user, token, err := service.Login("alice@example.com", "secret123")
		require.NoError(t, err)
		require.Equal(t, registered.UserID, user.UserID)

		claims, err := tokens.ValidateUserJWT(token, testSecret)
		require.NoError(t, err)
		require.Equal(t, registered.UserID, claims.UserID)
		require.Equal(t, model.RoleBuyer, claims.Role)
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, _, err := service.Login("alice@example.com", "wrong")
		require.ErrorIs(t, err, auctionerrors.ErrInvalidCredentials)
	})

	t.Run("unknown_email", func(t *testing.T) {
		_, _, err := service.Login("ghost@example.com", "secret123")
		require.ErrorIs(t, err, auctionerrors.ErrInvalidCredentials)
	})
}

// Tests GetProfile
func TestService_GetProfile(t *testing.T) {
	t.Parallel()
	service := newService()

	registered, err := service.Register(RegisterParams{Email: "alice@example.com", Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	profile, err := service.GetProfile(registered.UserID)
	require.NoError(t, err)
	require.Equal(t, "alice", profile.Username)

	_, err = service.GetProfile("ghost")
	require.ErrorIs(t, err, auctionerrors.ErrUserNotFound)
}
