package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	model "auction-platform/internal/models"
)

var testKey = []byte("test-key")

func TestGenerateAndValidateUserJWT(t *testing.T) {
	t.Parallel()

	token, err := GenerateUserJWT("user1", model.RoleSeller, time.Hour, testKey)
	require.NoError(t, err)

	claims, err := ValidateUserJWT(token, testKey)
	require.NoError(t, err)
	require.Equal(t, "user1", claims.UserID)
	require.Equal(t, model.RoleSeller, claims.Role)
}

func TestValidateUserJWT_Expired(t *testing.T) {
	t.Parallel()

	token, err := GenerateUserJWT("user1", model.RoleBuyer, -time.Minute, testKey)
	require.NoError(t, err)

	_, err = ValidateUserJWT(token, testKey)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateUserJWT_WrongKey(t *testing.T) {
	t.Parallel()

	token, err := GenerateUserJWT("user1", model.RoleBuyer, time.Hour, testKey)
	require.NoError(t, err)

	_, err = ValidateUserJWT(token, []byte("other-key"))
	require.Error(t, err)
}

func TestValidateUserJWT_Garbage(t *testing.T) {
	t.Parallel()

	_, err := ValidateUserJWT("not-a-token", testKey)
	require.Error(t, err)
}
