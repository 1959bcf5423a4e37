package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"resdir/internal/apierror"
	"resdir/internal/db/dbtest"
	"resdir/internal/models"
)

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&models.User{
		Username: "alice", PasswordHash: string(hash), Active: true,
	}).Error)
	require.NoError(t, gdb.Create(&models.User{
		Username: "mallory", PasswordHash: string(hash), Active: false,
	}).Error)

	// The inactive flag must survive the insert; a column default would
	// overwrite the zero value and reactivate the account.
	var mallory models.User
	require.NoError(t, gdb.First(&mallory, "username = ?", "mallory").Error)
	require.False(t, mallory.Active)

	// Unknown user, wrong password, and deactivated account must all
	// produce the exact same error, so callers cannot probe accounts.
	_, unknownErr := Authenticate(gdb, "bob", "whatever")
	_, badPassErr := Authenticate(gdb, "alice", "wrong")
	_, inactiveErr := Authenticate(gdb, "mallory", "correct horse")

	for _, err := range []error{unknownErr, badPassErr, inactiveErr} {
		require.Error(t, err)
		assert.True(t, apierror.IsKind(err, apierror.KindUnauthorized))
		assert.Equal(t, unknownErr.Error(), err.Error())
	}
}

func TestAuthenticateAndTokenRoundTrip(t *testing.T) {
	gdb := dbtest.OpenTest(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&models.User{
		Username: "alice", PasswordHash: string(hash), Active: true,
	}).Error)

	user, err := Authenticate(gdb, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	token, err := IssueToken(user, "test-secret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
