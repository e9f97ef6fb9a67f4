package auth_test

import (
	"errors"
	"strings"
	"testing"

	auth "github.com/goliatone/go-credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var reqErr *auth.RequestValidationError
	require.True(t, errors.As(err, &reqErr), "expected a RequestValidationError, got %v", err)
	return reqErr.Fields
}

func TestRegisterUserMessage_Validate(t *testing.T) {
	valid := auth.RegisterUserMessage{FullName: "Alice", Email: "a@x.com", Password: "Passw0rd"}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, "user.register", valid.Type())

	fields := requestFields(t, auth.RegisterUserMessage{Email: "not-an-email", Password: "short"}.Validate())
	assert.Contains(t, fields, "fullName")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestLoginMessage_Validate(t *testing.T) {
	assert.NoError(t, auth.LoginMessage{Email: "a@x.com", Password: "x"}.Validate())

	fields := requestFields(t, auth.LoginMessage{Email: "a@x.com"}.Validate())
	assert.Equal(t, []string{"password"}, keys(fields))
}

func TestResetPasswordMessage_Validate(t *testing.T) {
	valid := auth.ResetPasswordMessage{
		Email:              "a@x.com",
		NewPassword:        "N3wPassword",
		ConfirmNewPassword: "N3wPassword",
	}
	assert.NoError(t, valid.Validate())

	mismatch := valid
	mismatch.ConfirmNewPassword = "N3wPassworD"
	fields := requestFields(t, mismatch.Validate())
	assert.Equal(t, "values must match", fields["confirmNewPassword"])

	short := valid
	short.NewPassword, short.ConfirmNewPassword = "Ab1", "Ab1"
	fields = requestFields(t, short.Validate())
	assert.Contains(t, fields, "newPassword")

	long := valid
	long.NewPassword = "N3wPassword" + strings.Repeat("a", auth.MaxPasswordBytes)
	long.ConfirmNewPassword = long.NewPassword
	fields = requestFields(t, long.Validate())
	assert.Contains(t, fields, "newPassword")
}

func TestRegisterUserMessage_PasswordLengthCap(t *testing.T) {
	msg := auth.RegisterUserMessage{FullName: "Alice", Email: "a@x.com"}

	msg.Password = "Passw0rd" + strings.Repeat("a", auth.MaxPasswordBytes-8)
	assert.NoError(t, msg.Validate())

	msg.Password += "a"
	fields := requestFields(t, msg.Validate())
	assert.Contains(t, fields, "password")
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
