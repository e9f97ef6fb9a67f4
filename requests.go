package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	command "github.com/goliatone/go-command"
)

var (
	_ command.Message = RegisterUserMessage{}
	_ command.Message = LoginMessage{}
	_ command.Message = ResetPasswordMessage{}
)

// MinRequestPasswordLength is the shortest password accepted from a request
const MinRequestPasswordLength = 6

// RegisterUserMessage asks to register a new identity
type RegisterUserMessage struct {
	FullName string `json:"fullName" form:"fullName"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

func (e RegisterUserMessage) Validate() error {
	return requestError(validation.ValidateStruct(&e,
		validation.Field(&e.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(3, 256), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(MinRequestPasswordLength, MaxPasswordBytes)),
	))
}

// LoginMessage asks for a token for an identity
type LoginMessage struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (e LoginMessage) Type() string { return "user.login" }

func (e LoginMessage) Validate() error {
	return requestError(validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required),
	))
}

// ResetPasswordMessage asks to replace an identity's password
type ResetPasswordMessage struct {
	Email              string `json:"email" form:"email"`
	NewPassword        string `json:"newPassword" form:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword" form:"confirmNewPassword"`
}

func (e ResetPasswordMessage) Type() string { return "user.password.reset" }

func (e ResetPasswordMessage) Validate() error {
	return requestError(validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(MinRequestPasswordLength, MaxPasswordBytes)),
		validation.Field(
			&e.ConfirmNewPassword,
			validation.Required,
			validation.By(ValidateStringEquals(e.NewPassword)),
		),
	))
}

// ValidateStringEquals checks that a value matches str
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

func requestError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		if ferr != nil {
			fields[field] = ferr.Error()
		}
	}
	return &RequestValidationError{Fields: fields}
}
