package auth

import (
	"context"
)

// Workflow runs the register, login and password reset commands against a
// CredentialStore. It holds no state between calls.
type Workflow struct {
	register *RegisterUserHandler
	login    *LoginHandler
	reset    *ResetPasswordHandler
	issuer   *TokenIssuer
}

// NewWorkflow wires the command handlers. The issuer is only used by login.
func NewWorkflow(store CredentialStore, issuer *TokenIssuer) *Workflow {
	return &Workflow{
		register: NewRegisterUserHandler(store),
		login:    NewLoginHandler(store, issuer),
		reset:    NewResetPasswordHandler(store),
		issuer:   issuer,
	}
}

func (w *Workflow) WithLogger(logger Logger) *Workflow {
	w.register.WithLogger(logger)
	w.login.WithLogger(logger)
	w.reset.WithLogger(logger)
	return w
}

func (w *Workflow) WithActivitySink(sink ActivitySink) *Workflow {
	w.register.WithActivitySink(sink)
	w.login.WithActivitySink(sink)
	w.reset.WithActivitySink(sink)
	return w
}

// TokenIssuer returns the issuer used for login
func (w *Workflow) TokenIssuer() *TokenIssuer {
	return w.issuer
}

func (w *Workflow) Register(ctx context.Context, email, fullName, password string) (Result, error) {
	return w.register.Query(ctx, RegisterUserMessage{
		Email:    email,
		FullName: fullName,
		Password: password,
	})
}

func (w *Workflow) Login(ctx context.Context, email, password string) (Result, error) {
	return w.login.Query(ctx, LoginMessage{
		Email:    email,
		Password: password,
	})
}

func (w *Workflow) ResetPassword(ctx context.Context, email, newPassword, confirmNewPassword string) (Result, error) {
	return w.reset.Query(ctx, ResetPasswordMessage{
		Email:              email,
		NewPassword:        newPassword,
		ConfirmNewPassword: confirmNewPassword,
	})
}
