package auth

import (
	"context"
	"fmt"

	"github.com/goliatone/go-logger/glog"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of a stored identity used to build claims
type Identity interface {
	ID() string
	Username() string
	Email() string
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// SignInResult is the outcome of checking a password against a stored identity.
// IsNotAllowed is reported by the store and read by the login workflow as is.
type SignInResult struct {
	Succeeded    bool
	IsNotAllowed bool
}

// CredentialStore is the persistence contract the workflow depends on.
// Implementations own password hashing, password policy, uniqueness of
// emails and reset ticket lifetimes.
type CredentialStore interface {
	// FindByEmail returns ErrIdentityNotFound when no identity matches
	FindByEmail(ctx context.Context, email string) (*User, error)
	// CreateIdentity returns an *IdentityError when policies reject the input
	CreateIdentity(ctx context.Context, email, userName, password string) (*User, error)
	VerifyPassword(ctx context.Context, user *User, password string) (SignInResult, error)
	GetClaims(ctx context.Context, user *User) ([]Claim, error)
	AddClaims(ctx context.Context, user *User, claims []Claim) error
	GetRoles(ctx context.Context, user *User) ([]string, error)
	// FindRole returns ErrRoleNotFound when no role matches
	FindRole(ctx context.Context, name string) (*Role, error)
	CreateRole(ctx context.Context, name string) (*Role, error)
	// EnsureRole returns the named role, creating it when missing
	EnsureRole(ctx context.Context, name string) (*Role, error)
	AddToRole(ctx context.Context, user *User, roleName string) error
	GeneratePasswordResetTicket(ctx context.Context, user *User) (string, error)
	// ResetPassword consumes ticket. Returns an *IdentityError when the
	// ticket is invalid or the new password violates policy.
	ResetPassword(ctx context.Context, user *User, ticket, newPassword string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

// GlogLogger adapts a go-logger glog.Logger to Logger. Messages are
// formatted with fmt before being handed to glog.
type GlogLogger struct {
	l glog.Logger
}

// NewGlogLogger wraps l, falling back to a no-op logger when l is nil
func NewGlogLogger(l glog.Logger) *GlogLogger {
	return &GlogLogger{l: glog.Ensure(l)}
}

func (g *GlogLogger) Debug(format string, args ...any) {
	g.l.Debug(fmt.Sprintf(format, args...))
}

func (g *GlogLogger) Info(format string, args ...any) {
	g.l.Info(fmt.Sprintf(format, args...))
}

func (g *GlogLogger) Warn(format string, args ...any) {
	g.l.Warn(fmt.Sprintf(format, args...))
}

func (g *GlogLogger) Error(format string, args ...any) {
	g.l.Error(fmt.Sprintf(format, args...))
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
