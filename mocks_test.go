package auth_test

import (
	"context"

	auth "github.com/goliatone/go-credentials"
	"github.com/stretchr/testify/mock"
)

// MockCredentialStore implements auth.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

var _ auth.CredentialStore = (*MockCredentialStore)(nil)

func (m *MockCredentialStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockCredentialStore) CreateIdentity(ctx context.Context, email, userName, password string) (*auth.User, error) {
	args := m.Called(ctx, email, userName, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockCredentialStore) VerifyPassword(ctx context.Context, user *auth.User, password string) (auth.SignInResult, error) {
	args := m.Called(ctx, user, password)
	return args.Get(0).(auth.SignInResult), args.Error(1)
}

func (m *MockCredentialStore) GetClaims(ctx context.Context, user *auth.User) ([]auth.Claim, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]auth.Claim), args.Error(1)
}

func (m *MockCredentialStore) AddClaims(ctx context.Context, user *auth.User, claims []auth.Claim) error {
	args := m.Called(ctx, user, claims)
	return args.Error(0)
}

func (m *MockCredentialStore) GetRoles(ctx context.Context, user *auth.User) ([]string, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCredentialStore) FindRole(ctx context.Context, name string) (*auth.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Role), args.Error(1)
}

func (m *MockCredentialStore) CreateRole(ctx context.Context, name string) (*auth.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Role), args.Error(1)
}

func (m *MockCredentialStore) EnsureRole(ctx context.Context, name string) (*auth.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Role), args.Error(1)
}

func (m *MockCredentialStore) AddToRole(ctx context.Context, user *auth.User, roleName string) error {
	args := m.Called(ctx, user, roleName)
	return args.Error(0)
}

func (m *MockCredentialStore) GeneratePasswordResetTicket(ctx context.Context, user *auth.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialStore) ResetPassword(ctx context.Context, user *auth.User, ticket, newPassword string) error {
	args := m.Called(ctx, user, ticket, newPassword)
	return args.Error(0)
}

// MockActivitySink implements auth.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event auth.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// recordingSink keeps every event in order
type recordingSink struct {
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r.events = append(r.events, event)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
