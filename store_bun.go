package auth

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResetTicketLifetime is how long a password reset ticket can be redeemed
const ResetTicketLifetime = "24h"

// SignInOptions gates who may sign in
type SignInOptions struct {
	RequireConfirmedEmail bool `koanf:"require_confirmed_email" json:"require_confirmed_email"`
}

// BunCredentialStore is the CredentialStore backed by bun repositories
type BunCredentialStore struct {
	repo      RepositoryManager
	policy    PasswordPolicy
	signIn    SignInOptions
	hasher    PasswordAuthenticator
	useHashid bool
	now       func() time.Time
	logger    Logger
}

var _ CredentialStore = (*BunCredentialStore)(nil)

// NewBunCredentialStore returns a store with the default password policy
// and a bcrypt hasher at the HashPassword cost.
func NewBunCredentialStore(repo RepositoryManager) *BunCredentialStore {
	return &BunCredentialStore{
		repo:   repo,
		policy: DefaultPasswordPolicy(),
		hasher: BcryptHasher{},
		now:    time.Now,
		logger: defLogger{},
	}
}

// WithPasswordPolicy sets the policy checked on create and reset
func (s *BunCredentialStore) WithPasswordPolicy(policy PasswordPolicy) *BunCredentialStore {
	s.policy = policy
	return s
}

// WithSignInOptions sets the sign in gates
func (s *BunCredentialStore) WithSignInOptions(opts SignInOptions) *BunCredentialStore {
	s.signIn = opts
	return s
}

// WithHasher sets the password hasher
func (s *BunCredentialStore) WithHasher(hasher PasswordAuthenticator) *BunCredentialStore {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithHashidIDs derives user IDs from the email instead of random UUIDs
func (s *BunCredentialStore) WithHashidIDs(enabled bool) *BunCredentialStore {
	s.useHashid = enabled
	return s
}

// WithClock sets the time source used for reset ticket expiration
func (s *BunCredentialStore) WithClock(now func() time.Time) *BunCredentialStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *BunCredentialStore) WithLogger(logger Logger) *BunCredentialStore {
	s.logger = normalizeLogger(logger)
	return s
}

func (s *BunCredentialStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to find identity by email")
	}
	return user, nil
}

func (s *BunCredentialStore) CreateIdentity(ctx context.Context, email, userName, password string) (*User, error) {
	failures := checkIdentityInput(email, userName)
	failures = append(failures, s.policy.Check(password)...)
	if len(failures) > 0 {
		return nil, NewIdentityError(failures...)
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Email:        email,
		UserName:     userName,
		PasswordHash: hash,
	}

	if s.useHashid {
		if id, err := hashid.NewUUID(NormalizeEmail(email)); err == nil {
			user.ID = id
		}
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Users().GetByEmailTx(ctx, tx, email); err == nil {
			return duplicateEmail(email)
		} else if !repository.IsRecordNotFound(err) {
			return err
		}

		created, err := s.repo.Users().RegisterTx(ctx, tx, user)
		if err != nil {
			if IsUniqueViolation(err) {
				return duplicateEmail(email)
			}
			return err
		}
		user = created
		return nil
	})

	if err != nil {
		if _, ok := AsIdentityError(err); ok {
			return nil, err
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create identity")
	}

	s.logger.Debug("created identity %s", user.ID)
	return user, nil
}

// VerifyPassword checks password against the stored hash. A correct
// password for an identity that passes the sign in gates reports
// Succeeded and IsNotAllowed both true; the login workflow reads
// IsNotAllowed as the permission to proceed.
func (s *BunCredentialStore) VerifyPassword(ctx context.Context, user *User, password string) (SignInResult, error) {
	if user == nil {
		return SignInResult{}, ErrIdentityNotFound
	}

	if s.signIn.RequireConfirmedEmail && !user.EmailConfirmed {
		return SignInResult{Succeeded: false, IsNotAllowed: true}, nil
	}

	if err := s.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if goerrors.Is(err, ErrMismatchedHashAndPassword) {
			return SignInResult{}, nil
		}
		return SignInResult{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password")
	}

	now := s.now()
	_, err := s.repo.DB().NewUpdate().
		Model((*User)(nil)).
		Set("loggedin_at = ?", now).
		Where("id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		s.logger.Warn("failed to track login for %s: %v", user.ID, err)
	}

	return SignInResult{Succeeded: true, IsNotAllowed: true}, nil
}

func (s *BunCredentialStore) GetClaims(ctx context.Context, user *User) ([]Claim, error) {
	if user == nil {
		return nil, ErrIdentityNotFound
	}

	rows, err := s.repo.Users().GetClaimsTx(ctx, s.repo.DB(), user.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load claims")
	}

	claims := make([]Claim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, row.Claim())
	}
	return claims, nil
}

func (s *BunCredentialStore) AddClaims(ctx context.Context, user *User, claims []Claim) error {
	if user == nil {
		return ErrIdentityNotFound
	}

	if err := s.repo.Users().AddClaimsTx(ctx, s.repo.DB(), user.ID, claims); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to add claims")
	}
	return nil
}

func (s *BunCredentialStore) GetRoles(ctx context.Context, user *User) ([]string, error) {
	if user == nil {
		return nil, ErrIdentityNotFound
	}

	names, err := s.repo.Roles().NamesForUserTx(ctx, s.repo.DB(), user.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load roles")
	}
	return names, nil
}

func (s *BunCredentialStore) FindRole(ctx context.Context, name string) (*Role, error) {
	role, err := s.repo.Roles().GetByNameTx(ctx, s.repo.DB(), name)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrRoleNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to find role")
	}
	return role, nil
}

func (s *BunCredentialStore) CreateRole(ctx context.Context, name string) (*Role, error) {
	role, err := s.repo.Roles().CreateNamedTx(ctx, s.repo.DB(), name)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "role already exists").
				WithCode(goerrors.CodeConflict)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create role")
	}
	return role, nil
}

// EnsureRole finds or creates the role. Concurrent creators race on the
// unique normalized name; the loser reads the winner's row.
func (s *BunCredentialStore) EnsureRole(ctx context.Context, name string) (*Role, error) {
	role, err := s.FindRole(ctx, name)
	if err == nil {
		return role, nil
	}
	if !goerrors.Is(err, ErrRoleNotFound) {
		return nil, err
	}

	role, err = s.repo.Roles().CreateNamedTx(ctx, s.repo.DB(), name)
	if err == nil {
		return role, nil
	}
	if !IsUniqueViolation(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create role")
	}

	return s.FindRole(ctx, name)
}

func (s *BunCredentialStore) AddToRole(ctx context.Context, user *User, roleName string) error {
	if user == nil {
		return ErrIdentityNotFound
	}

	role, err := s.FindRole(ctx, roleName)
	if err != nil {
		return err
	}

	if err := s.repo.Roles().AssignTx(ctx, s.repo.DB(), user.ID, role.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to add user to role")
	}
	return nil
}

func (s *BunCredentialStore) GeneratePasswordResetTicket(ctx context.Context, user *User) (string, error) {
	if user == nil || user.ID == uuid.Nil {
		return "", ErrIdentityNotFound
	}

	now := s.now()
	userID := user.ID
	reset := &PasswordReset{
		ID:            uuid.New(),
		UserID:        &userID,
		Status:        ResetRequestedStatus,
		Email:         user.Email,
		SecurityStamp: user.SecurityStamp,
		CreatedAt:     &now,
		UpdatedAt:     &now,
	}

	created, err := s.repo.PasswordResets().CreateTx(ctx, s.repo.DB(), reset)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset ticket")
	}

	return created.ID.String(), nil
}

// ResetPassword redeems ticket for user and stores the new password. The
// ticket must belong to user, be unused, younger than ResetTicketLifetime
// and issued under the user's current security stamp.
func (s *BunCredentialStore) ResetPassword(ctx context.Context, user *User, ticket, newPassword string) error {
	if user == nil {
		return ErrIdentityNotFound
	}

	ticketID, err := uuid.Parse(ticket)
	if err != nil {
		return invalidToken()
	}

	if failures := s.policy.Check(newPassword); len(failures) > 0 {
		return NewIdentityError(failures...)
	}

	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		reset, err := s.repo.PasswordResets().GetTicketTx(ctx, tx, ticketID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return invalidToken()
			}
			return err
		}

		if err := s.checkTicket(reset, user); err != nil {
			if goerrors.Is(err, errTicketExpired) {
				return err
			}
			s.logger.Debug("rejected reset ticket: %v", err)
			return invalidToken()
		}

		stamp := newSecurityStamp()
		if err := s.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash, stamp); err != nil {
			return err
		}

		if err := s.repo.PasswordResets().MarkRedeemedTx(ctx, tx, reset.ID, s.now()); err != nil {
			return err
		}

		user.PasswordHash = hash
		user.SecurityStamp = stamp
		user.EmailConfirmed = true
		return nil
	})

	if err != nil {
		if goerrors.Is(err, errTicketExpired) {
			s.markTicket(ctx, s.repo.DB(), ticketID, ResetExpiredStatus)
			return invalidToken()
		}
		if _, ok := AsIdentityError(err); ok {
			return err
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reset password")
	}

	return nil
}

var errTicketExpired = goerrors.New("password reset ticket expired", goerrors.CategoryValidation)

func (s *BunCredentialStore) checkTicket(reset *PasswordReset, user *User) error {
	if reset.UserID == nil || *reset.UserID != user.ID {
		return fmt.Errorf("ticket %s does not belong to user", reset.ID)
	}

	if reset.Status != ResetRequestedStatus {
		return fmt.Errorf("ticket %s status is %s", reset.ID, reset.Status)
	}

	if reset.SecurityStamp != user.SecurityStamp {
		return fmt.Errorf("ticket %s was issued under an older security stamp", reset.ID)
	}

	if reset.CreatedAt == nil {
		return fmt.Errorf("ticket %s has no creation date", reset.ID)
	}

	expired, err := IsOutsideThresholdPeriodAt(s.now(), *reset.CreatedAt, ResetTicketLifetime)
	if err != nil {
		return err
	}
	if expired {
		return errTicketExpired
	}

	return nil
}

func (s *BunCredentialStore) markTicket(ctx context.Context, tx bun.IDB, id uuid.UUID, status string) {
	if err := s.repo.PasswordResets().MarkStatusTx(ctx, tx, id, status, s.now()); err != nil {
		s.logger.Warn("failed to mark reset ticket %s as %s: %v", id, status, err)
	}
}

func duplicateEmail(email string) *IdentityError {
	return NewIdentityError(IdentityFailure{
		Code:        FailureDuplicateEmail,
		Description: fmt.Sprintf("Email '%s' is already taken.", email),
	})
}

func invalidToken() *IdentityError {
	return NewIdentityError(IdentityFailure{
		Code:        FailureInvalidToken,
		Description: "Invalid token.",
	})
}
