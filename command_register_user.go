package auth

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
)

var _ command.Querier[RegisterUserMessage, Result] = (*RegisterUserHandler)(nil)

// RoleUser is the role every registered identity joins
const RoleUser = "User"

// commandTimeout bounds a single workflow command
const commandTimeout = 10 * time.Second

type RegisterUserHandler struct {
	store    CredentialStore
	logger   Logger
	activity ActivitySink
}

func NewRegisterUserHandler(store CredentialStore) *RegisterUserHandler {
	return &RegisterUserHandler{store: store, logger: defLogger{}}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	h.logger = normalizeLogger(logger)
	return h
}

func (h *RegisterUserHandler) WithActivitySink(sink ActivitySink) *RegisterUserHandler {
	h.activity = sink
	return h
}

// Query runs the handler and reports the outcome as a Result
func (h *RegisterUserHandler) Query(ctx context.Context, event RegisterUserMessage) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := event.Validate(); err != nil {
		return Result{}, err
	}

	existing, err := h.store.FindByEmail(ctx, event.Email)
	if err == nil && existing != nil {
		h.record(ctx, event.Email, "", ResultConflict)
		return failedResult(ResultConflict, MessageEmailTaken), nil
	}
	if err != nil && !goerrors.Is(err, ErrIdentityNotFound) {
		return Result{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up identity")
	}

	user, err := h.store.CreateIdentity(ctx, event.Email, event.FullName, event.Password)
	if err != nil {
		if idErr, ok := AsIdentityError(err); ok {
			// lost the check-then-create race to a concurrent register
			if idErr.Has(FailureDuplicateEmail) {
				h.record(ctx, event.Email, "", ResultConflict)
				return failedResult(ResultConflict, MessageEmailTaken), nil
			}
			h.record(ctx, event.Email, "", ResultValidationFailed)
			return validationFailed(idErr), nil
		}
		return Result{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create identity")
	}

	// Failures past this point leave the identity in place without rollback.
	claims := []Claim{NewClaim(ClaimTypeFullName, event.FullName)}
	if err := h.store.AddClaims(ctx, user, claims); err != nil {
		return Result{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store full name claim")
	}

	if _, err := h.store.EnsureRole(ctx, RoleUser); err != nil {
		return Result{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to ensure user role")
	}

	if err := h.store.AddToRole(ctx, user, RoleUser); err != nil {
		return Result{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to add user to role")
	}

	identity, err := ComposeClaims(NewIdentityFromUser(user), claims, []string{RoleUser})
	if err != nil {
		return Result{}, err
	}

	h.logger.Info("registered identity %s", user.ID)
	h.record(ctx, user.Email, user.ID.String(), ResultOK)

	res := okResult(MessageRegistered)
	res.Claims = identity
	return res, nil
}

func (h *RegisterUserHandler) record(ctx context.Context, email, userID string, outcome ResultKind) {
	eventType := ActivityEventRegisterSuccess
	if outcome != ResultOK {
		eventType = ActivityEventRegisterFailure
	}
	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		Outcome:   outcome,
	})
}
