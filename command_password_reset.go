package auth

import (
	"context"

	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
)

var _ command.Querier[ResetPasswordMessage, Result] = (*ResetPasswordHandler)(nil)

// ResetPasswordHandler replaces a password in one call. The store ticket is
// generated and redeemed internally, callers never see it.
type ResetPasswordHandler struct {
	store    CredentialStore
	logger   Logger
	activity ActivitySink
}

func NewResetPasswordHandler(store CredentialStore) *ResetPasswordHandler {
	return &ResetPasswordHandler{store: store, logger: defLogger{}}
}

func (h *ResetPasswordHandler) WithLogger(logger Logger) *ResetPasswordHandler {
	h.logger = normalizeLogger(logger)
	return h
}

func (h *ResetPasswordHandler) WithActivitySink(sink ActivitySink) *ResetPasswordHandler {
	h.activity = sink
	return h
}

func (h *ResetPasswordHandler) Query(ctx context.Context, event ResetPasswordMessage) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := event.Validate(); err != nil {
		return Result{}, err
	}

	user, err := h.store.FindByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.Is(err, ErrIdentityNotFound) {
			h.record(ctx, event.Email, "", ResultNotFound)
			return failedResult(ResultNotFound, MessageResetNotFound), nil
		}
		return Result{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up identity")
	}

	ticket, err := h.store.GeneratePasswordResetTicket(ctx, user)
	if err != nil {
		return Result{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate password reset ticket")
	}

	if err := h.store.ResetPassword(ctx, user, ticket, event.NewPassword); err != nil {
		if idErr, ok := AsIdentityError(err); ok {
			h.record(ctx, user.Email, user.ID.String(), ResultValidationFailed)
			return validationFailed(idErr), nil
		}
		return Result{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reset password")
	}

	h.logger.Info("password reset for %s", user.ID)
	h.record(ctx, user.Email, user.ID.String(), ResultOK)

	return okResult(MessagePasswordUpdated), nil
}

func (h *ResetPasswordHandler) record(ctx context.Context, email, userID string, outcome ResultKind) {
	eventType := ActivityEventPasswordResetSuccess
	if outcome != ResultOK {
		eventType = ActivityEventPasswordResetFailure
	}
	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		Outcome:   outcome,
	})
}
