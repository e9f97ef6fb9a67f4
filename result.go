package auth

import "strings"

// ResultKind tags the outcome of a workflow operation
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultConflict
	ResultNotFound
	ResultValidationFailed
	ResultUnauthorized
)

func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultConflict:
		return "conflict"
	case ResultNotFound:
		return "not_found"
	case ResultValidationFailed:
		return "validation_failed"
	case ResultUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Workflow messages returned to callers
const (
	MessageRegistered      = "User was registered successfully."
	MessageEmailTaken      = "User with this email already exists."
	MessageLoginNotFound   = "User with this email cannot be found, please register first."
	MessageCouldNotLogIn   = "Couldn't log in"
	MessageNotAllowed      = "User is not allowed to login"
	MessageTokenExpired    = "Token is expired"
	MessageTokenInvalid    = "Invalid token"
	MessageLoggedIn        = "Login successful."
	MessageResetNotFound   = "User with this email cannot be found."
	MessagePasswordUpdated = "Password updated successfully."
)

// AuthenticationResult is the payload of a successful login
type AuthenticationResult struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

// Result is the outcome of a workflow operation. Infrastructure failures
// never show up here, they are returned as errors.
type Result struct {
	Kind    ResultKind
	Message string
	Reasons []string
	Token   *AuthenticationResult
	Claims  *ClaimsIdentity
}

// OK reports whether the operation succeeded
func (r Result) OK() bool {
	return r.Kind == ResultOK
}

// ReasonsText joins the reasons, each followed by a newline
func (r Result) ReasonsText() string {
	var b strings.Builder
	for _, reason := range r.Reasons {
		b.WriteString(reason)
		b.WriteString("\n")
	}
	return b.String()
}

func okResult(message string) Result {
	return Result{Kind: ResultOK, Message: message}
}

func failedResult(kind ResultKind, message string) Result {
	return Result{Kind: kind, Message: message}
}

func validationFailed(idErr *IdentityError) Result {
	return Result{
		Kind:    ResultValidationFailed,
		Message: "validation failed",
		Reasons: idErr.Descriptions(),
	}
}
