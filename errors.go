package auth

import (
	"errors"
	"maps"
	"slices"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeIdentityNotFound  = "IDENTITY_NOT_FOUND"
	TextCodeRoleNotFound      = "ROLE_NOT_FOUND"
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
	TextCodeClaimsInvariant   = "CLAIMS_INVARIANT"
	TextCodeReservedClaim     = "RESERVED_CLAIM"
	TextCodeMissingSigningKey = "TOKEN_CONFIG_MISSING_KEY"
	TextCodeMissingIssuer     = "TOKEN_CONFIG_MISSING_ISSUER"
	TextCodeMissingAudience   = "TOKEN_CONFIG_MISSING_AUDIENCE"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeDataParseError    = "DATA_PARSE_ERROR"
	TextCodeRequestInvalid    = "REQUEST_VALIDATION_FAILED"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrRoleNotFound is returned by stores when a role name is unknown
var ErrRoleNotFound = goerrors.New("role not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeRoleNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password can not be an empty string", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrClaimsInvariant signals a composed claim set that would be unusable.
// It points at a programming error, never at user input.
var ErrClaimsInvariant = goerrors.New("claims identity requires a non empty email", goerrors.CategoryInternal).
	WithTextCode(TextCodeClaimsInvariant).
	WithCode(goerrors.CodeInternal)

// ErrReservedClaim is returned when a claims identity carries a claim the issuer owns
var ErrReservedClaim = goerrors.New("claim type is reserved for the token issuer", goerrors.CategoryBadInput).
	WithTextCode(TextCodeReservedClaim).
	WithCode(goerrors.CodeBadRequest)

var (
	// ErrMissingSigningKey token configuration has no signing key
	ErrMissingSigningKey = goerrors.New("token signing key is required", goerrors.CategoryInternal).
		WithTextCode(TextCodeMissingSigningKey)
	// ErrMissingIssuer token configuration has no issuer
	ErrMissingIssuer = goerrors.New("token issuer is required", goerrors.CategoryInternal).
		WithTextCode(TextCodeMissingIssuer)
	// ErrMissingAudience token configuration has no audience, or the first one is empty
	ErrMissingAudience = goerrors.New("at least one token audience is required", goerrors.CategoryInternal).
		WithTextCode(TextCodeMissingAudience)
)

// ErrTokenExpired is returned for well formed tokens past their expiration
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail verification
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToParseData parse error
var ErrUnableToParseData = goerrors.New("unable to parse data", goerrors.CategoryBadInput).
	WithTextCode(TextCodeDataParseError).
	WithCode(goerrors.CodeBadRequest)

// IdentityFailureCode identifies a single store policy failure
type IdentityFailureCode string

const (
	FailureDuplicateEmail          IdentityFailureCode = "DuplicateEmail"
	FailureInvalidEmail            IdentityFailureCode = "InvalidEmail"
	FailureInvalidUserName         IdentityFailureCode = "InvalidUserName"
	FailurePasswordTooShort        IdentityFailureCode = "PasswordTooShort"
	FailurePasswordTooLong         IdentityFailureCode = "PasswordTooLong"
	FailurePasswordRequiresDigit   IdentityFailureCode = "PasswordRequiresDigit"
	FailurePasswordRequiresLower   IdentityFailureCode = "PasswordRequiresLower"
	FailurePasswordRequiresUpper   IdentityFailureCode = "PasswordRequiresUpper"
	FailurePasswordRequiresNonAlnm IdentityFailureCode = "PasswordRequiresNonAlphanumeric"
	FailureInvalidToken            IdentityFailureCode = "InvalidToken"
)

// IdentityFailure is one reason a store refused a create or reset
type IdentityFailure struct {
	Code        IdentityFailureCode `json:"code"`
	Description string              `json:"description"`
}

// IdentityError is returned by a CredentialStore when an operation is
// rejected by its own policies. Descriptions are meant for the caller.
type IdentityError struct {
	Failures []IdentityFailure
}

// NewIdentityError builds an IdentityError from the given failures
func NewIdentityError(failures ...IdentityFailure) *IdentityError {
	return &IdentityError{Failures: failures}
}

func (e *IdentityError) Error() string {
	return "identity operation failed: " + strings.Join(e.Descriptions(), "; ")
}

// Descriptions returns every failure description in order
func (e *IdentityError) Descriptions() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Description)
	}
	return out
}

// Has reports whether the error carries a failure with the given code
func (e *IdentityError) Has(code IdentityFailureCode) bool {
	if e == nil {
		return false
	}
	for _, f := range e.Failures {
		if f.Code == code {
			return true
		}
	}
	return false
}

// AsIdentityError unwraps err into an IdentityError
func AsIdentityError(err error) (*IdentityError, bool) {
	var idErr *IdentityError
	if errors.As(err, &idErr) {
		return idErr, true
	}
	return nil, false
}

// RequestValidationError wraps payload validation failures from a
// workflow message. Fields maps the offending field to its message.
type RequestValidationError struct {
	Fields map[string]string
}

func (e *RequestValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "invalid request"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// IsRequestValidationError reports whether err is a RequestValidationError
func IsRequestValidationError(err error) bool {
	var reqErr *RequestValidationError
	return errors.As(err, &reqErr)
}

// IsTokenExpiredError reports whether err is a token expiry failure
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsMalformedError reports whether err is a token that failed validation
// for any reason other than expiry
func IsMalformedError(err error) bool {
	return hasTextCode(err, TextCodeTokenMalformed)
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
