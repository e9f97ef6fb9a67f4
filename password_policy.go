package auth

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// MaxPasswordBytes is the longest password bcrypt can hash. It is counted
// in bytes, a multibyte character uses more than one.
const MaxPasswordBytes = 72

// PasswordPolicy lists the rules a new password must satisfy
type PasswordPolicy struct {
	RequiredLength         int  `koanf:"required_length" json:"required_length"`
	RequireDigit           bool `koanf:"require_digit" json:"require_digit"`
	RequireLowercase       bool `koanf:"require_lowercase" json:"require_lowercase"`
	RequireUppercase       bool `koanf:"require_uppercase" json:"require_uppercase"`
	RequireNonAlphanumeric bool `koanf:"require_non_alphanumeric" json:"require_non_alphanumeric"`
}

// DefaultPasswordPolicy requires five characters with a digit, a lowercase
// and an uppercase letter.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		RequiredLength:         5,
		RequireDigit:           true,
		RequireLowercase:       true,
		RequireUppercase:       true,
		RequireNonAlphanumeric: false,
	}
}

var (
	digitRe          = regexp.MustCompile(`[0-9]`)
	lowerRe          = regexp.MustCompile(`[a-z]`)
	upperRe          = regexp.MustCompile(`[A-Z]`)
	nonAlphanumberRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

type passwordRule struct {
	code  IdentityFailureCode
	rules []validation.Rule
}

func (p PasswordPolicy) rules() []passwordRule {
	var out []passwordRule

	if p.RequiredLength > 0 {
		msg := fmt.Sprintf("Passwords must be at least %d characters.", p.RequiredLength)
		out = append(out, passwordRule{
			code: FailurePasswordTooShort,
			rules: []validation.Rule{
				validation.Required.Error(msg),
				validation.Length(p.RequiredLength, 0).Error(msg),
			},
		})
	}

	tooLong := fmt.Sprintf("Passwords must be at most %d bytes.", MaxPasswordBytes)
	out = append(out, passwordRule{
		code:  FailurePasswordTooLong,
		rules: []validation.Rule{validation.By(maxBytes(MaxPasswordBytes, tooLong))},
	})

	charClass := func(enabled bool, code IdentityFailureCode, re *regexp.Regexp, msg string) {
		if !enabled {
			return
		}
		out = append(out, passwordRule{
			code: code,
			rules: []validation.Rule{
				validation.Required.Error(msg),
				validation.Match(re).Error(msg),
			},
		})
	}

	charClass(p.RequireNonAlphanumeric, FailurePasswordRequiresNonAlnm, nonAlphanumberRe,
		"Passwords must have at least one non alphanumeric character.")
	charClass(p.RequireDigit, FailurePasswordRequiresDigit, digitRe,
		"Passwords must have at least one digit ('0'-'9').")
	charClass(p.RequireLowercase, FailurePasswordRequiresLower, lowerRe,
		"Passwords must have at least one lowercase ('a'-'z').")
	charClass(p.RequireUppercase, FailurePasswordRequiresUpper, upperRe,
		"Passwords must have at least one uppercase ('A'-'Z').")

	return out
}

func maxBytes(limit int, msg string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if len(s) > limit {
			return errors.New(msg)
		}
		return nil
	}
}

// Check returns every rule the password breaks, in a stable order
func (p PasswordPolicy) Check(password string) []IdentityFailure {
	var failures []IdentityFailure
	for _, r := range p.rules() {
		if err := validation.Validate(password, r.rules...); err != nil {
			failures = append(failures, IdentityFailure{Code: r.code, Description: err.Error()})
		}
	}
	return failures
}

// Validate implements validation.Validatable for configuration checks
func (p PasswordPolicy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.RequiredLength, validation.Min(0), validation.Max(MaxPasswordBytes)),
	)
}

func checkIdentityInput(email, userName string) []IdentityFailure {
	var failures []IdentityFailure

	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		failures = append(failures, IdentityFailure{
			Code:        FailureInvalidEmail,
			Description: fmt.Sprintf("Email '%s' is invalid.", email),
		})
	}

	if err := validation.Validate(userName, validation.Required); err != nil {
		failures = append(failures, IdentityFailure{
			Code:        FailureInvalidUserName,
			Description: fmt.Sprintf("Username '%s' is invalid.", userName),
		})
	}

	return failures
}
