package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the stored identity
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email           string     `bun:"email,notnull" json:"email,omitempty"`
	NormalizedEmail string     `bun:"normalized_email,notnull,unique" json:"-"`
	UserName        string     `bun:"user_name,notnull" json:"user_name,omitempty"`
	PasswordHash    string     `bun:"password_hash" json:"-"`
	EmailConfirmed  bool       `bun:"email_confirmed,notnull" json:"email_confirmed"`
	SecurityStamp   string     `bun:"security_stamp,notnull" json:"-"`
	LoggedInAt      *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	ResetedAt       *time.Time `bun:"reseted_at,nullzero" json:"reseted_at,omitempty"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Role is a named group an identity can belong to
type Role struct {
	bun.BaseModel  `bun:"table:roles,alias:rol"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name           string     `bun:"name,notnull" json:"name"`
	NormalizedName string     `bun:"normalized_name,notnull,unique" json:"-"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// UserRole links a user to a role
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:usrl"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid"`
	RoleID        uuid.UUID `bun:"role_id,pk,type:uuid"`
	Role          *Role     `bun:"rel:belongs-to,join:role_id=id"`
}

// UserClaim is a claim persisted for a user. Order is kept by ID.
type UserClaim struct {
	bun.BaseModel `bun:"table:user_claims,alias:uclm"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid"`
	ClaimType     string    `bun:"claim_type,notnull"`
	ClaimValue    string    `bun:"claim_value,notnull"`
}

// Claim returns the claim stored in the row
func (c UserClaim) Claim() Claim {
	return Claim{Type: c.ClaimType, Value: c.ClaimValue}
}

const (
	// ResetUnknownStatus is the unknown status
	ResetUnknownStatus = "unknown"
	// ResetRequestedStatus is the requested status
	ResetRequestedStatus = "requested"
	// ResetExpiredStatus is the expired status
	ResetExpiredStatus = "expired"
	// ResetChangedStatus is the changed status
	ResetChangedStatus = "changed"
)

// PasswordReset is a password reset ticket. The ID is the opaque ticket
// handed to the caller.
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_reset,alias:pwdr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	SecurityStamp string     `bun:"security_stamp,notnull" json:"-"`
	ResetedAt     *time.Time `bun:"reseted_at,nullzero" json:"reseted_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NormalizeEmail is the lookup key for emails
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeRoleName is the lookup key for role names
func NormalizeRoleName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// UserIdentity adapts a User into the Identity interface.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// ID returns the user's ID as a string.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

// Username returns the user's name.
func (u UserIdentity) Username() string {
	if u.user == nil {
		return ""
	}
	return u.user.UserName
}

// Email returns the user's email address.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}
