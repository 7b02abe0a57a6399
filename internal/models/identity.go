package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the single role held by an identity.
type Role int

const (
	RoleUnknown Role = iota
	RolePatient
	RoleDoctor
	RoleAdmin
)

// ParseRole maps the wire name of a role ("PATIENT", "DOCTOR", "ADMIN").
// The Spring backend sometimes prefixes authorities with ROLE_.
func ParseRole(s string) (Role, error) {
	switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_") {
	case "PATIENT":
		return RolePatient, nil
	case "DOCTOR":
		return RoleDoctor, nil
	case "ADMIN":
		return RoleAdmin, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RolePatient:
		return "PATIENT"
	case RoleDoctor:
		return "DOCTOR"
	case RoleAdmin:
		return "ADMIN"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor || r == RoleAdmin
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON keeps unknown role names as RoleUnknown instead of failing,
// so one odd record does not break a whole list.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("role: %w", err)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		*r = RoleUnknown
		return nil
	}
	*r = parsed
	return nil
}

// Identity is an authenticated user account.
type Identity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Ref is a weak reference to another record, optionally carrying the
// display fields the backend embeds.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// UserPatch is an admin edit of an identity. Nil fields are left untouched.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *Role   `json:"role,omitempty"`
}

// Clone returns a copy of i, or nil.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// TokenClaims are the claims carried by credentials issued for this client.
type TokenClaims struct {
	UserID int64  `json:"uid,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity builds the identity described by the claims. The subject holds
// the email, matching what the backend puts there.
func (c *TokenClaims) Identity() (*Identity, error) {
	role, err := ParseRole(c.Role)
	if err != nil {
		return nil, err
	}
	return &Identity{
		ID:    c.UserID,
		Name:  c.Name,
		Email: c.Subject,
		Role:  role,
	}, nil
}
