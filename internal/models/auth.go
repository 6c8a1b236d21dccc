package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}

// Principal is the authenticated actor attached to every request once the
// token is verified. It is immutable for the request's lifetime.
type Principal struct {
	UserID string
	Role   UserRole
	Email  string
}

// Scope is the tenant boundary a principal is confined to. A nil SchoolID
// with Restricted set means the principal has no school assignment: reads
// yield empty results, writes are denied.
type Scope struct {
	SchoolID   *string
	Restricted bool
}

// Allows reports whether the scope permits access to the given school.
func (s Scope) Allows(schoolID string) bool {
	if !s.Restricted {
		return true
	}
	return s.SchoolID != nil && *s.SchoolID == schoolID
}
