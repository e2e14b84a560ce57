package domain

import (
	"errors"
	"time"
)

// User is the core user entity. PasswordHash is never serialized to any
// external response; handlers and cache projections use Sanitize.
type User struct {
	ID           string
	Email        string // unique, stored lowercase
	PasswordHash string
	Name         string
	Role         Role
	IsActive     bool
	LastLoginAt  *time.Time // nil until first successful login
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role string

const (
	RoleClient       Role = "client"
	RoleProfessional Role = "professional"
	RoleAdmin        Role = "admin"
)

// Projection is the externally visible shape of a user: everything except the
// password hash. It is what handlers return and what the cache stores.
type Projection struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        Role       `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Sanitize returns the user without its password hash.
func (u *User) Sanitize() *Projection {
	if u == nil {
		return nil
	}
	return &Projection{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.Role == "" {
		u.Role = RoleClient
	}
	return nil
}
