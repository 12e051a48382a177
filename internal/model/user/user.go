package user

import "time"

// User mirrors the backend's /users/me record after defaults are applied.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	DisplayName string    `json:"display_name"`
	Theme       string    `json:"theme"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Credentials are exchanged for a bearer token.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterData is the sign-up payload.
type RegisterData struct {
	Credentials
	FullName string `json:"full_name"`
}

// Patch carries the profile fields a user may change. Nil fields are left alone.
type Patch struct {
	DisplayName *string `json:"display_name,omitempty"`
	Theme       *string `json:"theme,omitempty"`
	FullName    *string `json:"full_name,omitempty"`
	Password    *string `json:"password,omitempty"`
}

// Apply merges p into u. Password is never stored locally.
func (p Patch) Apply(u User) User {
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Theme != nil {
		u.Theme = *p.Theme
	}
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	return u
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.DisplayName == nil && p.Theme == nil && p.FullName == nil && p.Password == nil
}
