package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zhouzirui/storycraft/backend/internal/model/user"
)

var requiredUserFields = []string{"id", "email"}

// backend datetimes may come without a zone offset
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

type wireUser struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	DisplayName string `json:"display_name"`
	Theme       string `json:"theme"`
	IsActive    *bool  `json:"is_active"`
	IsSuperuser *bool  `json:"is_superuser"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// decodeUser validates a raw user record and fills in defaults.
func decodeUser(raw json.RawMessage, now time.Time) (*user.User, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("Invalid user data format: %s", kindOf(raw))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("Invalid user data format: %w", err)
	}
	var missing []string
	for _, name := range requiredUserFields {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	var w wireUser
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("Invalid user data format: %w", err)
	}

	u := &user.User{
		ID:          w.ID,
		Email:       w.Email,
		FullName:    w.FullName,
		DisplayName: w.DisplayName,
		Theme:       w.Theme,
		IsActive:    true,
		CreatedAt:   parseTime(w.CreatedAt, now),
		UpdatedAt:   parseTime(w.UpdatedAt, now),
	}
	if u.DisplayName == "" {
		u.DisplayName = u.FullName
	}
	if u.DisplayName == "" {
		u.DisplayName, _, _ = strings.Cut(u.Email, "@")
	}
	if u.Theme == "" {
		u.Theme = "light"
	}
	if w.IsActive != nil {
		u.IsActive = *w.IsActive
	}
	if w.IsSuperuser != nil {
		u.IsSuperuser = *w.IsSuperuser
	}
	return u, nil
}

func parseTime(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}

func kindOf(raw []byte) string {
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return "empty"
	case raw[0] == '[':
		return "array"
	case raw[0] == '"':
		return "string"
	default:
		return "scalar"
	}
}
