package domain

import (
	"sort"
	"strings"
)

// LoginForm is the sign-in form. Both fields are required.
type LoginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterForm is the sign-up form forwarded to the Coder resource.
type RegisterForm struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required"`
}

// Session is the authenticated state: the API token and the rehydrated current user.
type Session struct {
	Token string `json:"token"`
	User  Record `json:"user,omitempty"`
}

// ValidationError carries one message per offending form field.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Add records message for field; the first message per field wins.
func (e *ValidationError) Add(field, message string) {
	key := strings.TrimSpace(field)
	if key == "" {
		return
	}
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[key]; exists {
		return
	}
	e.Fields[key] = message
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
