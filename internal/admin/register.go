// Package admin handles creation of privileged users.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/sportsvenue-portal/internal/apiclient"
)

var (
	ErrInvalid  = errors.New("admin: invalid form")
	ErrRejected = errors.New("admin: registration rejected")
)

const (
	MsgCreated       = "New admin user created successfully!"
	MsgFailed        = "Failed to create admin user"
	MsgAccessDenied  = "Access denied. Admin privileges required."
	MsgUsernameTaken = "This username is already taken"
	MsgEmailTaken    = "This email is already registered"
)

// Form is the admin registration form.
type Form struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Result carries per-field errors and the notice to show.
type Result struct {
	Notice string            `json:"notice,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

type Registrar interface {
	RegisterAdmin(ctx context.Context, in apiclient.AdminRegistration) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var fieldMessages = map[string]map[string]string{
	"username": {"required": "Username is required"},
	"email":    {"required": "Email is required", "email": "Please enter a valid email"},
	"password": {"required": "Password is required", "min": "Password must be at least 6 characters"},
}

// Validate returns one message per invalid field, or nil.
func Validate(f Form) map[string]string {
	err := validate.Struct(f)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if _, seen := out[field]; !seen {
			out[field] = fieldMessages[field][fe.Tag()]
		}
	}
	return out
}

// Register validates f and submits it.  A rejection mentioning the username
// or email is reported against that field.
func Register(ctx context.Context, api Registrar, f Form) (Result, error) {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	if errs := Validate(f); errs != nil {
		return Result{Errors: errs}, ErrInvalid
	}

	err := api.RegisterAdmin(ctx, apiclient.AdminRegistration{
		Username: f.Username,
		Email:    f.Email,
		Password: f.Password,
	})
	if err == nil {
		return Result{Notice: MsgCreated}, nil
	}
	if apiclient.IsUnauthorized(err) {
		return Result{Notice: MsgAccessDenied}, fmt.Errorf("%w: %w", ErrRejected, err)
	}

	var msg string
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		msg = apiErr.UserMessage("")
	}
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "username"):
		return Result{Errors: map[string]string{"username": MsgUsernameTaken}}, fmt.Errorf("%w: %w", ErrRejected, err)
	case strings.Contains(lower, "email"):
		return Result{Errors: map[string]string{"email": MsgEmailTaken}}, fmt.Errorf("%w: %w", ErrRejected, err)
	case msg != "":
		return Result{Notice: msg}, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return Result{Notice: MsgFailed}, fmt.Errorf("%w: %w", ErrRejected, err)
}
