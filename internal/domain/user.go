package domain

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID                   bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                 string        `bson:"name" json:"name"`
	Email                string        `bson:"email" json:"email"`
	Photo                string        `bson:"photo,omitempty" json:"photo,omitempty"`
	Role                 string        `bson:"role" json:"role"`
	PasswordHash         string        `bson:"password" json:"-"`
	PasswordChangedAt    time.Time     `bson:"passwordChangedAt,omitempty" json:"-"`
	PasswordResetToken   string        `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires time.Time     `bson:"passwordResetExpires,omitempty" json:"-"`
	Active               bool          `bson:"active" json:"-"`
	CreatedAt            time.Time     `bson:"createdAt" json:"createdAt"`
}

// Valid user roles
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

var validRoles = map[string]bool{
	RoleUser:      true,
	RoleGuide:     true,
	RoleLeadGuide: true,
	RoleAdmin:     true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type UpdatePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// UpdateMeRequest carries the self-service profile fields. Password and role
// changes are rejected here and go through their dedicated endpoints.
type UpdateMeRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Photo *string `json:"photo,omitempty"`

	// Present only to reject payloads trying to sneak these through.
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
}

func (r *SignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *SignupRequest) Validate() error {
	verr := NewValidationError()
	if r.Name == "" {
		verr.Add("name", "name is required")
	} else if len(r.Name) < 2 || len(r.Name) > 40 {
		verr.Add("name", "name must be between 2 and 40 characters")
	}
	if r.Email == "" {
		verr.Add("email", "email is required")
	} else if !isValidEmail(r.Email) {
		verr.Add("email", "invalid email format")
	}
	validatePassword(verr, r.Password, r.PasswordConfirm)
	return verr.OrNil()
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	verr := NewValidationError()
	if r.Email == "" {
		verr.Add("email", "email is required")
	}
	if r.Password == "" {
		verr.Add("password", "password is required")
	}
	return verr.OrNil()
}

func (r *ForgotPasswordRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *ForgotPasswordRequest) Validate() error {
	verr := NewValidationError()
	if r.Email == "" {
		verr.Add("email", "email is required")
	} else if !isValidEmail(r.Email) {
		verr.Add("email", "invalid email format")
	}
	return verr.OrNil()
}

func (r *ResetPasswordRequest) Validate() error {
	verr := NewValidationError()
	validatePassword(verr, r.Password, r.PasswordConfirm)
	return verr.OrNil()
}

func (r *UpdatePasswordRequest) Validate() error {
	verr := NewValidationError()
	if r.OldPassword == "" {
		verr.Add("oldPassword", "current password is required")
	}
	validatePassword(verr, r.Password, r.PasswordConfirm)
	return verr.OrNil()
}

func (r *UpdateMeRequest) Validate() error {
	verr := NewValidationError()
	if r.Password != nil {
		verr.Add("password", "this route is not for password updates, use /updatePassword")
	}
	if r.Role != nil {
		verr.Add("role", "role cannot be changed on this route")
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		verr.Add("name", "name must not be empty")
	}
	if r.Email != nil && !isValidEmail(strings.ToLower(strings.TrimSpace(*r.Email))) {
		verr.Add("email", "invalid email format")
	}
	return verr.OrNil()
}

func (r *UpdateUserRequest) Validate() error {
	verr := NewValidationError()
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		verr.Add("name", "name must not be empty")
	}
	if r.Email != nil && !isValidEmail(strings.ToLower(strings.TrimSpace(*r.Email))) {
		verr.Add("email", "invalid email format")
	}
	if r.Role != nil && !validRoles[*r.Role] {
		verr.Add("role", "role must be one of user, guide, lead-guide, admin")
	}
	return verr.OrNil()
}

func validatePassword(verr *ValidationError, password, confirm string) {
	if password == "" {
		verr.Add("password", "password is required")
	} else if len(password) < 8 {
		verr.Add("password", "password must be at least 8 characters")
	} else if len(password) > 100 {
		verr.Add("password", "password must be at most 100 characters")
	}
	if confirm != password {
		verr.Add("passwordConfirm", "passwords must match")
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ChangedPasswordAfter reports whether the password was changed after the
// given instant, at second precision.
func (u *User) ChangedPasswordAfter(t time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return u.PasswordChangedAt.Unix() > t.Unix()
}
