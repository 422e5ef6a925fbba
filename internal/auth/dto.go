package auth

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/core/common/validation"
	"github.com/frahmantamala/hira-inspection/internal/user"
)

const MinPasswordLength = 6

var fieldValidator = validator.New()

type RegisterDTO struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	FullName *string `json:"full_name"`
}

// LoginDTO accepts either the username or the email in Username.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d *RegisterDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", strings.TrimSpace(d.Username)).Required().MinLength(3).MaxLength(50)
	v.Field("email", strings.TrimSpace(d.Email)).Required().MaxLength(255).Custom(func(value interface{}) *internal.AppError {
		s, _ := value.(string)
		if s != "" && fieldValidator.Var(s, "email") != nil {
			return internal.NewValidationFieldError("email", "email must be a valid email address", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	v.Field("password", d.Password).Required().MinLength(MinPasswordLength).MaxLength(72)
	v.Field("role", d.Role).OneOf(user.RoleNames(), internal.ErrCodeInvalidRole)
	fullName := ""
	if d.FullName != nil {
		fullName = strings.TrimSpace(*d.FullName)
	}
	v.Field("full_name", fullName).MaxLength(100)

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ToUser builds the account to store. The password hash is filled by the service.
func (d *RegisterDTO) ToUser() *user.User {
	role := user.Role(d.Role)
	if role == "" {
		role = user.DefaultRole
	}
	var fullName *string
	if d.FullName != nil {
		if s := strings.TrimSpace(*d.FullName); s != "" {
			fullName = &s
		}
	}
	return &user.User{
		Username: strings.TrimSpace(d.Username),
		Email:    user.NormalizeLogin(d.Email),
		Role:     role,
		FullName: fullName,
	}
}

func (d *LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required()
	v.Field("password", d.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d *RefreshTokenDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("refresh_token", d.RefreshToken).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
