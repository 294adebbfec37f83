package auth

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// RegisterRequest — запрос на регистрацию
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"` // defaults to "patient"
}

// Validate validates the register request and normalizes the role.
func (r *RegisterRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("email is invalid")
	}
	if len(r.Name) < 2 || len(r.Name) > 100 {
		return fmt.Errorf("name must be between 2 and 100 characters")
	}
	if len(r.Password) < 6 || len(r.Password) > 100 {
		return fmt.Errorf("password must be between 6 and 100 characters")
	}
	if r.Role == "" {
		r.Role = RolePatient
	}
	if r.Role != RolePatient && r.Role != RoleNutritionist {
		return fmt.Errorf("role must be patient or nutritionist")
	}
	return nil
}

// LoginRequest — запрос на вход
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse — ответ с access token
type TokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int64      `json:"expires_in"`
	User        UserPublic `json:"user"`
}

// UserPublic — публичное представление пользователя
type UserPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse — формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
