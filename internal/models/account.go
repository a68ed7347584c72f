package models

import (
	"fmt"
	"strings"

	"FaceGuardConsole/pkg/validation"
)

// DefaultPackage - тариф, выбираемый при регистрации по умолчанию
const DefaultPackage = "Standard"

// Account представляет учетную запись оператора (/auth/me)
type Account struct {
	ID          int64     `json:"id" yaml:"id"`
	Email       string    `json:"email" yaml:"email"`
	FullName    string    `json:"full_name" yaml:"full_name"`
	PhoneNumber string    `json:"phone_number,omitempty" yaml:"phone_number,omitempty"`
	PackageID   *int64    `json:"package_id,omitempty" yaml:"package_id,omitempty"`
	Package     *Plan     `json:"package,omitempty" yaml:"package,omitempty"`
	IsActive    bool      `json:"is_active" yaml:"is_active"`
	IsVerified  bool      `json:"is_verified" yaml:"is_verified"`
	CreatedAt   Timestamp `json:"created_at" yaml:"created_at"`
}

// Plan представляет тариф (/packages). Справочные данные, только чтение.
type Plan struct {
	ID                 int64    `json:"id" yaml:"id"`
	Name               string   `json:"name" yaml:"name"`
	Price              Decimal  `json:"price" yaml:"price"`
	Period             string   `json:"period" yaml:"period"`
	Description        string   `json:"description,omitempty" yaml:"description,omitempty"`
	Features           []string `json:"features,omitempty" yaml:"features,omitempty"`
	CameraLimit        *int     `json:"camera_limit,omitempty" yaml:"camera_limit,omitempty"`
	MaxRegisteredFaces *int     `json:"max_registered_faces,omitempty" yaml:"max_registered_faces,omitempty"`
}

// CameraLimitLabel возвращает лимит камер для отображения
func (p Plan) CameraLimitLabel() string {
	return limitLabel(p.CameraLimit)
}

// FaceLimitLabel возвращает лимит лиц для отображения
func (p Plan) FaceLimitLabel() string {
	return limitLabel(p.MaxRegisteredFaces)
}

// -1 на бэкенде означает отсутствие лимита
func limitLabel(limit *int) string {
	switch {
	case limit == nil:
		return "-"
	case *limit < 0:
		return "unlimited"
	default:
		return fmt.Sprintf("%d", *limit)
	}
}

// Credentials представляет тело запроса /auth/login
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse представляет ответ /auth/login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterInput представляет тело запроса /auth/register
type RegisterInput struct {
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	SelectedPackage string `json:"selected_package"`
}

// Normalize подставляет значения по умолчанию и обрезает пробелы
func (r RegisterInput) Normalize() RegisterInput {
	r.Email = strings.TrimSpace(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	if strings.TrimSpace(r.SelectedPackage) == "" {
		r.SelectedPackage = DefaultPackage
	}
	return r
}

// Validate проверяет форму регистрации до обращения к бэкенду
func (r RegisterInput) Validate() error {
	v := validation.NewValidator()

	if err := v.ValidateRequiredFields(map[string]string{
		"email":     r.Email,
		"full_name": r.FullName,
		"password":  r.Password,
	}, map[string]string{
		"email":     "email",
		"full_name": "full name",
		"password":  "password",
	}); err != nil {
		return err
	}

	if err := v.ValidateEmail(r.Email); err != nil {
		return err
	}

	if r.Password != r.ConfirmPassword {
		return fmt.Errorf("passwords do not match")
	}

	return nil
}
