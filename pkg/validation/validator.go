package validation

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validator предоставляет общие функции валидации ввода оператора
type Validator struct{}

// NewValidator создает новый Validator
func NewValidator() *Validator {
	return &Validator{}
}

var hostnamePattern = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// ValidateRequiredFields проверяет, что обязательные поля не пустые.
// fields - значения по ключу, requiredFields - человекочитаемые имена.
func (v *Validator) ValidateRequiredFields(fields map[string]string, requiredFields map[string]string) error {
	for field, fieldName := range requiredFields {
		if strings.TrimSpace(fields[field]) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}
	return nil
}

// ValidateNotBlank проверяет, что строка содержит непробельные символы
func (v *Validator) ValidateNotBlank(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateURL проверяет корректность URL
func (v *Validator) ValidateURL(target string, allowedSchemes []string) error {
	if target == "" {
		return fmt.Errorf("url is required")
	}

	parsedURL, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	// Проверяем схему
	if len(allowedSchemes) > 0 {
		schemeValid := false
		for _, scheme := range allowedSchemes {
			if parsedURL.Scheme == scheme {
				schemeValid = true
				break
			}
		}
		if !schemeValid {
			return fmt.Errorf("URL must use one of allowed schemes %v, got: %s", allowedSchemes, parsedURL.Scheme)
		}
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("URL must have a valid host")
	}

	if strings.ContainsAny(target, " \t\n\r") {
		return fmt.Errorf("URL contains invalid whitespace characters")
	}

	return nil
}

// ValidateHost проверяет адрес устройства: IP адрес или имя хоста
func (v *Validator) ValidateHost(host, fieldName string) error {
	if host == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	if len(host) > 253 || !hostnamePattern.MatchString(host) {
		return fmt.Errorf("invalid %s: %s", fieldName, host)
	}
	return nil
}

// ValidatePort проверяет диапазон порта 1-65535
func (v *Validator) ValidatePort(port int, fieldName string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got: %d", fieldName, port)
	}
	return nil
}

// ValidateEmail проверяет формат email
func (v *Validator) ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateEnum проверяет значение на соответствие enum
func (v *Validator) ValidateEnum(value string, allowedValues []string, fieldName string) error {
	if value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	for _, allowed := range allowedValues {
		if value == allowed {
			return nil
		}
	}

	return fmt.Errorf("invalid %s: %s, allowed values: %v", fieldName, value, allowedValues)
}

// ValidateStringLength проверяет длину строки в символах
func (v *Validator) ValidateStringLength(value, fieldName string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters, got: %d", fieldName, min, length)
	}
	if length > max {
		return fmt.Errorf("%s must not exceed %d characters, got: %d", fieldName, max, length)
	}
	return nil
}
