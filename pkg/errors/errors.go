package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error представляет классифицированную ошибку обращения к бэкенду
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"status,omitempty"`
	Cause   error     `json:"-"`
}

// ErrorCode представляет код ошибки
type ErrorCode string

// Определение кодов ошибок
const (
	// ErrNetwork - ответ от бэкенда не получен (DNS, транспорт, таймаут)
	ErrNetwork ErrorCode = "NETWORK"
	// ErrUnauthorized - бэкенд отклонил учетные данные
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrValidation - 4xx со структурированным сообщением
	ErrValidation ErrorCode = "VALIDATION"
	// ErrServer - 5xx или ответ неожиданной формы
	ErrServer ErrorCode = "SERVER"
	// ErrInternal - локальная ошибка клиента (хранилище, сериализация)
	ErrInternal ErrorCode = "INTERNAL"
)

// Error возвращает сообщение об ошибке
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap возвращает причину ошибки
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is проверяет, является ли ошибка указанного типа
func (e *Error) Is(target error) bool {
	if targetError, ok := target.(*Error); ok {
		return e.Code == targetError.Code
	}
	return false
}

// New создает новую ошибку
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap оборачивает существующую ошибку
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WithDetails добавляет детали к ошибке
func (e *Error) WithDetails(details string) *Error {
	if e == nil {
		return nil
	}
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Status:  e.Status,
		Cause:   e.Cause,
	}
}

// WithStatus запоминает HTTP статус ответа
func (e *Error) WithStatus(status int) *Error {
	if e == nil {
		return nil
	}
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Status:  status,
		Cause:   e.Cause,
	}
}

// FromStatus классифицирует ответ бэкенда по HTTP статусу.
// credentialed показывает, был ли к запросу приложен токен: 401 без токена
// (например, неверный пароль при входе) считается ошибкой валидации.
func FromStatus(status int, message string, credentialed bool) *Error {
	var code ErrorCode
	switch {
	case status == http.StatusUnauthorized && credentialed:
		code = ErrUnauthorized
	case status >= 400 && status < 500:
		code = ErrValidation
	default:
		code = ErrServer
	}

	if message == "" {
		message = http.StatusText(status)
	}

	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// CodeOf возвращает код ошибки или пустую строку для посторонних ошибок
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNetwork проверяет, что ответ от бэкенда не был получен
func IsNetwork(err error) bool {
	return CodeOf(err) == ErrNetwork
}

// IsUnauthorized проверяет, что бэкенд отклонил учетные данные
func IsUnauthorized(err error) bool {
	return CodeOf(err) == ErrUnauthorized
}

// IsValidation проверяет, что бэкенд вернул ошибку валидации
func IsValidation(err error) bool {
	return CodeOf(err) == ErrValidation
}

// IsServer проверяет, что бэкенд вернул 5xx или неожиданный ответ
func IsServer(err error) bool {
	return CodeOf(err) == ErrServer
}

// GetUserMessage возвращает сообщение для отображения оператору.
// Ошибки валидации отдаются дословно, остальные - обобщенно.
func (e *Error) GetUserMessage() string {
	if e == nil {
		return ""
	}

	switch e.Code {
	case ErrValidation:
		return e.Message
	case ErrNetwork:
		return "Network error"
	case ErrUnauthorized:
		return "Session expired, please sign in again"
	case ErrServer:
		return "Server error"
	case ErrInternal:
		return "Internal client error"
	default:
		return "Unexpected error"
	}
}
