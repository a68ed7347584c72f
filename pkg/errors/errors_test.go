package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

// TestNewError проверяет создание новой ошибки
func TestNewError(t *testing.T) {
	e := New(ErrValidation, "Camera not found")
	if e == nil {
		t.Fatal("Expected error, got nil")
	}

	if e.Code != ErrValidation {
		t.Errorf("Expected code %s, got %s", ErrValidation, e.Code)
	}

	if e.Message != "Camera not found" {
		t.Errorf("Expected message 'Camera not found', got %s", e.Message)
	}

	if e.Cause != nil {
		t.Error("Expected cause to be nil")
	}
}

// TestWrapError проверяет оборачивание существующей ошибки
func TestWrapError(t *testing.T) {
	originalErr := fmt.Errorf("dial tcp: connection refused")
	e := Wrap(originalErr, ErrNetwork, "request failed")

	if e.Code != ErrNetwork {
		t.Errorf("Expected code %s, got %s", ErrNetwork, e.Code)
	}

	if !stderrors.Is(e, originalErr) {
		t.Error("Expected wrapped error to match cause")
	}

	if e.Error() != "request failed: dial tcp: connection refused" {
		t.Errorf("Unexpected message: %s", e.Error())
	}

	if Wrap(nil, ErrNetwork, "x") != nil {
		t.Error("Expected nil when wrapping nil")
	}
}

// TestFromStatus проверяет классификацию HTTP статусов
func TestFromStatus(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		credentialed bool
		expected     ErrorCode
	}{
		{"rejected credential", http.StatusUnauthorized, true, ErrUnauthorized},
		{"wrong password on login", http.StatusUnauthorized, false, ErrValidation},
		{"bad request", http.StatusBadRequest, true, ErrValidation},
		{"not found", http.StatusNotFound, true, ErrValidation},
		{"unprocessable", http.StatusUnprocessableEntity, false, ErrValidation},
		{"internal", http.StatusInternalServerError, true, ErrServer},
		{"bad gateway", http.StatusBadGateway, false, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromStatus(tt.status, "msg", tt.credentialed)
			if e.Code != tt.expected {
				t.Errorf("Expected code %s, got %s", tt.expected, e.Code)
			}
			if e.Status != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, e.Status)
			}
		})
	}
}

// TestFromStatus_DefaultMessage проверяет сообщение по умолчанию
func TestFromStatus_DefaultMessage(t *testing.T) {
	e := FromStatus(http.StatusBadGateway, "", true)
	if e.Message != "Bad Gateway" {
		t.Errorf("Expected 'Bad Gateway', got %s", e.Message)
	}
}

// TestPredicates проверяет хелперы классификации через обертки
func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("refresh cameras: %w", New(ErrUnauthorized, "invalid token"))

	if !IsUnauthorized(wrapped) {
		t.Error("Expected IsUnauthorized through fmt wrapping")
	}
	if IsNetwork(wrapped) || IsValidation(wrapped) || IsServer(wrapped) {
		t.Error("Expected only unauthorized predicate to match")
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("Expected empty code for foreign error")
	}
}

// TestIs проверяет сравнение ошибок по коду
func TestIs(t *testing.T) {
	e := New(ErrServer, "boom")
	if !stderrors.Is(e, New(ErrServer, "other")) {
		t.Error("Expected errors with equal codes to match")
	}
	if stderrors.Is(e, New(ErrNetwork, "boom")) {
		t.Error("Expected errors with different codes not to match")
	}
}

// TestGetUserMessage проверяет сообщения для оператора
func TestGetUserMessage(t *testing.T) {
	if msg := New(ErrValidation, "Email already registered").GetUserMessage(); msg != "Email already registered" {
		t.Errorf("Expected verbatim validation message, got %s", msg)
	}
	if msg := New(ErrNetwork, "dial").GetUserMessage(); msg != "Network error" {
		t.Errorf("Expected 'Network error', got %s", msg)
	}

	var nilErr *Error
	if nilErr.GetUserMessage() != "" {
		t.Error("Expected empty message for nil error")
	}
}

// TestWithDetailsAndStatus проверяет копирование ошибки
func TestWithDetailsAndStatus(t *testing.T) {
	e := New(ErrValidation, "bad").WithStatus(http.StatusConflict).WithDetails("field: email")
	if e.Status != http.StatusConflict || e.Details != "field: email" {
		t.Errorf("Unexpected error copy: %+v", e)
	}
}
