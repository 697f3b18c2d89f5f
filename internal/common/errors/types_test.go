package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name: "basic error",
			appError: &AppError{
				Type:    ErrTypeConfig,
				Message: "'secret' must not be empty",
			},
			want: "config: 'secret' must not be empty",
		},
		{
			name: "error with code",
			appError: &AppError{
				Type:    ErrTypeValidation,
				Message: "header must be in the format 'algorithm=signature'",
				Code:    "malformed_header",
			},
			want: "validation: header must be in the format 'algorithm=signature': code=malformed_header",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeInternal,
				Message: "failed to read request body",
				Cause:   errors.New("unexpected EOF"),
			},
			want: "internal: failed to read request body: cause=unexpected EOF",
		},
		{
			name: "error with context",
			appError: &AppError{
				Type:    ErrTypeAuth,
				Message: "algorithm not allowed",
				Context: map[string]interface{}{
					"alg": "sha1",
				},
			},
			want: "authentication: algorithm not allowed: context={alg=sha1}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appError.Error()
			if got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	appError := InternalError("wrapper error", cause)

	if appError.Unwrap() != cause {
		t.Errorf("AppError.Unwrap() = %v, want %v", appError.Unwrap(), cause)
	}

	if ConfigError("no cause").Unwrap() != nil {
		t.Error("AppError.Unwrap() without cause should be nil")
	}
}

func TestAppError_Is(t *testing.T) {
	sentinel := &AppError{Type: ErrTypeValidation, Code: "malformed_header"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "same type and code",
			err:  ValidationError("bad header").WithCode("malformed_header"),
			want: true,
		},
		{
			name: "same type different code",
			err:  ValidationError("bad alg").WithCode("unsupported_algorithm"),
			want: false,
		},
		{
			name: "different type same code",
			err:  AuthError("bad header").WithCode("malformed_header"),
			want: false,
		},
		{
			name: "wrapped with fmt",
			err:  fmt.Errorf("verify: %w", ValidationError("bad").WithCode("malformed_header")),
			want: true,
		},
		{
			name: "plain error",
			err:  errors.New("malformed_header"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, sentinel); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("target without code matches type", func(t *testing.T) {
		err := ConfigError("missing").WithCode("config_error")
		if !errors.Is(err, &AppError{Type: ErrTypeConfig}) {
			t.Error("expected type-only target to match")
		}
	})
}

func TestAppError_Builders(t *testing.T) {
	cause := errors.New("boom")
	appError := AuthError("not allowed").
		WithCode("algorithm_not_allowed").
		WithContext("alg", "sha1").
		WithCause(cause)

	if appError.Code != "algorithm_not_allowed" {
		t.Errorf("Code = %v, want algorithm_not_allowed", appError.Code)
	}
	if appError.Context["alg"] != "sha1" {
		t.Errorf("Context[alg] = %v, want sha1", appError.Context["alg"])
	}
	if !errors.Is(appError, cause) {
		t.Error("errors.Is should reach the attached cause")
	}
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		errType ErrorType
		want    bool
	}{
		{
			name:    "matching type",
			err:     ConfigError("test"),
			errType: ErrTypeConfig,
			want:    true,
		},
		{
			name:    "non-matching type",
			err:     ConfigError("test"),
			errType: ErrTypeAuth,
			want:    false,
		},
		{
			name:    "non-app error",
			err:     errors.New("regular error"),
			errType: ErrTypeConfig,
			want:    false,
		},
		{
			name:    "nil error",
			err:     nil,
			errType: ErrTypeConfig,
			want:    false,
		},
		{
			name:    "wrapped with fmt",
			err:     fmt.Errorf("verify: %w", AuthError("not allowed")),
			errType: ErrTypeAuth,
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsType(tt.err, tt.errType)
			if got != tt.want {
				t.Errorf("IsType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetTypeAndCode(t *testing.T) {
	err := ValidationError("test").WithCode("unsupported_algorithm")

	if GetType(err) != ErrTypeValidation {
		t.Errorf("GetType() = %v, want %v", GetType(err), ErrTypeValidation)
	}
	if GetCode(err) != "unsupported_algorithm" {
		t.Errorf("GetCode() = %v, want unsupported_algorithm", GetCode(err))
	}
	if GetType(errors.New("plain")) != ErrTypeInternal {
		t.Error("plain errors should report the internal type")
	}
	if GetType(nil) != "" {
		t.Error("nil error should report an empty type")
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("plain errors should report an empty code")
	}
}

func TestGetTypeAndCode_Wrapped(t *testing.T) {
	inner := AuthError("not allowed").WithCode("algorithm_not_allowed")
	err := fmt.Errorf("webhook: %w", fmt.Errorf("verify: %w", inner))

	if GetType(err) != ErrTypeAuth {
		t.Errorf("GetType() = %v, want %v", GetType(err), ErrTypeAuth)
	}
	if GetCode(err) != "algorithm_not_allowed" {
		t.Errorf("GetCode() = %v, want algorithm_not_allowed", GetCode(err))
	}
}
