package signature

import (
	"fmt"
	"strings"

	"xhub-signature/internal/common/errors"
)

// Error codes carried by the AppError values this package returns.
const (
	CodeConfig               = "config_error"
	CodeMalformedHeader      = "malformed_header"
	CodeAlgorithmMismatch    = "algorithm_mismatch"
	CodeAlgorithmNotAllowed  = "algorithm_not_allowed"
	CodeUnsupportedAlgorithm = "unsupported_algorithm"
)

// Sentinels for errors.Is. They match on type and code, not message.
var (
	ErrConfig               = &errors.AppError{Type: errors.ErrTypeConfig, Code: CodeConfig}
	ErrMalformedHeader      = &errors.AppError{Type: errors.ErrTypeValidation, Code: CodeMalformedHeader}
	ErrAlgorithmMismatch    = &errors.AppError{Type: errors.ErrTypeValidation, Code: CodeAlgorithmMismatch}
	ErrAlgorithmNotAllowed  = &errors.AppError{Type: errors.ErrTypeAuth, Code: CodeAlgorithmNotAllowed}
	ErrUnsupportedAlgorithm = &errors.AppError{Type: errors.ErrTypeValidation, Code: CodeUnsupportedAlgorithm}
)

func configError(msg string) *errors.AppError {
	return errors.ConfigError(msg).WithCode(CodeConfig)
}

func malformedHeader(format string, args ...interface{}) *errors.AppError {
	return errors.ValidationError(fmt.Sprintf(format, args...)).WithCode(CodeMalformedHeader)
}

func algorithmMismatch(want, got string) *errors.AppError {
	return errors.ValidationError(fmt.Sprintf("header 'alg' must be '%s', not '%s'", want, got)).
		WithCode(CodeAlgorithmMismatch)
}

func algorithmNotAllowed(allowed []AlgorithmID, got string) *errors.AppError {
	return errors.AuthError(fmt.Sprintf("header 'alg' must be one of '%s', not '%s'", joinIDs(allowed), got)).
		WithCode(CodeAlgorithmNotAllowed)
}

func unsupportedAlgorithm(field, got string) *errors.AppError {
	return errors.ValidationError(fmt.Sprintf("%s must be one of '%s', not '%s'", field, supportedList, got)).
		WithCode(CodeUnsupportedAlgorithm)
}

func joinIDs(ids []AlgorithmID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ",")
}
