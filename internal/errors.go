package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized   ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden      ErrorType = "FORBIDDEN"
	ErrorTypeConflict       ErrorType = "CONFLICT"
	ErrorTypeUnprocessable  ErrorType = "UNPROCESSABLE"
	ErrorTypePartialSuccess ErrorType = "PARTIAL_SUCCESS"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount      ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidDescription ErrorCode = "INVALID_DESCRIPTION"
	ErrCodeInvalidType        ErrorCode = "INVALID_TRANSACTION_TYPE"
	ErrCodeInvalidTarget      ErrorCode = "INVALID_TARGET"

	ErrCodeNotFound                ErrorCode = "NOT_FOUND"
	ErrCodeProjectNotFound         ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeFundNotFound            ErrorCode = "FUND_NOT_FOUND"
	ErrCodeTransactionNotFound     ErrorCode = "TRANSACTION_NOT_FOUND"
	ErrCodeDeferredPaymentNotFound ErrorCode = "DEFERRED_PAYMENT_NOT_FOUND"
	ErrCodeExpenseTypeNotFound     ErrorCode = "EXPENSE_TYPE_NOT_FOUND"
	ErrCodeUserNotFound            ErrorCode = "USER_NOT_FOUND"
	ErrCodePermissionNotActive     ErrorCode = "PERMISSION_NOT_FOUND_OR_INACTIVE"

	ErrCodeInsufficientFunds  ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeFundNotEmpty       ErrorCode = "FUND_NOT_EMPTY"
	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeDuplicate          ErrorCode = "DUPLICATE"
	ErrCodePartialSuccess     ErrorCode = "PARTIAL_SUCCESS"

	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	ErrCodeUserInactive ErrorCode = "USER_INACTIVE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {

			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports a match on error code, so errors.Is(err, ErrInsufficientFunds)
// holds for any insufficient funds error regardless of its message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInsufficientFundsError names the fund that could not cover the request
// and how much it currently holds.
func NewInsufficientFundsError(fund, balance, requested string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnprocessable,
		Code:       ErrCodeInsufficientFunds,
		Message:    fmt.Sprintf("insufficient funds in %s: remaining balance %s, requested %s", fund, balance, requested),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewPartialSuccessError reports that the primary write committed but a
// follow-up step did not.
func NewPartialSuccessError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypePartialSuccess,
		Code:       ErrCodePartialSuccess,
		Message:    message,
		StatusCode: http.StatusMultiStatus,
		Cause:      cause,
	}
}

var (
	ErrNotFound               = NewNotFoundError("Resource not found", ErrCodeNotFound)
	ErrProjectNotFound        = NewNotFoundError("Project not found", ErrCodeProjectNotFound)
	ErrFundNotFound           = NewNotFoundError("Fund not found", ErrCodeFundNotFound)
	ErrTransactionNotFound    = NewNotFoundError("Transaction not found", ErrCodeTransactionNotFound)
	ErrDeferredPaymentMissing = NewNotFoundError("Deferred payment not found", ErrCodeDeferredPaymentNotFound)
	ErrExpenseTypeNotFound    = NewNotFoundError("Expense type not found", ErrCodeExpenseTypeNotFound)
	ErrUserNotFound           = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrNotFoundOrInactive     = NewNotFoundError("Edit permission not found or already inactive", ErrCodePermissionNotActive)

	ErrInvalidAmount     = NewValidationError("amount must be a positive integer", ErrCodeInvalidAmount)
	ErrInvalidTarget     = NewValidationError("exactly one of user_id or project_id must be set", ErrCodeInvalidTarget)
	ErrInvalidType       = NewValidationError("type must be either 'income' or 'expense'", ErrCodeInvalidType)
	ErrInsufficientFunds = NewInsufficientFundsError("fund", "0", "0")
	ErrFundNotEmpty      = NewConflictError("Fund can only be deleted when its balance is zero", ErrCodeFundNotEmpty)
	ErrDuplicate         = NewConflictError("Resource already exists", ErrCodeDuplicate)
	ErrPartialSuccess    = NewPartialSuccessError("operation partially applied", nil)

	ErrUnauthorizedAccess = NewForbiddenError("unauthorized access", ErrCodeUnauthorizedAccess)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
