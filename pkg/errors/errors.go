package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound            = errors.New("loan not found")
	ErrInvalidLoanAmount       = errors.New("invalid loan amount")
	ErrNegativeInterestRate    = errors.New("interest rate must not be negative")
	ErrInvalidRepaymentAmount  = errors.New("invalid repayment amount")
	ErrMemberNotFound          = errors.New("member not found")
	ErrMemberAlreadyExists     = errors.New("member already exists")
	ErrCommitteeNotFound       = errors.New("committee not found")
	ErrCommitteeAlreadyExists  = errors.New("committee already exists")
	ErrInvalidDuration         = errors.New("committee duration must be positive")
	ErrInvalidMonthlyAmount    = errors.New("monthly amount must be positive")
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrMonthOutOfRange         = errors.New("month index out of range")
	ErrInvalidCommitteePayment = errors.New("invalid committee payment amount")
	ErrInvalidAsOf             = errors.New("invalid as-of instant")
	ErrNotFound                = errors.New("record not found")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound           = "LOAN_NOT_FOUND"
	ErrCodeMemberNotFound         = "MEMBER_NOT_FOUND"
	ErrCodeMemberAlreadyExists    = "MEMBER_ALREADY_EXISTS"
	ErrCodeCommitteeNotFound      = "COMMITTEE_NOT_FOUND"
	ErrCodeCommitteeAlreadyExists = "COMMITTEE_ALREADY_EXISTS"
	ErrCodeSubscriptionNotFound   = "SUBSCRIPTION_NOT_FOUND"
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
	ErrCodeCacheError             = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapMemberNotFound(memberID string) *BusinessError {
	return NewBusinessError(
		ErrCodeMemberNotFound,
		fmt.Sprintf("Member with ID %s not found", memberID),
		ErrMemberNotFound,
	)
}

func WrapMemberAlreadyExists(memberID string) *BusinessError {
	return NewBusinessError(
		ErrCodeMemberAlreadyExists,
		fmt.Sprintf("Member with ID %s already exists", memberID),
		ErrMemberAlreadyExists,
	)
}

func WrapCommitteeNotFound(year int) *BusinessError {
	return NewBusinessError(
		ErrCodeCommitteeNotFound,
		fmt.Sprintf("Committee batch %d not found", year),
		ErrCommitteeNotFound,
	)
}

func WrapCommitteeAlreadyExists(year int) *BusinessError {
	return NewBusinessError(
		ErrCodeCommitteeAlreadyExists,
		fmt.Sprintf("Committee batch %d already exists", year),
		ErrCommitteeAlreadyExists,
	)
}

func WrapSubscriptionNotFound(memberID string, year int) *BusinessError {
	return NewBusinessError(
		ErrCodeSubscriptionNotFound,
		fmt.Sprintf("Member %s is not enrolled in batch %d", memberID, year),
		ErrSubscriptionNotFound,
	)
}

// WrapValidation marks err as a rejected input. The sentinel stays reachable via errors.Is.
func WrapValidation(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		err.Error(),
		err,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// Code returns the business code carried by err, or "" when err is not a BusinessError.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
