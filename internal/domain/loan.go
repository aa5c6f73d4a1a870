package domain

import (
	"fmt"
	"time"

	customError "github.com/segyhp/committee-ledger/pkg/errors"

	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive = "active"
	LoanStatusClosed = "closed"
)

// Loan represents an interest-bearing loan issued to a member or external borrower.
// InterestRate is a monthly percentage applied to the current outstanding principal.
type Loan struct {
	ID           string          `json:"id" db:"id"`
	BorrowerID   string          `json:"borrower_id" db:"borrower_id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	StartDate    time.Time       `json:"start_date" db:"start_date"`
	Status       string          `json:"status" db:"status"`
	Notes        string          `json:"notes" db:"notes"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// Validate rejects loans that the amortization engine must never see.
func (l *Loan) Validate() error {
	if l.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("loan %s: %w", l.ID, customError.ErrInvalidLoanAmount)
	}
	if l.InterestRate.IsNegative() {
		return fmt.Errorf("loan %s: %w", l.ID, customError.ErrNegativeInterestRate)
	}
	return nil
}

// LoanRepayment is an append-only repayment event. The interest/principal split is
// derived by replay and never stored.
type LoanRepayment struct {
	ID        string          `json:"id" db:"id"`
	LoanID    string          `json:"loan_id" db:"loan_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	PaidAt    time.Time       `json:"paid_at" db:"paid_at"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// LoanState is the replayed snapshot of a loan as of a given instant.
type LoanState struct {
	LoanID             string          `json:"loan_id"`
	AsOf               time.Time       `json:"as_of"`
	MonthsElapsed      int             `json:"months_elapsed"`
	PrincipalPending   decimal.Decimal `json:"principal_pending"`
	InterestPending    decimal.Decimal `json:"interest_pending"`
	TotalPrincipalPaid decimal.Decimal `json:"total_principal_paid"`
	TotalInterestPaid  decimal.Decimal `json:"total_interest_paid"`
	TotalRecovered     decimal.Decimal `json:"total_recovered"`
	IsClosed           bool            `json:"is_closed"`
}

// Balance is the total still owed on the loan.
func (s LoanState) Balance() decimal.Decimal {
	return s.PrincipalPending.Add(s.InterestPending)
}

// DTOs for requests and responses

type IssueLoanRequest struct {
	BorrowerID   string           `json:"borrower_id" validate:"required"`
	Amount       decimal.Decimal  `json:"amount" validate:"decimal_gt=0"`
	InterestRate *decimal.Decimal `json:"interest_rate" validate:"omitempty,decimal_gte=0"`
	StartDate    *time.Time       `json:"start_date"`
	Notes        string           `json:"notes" validate:"max=500"`
}

type RecordRepaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	PaidAt *time.Time      `json:"paid_at"`
}

type LoanDetailResponse struct {
	Loan       *Loan            `json:"loan"`
	State      LoanState        `json:"state"`
	Repayments []*LoanRepayment `json:"repayments,omitempty"`
}
