package domain

import (
	"fmt"
	"time"

	customError "github.com/segyhp/committee-ledger/pkg/errors"

	"github.com/shopspring/decimal"
)

// Committee is a yearly savings batch. Month index 0 is January of Year regardless of
// when the first contribution arrives.
type Committee struct {
	Year           int       `json:"year" db:"year"`
	DurationMonths int       `json:"duration_months" db:"duration_months"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Validate rejects batches with no contribution window.
func (c *Committee) Validate() error {
	if c.DurationMonths <= 0 {
		return fmt.Errorf("committee %d: %w", c.Year, customError.ErrInvalidDuration)
	}
	return nil
}

// Contains reports whether monthIndex falls inside the batch window.
func (c *Committee) Contains(monthIndex int) bool {
	return monthIndex >= 0 && monthIndex < c.DurationMonths
}

// MemberSubscription is a member's enrolment in a batch. Re-enrolment replaces the row
// for the same (MemberID, CommitteeYear).
type MemberSubscription struct {
	MemberID      string          `json:"member_id" db:"member_id"`
	CommitteeYear int             `json:"committee_year" db:"committee_year"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount" db:"monthly_amount"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

func (s *MemberSubscription) Validate() error {
	if !s.MonthlyAmount.IsPositive() {
		return fmt.Errorf("subscription %s/%d: %w", s.MemberID, s.CommitteeYear, customError.ErrInvalidMonthlyAmount)
	}
	return nil
}

// MemberDue is the amount a member owes for one evaluated month of a batch.
type MemberDue struct {
	MemberID             string          `json:"member_id"`
	CommitteeYear        int             `json:"committee_year"`
	MonthIndex           int             `json:"month_index"`
	Premium              decimal.Decimal `json:"premium"`
	Arrears              decimal.Decimal `json:"arrears"`
	CurrentMonthInterest decimal.Decimal `json:"current_month_interest"`
	TotalDue             decimal.Decimal `json:"total_due"`
}

// Defaulter is one row of a batch-wide defaulter report.
type Defaulter struct {
	MemberID     string          `json:"member_id"`
	Name         string          `json:"name,omitempty"`
	TotalArrears decimal.Decimal `json:"total_arrears"`
	MonthsMissed int             `json:"months_missed"`
}

// DTOs for requests and responses

type CreateCommitteeRequest struct {
	Year           int `json:"year" validate:"required,gte=1900,lte=9999"`
	DurationMonths int `json:"duration_months" validate:"omitempty,gt=0,lte=600"`
}

type EnrollRequest struct {
	MemberID      string           `json:"member_id" validate:"required"`
	MonthlyAmount *decimal.Decimal `json:"monthly_amount" validate:"omitempty,decimal_gt=0"`
}
