package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanPortfolioSummary aggregates loan snapshots for the dashboard.
type LoanPortfolioSummary struct {
	TotalIssued      decimal.Decimal `json:"total_issued"`
	TotalRecovered   decimal.Decimal `json:"total_recovered"`
	TotalBalance     decimal.Decimal `json:"total_balance"`
	PendingBorrowers int             `json:"pending_borrowers"`
	ActiveLoans      int             `json:"active_loans"`
	ClosedLoans      int             `json:"closed_loans"`
}

// BatchSummary aggregates one committee batch.
type BatchSummary struct {
	Year            int             `json:"year"`
	DurationMonths  int             `json:"duration_months"`
	ElapsedMonths   int             `json:"elapsed_months"`
	Members         int             `json:"members"`
	ExpectedToDate  decimal.Decimal `json:"expected_to_date"`
	CollectedToDate decimal.Decimal `json:"collected_to_date"`
	TotalArrears    decimal.Decimal `json:"total_arrears"`
	Defaulters      []Defaulter     `json:"defaulters"`
}

type DashboardResponse struct {
	AsOf    time.Time            `json:"as_of"`
	Loans   LoanPortfolioSummary `json:"loans"`
	Batches []BatchSummary       `json:"batches"`
}

// BatchStatement is one batch in a member's statement.
type BatchStatement struct {
	Subscription   MemberSubscription `json:"subscription"`
	DurationMonths int                `json:"duration_months"`
	TotalPaid      decimal.Decimal    `json:"total_paid"`
	MonthsPaid     int                `json:"months_paid"`
	PendingMonths  []int              `json:"pending_months"`
	MaturityAmount decimal.Decimal    `json:"maturity_amount"`
	History        []*PaymentRecord   `json:"history"`
}

// LoanStatement is one loan in a member's statement.
type LoanStatement struct {
	Loan       *Loan            `json:"loan"`
	State      LoanState        `json:"state"`
	Repayments []*LoanRepayment `json:"repayments"`
}

type MemberStatement struct {
	Member  *Member          `json:"member"`
	AsOf    time.Time        `json:"as_of"`
	Batches []BatchStatement `json:"batches"`
	Loans   []LoanStatement  `json:"loans"`
}
