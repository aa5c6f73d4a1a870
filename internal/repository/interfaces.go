package repository

import (
	"context"

	"github.com/segyhp/committee-ledger/internal/domain"
)

// Lookups that find nothing return sql.ErrNoRows, as sqlx does.

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create stores a newly issued loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// List retrieves every loan in issue order
	List(ctx context.Context) ([]*domain.Loan, error)

	// ListByBorrower retrieves the loans of one borrower
	ListByBorrower(ctx context.Context, borrowerID string) ([]*domain.Loan, error)
}

// RepaymentRepository is append-only: repayments are never edited.
type RepaymentRepository interface {
	// Append stores a repayment
	Append(ctx context.Context, repayment *domain.LoanRepayment) error

	// ListByLoanID retrieves a loan's repayments ordered by payment instant
	ListByLoanID(ctx context.Context, loanID string) ([]*domain.LoanRepayment, error)

	// List retrieves every repayment ordered by payment instant
	List(ctx context.Context) ([]*domain.LoanRepayment, error)
}

// MemberRepository defines the interface for member data operations
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, memberID string) (*domain.Member, error)
	List(ctx context.Context) ([]*domain.Member, error)
}

// CommitteeRepository stores batches and their enrolments
type CommitteeRepository interface {
	// Create stores a new batch
	Create(ctx context.Context, committee *domain.Committee) error

	// GetByYear retrieves a batch by its start year
	GetByYear(ctx context.Context, year int) (*domain.Committee, error)

	// List retrieves every batch ordered by year
	List(ctx context.Context) ([]*domain.Committee, error)

	// UpsertSubscription replaces the enrolment for (member, year)
	UpsertSubscription(ctx context.Context, sub *domain.MemberSubscription) error

	// GetSubscription retrieves one member's enrolment in a batch
	GetSubscription(ctx context.Context, year int, memberID string) (*domain.MemberSubscription, error)

	// ListSubscriptions retrieves the enrolments of a batch in enrolment order
	ListSubscriptions(ctx context.Context, year int) ([]*domain.MemberSubscription, error)

	// ListSubscriptionsByMember retrieves every enrolment of a member
	ListSubscriptionsByMember(ctx context.Context, memberID string) ([]*domain.MemberSubscription, error)
}

// PaymentRepository stores committee payment records keyed by (member, year, month)
type PaymentRepository interface {
	// Upsert replaces the record for the payment's key
	Upsert(ctx context.Context, payment *domain.PaymentRecord) error

	// ListByCommittee retrieves every record of a batch
	ListByCommittee(ctx context.Context, year int) ([]*domain.PaymentRecord, error)

	// ListByMember retrieves a member's records across all batches
	ListByMember(ctx context.Context, memberID string) ([]*domain.PaymentRecord, error)
}
