package repository

import (
	"context"

	"github.com/segyhp/committee-ledger/internal/domain"

	"github.com/jmoiron/sqlx"
)

const loanColumns = `id, borrower_id, amount, interest_rate, start_date, status, notes, created_at`

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, borrower_id, amount, interest_rate, start_date, status, notes, created_at)
		VALUES (:id, :borrower_id, :amount, :interest_rate, :start_date, :status, :notes, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, loan)
	return err
}

func (r *loanRepository) GetByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, loanID); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) List(ctx context.Context) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY created_at, id`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, query); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListByBorrower(ctx context.Context, borrowerID string) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE borrower_id = $1 ORDER BY created_at, id`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, query, borrowerID); err != nil {
		return nil, err
	}

	return loans, nil
}

type repaymentRepository struct {
	db *sqlx.DB
}

func NewRepaymentRepository(db *sqlx.DB) RepaymentRepository {
	return &repaymentRepository{db: db}
}

func (r *repaymentRepository) Append(ctx context.Context, repayment *domain.LoanRepayment) error {
	query := `
		INSERT INTO loan_repayments (id, loan_id, amount, paid_at, created_at)
		VALUES (:id, :loan_id, :amount, :paid_at, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, repayment)
	return err
}

func (r *repaymentRepository) ListByLoanID(ctx context.Context, loanID string) ([]*domain.LoanRepayment, error) {
	query := `
		SELECT id, loan_id, amount, paid_at, created_at
		FROM loan_repayments
		WHERE loan_id = $1
		ORDER BY paid_at, seq
	`

	var repayments []*domain.LoanRepayment
	if err := r.db.SelectContext(ctx, &repayments, query, loanID); err != nil {
		return nil, err
	}

	return repayments, nil
}

func (r *repaymentRepository) List(ctx context.Context) ([]*domain.LoanRepayment, error) {
	query := `
		SELECT id, loan_id, amount, paid_at, created_at
		FROM loan_repayments
		ORDER BY paid_at, seq
	`

	var repayments []*domain.LoanRepayment
	if err := r.db.SelectContext(ctx, &repayments, query); err != nil {
		return nil, err
	}

	return repayments, nil
}
