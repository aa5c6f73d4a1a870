package repository

import (
	"context"

	"github.com/segyhp/committee-ledger/internal/domain"

	"github.com/jmoiron/sqlx"
)

const paymentColumns = `member_id, committee_year, month_index, amount_paid, expected_amount,
	is_paid, paid_at, interest_charged, method, pending_amount`

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Upsert(ctx context.Context, payment *domain.PaymentRecord) error {
	query := `
		INSERT INTO payment_records (` + paymentColumns + `)
		VALUES (:member_id, :committee_year, :month_index, :amount_paid, :expected_amount,
			:is_paid, :paid_at, :interest_charged, :method, :pending_amount)
		ON CONFLICT (member_id, committee_year, month_index) DO UPDATE SET
			amount_paid = EXCLUDED.amount_paid,
			expected_amount = EXCLUDED.expected_amount,
			is_paid = EXCLUDED.is_paid,
			paid_at = EXCLUDED.paid_at,
			interest_charged = EXCLUDED.interest_charged,
			method = EXCLUDED.method,
			pending_amount = EXCLUDED.pending_amount
	`

	_, err := r.db.NamedExecContext(ctx, query, payment)
	return err
}

func (r *paymentRepository) ListByCommittee(ctx context.Context, year int) ([]*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_records WHERE committee_year = $1 ORDER BY member_id, month_index`

	var payments []*domain.PaymentRecord
	if err := r.db.SelectContext(ctx, &payments, query, year); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) ListByMember(ctx context.Context, memberID string) ([]*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_records WHERE member_id = $1 ORDER BY committee_year, month_index`

	var payments []*domain.PaymentRecord
	if err := r.db.SelectContext(ctx, &payments, query, memberID); err != nil {
		return nil, err
	}

	return payments, nil
}
