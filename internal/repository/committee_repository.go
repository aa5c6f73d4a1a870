package repository

import (
	"context"

	"github.com/segyhp/committee-ledger/internal/domain"

	"github.com/jmoiron/sqlx"
)

type committeeRepository struct {
	db *sqlx.DB
}

func NewCommitteeRepository(db *sqlx.DB) CommitteeRepository {
	return &committeeRepository{db: db}
}

func (r *committeeRepository) Create(ctx context.Context, committee *domain.Committee) error {
	query := `
		INSERT INTO committees (year, duration_months, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, committee.Year, committee.DurationMonths, committee.CreatedAt)
	return err
}

func (r *committeeRepository) GetByYear(ctx context.Context, year int) (*domain.Committee, error) {
	query := `SELECT year, duration_months, created_at FROM committees WHERE year = $1`

	var committee domain.Committee
	if err := r.db.GetContext(ctx, &committee, query, year); err != nil {
		return nil, err
	}

	return &committee, nil
}

func (r *committeeRepository) List(ctx context.Context) ([]*domain.Committee, error) {
	query := `SELECT year, duration_months, created_at FROM committees ORDER BY year`

	var committees []*domain.Committee
	if err := r.db.SelectContext(ctx, &committees, query); err != nil {
		return nil, err
	}

	return committees, nil
}

// UpsertSubscription replaces any earlier enrolment for the same member and year. The
// replacement moves to the end of the enrolment order.
func (r *committeeRepository) UpsertSubscription(ctx context.Context, sub *domain.MemberSubscription) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM member_subscriptions WHERE member_id = $1 AND committee_year = $2`,
		sub.MemberID, sub.CommitteeYear,
	); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO member_subscriptions (member_id, committee_year, monthly_amount, created_at)
		VALUES ($1, $2, $3, $4)
	`, sub.MemberID, sub.CommitteeYear, sub.MonthlyAmount, sub.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *committeeRepository) GetSubscription(ctx context.Context, year int, memberID string) (*domain.MemberSubscription, error) {
	query := `
		SELECT member_id, committee_year, monthly_amount, created_at
		FROM member_subscriptions
		WHERE committee_year = $1 AND member_id = $2
	`

	var sub domain.MemberSubscription
	if err := r.db.GetContext(ctx, &sub, query, year, memberID); err != nil {
		return nil, err
	}

	return &sub, nil
}

func (r *committeeRepository) ListSubscriptions(ctx context.Context, year int) ([]*domain.MemberSubscription, error) {
	query := `
		SELECT member_id, committee_year, monthly_amount, created_at
		FROM member_subscriptions
		WHERE committee_year = $1
		ORDER BY seq
	`

	var subs []*domain.MemberSubscription
	if err := r.db.SelectContext(ctx, &subs, query, year); err != nil {
		return nil, err
	}

	return subs, nil
}

func (r *committeeRepository) ListSubscriptionsByMember(ctx context.Context, memberID string) ([]*domain.MemberSubscription, error) {
	query := `
		SELECT member_id, committee_year, monthly_amount, created_at
		FROM member_subscriptions
		WHERE member_id = $1
		ORDER BY committee_year
	`

	var subs []*domain.MemberSubscription
	if err := r.db.SelectContext(ctx, &subs, query, memberID); err != nil {
		return nil, err
	}

	return subs, nil
}
