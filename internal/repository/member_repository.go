package repository

import (
	"context"

	"github.com/segyhp/committee-ledger/internal/domain"

	"github.com/jmoiron/sqlx"
)

type memberRepository struct {
	db *sqlx.DB
}

func NewMemberRepository(db *sqlx.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	query := `
		INSERT INTO members (id, name, phone, address, external, created_at)
		VALUES (:id, :name, :phone, :address, :external, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, member)
	return err
}

func (r *memberRepository) GetByID(ctx context.Context, memberID string) (*domain.Member, error) {
	query := `SELECT id, name, phone, address, external, created_at FROM members WHERE id = $1`

	var member domain.Member
	if err := r.db.GetContext(ctx, &member, query, memberID); err != nil {
		return nil, err
	}

	return &member, nil
}

func (r *memberRepository) List(ctx context.Context) ([]*domain.Member, error) {
	query := `SELECT id, name, phone, address, external, created_at FROM members ORDER BY created_at, id`

	var members []*domain.Member
	if err := r.db.SelectContext(ctx, &members, query); err != nil {
		return nil, err
	}

	return members, nil
}
