package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/segyhp/committee-ledger/internal/cache"
	"github.com/segyhp/committee-ledger/internal/config"
	"github.com/segyhp/committee-ledger/internal/domain"
	"github.com/segyhp/committee-ledger/internal/engine"
	"github.com/segyhp/committee-ledger/internal/logging"
	"github.com/segyhp/committee-ledger/internal/repository"
	customError "github.com/segyhp/committee-ledger/pkg/errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Repositories groups the stores the ledger reads and writes.
type Repositories struct {
	Loans      repository.LoanRepository
	Repayments repository.RepaymentRepository
	Members    repository.MemberRepository
	Committees repository.CommitteeRepository
	Payments   repository.PaymentRepository
}

// LedgerService records loans, repayments and committee contributions and derives
// every balance from that history on read. Nothing derived is stored, so every
// operation that reports a balance takes the instant it is evaluated at.
type LedgerService struct {
	loans      repository.LoanRepository
	repayments repository.RepaymentRepository
	members    repository.MemberRepository
	committees repository.CommitteeRepository
	payments   repository.PaymentRepository
	cache      cache.SnapshotCache
	logger     *slog.Logger
	config     *config.Config
}

// NewLedgerService wires the service. snapshots may be nil, in which case loan states
// are always replayed.
func NewLedgerService(repos Repositories, snapshots cache.SnapshotCache, logger *slog.Logger, cfg *config.Config) *LedgerService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LedgerService{
		loans:      repos.Loans,
		repayments: repos.Repayments,
		members:    repos.Members,
		committees: repos.Committees,
		payments:   repos.Payments,
		cache:      snapshots,
		logger:     logger.With(slog.String(logging.KeyComponent, "ledger_service")),
		config:     cfg,
	}
}

// RegisterMember stores a committee member. An empty request ID gets the next free
// numeric id.
func (s *LedgerService) RegisterMember(ctx context.Context, request *domain.RegisterMemberRequest, now time.Time) (*domain.Member, error) {
	id := request.ID
	if id != "" {
		existing, err := s.members.GetByID(ctx, id)
		if err == nil && existing != nil {
			return nil, customError.WrapMemberAlreadyExists(id)
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapDatabaseError(err)
		}
	} else {
		members, err := s.members.List(ctx)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		id = NextMemberID(members)
	}

	return s.createMember(ctx, &domain.Member{
		ID:        id,
		Name:      request.Name,
		Phone:     request.Phone,
		Address:   request.Address,
		CreatedAt: now,
	})
}

// RegisterBorrower stores a borrower who is not a committee member. External borrowers
// always get a generated EXT- id.
func (s *LedgerService) RegisterBorrower(ctx context.Context, request *domain.RegisterMemberRequest, now time.Time) (*domain.Member, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return s.createMember(ctx, &domain.Member{
		ID:        NextExternalMemberID(members),
		Name:      request.Name,
		Phone:     request.Phone,
		Address:   request.Address,
		External:  true,
		CreatedAt: now,
	})
}

func (s *LedgerService) createMember(ctx context.Context, member *domain.Member) (*domain.Member, error) {
	if err := s.members.Create(ctx, member); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.InfoContext(ctx, "member registered",
		slog.String(logging.KeyMemberID, member.ID),
		slog.Bool("external", member.External),
	)
	return member, nil
}

func (s *LedgerService) ListMembers(ctx context.Context) ([]*domain.Member, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return members, nil
}

// IssueLoan records a new loan. The rate falls back to the configured default and the
// start date to now.
func (s *LedgerService) IssueLoan(ctx context.Context, request *domain.IssueLoanRequest, now time.Time) (*domain.Loan, error) {
	if _, err := s.getMember(ctx, request.BorrowerID); err != nil {
		return nil, err
	}

	rate := s.config.GetDefaultInterestRate()
	if request.InterestRate != nil {
		rate = *request.InterestRate
	}
	start := now
	if request.StartDate != nil {
		start = *request.StartDate
	}

	loans, err := s.loans.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	loan := &domain.Loan{
		ID:           NextLoanID(loans),
		BorrowerID:   request.BorrowerID,
		Amount:       request.Amount,
		InterestRate: rate,
		StartDate:    start,
		Status:       domain.LoanStatusActive,
		Notes:        request.Notes,
		CreatedAt:    now,
	}
	if err := loan.Validate(); err != nil {
		return nil, customError.WrapValidation(err)
	}

	if err := s.loans.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.InfoContext(ctx, "loan issued",
		slog.String(logging.KeyLoanID, loan.ID),
		slog.String(logging.KeyMemberID, loan.BorrowerID),
		slog.String("amount", loan.Amount.String()),
		slog.String("interest_rate", loan.InterestRate.String()),
	)
	return loan, nil
}

// RecordRepayment appends a repayment event to the loan's history.
func (s *LedgerService) RecordRepayment(ctx context.Context, loanID string, request *domain.RecordRepaymentRequest, now time.Time) (*domain.LoanRepayment, error) {
	if !request.Amount.IsPositive() {
		return nil, customError.WrapValidation(customError.ErrInvalidRepaymentAmount)
	}

	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}

	paidAt := now
	if request.PaidAt != nil {
		paidAt = *request.PaidAt
	}

	repayment := &domain.LoanRepayment{
		ID:        uuid.NewString(),
		LoanID:    loanID,
		Amount:    request.Amount,
		PaidAt:    paidAt,
		CreatedAt: now,
	}
	if err := s.repayments.Append(ctx, repayment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.InfoContext(ctx, "loan repayment recorded",
		slog.String(logging.KeyLoanID, loanID),
		slog.String("amount", repayment.Amount.String()),
		slog.Time("paid_at", paidAt),
	)
	return repayment, nil
}

// GetLoanState replays the loan as of asOf.
func (s *LedgerService) GetLoanState(ctx context.Context, loanID string, asOf time.Time) (*domain.LoanDetailResponse, error) {
	if asOf.IsZero() {
		return nil, customError.WrapValidation(customError.ErrInvalidAsOf)
	}

	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	repayments, err := s.repayments.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	state, err := s.loanState(ctx, loan, repayments, asOf)
	if err != nil {
		return nil, err
	}

	return &domain.LoanDetailResponse{
		Loan:       loan,
		State:      state,
		Repayments: repayments,
	}, nil
}

// ListLoanStates replays every loan as of asOf.
func (s *LedgerService) ListLoanStates(ctx context.Context, asOf time.Time) ([]domain.LoanStatement, error) {
	if asOf.IsZero() {
		return nil, customError.WrapValidation(customError.ErrInvalidAsOf)
	}

	var (
		loans      []*domain.Loan
		repayments []*domain.LoanRepayment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		loans, err = s.loans.List(gctx)
		return wrapDatabase(err)
	})
	g.Go(func() error {
		var err error
		repayments, err = s.repayments.List(gctx)
		return wrapDatabase(err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byLoan := groupRepayments(repayments)
	statements := make([]domain.LoanStatement, 0, len(loans))
	for _, loan := range loans {
		history := byLoan[loan.ID]
		state, err := s.loanState(ctx, loan, history, asOf)
		if err != nil {
			return nil, err
		}
		statements = append(statements, domain.LoanStatement{
			Loan:       loan,
			State:      state,
			Repayments: nonNil(history),
		})
	}
	return statements, nil
}

func (s *LedgerService) GetLoanRepayments(ctx context.Context, loanID string) ([]*domain.LoanRepayment, error) {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}

	repayments, err := s.repayments.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return nonNil(repayments), nil
}

// WarmSnapshots replays every loan as of asOf and stores the result in the snapshot
// cache. It returns the number of loans replayed.
func (s *LedgerService) WarmSnapshots(ctx context.Context, asOf time.Time) (int, error) {
	statements, err := s.ListLoanStates(ctx, asOf)
	if err != nil {
		return 0, err
	}
	return len(statements), nil
}

// loanState serves the snapshot from the cache when the history it was computed from
// is unchanged, and replays it otherwise. Cache failures only cost the replay.
func (s *LedgerService) loanState(ctx context.Context, loan *domain.Loan, repayments []*domain.LoanRepayment, asOf time.Time) (domain.LoanState, error) {
	if s.cache == nil {
		return s.replay(loan, repayments, asOf)
	}

	key := cache.LoanStateKey(loan, repayments, asOf)
	cached, err := s.cache.GetLoanState(ctx, key)
	if err == nil {
		cached.AsOf = asOf
		return *cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.WarnContext(ctx, "loan snapshot cache read failed",
			slog.String(logging.KeyLoanID, loan.ID),
			slog.Any(logging.KeyError, customError.WrapCacheError(err)),
		)
	}

	state, err := s.replay(loan, repayments, asOf)
	if err != nil {
		return domain.LoanState{}, err
	}

	if err := s.cache.SetLoanState(ctx, key, state); err != nil {
		s.logger.WarnContext(ctx, "loan snapshot cache write failed",
			slog.String(logging.KeyLoanID, loan.ID),
			slog.Any(logging.KeyError, customError.WrapCacheError(err)),
		)
	}
	return state, nil
}

func (s *LedgerService) replay(loan *domain.Loan, repayments []*domain.LoanRepayment, asOf time.Time) (domain.LoanState, error) {
	state, err := engine.ComputeLoanState(loan, repayments, asOf)
	if err != nil {
		return domain.LoanState{}, customError.WrapValidation(err)
	}
	return state, nil
}

func (s *LedgerService) getLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.loans.GetByID(ctx, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(loanID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

func (s *LedgerService) getMember(ctx context.Context, memberID string) (*domain.Member, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapMemberNotFound(memberID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return member, nil
}

func wrapDatabase(err error) error {
	if err == nil {
		return nil
	}
	return customError.WrapDatabaseError(err)
}

func groupRepayments(repayments []*domain.LoanRepayment) map[string][]*domain.LoanRepayment {
	byLoan := make(map[string][]*domain.LoanRepayment)
	for _, r := range repayments {
		byLoan[r.LoanID] = append(byLoan[r.LoanID], r)
	}
	return byLoan
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
