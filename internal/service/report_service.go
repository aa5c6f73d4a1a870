package service

import (
	"context"
	"sort"
	"time"

	"github.com/segyhp/committee-ledger/internal/domain"
	"github.com/segyhp/committee-ledger/internal/engine"
	customError "github.com/segyhp/committee-ledger/pkg/errors"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// GetMemberStatement collects everything the ledger knows about one member as of asOf:
// each batch they are enrolled in and each loan they hold.
func (s *LedgerService) GetMemberStatement(ctx context.Context, memberID string, asOf time.Time) (*domain.MemberStatement, error) {
	if asOf.IsZero() {
		return nil, customError.WrapValidation(customError.ErrInvalidAsOf)
	}

	member, err := s.getMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	var (
		subs       []*domain.MemberSubscription
		payments   []*domain.PaymentRecord
		loans      []*domain.Loan
		committees []*domain.Committee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subs, err = s.committees.ListSubscriptionsByMember(gctx, memberID)
		return wrapDatabase(err)
	})
	g.Go(func() error {
		var err error
		payments, err = s.payments.ListByMember(gctx, memberID)
		return wrapDatabase(err)
	})
	g.Go(func() error {
		var err error
		loans, err = s.loans.ListByBorrower(gctx, memberID)
		return wrapDatabase(err)
	})
	g.Go(func() error {
		var err error
		committees, err = s.committees.List(gctx)
		return wrapDatabase(err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byYear := make(map[int]*domain.Committee, len(committees))
	for _, c := range committees {
		byYear[c.Year] = c
	}

	statement := &domain.MemberStatement{
		Member:  member,
		AsOf:    asOf,
		Batches: make([]domain.BatchStatement, 0, len(subs)),
		Loans:   make([]domain.LoanStatement, 0, len(loans)),
	}

	for _, sub := range subs {
		committee, ok := byYear[sub.CommitteeYear]
		if !ok {
			continue
		}
		statement.Batches = append(statement.Batches, batchStatement(committee, sub, payments, asOf))
	}

	for _, loan := range loans {
		repayments, err := s.repayments.ListByLoanID(ctx, loan.ID)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		state, err := s.loanState(ctx, loan, repayments, asOf)
		if err != nil {
			return nil, err
		}
		statement.Loans = append(statement.Loans, domain.LoanStatement{
			Loan:       loan,
			State:      state,
			Repayments: nonNil(repayments),
		})
	}

	return statement, nil
}

func batchStatement(committee *domain.Committee, sub *domain.MemberSubscription, payments []*domain.PaymentRecord, asOf time.Time) domain.BatchStatement {
	statement := domain.BatchStatement{
		Subscription:   *sub,
		DurationMonths: committee.DurationMonths,
		TotalPaid:      decimal.Zero,
		PendingMonths:  engine.PendingMonths(committee, sub, payments, asOf),
		MaturityAmount: engine.MaturityAmount(committee, sub),
		History:        make([]*domain.PaymentRecord, 0),
	}

	for _, p := range payments {
		if p.CommitteeYear != sub.CommitteeYear || p.MemberID != sub.MemberID {
			continue
		}
		statement.History = append(statement.History, p)
		if p.IsPaid {
			statement.TotalPaid = statement.TotalPaid.Add(p.AmountPaid)
			statement.MonthsPaid++
		}
	}
	sort.SliceStable(statement.History, func(i, j int) bool {
		return statement.History[i].MonthIndex < statement.History[j].MonthIndex
	})
	return statement
}

// GetDashboard summarises the loan book and every batch as of asOf.
func (s *LedgerService) GetDashboard(ctx context.Context, asOf time.Time) (*domain.DashboardResponse, error) {
	if asOf.IsZero() {
		return nil, customError.WrapValidation(customError.ErrInvalidAsOf)
	}

	var (
		statements []domain.LoanStatement
		committees []*domain.Committee
		members    []*domain.Member
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		statements, err = s.ListLoanStates(gctx, asOf)
		return err
	})
	g.Go(func() error {
		var err error
		committees, err = s.committees.List(gctx)
		return wrapDatabase(err)
	})
	g.Go(func() error {
		var err error
		members, err = s.members.List(gctx)
		return wrapDatabase(err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	loans := make([]*domain.Loan, 0, len(statements))
	states := make(map[string]domain.LoanState, len(statements))
	for _, st := range statements {
		loans = append(loans, st.Loan)
		states[st.Loan.ID] = st.State
	}

	batches := make([]domain.BatchSummary, len(committees))
	bg, bctx := errgroup.WithContext(ctx)
	for i, committee := range committees {
		i, committee := i, committee
		bg.Go(func() error {
			subs, err := s.committees.ListSubscriptions(bctx, committee.Year)
			if err != nil {
				return customError.WrapDatabaseError(err)
			}
			payments, err := s.payments.ListByCommittee(bctx, committee.Year)
			if err != nil {
				return customError.WrapDatabaseError(err)
			}
			summary := engine.SummarizeBatch(committee, subs, payments, asOf)
			nameDefaulters(summary.Defaulters, members)
			batches[i] = summary
			return nil
		})
	}
	if err := bg.Wait(); err != nil {
		return nil, err
	}

	return &domain.DashboardResponse{
		AsOf:    asOf,
		Loans:   engine.SummarizeLoanStates(loans, states),
		Batches: batches,
	}, nil
}
