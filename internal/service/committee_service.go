package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segyhp/committee-ledger/internal/domain"
	"github.com/segyhp/committee-ledger/internal/engine"
	"github.com/segyhp/committee-ledger/internal/logging"
	customError "github.com/segyhp/committee-ledger/pkg/errors"
	"github.com/segyhp/committee-ledger/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// CreateCommittee opens a batch for year. Duration falls back to the configured default.
func (s *LedgerService) CreateCommittee(ctx context.Context, request *domain.CreateCommitteeRequest, now time.Time) (*domain.Committee, error) {
	existing, err := s.committees.GetByYear(ctx, request.Year)
	if err == nil && existing != nil {
		return nil, customError.WrapCommitteeAlreadyExists(request.Year)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	duration := request.DurationMonths
	if duration == 0 {
		duration = s.config.Business.DefaultBatchMonths
	}

	committee := &domain.Committee{
		Year:           request.Year,
		DurationMonths: duration,
		CreatedAt:      now,
	}
	if err := committee.Validate(); err != nil {
		return nil, customError.WrapValidation(err)
	}

	if err := s.committees.Create(ctx, committee); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.InfoContext(ctx, "committee batch created",
		slog.Int(logging.KeyCommitteeYear, committee.Year),
		slog.Int("duration_months", committee.DurationMonths),
	)
	return committee, nil
}

func (s *LedgerService) ListCommittees(ctx context.Context) ([]*domain.Committee, error) {
	committees, err := s.committees.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return committees, nil
}

// Enroll subscribes a member to a batch, replacing any earlier subscription for the
// same batch.
func (s *LedgerService) Enroll(ctx context.Context, year int, request *domain.EnrollRequest, now time.Time) (*domain.MemberSubscription, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.getCommittee(gctx, year)
		return err
	})
	g.Go(func() error {
		_, err := s.getMember(gctx, request.MemberID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	amount := s.config.GetDefaultMonthlyAmount()
	if request.MonthlyAmount != nil {
		amount = *request.MonthlyAmount
	}

	sub := &domain.MemberSubscription{
		MemberID:      request.MemberID,
		CommitteeYear: year,
		MonthlyAmount: amount,
		CreatedAt:     now,
	}
	if err := sub.Validate(); err != nil {
		return nil, customError.WrapValidation(err)
	}

	if err := s.committees.UpsertSubscription(ctx, sub); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.InfoContext(ctx, "member enrolled",
		slog.Int(logging.KeyCommitteeYear, year),
		slog.String(logging.KeyMemberID, sub.MemberID),
		slog.String("monthly_amount", sub.MonthlyAmount.String()),
	)
	return sub, nil
}

func (s *LedgerService) ListSubscriptions(ctx context.Context, year int) ([]*domain.MemberSubscription, error) {
	if _, err := s.getCommittee(ctx, year); err != nil {
		return nil, err
	}

	subs, err := s.committees.ListSubscriptions(ctx, year)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return nonNil(subs), nil
}

// RecordCommitteePayment marks a month as paid and returns the receipt. The amount
// defaults to the full amount due for that month, including carried arrears and the
// late penalty; whatever is left of it is recorded as pending. Recording the same month
// again replaces the earlier record.
func (s *LedgerService) RecordCommitteePayment(ctx context.Context, year int, request *domain.RecordPaymentRequest, now time.Time) (*domain.PaymentReceipt, error) {
	if request.Amount != nil && request.Amount.IsNegative() {
		return nil, customError.WrapValidation(customError.ErrInvalidCommitteePayment)
	}

	var (
		committee *domain.Committee
		member    *domain.Member
		sub       *domain.MemberSubscription
		payments  []*domain.PaymentRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		committee, err = s.getCommittee(gctx, year)
		return err
	})
	g.Go(func() error {
		var err error
		member, err = s.getMember(gctx, request.MemberID)
		return err
	})
	g.Go(func() error {
		var err error
		sub, err = s.getSubscription(gctx, year, request.MemberID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.payments.ListByMember(gctx, request.MemberID)
		return wrapDatabase(err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !committee.Contains(request.MonthIndex) {
		return nil, customError.WrapValidation(monthOutOfRange(committee, request.MonthIndex))
	}

	due := engine.ComputeMemberDue(sub, payments, request.MonthIndex)

	amountPaid := due.TotalDue
	if request.Amount != nil {
		amountPaid = *request.Amount
	}
	method := domain.PaymentMethod(s.config.Business.DefaultPaymentMethod)
	if request.Method != "" {
		method = request.Method
	}
	paidAt := now
	if request.PaidAt != nil {
		paidAt = *request.PaidAt
	}
	pending := utils.MaxZero(due.TotalDue.Sub(amountPaid))

	record := &domain.PaymentRecord{
		MemberID:        request.MemberID,
		CommitteeYear:   year,
		MonthIndex:      request.MonthIndex,
		AmountPaid:      amountPaid,
		ExpectedAmount:  sub.MonthlyAmount,
		IsPaid:          true,
		PaidAt:          &paidAt,
		InterestCharged: due.CurrentMonthInterest,
		Method:          method,
		PendingAmount:   pending,
	}
	if err := s.payments.Upsert(ctx, record); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.InfoContext(ctx, "committee payment recorded",
		slog.Int(logging.KeyCommitteeYear, year),
		slog.String(logging.KeyMemberID, record.MemberID),
		slog.Int(logging.KeyMonthIndex, record.MonthIndex),
		slog.String("amount_paid", amountPaid.String()),
		slog.String("pending", pending.String()),
	)

	return &domain.PaymentReceipt{
		Record:        record,
		MemberName:    member.Name,
		MonthLabel:    utils.MonthLabel(record.MonthIndex),
		Arrears:       due.Arrears,
		Interest:      due.CurrentMonthInterest,
		TotalDue:      due.TotalDue,
		PendingAmount: pending,
	}, nil
}

// GetMemberDue returns what the member owes for month of the batch.
func (s *LedgerService) GetMemberDue(ctx context.Context, year int, memberID string, month int) (*domain.MemberDue, error) {
	committee, sub, payments, err := s.memberBatch(ctx, year, memberID)
	if err != nil {
		return nil, err
	}
	if !committee.Contains(month) {
		return nil, customError.WrapValidation(monthOutOfRange(committee, month))
	}

	due := engine.ComputeMemberDue(sub, payments, month)
	return &due, nil
}

// GetMemberMonthStatuses lays out the member's contribution grid for the batch.
func (s *LedgerService) GetMemberMonthStatuses(ctx context.Context, year int, memberID string, asOf time.Time) ([]domain.MonthStatus, error) {
	if asOf.IsZero() {
		return nil, customError.WrapValidation(customError.ErrInvalidAsOf)
	}

	committee, sub, payments, err := s.memberBatch(ctx, year, memberID)
	if err != nil {
		return nil, err
	}
	return engine.ComputeMonthStatuses(committee, sub, payments, asOf), nil
}

// GetBatchDefaulters lists the batch members with arrears as of asOf, largest first.
func (s *LedgerService) GetBatchDefaulters(ctx context.Context, year int, asOf time.Time) ([]domain.Defaulter, error) {
	if asOf.IsZero() {
		return nil, customError.WrapValidation(customError.ErrInvalidAsOf)
	}

	var (
		committee *domain.Committee
		subs      []*domain.MemberSubscription
		payments  []*domain.PaymentRecord
		members   []*domain.Member
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		committee, err = s.getCommittee(gctx, year)
		return err
	})
	g.Go(func() error {
		var err error
		subs, err = s.committees.ListSubscriptions(gctx, year)
		return wrapDatabase(err)
	})
	g.Go(func() error {
		var err error
		payments, err = s.payments.ListByCommittee(gctx, year)
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

	defaulters := engine.ComputeBatchDefaulters(committee, subs, payments, asOf)
	nameDefaulters(defaulters, members)
	return defaulters, nil
}

func (s *LedgerService) memberBatch(ctx context.Context, year int, memberID string) (*domain.Committee, *domain.MemberSubscription, []*domain.PaymentRecord, error) {
	var (
		committee *domain.Committee
		sub       *domain.MemberSubscription
		payments  []*domain.PaymentRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		committee, err = s.getCommittee(gctx, year)
		return err
	})
	g.Go(func() error {
		var err error
		sub, err = s.getSubscription(gctx, year, memberID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.payments.ListByMember(gctx, memberID)
		return wrapDatabase(err)
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return committee, sub, payments, nil
}

func (s *LedgerService) getCommittee(ctx context.Context, year int) (*domain.Committee, error) {
	committee, err := s.committees.GetByYear(ctx, year)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapCommitteeNotFound(year)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return committee, nil
}

func (s *LedgerService) getSubscription(ctx context.Context, year int, memberID string) (*domain.MemberSubscription, error) {
	sub, err := s.committees.GetSubscription(ctx, year, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapSubscriptionNotFound(memberID, year)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return sub, nil
}

func monthOutOfRange(committee *domain.Committee, month int) error {
	return fmt.Errorf("month %d of batch %d (%d months): %w", month, committee.Year, committee.DurationMonths, customError.ErrMonthOutOfRange)
}

func nameDefaulters(defaulters []domain.Defaulter, members []*domain.Member) {
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	for i := range defaulters {
		defaulters[i].Name = names[defaulters[i].MemberID]
	}
}
