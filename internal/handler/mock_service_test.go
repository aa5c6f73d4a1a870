package handler

import (
	"context"
	"time"

	"github.com/segyhp/committee-ledger/internal/domain"

	"github.com/stretchr/testify/mock"
)

type mockLedgerService struct {
	mock.Mock
}

func (m *mockLedgerService) RegisterMember(ctx context.Context, request *domain.RegisterMemberRequest, now time.Time) (*domain.Member, error) {
	args := m.Called(ctx, request, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *mockLedgerService) RegisterBorrower(ctx context.Context, request *domain.RegisterMemberRequest, now time.Time) (*domain.Member, error) {
	args := m.Called(ctx, request, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *mockLedgerService) ListMembers(ctx context.Context) ([]*domain.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Member), args.Error(1)
}

func (m *mockLedgerService) IssueLoan(ctx context.Context, request *domain.IssueLoanRequest, now time.Time) (*domain.Loan, error) {
	args := m.Called(ctx, request, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *mockLedgerService) RecordRepayment(ctx context.Context, loanID string, request *domain.RecordRepaymentRequest, now time.Time) (*domain.LoanRepayment, error) {
	args := m.Called(ctx, loanID, request, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanRepayment), args.Error(1)
}

func (m *mockLedgerService) GetLoanState(ctx context.Context, loanID string, asOf time.Time) (*domain.LoanDetailResponse, error) {
	args := m.Called(ctx, loanID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanDetailResponse), args.Error(1)
}

func (m *mockLedgerService) ListLoanStates(ctx context.Context, asOf time.Time) ([]domain.LoanStatement, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LoanStatement), args.Error(1)
}

func (m *mockLedgerService) GetLoanRepayments(ctx context.Context, loanID string) ([]*domain.LoanRepayment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanRepayment), args.Error(1)
}

func (m *mockLedgerService) CreateCommittee(ctx context.Context, request *domain.CreateCommitteeRequest, now time.Time) (*domain.Committee, error) {
	args := m.Called(ctx, request, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Committee), args.Error(1)
}

func (m *mockLedgerService) ListCommittees(ctx context.Context) ([]*domain.Committee, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Committee), args.Error(1)
}

func (m *mockLedgerService) Enroll(ctx context.Context, year int, request *domain.EnrollRequest, now time.Time) (*domain.MemberSubscription, error) {
	args := m.Called(ctx, year, request, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemberSubscription), args.Error(1)
}

func (m *mockLedgerService) ListSubscriptions(ctx context.Context, year int) ([]*domain.MemberSubscription, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MemberSubscription), args.Error(1)
}

func (m *mockLedgerService) RecordCommitteePayment(ctx context.Context, year int, request *domain.RecordPaymentRequest, now time.Time) (*domain.PaymentReceipt, error) {
	args := m.Called(ctx, year, request, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentReceipt), args.Error(1)
}

func (m *mockLedgerService) GetMemberDue(ctx context.Context, year int, memberID string, month int) (*domain.MemberDue, error) {
	args := m.Called(ctx, year, memberID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemberDue), args.Error(1)
}

func (m *mockLedgerService) GetMemberMonthStatuses(ctx context.Context, year int, memberID string, asOf time.Time) ([]domain.MonthStatus, error) {
	args := m.Called(ctx, year, memberID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MonthStatus), args.Error(1)
}

func (m *mockLedgerService) GetBatchDefaulters(ctx context.Context, year int, asOf time.Time) ([]domain.Defaulter, error) {
	args := m.Called(ctx, year, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Defaulter), args.Error(1)
}

func (m *mockLedgerService) GetMemberStatement(ctx context.Context, memberID string, asOf time.Time) (*domain.MemberStatement, error) {
	args := m.Called(ctx, memberID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemberStatement), args.Error(1)
}

func (m *mockLedgerService) GetDashboard(ctx context.Context, asOf time.Time) (*domain.DashboardResponse, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardResponse), args.Error(1)
}
