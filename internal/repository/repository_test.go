package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/committee-ledger/internal/domain"
	"github.com/segyhp/committee-ledger/internal/repository"
)

var testDB *sqlx.DB

// These tests need a disposable PostgreSQL database, e.g.
// TEST_DATABASE_URL=postgres://postgres@localhost:5432/ledger_test?sslmode=disable
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		fmt.Println("TEST_DATABASE_URL not set, skipping repository tests")
		os.Exit(0)
	}

	var err error
	testDB, err = sqlx.Connect("postgres", dsn)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}

	if err := repository.Migrate(context.Background(), testDB); err != nil {
		panic(fmt.Sprintf("Failed to initialize database schema: %v", err))
	}

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func cleanup(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(`TRUNCATE payment_records, member_subscriptions, committees, loan_repayments, loans, members`)
	require.NoError(t, err)
}

func TestLoanRepository_CreateAndGet(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := repository.NewLoanRepository(testDB)

	loan := &domain.Loan{
		ID:           "L-1001",
		BorrowerID:   "101",
		Amount:       decimal.NewFromInt(25000),
		InterestRate: decimal.RequireFromString("1.5"),
		StartDate:    time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		Status:       domain.LoanStatusActive,
		Notes:        "shop renovation",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, loan))

	got, err := repo.GetByID(ctx, "L-1001")
	require.NoError(t, err)
	assert.Equal(t, "101", got.BorrowerID)
	assert.True(t, got.Amount.Equal(loan.Amount))
	assert.True(t, got.InterestRate.Equal(loan.InterestRate))
	assert.True(t, got.StartDate.Equal(loan.StartDate))

	byBorrower, err := repo.ListByBorrower(ctx, "101")
	require.NoError(t, err)
	assert.Len(t, byBorrower, 1)

	_, err = repo.GetByID(ctx, "L-9999")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRepaymentRepository_OrderedByInstant(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	loans := repository.NewLoanRepository(testDB)
	repo := repository.NewRepaymentRepository(testDB)

	require.NoError(t, loans.Create(ctx, &domain.Loan{
		ID: "L-1001", BorrowerID: "101", Amount: decimal.NewFromInt(1000),
		InterestRate: decimal.NewFromInt(1), StartDate: time.Now().UTC(), Status: domain.LoanStatusActive,
		CreatedAt: time.Now().UTC(),
	}))

	later := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(ctx, &domain.LoanRepayment{ID: "r2", LoanID: "L-1001", Amount: decimal.NewFromInt(200), PaidAt: later, CreatedAt: time.Now().UTC()}))
	require.NoError(t, repo.Append(ctx, &domain.LoanRepayment{ID: "r1", LoanID: "L-1001", Amount: decimal.NewFromInt(100), PaidAt: earlier, CreatedAt: time.Now().UTC()}))

	got, err := repo.ListByLoanID(ctx, "L-1001")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "r2", got[1].ID)
}

func TestCommitteeRepository_SubscriptionUpsert(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := repository.NewCommitteeRepository(testDB)

	require.NoError(t, repo.Create(ctx, &domain.Committee{Year: 2024, DurationMonths: 36, CreatedAt: time.Now().UTC()}))
	require.NoError(t, repo.UpsertSubscription(ctx, &domain.MemberSubscription{MemberID: "101", CommitteeYear: 2024, MonthlyAmount: decimal.NewFromInt(1000), CreatedAt: time.Now().UTC()}))
	require.NoError(t, repo.UpsertSubscription(ctx, &domain.MemberSubscription{MemberID: "102", CommitteeYear: 2024, MonthlyAmount: decimal.NewFromInt(500), CreatedAt: time.Now().UTC()}))
	require.NoError(t, repo.UpsertSubscription(ctx, &domain.MemberSubscription{MemberID: "101", CommitteeYear: 2024, MonthlyAmount: decimal.NewFromInt(2000), CreatedAt: time.Now().UTC()}))

	subs, err := repo.ListSubscriptions(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "102", subs[0].MemberID)
	assert.True(t, subs[1].MonthlyAmount.Equal(decimal.NewFromInt(2000)))

	_, err = repo.GetSubscription(ctx, 2024, "999")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPaymentRepository_UpsertByKey(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := repository.NewPaymentRepository(testDB)
	paidAt := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	record := &domain.PaymentRecord{
		MemberID: "101", CommitteeYear: 2024, MonthIndex: 0,
		AmountPaid: decimal.NewFromInt(600), ExpectedAmount: decimal.NewFromInt(1000),
		IsPaid: true, PaidAt: &paidAt, InterestCharged: decimal.Zero,
		Method: domain.PaymentMethodCash, PendingAmount: decimal.NewFromInt(400),
	}
	require.NoError(t, repo.Upsert(ctx, record))

	record.AmountPaid = decimal.NewFromInt(1000)
	record.PendingAmount = decimal.Zero
	record.Method = domain.PaymentMethodOnline
	require.NoError(t, repo.Upsert(ctx, record))

	got, err := repo.ListByCommittee(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].AmountPaid.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, domain.PaymentMethodOnline, got[0].Method)

	byMember, err := repo.ListByMember(ctx, "101")
	require.NoError(t, err)
	assert.Len(t, byMember, 1)
}

func TestMemberRepository(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := repository.NewMemberRepository(testDB)

	require.NoError(t, repo.Create(ctx, &domain.Member{ID: "101", Name: "Asha", CreatedAt: time.Now().UTC()}))
	require.NoError(t, repo.Create(ctx, &domain.Member{ID: "EXT-501", Name: "Ravi", External: true, CreatedAt: time.Now().UTC()}))

	got, err := repo.GetByID(ctx, "EXT-501")
	require.NoError(t, err)
	assert.True(t, got.External)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
