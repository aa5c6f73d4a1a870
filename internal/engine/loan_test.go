package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/committee-ledger/internal/domain"
	customError "github.com/segyhp/committee-ledger/pkg/errors"
	"github.com/segyhp/committee-ledger/pkg/utils"
)

var loanStart = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func newLoan(amount, rate string) *domain.Loan {
	return &domain.Loan{
		ID:           "L-1001",
		BorrowerID:   "101",
		Amount:       decimal.RequireFromString(amount),
		InterestRate: decimal.RequireFromString(rate),
		StartDate:    loanStart,
		Status:       domain.LoanStatusActive,
	}
}

func repayment(id, amount string, at time.Time) *domain.LoanRepayment {
	return &domain.LoanRepayment{
		ID:     id,
		LoanID: "L-1001",
		Amount: decimal.RequireFromString(amount),
		PaidAt: at,
	}
}

// inMonth returns an instant a few days into loan month m.
func inMonth(m int) time.Time {
	return utils.AddMonths(loanStart, m).Add(72 * time.Hour)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual),
		append([]interface{}{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}

func TestComputeLoanState_NoRepayments(t *testing.T) {
	tests := []struct {
		name             string
		asOf             time.Time
		expectedMonths   int
		expectedInterest string
	}{
		{name: "issuance instant", asOf: loanStart, expectedMonths: 0, expectedInterest: "0"},
		{name: "issuance month accrues nothing", asOf: loanStart.AddDate(0, 0, 25), expectedMonths: 0, expectedInterest: "0"},
		{name: "first full month", asOf: utils.AddMonths(loanStart, 1), expectedMonths: 1, expectedInterest: "200"},
		{name: "five months", asOf: inMonth(5), expectedMonths: 5, expectedInterest: "1000"},
		{name: "two years", asOf: inMonth(24), expectedMonths: 24, expectedInterest: "4800"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := ComputeLoanState(newLoan("10000", "2"), nil, tt.asOf)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedMonths, state.MonthsElapsed)
			assertDecimal(t, "10000", state.PrincipalPending)
			assertDecimal(t, tt.expectedInterest, state.InterestPending)
			assert.True(t, state.TotalRecovered.IsZero())
			assert.False(t, state.IsClosed)
		})
	}
}

func TestComputeLoanState_AsOfBeforeStart(t *testing.T) {
	state, err := ComputeLoanState(newLoan("10000", "2"), nil, loanStart.AddDate(0, -2, 0))

	require.NoError(t, err)
	assert.Equal(t, 0, state.MonthsElapsed)
	assertDecimal(t, "10000", state.PrincipalPending)
	assert.True(t, state.InterestPending.IsZero())
}

func TestComputeLoanState_InterestFirstAllocation(t *testing.T) {
	// three months of 2% on 10000 = 600 accrued when the 200 arrives
	repayments := []*domain.LoanRepayment{repayment("r1", "200", inMonth(3))}

	state, err := ComputeLoanState(newLoan("10000", "2"), repayments, inMonth(3).Add(time.Hour))

	require.NoError(t, err)
	assertDecimal(t, "400", state.InterestPending)
	assertDecimal(t, "10000", state.PrincipalPending)
	assertDecimal(t, "200", state.TotalInterestPaid)
	assert.True(t, state.TotalPrincipalPaid.IsZero())
}

func TestComputeLoanState_RepaymentInIssuanceMonthReducesPrincipal(t *testing.T) {
	repayments := []*domain.LoanRepayment{repayment("r1", "1000", loanStart.AddDate(0, 0, 5))}

	state, err := ComputeLoanState(newLoan("10000", "1"), repayments, inMonth(1))

	require.NoError(t, err)
	assertDecimal(t, "9000", state.PrincipalPending)
	assertDecimal(t, "90", state.InterestPending)
	assertDecimal(t, "1000", state.TotalPrincipalPaid)
}

func TestComputeLoanState_InterestOnDecliningBalance(t *testing.T) {
	repayments := []*domain.LoanRepayment{
		repayment("r1", "5100", inMonth(1)), // 100 interest, 5000 principal
	}

	state, err := ComputeLoanState(newLoan("10000", "1"), repayments, inMonth(3))

	require.NoError(t, err)
	assertDecimal(t, "5000", state.PrincipalPending)
	assertDecimal(t, "100", state.InterestPending) // 50 in month 2 and 50 in month 3
	assertDecimal(t, "100", state.TotalInterestPaid)
	assertDecimal(t, "5000", state.TotalPrincipalPaid)
}

func TestComputeLoanState_AllocationIsPerPayment(t *testing.T) {
	repayments := []*domain.LoanRepayment{
		repayment("r1", "150", inMonth(2)),                  // 200 accrued -> 50 left
		repayment("r2", "250", inMonth(2).Add(time.Minute)), // 50 interest, 200 principal
	}

	state, err := ComputeLoanState(newLoan("10000", "1"), repayments, inMonth(2).Add(time.Hour))

	require.NoError(t, err)
	assert.True(t, state.InterestPending.IsZero())
	assertDecimal(t, "9800", state.PrincipalPending)
	assertDecimal(t, "200", state.TotalInterestPaid)
	assertDecimal(t, "200", state.TotalPrincipalPaid)
}

func TestComputeLoanState_UnsortedInputIsReplayedChronologically(t *testing.T) {
	later := repayment("r2", "5000", inMonth(2))
	earlier := repayment("r1", "100", inMonth(1))
	input := []*domain.LoanRepayment{later, earlier}

	state, err := ComputeLoanState(newLoan("10000", "1"), input, inMonth(2).Add(time.Hour))

	require.NoError(t, err)
	// month 1: 100 accrued, r1 clears it; month 2: 100 accrued, r2 pays 100 + 4900
	assertDecimal(t, "5100", state.PrincipalPending)
	assert.True(t, state.InterestPending.IsZero())
	assert.Same(t, later, input[0], "caller slice must not be reordered")
}

func TestComputeLoanState_IgnoresRepaymentsAfterAsOf(t *testing.T) {
	repayments := []*domain.LoanRepayment{
		repayment("r1", "500", inMonth(1)),
		repayment("r2", "500", inMonth(4)),
	}

	state, err := ComputeLoanState(newLoan("10000", "0"), repayments, inMonth(2))

	require.NoError(t, err)
	assertDecimal(t, "9500", state.PrincipalPending)
	assertDecimal(t, "500", state.TotalRecovered)
}

func TestComputeLoanState_RepaymentBeforeStartCountsInIssuanceMonth(t *testing.T) {
	repayments := []*domain.LoanRepayment{repayment("r1", "300", loanStart.Add(-24*time.Hour))}

	state, err := ComputeLoanState(newLoan("1000", "1"), repayments, inMonth(1))

	require.NoError(t, err)
	assertDecimal(t, "700", state.PrincipalPending)
	assertDecimal(t, "7", state.InterestPending)
}

func TestComputeLoanState_Overpayment(t *testing.T) {
	repayments := []*domain.LoanRepayment{repayment("r1", "1500", inMonth(0))}

	state, err := ComputeLoanState(newLoan("1000", "2"), repayments, inMonth(6))

	require.NoError(t, err)
	assert.True(t, state.PrincipalPending.IsZero())
	assert.True(t, state.InterestPending.IsZero())
	assert.True(t, state.IsClosed)
	assertDecimal(t, "1500", state.TotalRecovered)
}

func TestComputeLoanState_RepaymentsAfterClosureStillReplayed(t *testing.T) {
	repayments := []*domain.LoanRepayment{
		repayment("r1", "1000", inMonth(0)),
		repayment("r2", "50", inMonth(3)),
	}

	state, err := ComputeLoanState(newLoan("1000", "2"), repayments, inMonth(4))

	require.NoError(t, err)
	assert.True(t, state.IsClosed)
	assertDecimal(t, "1050", state.TotalRecovered)
}

func TestComputeLoanState_ClosureBoundary(t *testing.T) {
	tests := []struct {
		name     string
		repaid   string
		balance  string
		isClosed bool
	}{
		{name: "exactly one unit left", repaid: "99", balance: "1", isClosed: true},
		{name: "just above the tolerance", repaid: "98.99", balance: "1.01", isClosed: false},
		{name: "fully repaid", repaid: "100", balance: "0", isClosed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repayments := []*domain.LoanRepayment{repayment("r1", tt.repaid, inMonth(0))}

			state, err := ComputeLoanState(newLoan("100", "0"), repayments, inMonth(2))

			require.NoError(t, err)
			assertDecimal(t, tt.balance, state.Balance())
			assert.Equal(t, tt.isClosed, state.IsClosed)
		})
	}
}

func TestComputeLoanState_Conservation(t *testing.T) {
	repayments := []*domain.LoanRepayment{
		repayment("r1", "120.50", inMonth(0)),
		repayment("r2", "75", inMonth(1)),
		repayment("r3", "1000", inMonth(1).Add(time.Hour)),
		repayment("r4", "33.33", inMonth(4)),
		repayment("r5", "2500", inMonth(7)),
		repayment("r6", "10", inMonth(11)),
	}
	total := decimal.Zero
	for _, r := range repayments {
		total = total.Add(r.Amount)
	}

	state, err := ComputeLoanState(newLoan("5000", "1.5"), repayments, inMonth(12))

	require.NoError(t, err)
	assert.True(t, total.Equal(state.TotalPrincipalPaid.Add(state.TotalInterestPaid)))
	assert.True(t, total.Equal(state.TotalRecovered))
}

func TestComputeLoanState_PrincipalNonIncreasingOverTime(t *testing.T) {
	loan := newLoan("5000", "2")
	repayments := []*domain.LoanRepayment{
		repayment("r1", "50", inMonth(1)),
		repayment("r2", "900", inMonth(3)),
		repayment("r3", "60", inMonth(4)),
		repayment("r4", "2000", inMonth(8)),
	}

	previous, err := ComputeLoanState(loan, repayments, loanStart)
	require.NoError(t, err)

	for day := 1; day <= 400; day += 3 {
		state, err := ComputeLoanState(loan, repayments, loanStart.AddDate(0, 0, day))
		require.NoError(t, err)

		assert.True(t, state.PrincipalPending.LessThanOrEqual(previous.PrincipalPending), "day %d", day)
		previous = state
	}
}

func TestComputeLoanState_InterestNonDecreasingWithoutRepayments(t *testing.T) {
	loan := newLoan("5000", "2")
	repayments := []*domain.LoanRepayment{repayment("r1", "1000", inMonth(2))}

	// between the repayment and the end of the horizon nothing is paid
	previous, err := ComputeLoanState(loan, repayments, inMonth(2).Add(time.Hour))
	require.NoError(t, err)

	for m := 3; m <= 12; m++ {
		state, err := ComputeLoanState(loan, repayments, inMonth(m))
		require.NoError(t, err)

		assert.True(t, state.InterestPending.GreaterThanOrEqual(previous.InterestPending), "month %d", m)
		previous = state
	}
}

func TestComputeLoanState_Idempotent(t *testing.T) {
	loan := newLoan("7500", "1.25")
	repayments := []*domain.LoanRepayment{
		repayment("r1", "300", inMonth(1)),
		repayment("r2", "300", inMonth(2)),
	}
	asOf := inMonth(5)

	first, err := ComputeLoanState(loan, repayments, asOf)
	require.NoError(t, err)
	second, err := ComputeLoanState(loan, repayments, asOf)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeLoanState_RejectsNegativeRate(t *testing.T) {
	_, err := ComputeLoanState(newLoan("1000", "-1"), nil, inMonth(1))

	require.Error(t, err)
	assert.True(t, errors.Is(err, customError.ErrNegativeInterestRate))
}

func TestComputeLoanState_RejectsNegativeRepayment(t *testing.T) {
	repayments := []*domain.LoanRepayment{repayment("r1", "-10", inMonth(1))}

	_, err := ComputeLoanState(newLoan("1000", "1"), repayments, inMonth(2))

	require.Error(t, err)
	assert.True(t, errors.Is(err, customError.ErrInvalidRepaymentAmount))
}

func TestComputeLoanState_SkipsRepaymentsOfOtherLoans(t *testing.T) {
	other := repayment("r9", "400", inMonth(1))
	other.LoanID = "L-2002"

	state, err := ComputeLoanState(newLoan("1000", "0"), []*domain.LoanRepayment{other}, inMonth(2))

	require.NoError(t, err)
	assertDecimal(t, "1000", state.PrincipalPending)
}
