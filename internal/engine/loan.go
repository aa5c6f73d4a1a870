// Package engine replays ledger history into balances. Every function is pure: the
// result depends only on the records passed in and the explicit as-of instant.
package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/segyhp/committee-ledger/internal/domain"
	customError "github.com/segyhp/committee-ledger/pkg/errors"
	"github.com/segyhp/committee-ledger/pkg/utils"

	"github.com/shopspring/decimal"
)

// ClosureTolerance is the rounding slack under which a loan counts as settled.
var ClosureTolerance = decimal.NewFromInt(1)

var hundred = decimal.NewFromInt(100)

// ComputeLoanState replays repayments month by month from the loan's start instant and
// returns the balances as of asOf.
//
// Interest accrues from the month after disbursement on the principal outstanding at
// the start of each month; an overpaid loan accrues nothing. Each repayment pays accrued
// interest first and the remainder reduces principal. Repayments dated after asOf are
// not part of the history yet; repayments dated before the start instant are applied in
// the issuance month.
func ComputeLoanState(loan *domain.Loan, repayments []*domain.LoanRepayment, asOf time.Time) (domain.LoanState, error) {
	if loan.InterestRate.IsNegative() {
		return domain.LoanState{}, fmt.Errorf("loan %s: %w", loan.ID, customError.ErrNegativeInterestRate)
	}

	history, err := replayOrder(loan.ID, repayments, asOf)
	if err != nil {
		return domain.LoanState{}, err
	}

	monthsElapsed := utils.WholeMonthsBetween(loan.StartDate, asOf)
	monthlyRate := loan.InterestRate.Div(hundred)

	principal := loan.Amount
	accrued := decimal.Zero
	interestPaid := decimal.Zero
	principalPaid := decimal.Zero

	next := 0
	for m := 0; m <= monthsElapsed; m++ {
		if m > 0 {
			accrued = accrued.Add(utils.MaxZero(principal).Mul(monthlyRate))
		}

		windowEnd := utils.AddMonths(loan.StartDate, m+1)
		for ; next < len(history) && history[next].PaidAt.Before(windowEnd); next++ {
			amount := history[next].Amount

			toInterest := utils.MinDecimal(amount, accrued)
			accrued = accrued.Sub(toInterest)
			interestPaid = interestPaid.Add(toInterest)

			toPrincipal := amount.Sub(toInterest)
			principal = principal.Sub(toPrincipal)
			principalPaid = principalPaid.Add(toPrincipal)
		}
	}

	state := domain.LoanState{
		LoanID:             loan.ID,
		AsOf:               asOf,
		MonthsElapsed:      monthsElapsed,
		PrincipalPending:   utils.MaxZero(principal),
		InterestPending:    utils.MaxZero(accrued),
		TotalPrincipalPaid: principalPaid,
		TotalInterestPaid:  interestPaid,
		TotalRecovered:     principalPaid.Add(interestPaid),
	}
	state.IsClosed = state.Balance().LessThanOrEqual(ClosureTolerance)

	return state, nil
}

// replayOrder copies the repayments that belong to the as-of history and sorts them by
// instant. Equal instants keep their input order.
func replayOrder(loanID string, repayments []*domain.LoanRepayment, asOf time.Time) ([]*domain.LoanRepayment, error) {
	history := make([]*domain.LoanRepayment, 0, len(repayments))
	for _, r := range repayments {
		if r == nil || r.PaidAt.After(asOf) {
			continue
		}
		if r.LoanID != "" && r.LoanID != loanID {
			continue
		}
		if r.Amount.IsNegative() {
			return nil, fmt.Errorf("repayment %s: %w", r.ID, customError.ErrInvalidRepaymentAmount)
		}
		history = append(history, r)
	}

	slices.SortStableFunc(history, func(a, b *domain.LoanRepayment) int {
		return a.PaidAt.Compare(b.PaidAt)
	})
	return history, nil
}
