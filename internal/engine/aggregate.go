package engine

import (
	"time"

	"github.com/segyhp/committee-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// SummarizeLoans replays every loan as of asOf and totals the snapshots. Repayments are
// matched to loans by LoanID.
func SummarizeLoans(loans []*domain.Loan, repayments []*domain.LoanRepayment, asOf time.Time) (domain.LoanPortfolioSummary, error) {
	byLoan := make(map[string][]*domain.LoanRepayment, len(loans))
	for _, r := range repayments {
		byLoan[r.LoanID] = append(byLoan[r.LoanID], r)
	}

	states := make(map[string]domain.LoanState, len(loans))
	for _, loan := range loans {
		state, err := ComputeLoanState(loan, byLoan[loan.ID], asOf)
		if err != nil {
			return domain.LoanPortfolioSummary{}, err
		}
		states[loan.ID] = state
	}
	return SummarizeLoanStates(loans, states), nil
}

// SummarizeLoanStates totals snapshots that were already computed, e.g. served from a
// cache. Loans without a snapshot only count towards TotalIssued.
func SummarizeLoanStates(loans []*domain.Loan, states map[string]domain.LoanState) domain.LoanPortfolioSummary {
	summary := domain.LoanPortfolioSummary{
		TotalIssued:    decimal.Zero,
		TotalRecovered: decimal.Zero,
		TotalBalance:   decimal.Zero,
	}
	pending := make(map[string]struct{})

	for _, loan := range loans {
		summary.TotalIssued = summary.TotalIssued.Add(loan.Amount)

		state, ok := states[loan.ID]
		if !ok {
			continue
		}
		summary.TotalRecovered = summary.TotalRecovered.Add(state.TotalRecovered)
		summary.TotalBalance = summary.TotalBalance.Add(state.Balance())

		if state.IsClosed {
			summary.ClosedLoans++
		} else {
			summary.ActiveLoans++
			pending[loan.BorrowerID] = struct{}{}
		}
	}

	summary.PendingBorrowers = len(pending)
	return summary
}

// SummarizeBatch totals contributions and arrears for one batch as of asOf.
func SummarizeBatch(batch *domain.Committee, subs []*domain.MemberSubscription, payments []*domain.PaymentRecord, asOf time.Time) domain.BatchSummary {
	elapsed := ElapsedMonths(batch, asOf)
	summary := domain.BatchSummary{
		Year:            batch.Year,
		DurationMonths:  batch.DurationMonths,
		ElapsedMonths:   elapsed,
		ExpectedToDate:  decimal.Zero,
		CollectedToDate: decimal.Zero,
		TotalArrears:    decimal.Zero,
	}

	enrolled := make(map[string]struct{})
	for _, sub := range subs {
		if sub.CommitteeYear != batch.Year {
			continue
		}
		enrolled[sub.MemberID] = struct{}{}
		summary.Members++
		summary.ExpectedToDate = summary.ExpectedToDate.Add(sub.MonthlyAmount.Mul(decimal.NewFromInt(int64(elapsed))))
	}

	for _, p := range payments {
		if p.CommitteeYear != batch.Year || !p.IsPaid {
			continue
		}
		if _, ok := enrolled[p.MemberID]; !ok {
			continue
		}
		summary.CollectedToDate = summary.CollectedToDate.Add(p.AmountPaid)
	}

	summary.Defaulters = ComputeBatchDefaulters(batch, subs, payments, asOf)
	for _, d := range summary.Defaulters {
		summary.TotalArrears = summary.TotalArrears.Add(d.TotalArrears)
	}
	return summary
}
