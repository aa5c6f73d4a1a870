package engine

import (
	"sort"
	"time"

	"github.com/segyhp/committee-ledger/internal/domain"
	"github.com/segyhp/committee-ledger/pkg/utils"

	"github.com/shopspring/decimal"
)

// PenaltyRate is the monthly late penalty, in percent of the premium.
var PenaltyRate = decimal.NewFromInt(1)

// Maturity payout: a full batch of contributions pays out at 50000 per 36000 paid in.
var (
	maturityPayout = decimal.NewFromInt(50000)
	maturityBase   = decimal.NewFromInt(36000)
)

// ComputeMemberDue returns what a member owes for month upToMonth of their batch.
//
// Months before upToMonth are replayed against whatever records exist for them: paid
// amounts reduce the balance, recorded penalties increase it. The current month carries
// a penalty only when those earlier months left arrears.
func ComputeMemberDue(sub *domain.MemberSubscription, payments []*domain.PaymentRecord, upToMonth int) domain.MemberDue {
	records := indexPayments(sub, payments)

	expected := decimal.Zero
	paid := decimal.Zero
	interestAccrued := decimal.Zero
	for i := 0; i < upToMonth; i++ {
		expected = expected.Add(sub.MonthlyAmount)
		if rec, ok := records[i]; ok {
			paid = paid.Add(rec.AmountPaid)
			interestAccrued = interestAccrued.Add(rec.InterestCharged)
		}
	}

	arrears := utils.MaxZero(expected.Add(interestAccrued).Sub(paid))

	penalty := decimal.Zero
	if arrears.IsPositive() {
		penalty = utils.Percent(sub.MonthlyAmount, PenaltyRate)
	}

	return domain.MemberDue{
		MemberID:             sub.MemberID,
		CommitteeYear:        sub.CommitteeYear,
		MonthIndex:           upToMonth,
		Premium:              sub.MonthlyAmount,
		Arrears:              arrears,
		CurrentMonthInterest: penalty,
		TotalDue:             sub.MonthlyAmount.Add(penalty).Add(arrears),
	}
}

// ElapsedMonths is the number of batch months that have started by asOf, capped at the
// batch duration. The month containing asOf counts as started.
func ElapsedMonths(batch *domain.Committee, asOf time.Time) int {
	return min(batch.DurationMonths, utils.MonthsSinceJanuary(batch.Year, asOf))
}

// ComputeBatchDefaulters scans every enrolled member of batch for elapsed months without
// a paid record. Each missed month adds the premium plus a flat penalty (except month
// 0); penalties never compound on carried arrears. Members with nothing outstanding are
// left out. The result is ordered by arrears, largest first, with ties kept in
// subscription order.
func ComputeBatchDefaulters(batch *domain.Committee, subs []*domain.MemberSubscription, payments []*domain.PaymentRecord, asOf time.Time) []domain.Defaulter {
	elapsed := ElapsedMonths(batch, asOf)
	paid := paidKeys(batch.Year, payments)

	defaulters := make([]domain.Defaulter, 0)
	for _, sub := range subs {
		if sub == nil || sub.CommitteeYear != batch.Year {
			continue
		}

		penalty := utils.Percent(sub.MonthlyAmount, PenaltyRate)
		arrears := decimal.Zero
		missed := 0
		for i := 0; i < elapsed; i++ {
			if paid[domain.PaymentKey{MemberID: sub.MemberID, CommitteeYear: batch.Year, MonthIndex: i}] {
				continue
			}
			arrears = arrears.Add(sub.MonthlyAmount)
			if i > 0 {
				arrears = arrears.Add(penalty)
			}
			missed++
		}

		if arrears.IsPositive() {
			defaulters = append(defaulters, domain.Defaulter{
				MemberID:     sub.MemberID,
				TotalArrears: arrears,
				MonthsMissed: missed,
			})
		}
	}

	sort.SliceStable(defaulters, func(i, j int) bool {
		return defaulters[i].TotalArrears.GreaterThan(defaulters[j].TotalArrears)
	})
	return defaulters
}

// ComputeMonthStatuses lays out every month of the batch for one member.
func ComputeMonthStatuses(batch *domain.Committee, sub *domain.MemberSubscription, payments []*domain.PaymentRecord, asOf time.Time) []domain.MonthStatus {
	elapsed := ElapsedMonths(batch, asOf)
	records := indexPayments(sub, payments)

	statuses := make([]domain.MonthStatus, 0, batch.DurationMonths)
	for i := 0; i < batch.DurationMonths; i++ {
		status := domain.MonthStatus{
			MonthIndex: i,
			Label:      utils.MonthLabel(i),
			Expected:   sub.MonthlyAmount,
			Status:     domain.MonthStatusUpcoming,
		}
		rec, ok := records[i]
		if ok {
			status.Record = rec
		}
		switch {
		case ok && rec.IsPaid:
			status.Status = domain.MonthStatusPaid
		case i < elapsed:
			status.Status = domain.MonthStatusUnpaid
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// PendingMonths lists the elapsed month indices with no paid record.
func PendingMonths(batch *domain.Committee, sub *domain.MemberSubscription, payments []*domain.PaymentRecord, asOf time.Time) []int {
	elapsed := ElapsedMonths(batch, asOf)
	records := indexPayments(sub, payments)

	pending := make([]int, 0)
	for i := 0; i < elapsed; i++ {
		if rec, ok := records[i]; !ok || !rec.IsPaid {
			pending = append(pending, i)
		}
	}
	return pending
}

// MaturityAmount is the payout for completing every month of the batch.
func MaturityAmount(batch *domain.Committee, sub *domain.MemberSubscription) decimal.Decimal {
	invested := sub.MonthlyAmount.Mul(decimal.NewFromInt(int64(batch.DurationMonths)))
	return invested.Mul(maturityPayout).Div(maturityBase).Round(2)
}

// indexPayments keys the subscription's records by month index. Later records win,
// matching upsert semantics.
func indexPayments(sub *domain.MemberSubscription, payments []*domain.PaymentRecord) map[int]*domain.PaymentRecord {
	records := make(map[int]*domain.PaymentRecord)
	for _, p := range payments {
		if p == nil || p.MemberID != sub.MemberID || p.CommitteeYear != sub.CommitteeYear {
			continue
		}
		records[p.MonthIndex] = p
	}
	return records
}

func paidKeys(year int, payments []*domain.PaymentRecord) map[domain.PaymentKey]bool {
	paid := make(map[domain.PaymentKey]bool)
	for _, p := range payments {
		if p == nil || p.CommitteeYear != year {
			continue
		}
		paid[p.Key()] = p.IsPaid
	}
	return paid
}
