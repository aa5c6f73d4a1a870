package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	monthNames = [12]string{
		"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
	}
)

// AddMonths moves t forward by n calendar months, keeping the time of day.
// The day is clamped to the last day of the target month, so Jan 31 + 1 month is the
// last day of February rather than early March.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// WholeMonthsBetween returns the number of complete calendar months from start to end,
// i.e. the largest n with AddMonths(start, n) <= end. It never returns a negative value.
func WholeMonthsBetween(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	end = end.In(start.Location())
	n := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if AddMonths(start, n).After(end) {
		n--
	}
	if n < 0 {
		return 0
	}
	return n
}

// MonthsSinceJanuary counts calendar months from January of year up to and including
// the month containing asOf. Instants before that January count as zero.
func MonthsSinceJanuary(year int, asOf time.Time) int {
	n := (asOf.Year()-year)*12 + int(asOf.Month())
	if n < 0 {
		return 0
	}
	return n
}

// MonthLabel renders a batch month index, e.g. 13 -> "Feb (Year 2)".
func MonthLabel(index int) string {
	if index < 0 {
		return fmt.Sprintf("Month %d", index)
	}
	return fmt.Sprintf("%s (Year %d)", monthNames[index%12], index/12+1)
}

// Percent returns pct percent of amount.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// MaxZero clamps negative amounts to zero.
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
