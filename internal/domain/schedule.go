package domain

import "github.com/shopspring/decimal"

const (
	MonthStatusPaid     = "paid"
	MonthStatusUnpaid   = "unpaid"
	MonthStatusUpcoming = "upcoming"
)

// MonthStatus is one cell of a member's contribution grid within a batch.
type MonthStatus struct {
	MonthIndex int             `json:"month_index"`
	Label      string          `json:"label"`
	Status     string          `json:"status"` // paid, unpaid, upcoming
	Expected   decimal.Decimal `json:"expected"`
	Record     *PaymentRecord  `json:"record,omitempty"`
}
