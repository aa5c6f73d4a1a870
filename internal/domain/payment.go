package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "Cash"
	PaymentMethodOnline PaymentMethod = "Online"
	PaymentMethodBank   PaymentMethod = "Bank"
)

// PaymentRecord is the decision recorded for one member, batch and month. At most one
// record exists per key; a missing record means the month is unpaid.
type PaymentRecord struct {
	MemberID        string          `json:"member_id" db:"member_id"`
	CommitteeYear   int             `json:"committee_year" db:"committee_year"`
	MonthIndex      int             `json:"month_index" db:"month_index"`
	AmountPaid      decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	ExpectedAmount  decimal.Decimal `json:"expected_amount" db:"expected_amount"`
	IsPaid          bool            `json:"is_paid" db:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	InterestCharged decimal.Decimal `json:"interest_charged" db:"interest_charged"`
	Method          PaymentMethod   `json:"method,omitempty" db:"method"`
	PendingAmount   decimal.Decimal `json:"pending_amount" db:"pending_amount"`
}

// PaymentKey identifies a PaymentRecord.
type PaymentKey struct {
	MemberID      string
	CommitteeYear int
	MonthIndex    int
}

func (p *PaymentRecord) Key() PaymentKey {
	return PaymentKey{MemberID: p.MemberID, CommitteeYear: p.CommitteeYear, MonthIndex: p.MonthIndex}
}

// PaymentReceipt is what the collector hands back to the member after a payment.
type PaymentReceipt struct {
	Record        *PaymentRecord  `json:"record"`
	MemberName    string          `json:"member_name,omitempty"`
	MonthLabel    string          `json:"month_label"`
	Arrears       decimal.Decimal `json:"arrears"`
	Interest      decimal.Decimal `json:"interest"`
	TotalDue      decimal.Decimal `json:"total_due"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
}

type RecordPaymentRequest struct {
	MemberID   string           `json:"member_id" validate:"required"`
	MonthIndex int              `json:"month_index" validate:"gte=0"`
	Amount     *decimal.Decimal `json:"amount" validate:"omitempty,decimal_gte=0"`
	Method     PaymentMethod    `json:"method" validate:"omitempty,oneof=Cash Online Bank"`
	PaidAt     *time.Time       `json:"paid_at"`
}
