package ledger

import (
	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/money"
)

type Kind string

const (
	Credit Kind = "credit"
	Debit  Kind = "debit"
)

type Category string

const (
	CategoryServicePayment     Category = "service_payment"
	CategoryCommission         Category = "commission"
	CategoryRefund             Category = "refund"
	CategoryCommissionReversal Category = "commission_reversal"
)

// RefKind names the entity that explains an entry.
type RefKind string

const (
	RefPaymentIntent RefKind = "payment_intents"
	RefCommission    RefKind = "commissions"
)

// Reference is the tagged back-reference of a ledger entry.
type Reference struct {
	Kind RefKind
	ID   uuid.UUID
}

func PaymentIntentRef(id uuid.UUID) Reference { return Reference{Kind: RefPaymentIntent, ID: id} }
func CommissionRef(id uuid.UUID) Reference    { return Reference{Kind: RefCommission, ID: id} }

// Signed returns the amount as it affects the balance.
func (k Kind) Signed(amount money.Cents) money.Cents {
	if k == Debit {
		return -amount
	}
	return amount
}

type CommissionStatus string

const (
	CommissionPending   CommissionStatus = "pending"
	CommissionApproved  CommissionStatus = "approved"
	CommissionPaid      CommissionStatus = "paid"
	CommissionCancelled CommissionStatus = "cancelled"
)

// Balance is the derived cash position: credits minus debits.
type Balance struct {
	BalanceCents      money.Cents `json:"balance_cents"`
	TotalCreditsCents money.Cents `json:"total_credits_cents"`
	TotalDebitsCents  money.Cents `json:"total_debits_cents"`
}
