package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/barber-booking/internal/money"
)

func TestSigned(t *testing.T) {
	assert.Equal(t, money.Cents(100), Credit.Signed(100))
	assert.Equal(t, money.Cents(-100), Debit.Signed(100))
}

func TestReferences(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, Reference{Kind: RefPaymentIntent, ID: id}, PaymentIntentRef(id))
	assert.Equal(t, RefCommission, CommissionRef(id).Kind)
}
