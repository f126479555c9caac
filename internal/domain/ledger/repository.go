package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type ListFilter struct {
	Kind     string
	Category string
	BarberID *uuid.UUID
	Limit    int
	Offset   int
}

// Repository is the read side of the ledger. Writes go through the payment
// repository so they share the poster's transaction.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]models.LedgerEntry, int64, error)
	Balance(ctx context.Context) (Balance, error)
}
