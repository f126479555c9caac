package handlers

import (
	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
)

type LedgerHandler struct {
	repo domain.Repository
}

func NewLedgerHandler(repo domain.Repository) *LedgerHandler {
	return &LedgerHandler{repo: repo}
}

// List returns entries newest first. Filters: kind, category, barber_id.
func (h *LedgerHandler) List(c *gin.Context) {
	barberID, ok := queryUUID(c, "barber_id")
	if !ok {
		return
	}

	kind := c.Query("kind")
	if kind != "" && kind != string(domain.Credit) && kind != string(domain.Debit) {
		httperr.BadRequest(c, "invalid_kind", "Tipo de lançamento inválido.")
		return
	}

	page, limit, offset := pagination(c)

	entries, total, err := h.repo.List(c.Request.Context(), domain.ListFilter{
		Kind:     kind,
		Category: c.Query("category"),
		BarberID: barberID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.Page(c, entries, page, limit, total)
}

func (h *LedgerHandler) Balance(c *gin.Context) {
	b, err := h.repo.Balance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	httpresp.OK(c, b)
}
