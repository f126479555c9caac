package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// --------------------------------------------------
// Request parsing helpers
// --------------------------------------------------

// paramUUID reads a path uuid and writes a 400 when it is malformed.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Identificador inválido.")
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID returns nil for an absent query value.
func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httperr.BadRequest(c, "invalid_"+name, "Identificador inválido.")
		return nil, false
	}
	return &id, true
}

// queryMinutes returns zero for an absent value. A present one must be a
// positive integer.
func queryMinutes(c *gin.Context, name string) (time.Duration, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		httperr.BadRequest(c, "invalid_duration", "Duração inválida.")
		return 0, false
	}
	return time.Duration(n) * time.Minute, true
}

func queryDate(c *gin.Context, name string, loc *time.Location) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		httperr.BadRequest(c, "missing_"+name, "Data obrigatória.")
		return time.Time{}, false
	}
	d, err := timezone.ParseDate(raw, loc)
	if err != nil {
		httperr.BadRequest(c, "invalid_"+name, "Data inválida.")
		return time.Time{}, false
	}
	return d, true
}

func parseInstant(c *gin.Context, raw string, loc *time.Location) (time.Time, bool) {
	t, err := timezone.ParseInstant(raw, loc)
	if err != nil {
		httperr.BadRequest(c, "invalid_start_time", "Data ou hora inválida.")
		return time.Time{}, false
	}
	return t, true
}

// pagination reads ?page&limit with the defaults used by every list endpoint.
func pagination(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return page, limit, (page - 1) * limit
}
