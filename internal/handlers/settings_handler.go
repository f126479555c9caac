package handlers

import (
	"sort"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// SettingsHandler reads and replaces the business hours used by availability
// and booking.
type SettingsHandler struct {
	repo domain.Repository
}

func NewSettingsHandler(repo domain.Repository) *SettingsHandler {
	return &SettingsHandler{repo: repo}
}

type SettingsRequest struct {
	OpeningTime         string `json:"opening_time" binding:"required"`
	ClosingTime         string `json:"closing_time" binding:"required"`
	WorkingDays         []int  `json:"working_days" binding:"required,dive,min=0,max=6"`
	SlotDurationMinutes int    `json:"slot_duration_minutes" binding:"required,min=5,max=240"`
}

type SettingsResponse struct {
	OpeningTime         string `json:"opening_time"`
	ClosingTime         string `json:"closing_time"`
	WorkingDays         []int  `json:"working_days"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

func toSettingsResponse(row *models.BusinessSettings) (SettingsResponse, error) {
	days, err := domain.ParseWorkingDays(row.WorkingDays)
	if err != nil {
		return SettingsResponse{}, err
	}
	list := make([]int, 0, len(days))
	for d := range days {
		list = append(list, int(d))
	}
	sort.Ints(list)

	return SettingsResponse{
		OpeningTime:         row.OpeningTime,
		ClosingTime:         row.ClosingTime,
		WorkingDays:         list,
		SlotDurationMinutes: row.SlotDurationMinutes,
	}, nil
}

func (h *SettingsHandler) Get(c *gin.Context) {
	row, err := h.repo.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := toSettingsResponse(row)
	if err != nil {
		respondError(c, err)
		return
	}
	httpresp.OK(c, resp)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	days := domain.FormatWorkingDays(req.WorkingDays)
	if _, err := domain.NewSettings(req.OpeningTime, req.ClosingTime, days, req.SlotDurationMinutes); err != nil {
		httperr.BadRequest(c, "invalid_settings", err.Error())
		return
	}

	row := &models.BusinessSettings{
		OpeningTime:         req.OpeningTime,
		ClosingTime:         req.ClosingTime,
		WorkingDays:         days,
		SlotDurationMinutes: req.SlotDurationMinutes,
	}
	if err := h.repo.SaveSettings(c.Request.Context(), row); err != nil {
		respondError(c, err)
		return
	}

	resp, err := toSettingsResponse(row)
	if err != nil {
		respondError(c, err)
		return
	}
	httpresp.OK(c, resp)
}
