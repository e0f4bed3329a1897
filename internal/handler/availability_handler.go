package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/dto"
	"github.com/noah-isme/tutor-booking-api/internal/middleware"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/response"
)

// AvailabilityHandler exposes teacher availability endpoints.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// Get godoc
// @Summary Get a teacher's slots for one date
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/{date} [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	start := time.Now()
	slots, cacheHit, err := h.availability.Get(c.Request.Context(), c.Param("id"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, slots, nil, meta)
}

// ListRange godoc
// @Summary List a teacher's availability records across a date range
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability [get]
func (h *AvailabilityHandler) ListRange(c *gin.Context) {
	records, err := h.availability.ListRange(c.Request.Context(), c.Param("id"), c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// AddSlot godoc
// @Summary Add an availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.UpsertSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teachers/{id}/availability/{date}/slots [post]
func (h *AvailabilityHandler) AddSlot(c *gin.Context) {
	var req dto.UpsertSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	slots, err := h.availability.AddSlot(c.Request.Context(), c.Param("id"), c.Param("date"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slots)
}

// EditSlot godoc
// @Summary Edit an availability slot by index
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param index path int true "Slot index"
// @Param payload body dto.UpsertSlotRequest true "Slot payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teachers/{id}/availability/{date}/slots/{index} [put]
func (h *AvailabilityHandler) EditSlot(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "slot index must be an integer"))
		return
	}
	var req dto.UpsertSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	slots, err := h.availability.EditSlot(c.Request.Context(), c.Param("id"), c.Param("date"), index, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// RemoveSlot godoc
// @Summary Remove an availability slot by index
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param index path int true "Slot index"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/{date}/slots/{index} [delete]
func (h *AvailabilityHandler) RemoveSlot(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "slot index must be an integer"))
		return
	}
	slots, err := h.availability.RemoveSlot(c.Request.Context(), c.Param("id"), c.Param("date"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}
