package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/dto"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/response"
)

// RecurrenceHandler exposes the weekly-series preview workflow.
type RecurrenceHandler struct {
	recurrence *service.RecurrenceService
}

// NewRecurrenceHandler constructs a RecurrenceHandler.
func NewRecurrenceHandler(recurrence *service.RecurrenceService) *RecurrenceHandler {
	return &RecurrenceHandler{recurrence: recurrence}
}

// Generate godoc
// @Summary Generate a weekly recurrence preview
// @Tags Recurrence
// @Accept json
// @Produce json
// @Param payload body dto.GeneratePreviewRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /recurrences [post]
func (h *RecurrenceHandler) Generate(c *gin.Context) {
	var req dto.GeneratePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preview payload"))
		return
	}
	preview, err := h.recurrence.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, preview)
}

// Get godoc
// @Summary Get a recurrence preview
// @Tags Recurrence
// @Produce json
// @Param id path string true "Preview ID"
// @Success 200 {object} response.Envelope
// @Router /recurrences/{id} [get]
func (h *RecurrenceHandler) Get(c *gin.Context) {
	preview, err := h.recurrence.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// AssignTeacher godoc
// @Summary Assign a teacher to one occurrence
// @Tags Recurrence
// @Accept json
// @Produce json
// @Param id path string true "Preview ID"
// @Param payload body dto.AssignTeacherRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /recurrences/{id}/assign [post]
func (h *RecurrenceHandler) AssignTeacher(c *gin.Context) {
	var req dto.AssignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	preview, err := h.recurrence.AssignTeacher(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// BulkAssignTeacher godoc
// @Summary Assign one teacher to every occurrence
// @Tags Recurrence
// @Accept json
// @Produce json
// @Param id path string true "Preview ID"
// @Param payload body dto.BulkAssignTeacherRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /recurrences/{id}/assign-all [post]
func (h *RecurrenceHandler) BulkAssignTeacher(c *gin.Context) {
	var req dto.BulkAssignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	preview, err := h.recurrence.BulkAssignTeacher(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// UpdatePrice godoc
// @Summary Edit one occurrence's price before commit
// @Tags Recurrence
// @Accept json
// @Produce json
// @Param id path string true "Preview ID"
// @Param payload body dto.UpdateOccurrencePriceRequest true "Price payload"
// @Success 200 {object} response.Envelope
// @Router /recurrences/{id}/price [post]
func (h *RecurrenceHandler) UpdatePrice(c *gin.Context) {
	var req dto.UpdateOccurrencePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid price payload"))
		return
	}
	preview, err := h.recurrence.UpdateOccurrencePrice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// RankTeachers godoc
// @Summary Rank teachers for an assignment picker
// @Description Teachers available for the queried window sort first; order within each bucket is stable.
// @Tags Recurrence
// @Produce json
// @Param search query string false "Search by name or phone"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param start query string true "Start time (HH:MM)"
// @Param duration query int true "Duration in minutes"
// @Success 200 {object} response.Envelope
// @Router /recurrences/teachers [get]
func (h *RecurrenceHandler) RankTeachers(c *gin.Context) {
	var q dto.RankTeachersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ranking query"))
		return
	}
	ranked, err := h.recurrence.RankTeachers(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranked, nil)
}

// Commit godoc
// @Summary Commit a preview as real lessons
// @Description Every occurrence must carry a teacher; writes are independent adds with no rollback on partial failure.
// @Tags Recurrence
// @Produce json
// @Param id path string true "Preview ID"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /recurrences/{id}/commit [post]
func (h *RecurrenceHandler) Commit(c *gin.Context) {
	lessons, err := h.recurrence.Commit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lessons)
}
