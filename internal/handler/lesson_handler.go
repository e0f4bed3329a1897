package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/dto"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/response"
)

// LessonHandler exposes single-lesson booking endpoints.
type LessonHandler struct {
	bookings *service.BookingService
}

// NewLessonHandler constructs a LessonHandler.
func NewLessonHandler(bookings *service.BookingService) *LessonHandler {
	return &LessonHandler{bookings: bookings}
}

// List godoc
// @Summary List lessons
// @Tags Lessons
// @Produce json
// @Param teacherId query string false "Filter by teacher"
// @Param from query string false "Start of date range (YYYY-MM-DD)"
// @Param to query string false "End of date range (YYYY-MM-DD)"
// @Param completed query bool false "Filter by completion state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	filter := models.LessonFilter{
		TeacherID: c.Query("teacherId"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if from := c.Query("from"); from != "" {
		if day, err := time.Parse("2006-01-02", from); err == nil {
			filter.DateFrom = &day
		}
	}
	if to := c.Query("to"); to != "" {
		if day, err := time.Parse("2006-01-02", to); err == nil {
			filter.DateTo = &day
		}
	}
	if completed := c.Query("completed"); completed != "" {
		if v, err := strconv.ParseBool(completed); err == nil {
			filter.Completed = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	lessons, pagination, err := h.bookings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, pagination)
}

// Get godoc
// @Summary Get lesson detail
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Create godoc
// @Summary Book a single lesson
// @Description A teacher double-booking answers 409 with a session id; resubmitting the identical payload with that session id confirms the override.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req dto.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}
	lesson, err := h.bookings.CreateSingle(c.Request.Context(), req)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	response.Created(c, lesson)
}

// Update godoc
// @Summary Edit a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body dto.UpdateLessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	var req dto.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}
	lesson, err := h.bookings.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Delete godoc
// @Summary Delete a lesson
// @Tags Lessons
// @Param id path string true "Lesson ID"
// @Success 204
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	if err := h.bookings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// respondBookingError surfaces conflict warnings with their payload so the
// client can render the colliding lesson and offer the confirm flow.
func respondBookingError(c *gin.Context, err error) {
	var warning *models.LessonConflictWarning
	if errors.As(err, &warning) {
		appErr := appErrors.FromError(err)
		response.JSON(c, appErr.Status, warning, nil, map[string]interface{}{"error_code": appErr.Code})
		return
	}
	response.Error(c, err)
}
