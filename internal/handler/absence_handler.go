package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type absenceService interface {
	MarkAbsent(ctx context.Context, teacherID, date string) (*dto.AbsenceResponse, error)
	List(ctx context.Context, date string) (*dto.AbsenceResponse, error)
}

// AbsenceHandler records teacher absences.
type AbsenceHandler struct {
	service absenceService
}

// NewAbsenceHandler constructs the handler.
func NewAbsenceHandler(svc absenceService) *AbsenceHandler {
	return &AbsenceHandler{service: svc}
}

// MarkAbsent godoc
// @Summary Mark a teacher absent for a date
// @Tags Absences
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body dto.MarkAbsentRequest false "Absence date, defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id}/absences [post]
func (h *AbsenceHandler) MarkAbsent(c *gin.Context) {
	var req dto.MarkAbsentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid absence payload"))
			return
		}
	}
	result, err := h.service.MarkAbsent(c.Request.Context(), c.Param("id"), req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// List godoc
// @Summary List absent teachers for a date
// @Tags Absences
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /absences [get]
func (h *AbsenceHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
