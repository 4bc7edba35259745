package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableService interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error)
	Get(ctx context.Context, id string) (*dto.TimetableResponse, error)
	Delete(ctx context.Context, id string) error
	AddSubject(ctx context.Context, id string, req dto.AddSubjectRequest) (*dto.TimetableResponse, error)
	CheckConflict(ctx context.Context, id string, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error)
	ApplySlotEdit(ctx context.Context, id string, req dto.SlotEditRequest) (*dto.TimetableResponse, error)
	Substitutes(ctx context.Context, id string, query dto.SubstituteQuery) ([]dto.TeacherSummary, error)
	FindSubstitutes(ctx context.Context, query dto.SimpleSubstituteQuery) ([]dto.TeacherSummary, error)
}

// TimetableHandler exposes timetable generation and editing endpoints.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate godoc
// @Summary Generate a weekly timetable
// @Description Places every selected subject for the selected classes. Unplaced periods are reported as conflicts.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation settings"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
			return
		}
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Get godoc
// @Summary Get a stored timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Delete godoc
// @Summary Discard a stored timetable
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Success 204
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddSubject godoc
// @Summary Add a subject to one class of a stored timetable
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.AddSubjectRequest true "Subject to place"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/subjects [post]
func (h *TimetableHandler) AddSubject(c *gin.Context) {
	var req dto.AddSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}
	result, err := h.service.AddSubject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// CheckConflict godoc
// @Summary Check whether a slot assignment would conflict
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.ConflictCheckRequest true "Candidate slot"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/conflicts/check [post]
func (h *TimetableHandler) CheckConflict(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict check payload"))
		return
	}
	result, err := h.service.CheckConflict(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// EditSlot godoc
// @Summary Manually assign a lesson to a slot
// @Description Rejected with 409 when the slot conflicts unless force is set.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.SlotEditRequest true "Slot edit"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/{id}/slots [put]
func (h *TimetableHandler) EditSlot(c *gin.Context) {
	var req dto.SlotEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	result, err := h.service.ApplySlotEdit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Substitutes godoc
// @Summary List free substitute teachers for a slot
// @Tags Substitutes
// @Produce json
// @Param id path string true "Timetable ID"
// @Param subject query string true "Subject name"
// @Param day query string true "Day name"
// @Param period query int true "Period index"
// @Param date query string false "Absence date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/substitutes [get]
func (h *TimetableHandler) Substitutes(c *gin.Context) {
	var query dto.SubstituteQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid substitute query"))
		return
	}
	result, err := h.service.Substitutes(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"count": len(result)})
}

// FindSubstitutes godoc
// @Summary List teachers able to replace an absent teacher
// @Tags Substitutes
// @Produce json
// @Param absentTeacher query string true "Absent teacher name"
// @Param subject query string true "Subject name"
// @Param day query string false "Day name"
// @Param period query int false "Period index"
// @Success 200 {object} response.Envelope
// @Router /substitutes [get]
func (h *TimetableHandler) FindSubstitutes(c *gin.Context) {
	var query dto.SimpleSubstituteQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid substitute query"))
		return
	}
	result, err := h.service.FindSubstitutes(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"count": len(result)})
}
