package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type catalogService interface {
	Get(ctx context.Context) (*dto.CatalogResponse, error)
	Refresh(ctx context.Context) (*dto.CatalogResponse, error)
}

// CatalogHandler serves the scheduling reference data.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Get godoc
// @Summary List classes, subjects, teachers and rooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Refresh godoc
// @Summary Drop cached catalog entries and reload from the repository
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /catalog/refresh [post]
func (h *CatalogHandler) Refresh(c *gin.Context) {
	result, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
