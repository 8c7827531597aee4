package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"registration-form-api/internal/domain"
	"registration-form-api/internal/dto"
	"registration-form-api/internal/response"
	"registration-form-api/internal/service"
)

type CatalogHandler struct {
	picker service.EventPicker
}

func NewCatalogHandler(picker service.EventPicker) *CatalogHandler {
	return &CatalogHandler{picker: picker}
}

// GetFieldTypes godoc
// @Summary      Field catalog
// @Description  Lists every field type the designer can add, in palette order
// @Tags         catalog
// @Produce      json
// @Success      200 {object} response.SuccessResponse{data=[]dto.FieldTypeResponse}
// @Router       /catalog [get]
func (h *CatalogHandler) GetFieldTypes(c *gin.Context) {
	catalog := domain.Catalog()
	types := make([]dto.FieldTypeResponse, 0, len(catalog))
	for _, spec := range catalog {
		types = append(types, dto.NewFieldTypeResponse(spec))
	}
	response.SendSuccess(c, http.StatusOK, types)
}

// GetEvents godoc
// @Summary      Designable events
// @Description  Lists upcoming events whose registration form can be designed
// @Tags         events
// @Produce      json
// @Success      200 {object} response.SuccessResponse{data=[]dto.EventResponse}
// @Failure      500 {object} response.ErrorResponse
// @Router       /events [get]
func (h *CatalogHandler) GetEvents(c *gin.Context) {
	events, err := h.picker.DesignableEvents(c.Request.Context())
	if err != nil {
		handleServiceError(c, response.NewAppError(response.ErrCodeInternal, "Failed to fetch events", err.Error()))
		return
	}

	result := make([]dto.EventResponse, 0, len(events))
	for _, e := range events {
		result = append(result, dto.NewEventResponse(e))
	}
	response.SendSuccess(c, http.StatusOK, result)
}
