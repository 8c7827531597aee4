package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"registration-form-api/internal/dto"
	"registration-form-api/internal/response"
	"registration-form-api/internal/service"
)

type DesignerHandler struct {
	designerService service.DesignerService
}

func NewDesignerHandler(designerService service.DesignerService) *DesignerHandler {
	return &DesignerHandler{designerService: designerService}
}

// OpenSession godoc
// @Summary      Open a designer session
// @Description  Creates an editing session, loading the event's form when eventId is given
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request body dto.OpenSessionRequest false "Event to load"
// @Success      201 {object} response.SuccessResponse{data=dto.SessionView}
// @Failure      400 {object} response.ErrorResponse "Event is not upcoming"
// @Failure      404 {object} response.ErrorResponse "Event not found"
// @Router       /sessions [post]
func (h *DesignerHandler) OpenSession(c *gin.Context) {
	var req dto.OpenSessionRequest
	// the body is optional
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	view, err := h.designerService.OpenSession(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusCreated, view)
}

// GetSession godoc
// @Summary      Get session state
// @Tags         sessions
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Success      200 {object} response.SuccessResponse{data=dto.SessionView}
// @Failure      404 {object} response.ErrorResponse
// @Router       /sessions/{sessionId} [get]
func (h *DesignerHandler) GetSession(c *gin.Context) {
	view, err := h.designerService.GetSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, view)
}

// CloseSession godoc
// @Summary      Close a session
// @Description  Discards the session and any unsaved changes
// @Tags         sessions
// @Param        sessionId path string true "Session ID"
// @Success      200 {object} response.SuccessResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /sessions/{sessionId} [delete]
func (h *DesignerHandler) CloseSession(c *gin.Context) {
	if err := h.designerService.CloseSession(c.Request.Context(), c.Param("sessionId")); err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, nil)
}

// SelectEvent godoc
// @Summary      Switch event
// @Description  Loads another event's form into the session. Unsaved changes are discarded.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Param        request body dto.SelectEventRequest true "Event to load"
// @Success      200 {object} response.SuccessResponse{data=dto.SessionView}
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /sessions/{sessionId}/event [put]
func (h *DesignerHandler) SelectEvent(c *gin.Context) {
	var req dto.SelectEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	view, err := h.designerService.SelectEvent(c.Request.Context(), c.Param("sessionId"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, view)
}

// UpdateMeta godoc
// @Summary      Update form title and description
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Param        request body dto.UpdateMetaRequest true "Title and description"
// @Success      200 {object} response.SuccessResponse{data=dto.SessionView}
// @Router       /sessions/{sessionId}/meta [patch]
func (h *DesignerHandler) UpdateMeta(c *gin.Context) {
	var req dto.UpdateMetaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	view, err := h.designerService.UpdateMeta(c.Request.Context(), c.Param("sessionId"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, view)
}

// AddField godoc
// @Summary      Add a field
// @Description  Appends a field of the given catalog type. Singleton types are rejected when already present.
// @Tags         fields
// @Accept       json
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Param        request body dto.AddFieldRequest true "Field type"
// @Success      201 {object} response.SuccessResponse{data=dto.SessionView}
// @Failure      400 {object} response.ErrorResponse "Unknown type or no event selected"
// @Failure      409 {object} response.ErrorResponse "Only one field of this type is allowed"
// @Router       /sessions/{sessionId}/fields [post]
func (h *DesignerHandler) AddField(c *gin.Context) {
	var req dto.AddFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	view, err := h.designerService.AddField(c.Request.Context(), c.Param("sessionId"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusCreated, view)
}

// UpdateField godoc
// @Summary      Update a field
// @Description  Merges the given attributes into the field. Omitted attributes are unchanged.
// @Tags         fields
// @Accept       json
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Param        fieldId path int true "Field ID"
// @Param        request body dto.UpdateFieldRequest true "Attributes"
// @Success      200 {object} response.SuccessResponse{data=dto.SessionView}
// @Router       /sessions/{sessionId}/fields/{fieldId} [patch]
func (h *DesignerHandler) UpdateField(c *gin.Context) {
	fieldID, ok := parseFieldID(c)
	if !ok {
		return
	}

	var req dto.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	view, err := h.designerService.UpdateField(c.Request.Context(), c.Param("sessionId"), fieldID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, view)
}

// RemoveField godoc
// @Summary      Remove a field
// @Tags         fields
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Param        fieldId path int true "Field ID"
// @Success      200 {object} response.SuccessResponse{data=dto.SessionView}
// @Router       /sessions/{sessionId}/fields/{fieldId} [delete]
func (h *DesignerHandler) RemoveField(c *gin.Context) {
	fieldID, ok := parseFieldID(c)
	if !ok {
		return
	}

	view, err := h.designerService.RemoveField(c.Request.Context(), c.Param("sessionId"), fieldID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, view)
}

// MoveField godoc
// @Summary      Reorder a field
// @Description  Swaps the field with its neighbour. Moving past either end is a no-op.
// @Tags         fields
// @Accept       json
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Param        fieldId path int true "Field ID"
// @Param        request body dto.MoveFieldRequest true "Direction"
// @Success      200 {object} response.SuccessResponse{data=dto.SessionView}
// @Router       /sessions/{sessionId}/fields/{fieldId}/move [post]
func (h *DesignerHandler) MoveField(c *gin.Context) {
	fieldID, ok := parseFieldID(c)
	if !ok {
		return
	}

	var req dto.MoveFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	view, err := h.designerService.MoveField(c.Request.Context(), c.Param("sessionId"), fieldID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, view)
}

// SelectField godoc
// @Summary      Select a field for editing
// @Tags         fields
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Param        fieldId path int true "Field ID"
// @Success      200 {object} response.SuccessResponse{data=dto.SessionView}
// @Failure      404 {object} response.ErrorResponse
// @Router       /sessions/{sessionId}/fields/{fieldId}/select [post]
func (h *DesignerHandler) SelectField(c *gin.Context) {
	fieldID, ok := parseFieldID(c)
	if !ok {
		return
	}

	view, err := h.designerService.SelectField(c.Request.Context(), c.Param("sessionId"), fieldID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, view)
}

// Save godoc
// @Summary      Save the form
// @Description  Persists the session's form under its event
// @Tags         sessions
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Success      200 {object} response.SuccessResponse{data=dto.SessionView}
// @Failure      500 {object} response.ErrorResponse
// @Router       /sessions/{sessionId}/save [post]
func (h *DesignerHandler) Save(c *gin.Context) {
	view, err := h.designerService.Save(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, view)
}

// GetPreview godoc
// @Summary      Rendered preview
// @Tags         preview
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Success      200 {object} response.SuccessResponse{data=preview.Form}
// @Router       /sessions/{sessionId}/preview [get]
func (h *DesignerHandler) GetPreview(c *gin.Context) {
	form, err := h.designerService.Preview(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, form)
}

func parseFieldID(c *gin.Context) (int64, bool) {
	fieldID, err := strconv.ParseInt(c.Param("fieldId"), 10, 64)
	if err != nil || fieldID <= 0 {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid field ID")
		return 0, false
	}
	return fieldID, true
}
