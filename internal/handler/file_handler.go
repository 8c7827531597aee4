package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"registration-form-api/internal/response"
	"registration-form-api/internal/service"
)

// MaxImportSize caps the body of an import request
const MaxImportSize = 1 << 20

// Export godoc
// @Summary      Export the form
// @Description  Downloads the session's form as a JSON document
// @Tags         files
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Success      200 {file} file
// @Router       /sessions/{sessionId}/export [get]
func (h *DesignerHandler) Export(c *gin.Context) {
	result, err := h.designerService.Export(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	if result.ArchiveURL != "" {
		c.Header("X-Archive-URL", result.ArchiveURL)
	}
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// Import godoc
// @Summary      Import a form
// @Description  Replaces the session's form with an exported document, sent as the JSON body or as a multipart "file"
// @Tags         files
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Success      200 {object} response.SuccessResponse{data=dto.SessionView}
// @Failure      400 {object} response.ErrorResponse "Not a valid form export"
// @Router       /sessions/{sessionId}/import [post]
func (h *DesignerHandler) Import(c *gin.Context) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		data, err = readFormFile(c, "file", MaxImportSize)
	} else {
		data, err = io.ReadAll(io.LimitReader(c.Request.Body, MaxImportSize+1))
		if err == nil && len(data) > MaxImportSize {
			err = fmt.Errorf("import exceeds %d bytes", MaxImportSize)
		}
	}
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, err.Error())
		return
	}

	view, err := h.designerService.Import(c.Request.Context(), c.Param("sessionId"), data)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, view)
}

// UploadQR godoc
// @Summary      Upload a payment QR image
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Param        fieldId path int true "Payment field ID"
// @Param        file formData file true "QR image"
// @Success      200 {object} response.SuccessResponse{data=dto.SessionView}
// @Failure      400 {object} response.ErrorResponse "Not an image or not a payment field"
// @Router       /sessions/{sessionId}/fields/{fieldId}/qr [post]
func (h *DesignerHandler) UploadQR(c *gin.Context) {
	fieldID, ok := parseFieldID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "File is required")
		return
	}
	data, err := readFormFile(c, "file", service.MaxQRImageSize)
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, err.Error())
		return
	}

	view, err := h.designerService.UploadQR(c.Request.Context(), c.Param("sessionId"), fieldID, file.Filename, data)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, view)
}

func readFormFile(c *gin.Context, name string, limit int64) ([]byte, error) {
	header, err := c.FormFile(name)
	if err != nil {
		return nil, fmt.Errorf("%s is required", name)
	}
	if header.Size > limit {
		return nil, fmt.Errorf("%s exceeds %d bytes", name, limit)
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit))
}
