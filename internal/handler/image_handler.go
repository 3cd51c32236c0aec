package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tankermike11/staycation-journal/internal/dto"
	"github.com/tankermike11/staycation-journal/internal/service"
	appErrors "github.com/tankermike11/staycation-journal/pkg/errors"
	"github.com/tankermike11/staycation-journal/pkg/response"
	"github.com/tankermike11/staycation-journal/pkg/storage"
)

type imageService interface {
	Upload(ctx context.Context, dayID string, files []service.UploadFile) (*dto.UploadResponse, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, req dto.ReorderRequest) error
	UpdateCaption(ctx context.Context, id string, req dto.UpdateCaptionRequest) (*dto.ImageView, error)
	Open(ctx context.Context, id, size string) (*storage.Object, error)
	AuthorizeToken(token, id, size string) error
}

// ImageHandler exposes photo upload, serving and editing endpoints.
type ImageHandler struct {
	service imageService
}

// NewImageHandler constructs the handler.
func NewImageHandler(svc imageService) *ImageHandler {
	return &ImageHandler{service: svc}
}

// Upload godoc
// @Summary Upload photos to a day
// @Description Multipart form with dayId and one or more files. Clients send one file per request to stay under the body limit. Files are appended after the day's last photo.
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Param dayId formData string true "Day ID"
// @Param files formData file true "Photo"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /upload [post]
func (h *ImageHandler) Upload(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	form, err := multipartForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	dayID := strings.TrimSpace(c.Request.FormValue("dayId"))
	headers := form.File["files"]
	if dayID == "" || len(headers) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dayId and at least one file are required"))
		return
	}

	files := make([]service.UploadFile, 0, len(headers))
	var rejected []dto.UploadFailure
	for _, header := range headers {
		file, err := uploadFile(header)
		if err != nil {
			appErr := appErrors.FromError(err)
			rejected = append(rejected, dto.UploadFailure{Filename: header.Filename, Code: appErr.Code, Message: appErr.Message})
			continue
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		response.ErrorWithMeta(c, appErrors.Clone(appErrors.ErrValidation, rejected[0].Message), rejectedMeta(rejected))
		return
	}

	res, err := h.service.Upload(c.Request.Context(), dayID, files)
	if err != nil {
		response.ErrorWithMeta(c, err, rejectedMeta(rejected))
		return
	}
	res.Failed = append(rejected, res.Failed...)
	response.JSON(c, http.StatusOK, res, nil)
}

// Serve godoc
// @Summary Stream a photo
// @Description Streams one variant as JPEG. Accepts a bearer token or the signed token embedded in read views.
// @Tags Images
// @Produce image/jpeg
// @Param id path string true "Image ID"
// @Param size query string false "thumb, web or orig (default web)"
// @Param token query string false "Signed image token"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /img/{id} [get]
func (h *ImageHandler) Serve(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	id := c.Param("id")
	size := c.Query("size")
	if claimsFromContext(c) == nil {
		token := c.Query("token")
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if err := h.service.AuthorizeToken(token, id, size); err != nil {
			response.Error(c, err)
			return
		}
	}

	obj, err := h.service.Open(c.Request.Context(), id, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer obj.Body.Close()
	size64 := obj.Size
	if size64 <= 0 {
		size64 = -1
	}
	response.Image(c, size64, obj.Body)
}

// Reorder godoc
// @Summary Move a photo up or down
// @Description Swaps the photo with its neighbour. Moving past either end is a no-op.
// @Tags Images
// @Accept json
// @Produce json
// @Param payload body dto.ReorderRequest true "Reorder payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /reorder [post]
func (h *ImageHandler) Reorder(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reorder payload"))
		return
	}
	if err := h.service.Reorder(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"ok": true}, nil)
}

// UpdateCaption godoc
// @Summary Edit a photo caption
// @Tags Images
// @Accept json
// @Produce json
// @Param id path string true "Image ID"
// @Param payload body dto.UpdateCaptionRequest true "Caption payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /images/{id} [put]
func (h *ImageHandler) UpdateCaption(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.UpdateCaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid caption payload"))
		return
	}
	view, err := h.service.UpdateCaption(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Delete godoc
// @Summary Delete a photo
// @Description Removes the three stored variants, then the row. On storage failure the row is kept.
// @Tags Images
// @Param id path string true "Image ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /images/{id} [delete]
func (h *ImageHandler) Delete(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// rejectedMeta lists files refused before reaching the service so error responses still name them.
func rejectedMeta(rejected []dto.UploadFailure) map[string]interface{} {
	if len(rejected) == 0 {
		return nil
	}
	return map[string]interface{}{"failed": rejected}
}
