package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/tankermike11/staycation-journal/internal/middleware"
	"github.com/tankermike11/staycation-journal/internal/models"
	"github.com/tankermike11/staycation-journal/internal/service"
	appErrors "github.com/tankermike11/staycation-journal/pkg/errors"
)

// multipartMemory is how much of a multipart body gin keeps in memory before spilling to temp files.
const multipartMemory = 8 << 20

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// bodyError maps request body read failures, reporting an exceeded body limit as 413.
func bodyError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return appErrors.Wrap(err, appErrors.ErrPayloadTooLarge.Code, appErrors.ErrPayloadTooLarge.Status, appErrors.ErrPayloadTooLarge.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func multipartForm(c *gin.Context) (*multipart.Form, error) {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		return nil, bodyError(err, "invalid multipart form")
	}
	return c.Request.MultipartForm, nil
}

// uploadFile adapts a multipart part after checking its content sniffs as an image.
func uploadFile(header *multipart.FileHeader) (service.UploadFile, error) {
	f, err := header.Open()
	if err != nil {
		return service.UploadFile{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read "+header.Filename)
	}
	mtype, err := mimetype.DetectReader(f)
	f.Close()
	if err != nil {
		return service.UploadFile{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read "+header.Filename)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return service.UploadFile{}, appErrors.Clone(appErrors.ErrValidation, header.Filename+" is not an image ("+mtype.String()+")")
	}
	return service.UploadFile{
		Filename: header.Filename,
		Size:     header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}, nil
}
