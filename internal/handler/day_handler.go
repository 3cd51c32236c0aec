package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tankermike11/staycation-journal/internal/dto"
	"github.com/tankermike11/staycation-journal/internal/middleware"
	"github.com/tankermike11/staycation-journal/internal/models"
	appErrors "github.com/tankermike11/staycation-journal/pkg/errors"
	"github.com/tankermike11/staycation-journal/pkg/response"
)

type dayService interface {
	Get(ctx context.Context, id string) (*dto.DayDetail, error)
	Update(ctx context.Context, id string, req dto.UpdateDayRequest) (*models.Day, error)
	Delete(ctx context.Context, id string) error
}

// DayHandler exposes day endpoints.
type DayHandler struct {
	service dayService
}

// NewDayHandler constructs the handler.
func NewDayHandler(svc dayService) *DayHandler {
	return &DayHandler{service: svc}
}

// Get godoc
// @Summary Get day
// @Description Day with its photos in display order, each with signed thumb, web and orig URLs
// @Tags Days
// @Produce json
// @Param id path string true "Day ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /days/{id} [get]
func (h *DayHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	day, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Update day
// @Description Edits title, locations and notes. Blank values clear the field.
// @Tags Days
// @Accept json
// @Produce json
// @Param id path string true "Day ID"
// @Param payload body dto.UpdateDayRequest true "Day payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /days/{id} [put]
func (h *DayHandler) Update(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.UpdateDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid day payload"))
		return
	}
	day, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil)
}

// Delete godoc
// @Summary Delete day
// @Description Removes the day's photo blobs, then its photo rows and the day
// @Tags Days
// @Param id path string true "Day ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /days/{id} [delete]
func (h *DayHandler) Delete(c *gin.Context) {
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
