package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tankermike11/staycation-journal/internal/dto"
	"github.com/tankermike11/staycation-journal/internal/middleware"
	"github.com/tankermike11/staycation-journal/internal/models"
	"github.com/tankermike11/staycation-journal/internal/service"
	appErrors "github.com/tankermike11/staycation-journal/pkg/errors"
	"github.com/tankermike11/staycation-journal/pkg/response"
)

type eventService interface {
	List(ctx context.Context) ([]dto.EventSummary, error)
	Get(ctx context.Context, id string) (*dto.EventDetail, error)
	Create(ctx context.Context, req dto.CreateEventRequest, hero service.UploadFile) (*models.Event, error)
	Update(ctx context.Context, id string, req dto.UpdateEventRequest) (*models.Event, error)
	Delete(ctx context.Context, id string) error
}

type journalExporter interface {
	EventPDF(ctx context.Context, id string) ([]byte, string, error)
}

// EventHandler exposes event endpoints.
type EventHandler struct {
	service  eventService
	exporter journalExporter
}

// NewEventHandler constructs the handler. exporter may be nil when export is disabled.
func NewEventHandler(svc eventService, exporter journalExporter) *EventHandler {
	return &EventHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List events
// @Description Events ordered by start date, newest first, each with a signed hero thumbnail URL
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	events, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(events))
	response.JSON(c, http.StatusOK, events, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get event
// @Description Event with its hero image and ordered days
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Create event
// @Description Multipart form with title, startDate, endDate, optional summary and comma separated tags, and a required hero file. One day is created per date in the range.
// @Tags Events
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param startDate formData string true "First day (YYYY-MM-DD)"
// @Param endDate formData string true "Last day (YYYY-MM-DD)"
// @Param summary formData string false "Summary"
// @Param tags formData string false "Comma separated tags"
// @Param hero formData file true "Hero image"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	form, err := multipartForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateEventRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event form"))
		return
	}
	heroes := form.File["hero"]
	if len(heroes) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "hero image is required"))
		return
	}
	hero, err := uploadFile(heroes[0])
	if err != nil {
		response.Error(c, err)
		return
	}

	event, err := h.service.Create(c.Request.Context(), req, hero)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"id": event.ID, "event": event})
}

// Update godoc
// @Summary Update event
// @Description Changing the date range regenerates days and is refused with 409 while any day holds photos
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.UpdateEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete event
// @Description Removes every photo blob of the event and its hero, then the rows. A storage failure aborts with nothing deleted from the database.
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
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

// Export godoc
// @Summary Export event journal
// @Description Renders the event, its days and thumbnails as a PDF
// @Tags Events
// @Produce application/pdf
// @Param id path string true "Event ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id}/export [get]
func (h *EventHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export is disabled"))
		return
	}
	doc, filename, err := h.exporter.EventPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", doc)
}
