package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tankermike11/staycation-journal/internal/dto"
	"github.com/tankermike11/staycation-journal/internal/models"
	appErrors "github.com/tankermike11/staycation-journal/pkg/errors"
	"github.com/tankermike11/staycation-journal/pkg/media"
	"github.com/tankermike11/staycation-journal/pkg/storage"
)

type eventStore interface {
	List(ctx context.Context) ([]models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	CreateWithHero(ctx context.Context, event *models.Event, hero *models.Image, days []models.Day) error
	Update(ctx context.Context, event *models.Event, days []models.Day) error
	DeleteCascade(ctx context.Context, eventID string, imageIDs []string) error
}

type eventDayLister interface {
	ListByEvent(ctx context.Context, eventID string) ([]models.Day, error)
}

type eventImageReader interface {
	GetByID(ctx context.Context, id string) (*models.Image, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.Image, error)
}

// EventServiceConfig holds event service settings.
type EventServiceConfig struct {
	APIPrefix string
}

// EventService manages events: creation with a hero photo, edits guarded against losing day data, and cascading deletes.
type EventService struct {
	events    eventStore
	days      eventDayLister
	images    eventImageReader
	lifecycle mediaLifecycle
	linker    imageLinker
	cache     viewCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(events eventStore, days eventDayLister, images eventImageReader, lifecycle mediaLifecycle, signer *storage.SignedURLSigner, cache viewCache, validate *validator.Validate, logger *zap.Logger, cfg EventServiceConfig) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cache == nil {
		cache = noopViewCache{}
	}
	var linkSigner imageURLSigner
	if signer != nil {
		linkSigner = signer
	}
	return &EventService{
		events:    events,
		days:      days,
		images:    images,
		lifecycle: lifecycle,
		linker:    newImageLinker(linkSigner, cfg.APIPrefix),
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Create stores the hero photo, then inserts the hero row, the event and one day per date in a single transaction.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest, hero UploadFile) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title, startDate and endDate are required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	start, end, dates, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	raw, err := hero.read()
	if err != nil || len(raw) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hero image is required")
	}

	heroImg, err := s.lifecycle.Ingest(ctx, raw)
	if err != nil {
		return nil, err
	}
	caption := models.HeroCaption
	heroImg.Caption = &caption
	heroImg.SortIndex = 0

	event := &models.Event{
		ID:        uuid.NewString(),
		Title:     title,
		StartDate: start,
		EndDate:   end,
		Summary:   optionalText(req.Summary),
		Tags:      parseTags(req.Tags),
	}
	if err := s.events.CreateWithHero(ctx, event, heroImg, buildDays(event.ID, dates)); err != nil {
		s.lifecycle.ReportOrphans(heroImg, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.cache.InvalidateJournal(ctx)
	s.logger.Info("event created", zap.String("event_id", event.ID), zap.Int("days", len(dates)))
	return event, nil
}

// Update edits an event. Changing the date range regenerates its days and is refused while any day holds photos.
func (s *EventService) Update(ctx context.Context, id string, req dto.UpdateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title, startDate and endDate are required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	start, end, dates, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var days []models.Day
	if !start.Equal(event.StartDate) || !end.Equal(event.EndDate) {
		days = buildDays(event.ID, dates)
	}

	event.Title = title
	event.StartDate = start
	event.EndDate = end
	if req.Summary != nil {
		event.Summary = optionalText(*req.Summary)
	}
	if req.Tags != nil {
		event.Tags = parseTags(*req.Tags)
	}
	if err := s.events.Update(ctx, event, days); err != nil {
		if errors.Is(err, models.ErrEventHasPhotos) {
			return nil, appErrors.ErrDateRangeLocked
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.cache.InvalidateJournal(ctx)
	return event, nil
}

// Delete removes the variants of every day photo and of the hero, then deletes image, day and event rows together.
// A storage failure aborts before any row is touched and names the image.
func (s *EventService) Delete(ctx context.Context, id string) error {
	event, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	images, err := s.images.ListByEvent(ctx, event.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list event photos")
	}
	if event.HeroImageID != nil {
		hero, err := s.images.GetByID(ctx, *event.HeroImageID)
		switch {
		case err == nil:
			images = append(images, *hero)
		case errors.Is(err, sql.ErrNoRows):
			s.logger.Warn("event hero row missing", zap.String("event_id", event.ID), zap.String("hero_image_id", *event.HeroImageID))
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hero image")
		}
	}

	if err := s.lifecycle.PurgeAll(ctx, images); err != nil {
		return err
	}

	ids := make([]string, 0, len(images))
	for _, img := range images {
		ids = append(ids, img.ID)
	}
	if err := s.events.DeleteCascade(ctx, event.ID, ids); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.cache.InvalidateJournal(ctx)
	s.logger.Info("event deleted", zap.String("event_id", event.ID), zap.Int("images", len(ids)))
	return nil
}

// Get returns an event with its hero and ordered days.
func (s *EventService) Get(ctx context.Context, id string) (*dto.EventDetail, error) {
	var cached dto.EventDetail
	if hit, _ := s.cache.Get(ctx, eventCacheKey(id), &cached); hit {
		return &cached, nil
	}

	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	days, err := s.days.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list days")
	}
	detail := &dto.EventDetail{Event: *event, Days: days}
	if detail.Days == nil {
		detail.Days = []models.Day{}
	}
	if event.HeroImageID != nil {
		hero, err := s.images.GetByID(ctx, *event.HeroImageID)
		if err == nil {
			view := s.linker.view(*hero)
			detail.Hero = &view
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hero image")
		}
	}
	_ = s.cache.Set(ctx, eventCacheKey(id), detail, 0)
	return detail, nil
}

// List returns every event, newest trip first, each with a signed hero thumbnail URL.
func (s *EventService) List(ctx context.Context) ([]dto.EventSummary, error) {
	var cached []dto.EventSummary
	if hit, _ := s.cache.Get(ctx, cacheEventsList, &cached); hit {
		return cached, nil
	}

	events, err := s.events.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	out := make([]dto.EventSummary, 0, len(events))
	for _, event := range events {
		summary := dto.EventSummary{Event: event}
		if event.HeroImageID != nil {
			summary.HeroThumbURL, _ = s.linker.link(*event.HeroImageID, media.VariantThumb)
		}
		out = append(out, summary)
	}
	_ = s.cache.Set(ctx, cacheEventsList, out, 0)
	return out, nil
}

func (s *EventService) load(ctx context.Context, id string) (*models.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event id is required")
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

func parseRange(rawStart, rawEnd string) (models.Date, models.Date, []models.Date, error) {
	start, err := models.ParseDate(strings.TrimSpace(rawStart))
	if err != nil {
		return models.Date{}, models.Date{}, nil, appErrors.Clone(appErrors.ErrValidation, "startDate: "+err.Error())
	}
	end, err := models.ParseDate(strings.TrimSpace(rawEnd))
	if err != nil {
		return models.Date{}, models.Date{}, nil, appErrors.Clone(appErrors.ErrValidation, "endDate: "+err.Error())
	}
	dates, err := ExpandDateRange(start, end)
	if err != nil {
		return models.Date{}, models.Date{}, nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return start, end, dates, nil
}
