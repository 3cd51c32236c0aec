package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/tankermike11/staycation-journal/internal/dto"
	"github.com/tankermike11/staycation-journal/internal/models"
	appErrors "github.com/tankermike11/staycation-journal/pkg/errors"
	"github.com/tankermike11/staycation-journal/pkg/storage"
)

type dayStore interface {
	GetByID(ctx context.Context, id string) (*models.Day, error)
	Update(ctx context.Context, day *models.Day) error
	DeleteCascade(ctx context.Context, dayID string) error
}

type dayEventReader interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

type dayImageLister interface {
	ListByDay(ctx context.Context, dayID string) ([]models.Image, error)
}

// DayServiceConfig holds day service settings.
type DayServiceConfig struct {
	APIPrefix string
}

// DayService reads and edits single days.
type DayService struct {
	days      dayStore
	events    dayEventReader
	images    dayImageLister
	lifecycle mediaLifecycle
	linker    imageLinker
	cache     viewCache
	logger    *zap.Logger
}

// NewDayService constructs the service.
func NewDayService(days dayStore, events dayEventReader, images dayImageLister, lifecycle mediaLifecycle, signer *storage.SignedURLSigner, cache viewCache, logger *zap.Logger, cfg DayServiceConfig) *DayService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = noopViewCache{}
	}
	var linkSigner imageURLSigner
	if signer != nil {
		linkSigner = signer
	}
	return &DayService{
		days:      days,
		events:    events,
		images:    images,
		lifecycle: lifecycle,
		linker:    newImageLinker(linkSigner, cfg.APIPrefix),
		cache:     cache,
		logger:    logger,
	}
}

// Get returns a day with its parent event title and photos in display order.
func (s *DayService) Get(ctx context.Context, id string) (*dto.DayDetail, error) {
	var cached dto.DayDetail
	if hit, _ := s.cache.Get(ctx, dayCacheKey(id), &cached); hit {
		return &cached, nil
	}

	day, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, day.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	images, err := s.images.ListByDay(ctx, day.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list day photos")
	}

	detail := &dto.DayDetail{Day: *day, EventTitle: event.Title, Images: s.linker.views(images)}
	_ = s.cache.Set(ctx, dayCacheKey(id), detail, 0)
	return detail, nil
}

// Update replaces the fields present in req. Blank text clears a field.
func (s *DayService) Update(ctx context.Context, id string, req dto.UpdateDayRequest) (*models.Day, error) {
	day, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		day.Title = optionalText(*req.Title)
	}
	if req.LocationsText != nil {
		day.LocationsText = optionalText(*req.LocationsText)
	}
	if req.Notes != nil {
		day.Notes = optionalText(*req.Notes)
	}
	if err := s.days.Update(ctx, day); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "day not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update day")
	}
	s.cache.InvalidateJournal(ctx)
	return day, nil
}

// Delete removes a day's photos from storage, then the photo rows and the day together.
func (s *DayService) Delete(ctx context.Context, id string) error {
	day, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	images, err := s.images.ListByDay(ctx, day.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list day photos")
	}
	if err := s.lifecycle.PurgeAll(ctx, images); err != nil {
		return err
	}
	if err := s.days.DeleteCascade(ctx, day.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "day not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete day")
	}
	s.cache.InvalidateJournal(ctx)
	s.logger.Info("day deleted", zap.String("day_id", day.ID), zap.Int("images", len(images)))
	return nil
}

func (s *DayService) load(ctx context.Context, id string) (*models.Day, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day id is required")
	}
	day, err := s.days.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "day not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day")
	}
	return day, nil
}
