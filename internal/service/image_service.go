package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tankermike11/staycation-journal/internal/dto"
	"github.com/tankermike11/staycation-journal/internal/models"
	appErrors "github.com/tankermike11/staycation-journal/pkg/errors"
	"github.com/tankermike11/staycation-journal/pkg/media"
	"github.com/tankermike11/staycation-journal/pkg/storage"
)

type imageStore interface {
	Create(ctx context.Context, img *models.Image) error
	GetByID(ctx context.Context, id string) (*models.Image, error)
	MaxSortIndex(ctx context.Context, dayID string) (int, error)
	ListByDay(ctx context.Context, dayID string) ([]models.Image, error)
	UpdateCaption(ctx context.Context, id string, caption *string) error
	SwapSortIndex(ctx context.Context, a, b models.Image) error
	Delete(ctx context.Context, id string) error
}

type dayReader interface {
	GetByID(ctx context.Context, id string) (*models.Day, error)
}

type mediaLifecycle interface {
	Ingest(ctx context.Context, raw []byte) (*models.Image, error)
	Purge(ctx context.Context, img models.Image) error
	PurgeAll(ctx context.Context, images []models.Image) error
	Open(ctx context.Context, img models.Image, variant media.Variant) (*storage.Object, error)
	ReportOrphans(img *models.Image, cause error)
}

type imageTokenVerifier interface {
	Verify(token, imageID, size string) error
}

// UploadFile is one file part of an upload request, opened lazily so a batch holds one photo in memory at a time.
type UploadFile struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

func (f UploadFile) read() ([]byte, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("no content")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ImageServiceConfig holds image service settings.
type ImageServiceConfig struct {
	APIPrefix string
}

// ImageService handles day photo uploads, ordering, captions, deletion and serving.
type ImageService struct {
	images    imageStore
	days      dayReader
	lifecycle mediaLifecycle
	verifier  imageTokenVerifier
	linker    imageLinker
	cache     viewCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewImageService constructs the service. signer may be nil when signed URLs are disabled.
func NewImageService(images imageStore, days dayReader, lifecycle mediaLifecycle, signer *storage.SignedURLSigner, cache viewCache, validate *validator.Validate, logger *zap.Logger, cfg ImageServiceConfig) *ImageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cache == nil {
		cache = noopViewCache{}
	}
	svc := &ImageService{
		images:    images,
		days:      days,
		lifecycle: lifecycle,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
	if signer != nil {
		svc.verifier = signer
		svc.linker = newImageLinker(signer, cfg.APIPrefix)
	} else {
		svc.linker = newImageLinker(nil, cfg.APIPrefix)
	}
	return svc
}

// Upload ingests files into a day one at a time, appending each after the day's current last photo.
// A failing file is reported and skipped; when every file fails the first error is returned.
func (s *ImageService) Upload(ctx context.Context, dayID string, files []UploadFile) (*dto.UploadResponse, error) {
	dayID = strings.TrimSpace(dayID)
	if dayID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dayId is required")
	}
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one file is required")
	}
	if _, err := s.days.GetByID(ctx, dayID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "day not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day")
	}

	last, err := s.images.MaxSortIndex(ctx, dayID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read photo order")
	}

	resp := &dto.UploadResponse{}
	var firstErr error
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		img, err := s.ingest(ctx, dayID, last+1, file)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			appErr := appErrors.FromError(err)
			resp.Failed = append(resp.Failed, dto.UploadFailure{Filename: file.Filename, Code: appErr.Code, Message: appErr.Message})
			s.logger.Warn("photo upload failed", zap.String("day_id", dayID), zap.String("filename", file.Filename), zap.Error(err))
			continue
		}
		last = img.SortIndex
		resp.Count++
	}

	if resp.Count > 0 {
		s.cache.InvalidateJournal(ctx)
	}
	if resp.Count == 0 {
		if firstErr == nil {
			firstErr = ctx.Err()
		}
		return nil, firstErr
	}
	return resp, nil
}

func (s *ImageService) ingest(ctx context.Context, dayID string, sortIndex int, file UploadFile) (*models.Image, error) {
	raw, err := file.read()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("failed to read %s", file.Filename))
	}
	if len(raw) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is empty", file.Filename))
	}

	img, err := s.lifecycle.Ingest(ctx, raw)
	if err != nil {
		return nil, err
	}
	img.DayID = &dayID
	img.SortIndex = sortIndex
	if err := s.images.Create(ctx, img); err != nil {
		s.lifecycle.ReportOrphans(img, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save image record")
	}
	return img, nil
}

// Delete removes the stored variants and then the row. A storage failure keeps the row so the call can be retried.
func (s *ImageService) Delete(ctx context.Context, id string) error {
	img, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.lifecycle.Purge(ctx, *img); err != nil {
		return err
	}
	if err := s.images.Delete(ctx, img.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "image not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete image record")
	}
	s.cache.InvalidateJournal(ctx)
	return nil
}

// Reorder swaps an image with its neighbour in the given direction. Moving past either end and moving
// a hero image are no-ops.
func (s *ImageService) Reorder(ctx context.Context, req dto.ReorderRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "imageId and direction (up|down) are required")
	}
	target, err := s.get(ctx, req.ImageID)
	if err != nil {
		return err
	}
	if target.IsHero() {
		return nil
	}

	siblings, err := s.images.ListByDay(ctx, *target.DayID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day photos")
	}
	pos := -1
	for i := range siblings {
		if siblings[i].ID == target.ID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "image not found")
	}
	partner := swapPartner(pos, len(siblings), req.Direction)
	if partner < 0 {
		return nil
	}
	if err := s.images.SwapSortIndex(ctx, siblings[pos], siblings[partner]); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reorder image")
	}
	s.cache.InvalidateJournal(ctx)
	return nil
}

// swapPartner returns the neighbour index for pos among n siblings, or -1 at the boundary.
func swapPartner(pos, n int, direction dto.Direction) int {
	partner := pos + 1
	if direction == dto.DirectionUp {
		partner = pos - 1
	}
	if partner < 0 || partner >= n {
		return -1
	}
	return partner
}

// UpdateCaption sets a trimmed caption; blank clears it.
func (s *ImageService) UpdateCaption(ctx context.Context, id string, req dto.UpdateCaptionRequest) (*dto.ImageView, error) {
	if err := s.images.UpdateCaption(ctx, id, optionalText(req.Caption)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "image not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update caption")
	}
	s.cache.InvalidateJournal(ctx)
	img, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.linker.view(*img)
	return &view, nil
}

// Open returns a stream of the requested size (thumb, web or orig; blank means web).
func (s *ImageService) Open(ctx context.Context, id, size string) (*storage.Object, error) {
	variant, err := media.ParseSize(size)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	img, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.lifecycle.Open(ctx, *img, variant)
}

// AuthorizeToken checks a signed image token for id and size.
func (s *ImageService) AuthorizeToken(token, id, size string) error {
	if s.verifier == nil {
		return appErrors.ErrUnauthorized
	}
	variant, err := media.ParseSize(size)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.verifier.Verify(token, id, variant.Size()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired image token")
	}
	return nil
}

func (s *ImageService) get(ctx context.Context, id string) (*models.Image, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "image id is required")
	}
	img, err := s.images.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "image not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load image")
	}
	return img, nil
}
