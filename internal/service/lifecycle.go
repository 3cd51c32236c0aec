package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tankermike11/staycation-journal/internal/models"
	appErrors "github.com/tankermike11/staycation-journal/pkg/errors"
	"github.com/tankermike11/staycation-journal/pkg/media"
	"github.com/tankermike11/staycation-journal/pkg/storage"
)

type derivativeGenerator interface {
	Generate(raw []byte) ([]media.Derivative, error)
}

// Lifecycle keeps image blobs and image rows consistent: blobs are written before a row exists
// and removed before a row is deleted.
type Lifecycle struct {
	store     storage.ObjectStore
	generator derivativeGenerator
	metrics   *MetricsService
	logger    *zap.Logger
	newID     func() string
}

// NewLifecycle constructs the orchestrator.
func NewLifecycle(store storage.ObjectStore, generator derivativeGenerator, metrics *MetricsService, logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if generator == nil {
		generator = media.NewGenerator()
	}
	return &Lifecycle{
		store:     store,
		generator: generator,
		metrics:   metrics,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Ingest renders the variants of raw and stores all three under a fresh id. The returned image has its
// id and storage keys set but is not persisted. Any failed put aborts; variants already written stay behind.
func (l *Lifecycle) Ingest(ctx context.Context, raw []byte) (*models.Image, error) {
	start := time.Now()
	derivatives, err := l.generator.Generate(raw)
	l.metrics.ObserveDerivatives(len(raw), time.Since(start), err)
	if err != nil {
		if errors.Is(err, media.ErrUndecodable) {
			return nil, appErrors.Wrap(err, appErrors.ErrEncoding.Code, appErrors.ErrEncoding.Status, "unsupported or corrupt image")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrEncoding.Code, appErrors.ErrEncoding.Status, appErrors.ErrEncoding.Message)
	}

	id := l.newID()
	img := &models.Image{ID: id}
	for _, d := range derivatives {
		key := d.Variant.Key(id)
		err := l.store.Put(ctx, key, d.Data, media.ContentType)
		l.metrics.RecordStorageOp("put", err)
		if err != nil {
			l.logger.Warn("variant upload failed", zap.String("image_id", id), zap.String("key", key), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status,
				fmt.Sprintf("failed to store %s variant", d.Variant))
		}
		setKey(img, d.Variant, key)
	}
	if img.StorageKeyOriginal == "" || img.StorageKeyWeb == "" || img.StorageKeyThumb == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "derivative set incomplete")
	}
	return img, nil
}

// Purge deletes the three variants of img in original, web, thumb order. The first failure is returned
// and the caller must keep the row.
func (l *Lifecycle) Purge(ctx context.Context, img models.Image) error {
	for _, key := range img.StorageKeys() {
		err := l.store.Delete(ctx, key)
		l.metrics.RecordStorageOp("delete", err)
		if err != nil {
			l.logger.Warn("variant delete failed", zap.String("image_id", img.ID), zap.String("key", key), zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status,
				fmt.Sprintf("failed to delete image %s from storage", img.ID))
		}
	}
	return nil
}

// PurgeAll purges every image, stopping at the first failure.
func (l *Lifecycle) PurgeAll(ctx context.Context, images []models.Image) error {
	for _, img := range images {
		if err := l.Purge(ctx, img); err != nil {
			return err
		}
	}
	return nil
}

// Open streams one variant of img.
func (l *Lifecycle) Open(ctx context.Context, img models.Image, variant media.Variant) (*storage.Object, error) {
	obj, err := l.store.Get(ctx, keyFor(img, variant))
	if errors.Is(err, storage.ErrObjectNotFound) {
		l.metrics.RecordStorageOp("get", nil)
		return nil, appErrors.Clone(appErrors.ErrNotFound, "image not found")
	}
	l.metrics.RecordStorageOp("get", err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read image from storage")
	}
	return obj, nil
}

// ReportOrphans logs variants that were stored for an image whose row could not be written.
// They are not cleaned up.
func (l *Lifecycle) ReportOrphans(img *models.Image, cause error) {
	if img == nil {
		return
	}
	l.logger.Error("image row insert failed after variants were stored",
		zap.String("image_id", img.ID),
		zap.Strings("orphaned_keys", img.StorageKeys()),
		zap.Error(cause),
	)
}

func setKey(img *models.Image, variant media.Variant, key string) {
	switch variant {
	case media.VariantOriginal:
		img.StorageKeyOriginal = key
	case media.VariantWeb:
		img.StorageKeyWeb = key
	case media.VariantThumb:
		img.StorageKeyThumb = key
	}
}

func keyFor(img models.Image, variant media.Variant) string {
	switch variant {
	case media.VariantOriginal:
		return img.StorageKeyOriginal
	case media.VariantThumb:
		return img.StorageKeyThumb
	default:
		return img.StorageKeyWeb
	}
}
