package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tankermike11/staycation-journal/internal/models"
)

const imageColumns = `id, day_id, caption, sort_index, storage_key_original, storage_key_web, storage_key_thumb, created_at`

// ImageRepository persists image records.
type ImageRepository struct {
	db *sqlx.DB
}

// NewImageRepository constructs the repository.
func NewImageRepository(db *sqlx.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create inserts an image row. The id and storage keys are assigned by the caller.
func (r *ImageRepository) Create(ctx context.Context, img *models.Image) error {
	return insertImage(ctx, r.db, img)
}

// GetByID returns one image or sql.ErrNoRows.
func (r *ImageRepository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1`
	var img models.Image
	if err := r.db.GetContext(ctx, &img, query, id); err != nil {
		return nil, err
	}
	return &img, nil
}

// MaxSortIndex returns the highest sort_index among a day's images, or 0 when it has none.
func (r *ImageRepository) MaxSortIndex(ctx context.Context, dayID string) (int, error) {
	const query = `SELECT COALESCE(MAX(sort_index), 0) FROM images WHERE day_id = $1`
	var max int
	if err := r.db.GetContext(ctx, &max, query, dayID); err != nil {
		return 0, fmt.Errorf("max image sort index: %w", err)
	}
	return max, nil
}

// ListByDay returns a day's images ordered for display.
func (r *ImageRepository) ListByDay(ctx context.Context, dayID string) ([]models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE day_id = $1 ORDER BY sort_index ASC, created_at ASC`
	var images []models.Image
	if err := r.db.SelectContext(ctx, &images, query, dayID); err != nil {
		return nil, fmt.Errorf("list images by day: %w", err)
	}
	return images, nil
}

// ListByEvent returns every day image under an event. Hero images are not included.
func (r *ImageRepository) ListByEvent(ctx context.Context, eventID string) ([]models.Image, error) {
	const query = `SELECT i.id, i.day_id, i.caption, i.sort_index, i.storage_key_original, i.storage_key_web, i.storage_key_thumb, i.created_at
	FROM images i JOIN days d ON d.id = i.day_id
	WHERE d.event_id = $1
	ORDER BY d.sort_index ASC, i.sort_index ASC`
	var images []models.Image
	if err := r.db.SelectContext(ctx, &images, query, eventID); err != nil {
		return nil, fmt.Errorf("list images by event: %w", err)
	}
	return images, nil
}

// UpdateCaption sets or clears an image caption.
func (r *ImageRepository) UpdateCaption(ctx context.Context, id string, caption *string) error {
	const query = `UPDATE images SET caption = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, caption)
	if err != nil {
		return fmt.Errorf("update image caption: %w", err)
	}
	return expectAffected(res, "update image caption")
}

// SwapSortIndex exchanges the sort_index of two images in one transaction.
func (r *ImageRepository) SwapSortIndex(ctx context.Context, a, b models.Image) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE images SET sort_index = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, query, a.ID, b.SortIndex); err != nil {
		return fmt.Errorf("update sort index for %s: %w", a.ID, err)
	}
	if _, err = tx.ExecContext(ctx, query, b.ID, a.SortIndex); err != nil {
		return fmt.Errorf("update sort index for %s: %w", b.ID, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit swap transaction: %w", err)
	}
	return nil
}

// Delete removes one image row.
func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return expectAffected(res, "delete image")
}

func insertImage(ctx context.Context, exec sqlx.ExtContext, img *models.Image) error {
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO images (id, day_id, caption, sort_index, storage_key_original, storage_key_web, storage_key_thumb, created_at)
	VALUES (:id, :day_id, :caption, :sort_index, :storage_key_original, :storage_key_web, :storage_key_thumb, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, img); err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
