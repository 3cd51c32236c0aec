package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tankermike11/staycation-journal/internal/models"
)

const eventColumns = `id, title, start_date, end_date, summary, tags, hero_image_id, created_at`

const countEventImagesQuery = `SELECT COUNT(*) FROM images i JOIN days d ON d.id = i.day_id WHERE d.event_id = $1`

// EventRepository persists events together with their days and hero image.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns all events, most recent trip first.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY start_date DESC, created_at DESC`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// GetByID returns one event or sql.ErrNoRows.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateWithHero inserts the hero image row, the event and its days in one transaction.
func (r *EventRepository) CreateWithHero(ctx context.Context, event *models.Event, hero *models.Image, days []models.Day) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event create transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if hero != nil {
		if err = insertImage(ctx, tx, hero); err != nil {
			return err
		}
		event.HeroImageID = &hero.ID
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO events (id, title, start_date, end_date, summary, tags, hero_image_id, created_at)
	VALUES (:id, :title, :start_date, :end_date, :summary, :tags, :hero_image_id, :created_at)`
	if _, err = tx.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if err = insertDays(ctx, tx, days); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit event create transaction: %w", err)
	}
	return nil
}

// Update writes the event fields. When days is non-nil the event's days are replaced by it,
// unless one of them holds photos, in which case models.ErrEventHasPhotos is returned and nothing changes.
func (r *EventRepository) Update(ctx context.Context, event *models.Event, days []models.Day) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event update transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE events SET title = :title, start_date = :start_date, end_date = :end_date, summary = :summary, tags = :tags WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if err = expectAffected(res, "update event"); err != nil {
		return err
	}
	if days != nil {
		// Row locks on the days block concurrent image inserts until the regeneration commits.
		var locked []string
		if err = tx.SelectContext(ctx, &locked, `SELECT id FROM days WHERE event_id = $1 FOR UPDATE`, event.ID); err != nil {
			return fmt.Errorf("lock event days: %w", err)
		}
		var photos int
		if err = tx.GetContext(ctx, &photos, countEventImagesQuery, event.ID); err != nil {
			return fmt.Errorf("count event photos: %w", err)
		}
		if photos > 0 {
			return models.ErrEventHasPhotos
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM days WHERE event_id = $1`, event.ID); err != nil {
			return fmt.Errorf("delete event days: %w", err)
		}
		if err = insertDays(ctx, tx, days); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit event update transaction: %w", err)
	}
	return nil
}

// DeleteCascade removes the listed image rows, the event's days and the event in one transaction.
func (r *EventRepository) DeleteCascade(ctx context.Context, eventID string, imageIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event delete transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if len(imageIDs) > 0 {
		if _, err = tx.ExecContext(ctx, `DELETE FROM images WHERE id = ANY($1)`, pq.Array(imageIDs)); err != nil {
			return fmt.Errorf("delete event images: %w", err)
		}
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM days WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("delete event days: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if err = expectAffected(res, "delete event"); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit event delete transaction: %w", err)
	}
	return nil
}
