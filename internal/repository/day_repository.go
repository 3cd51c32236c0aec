package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tankermike11/staycation-journal/internal/models"
)

const dayColumns = `id, event_id, date, title, locations_text, notes, sort_index`

// DayRepository persists days.
type DayRepository struct {
	db *sqlx.DB
}

// NewDayRepository constructs the repository.
func NewDayRepository(db *sqlx.DB) *DayRepository {
	return &DayRepository{db: db}
}

// GetByID returns one day or sql.ErrNoRows.
func (r *DayRepository) GetByID(ctx context.Context, id string) (*models.Day, error) {
	query := `SELECT ` + dayColumns + ` FROM days WHERE id = $1`
	var day models.Day
	if err := r.db.GetContext(ctx, &day, query, id); err != nil {
		return nil, err
	}
	return &day, nil
}

// ListByEvent returns an event's days in order.
func (r *DayRepository) ListByEvent(ctx context.Context, eventID string) ([]models.Day, error) {
	query := `SELECT ` + dayColumns + ` FROM days WHERE event_id = $1 ORDER BY sort_index ASC, date ASC`
	var days []models.Day
	if err := r.db.SelectContext(ctx, &days, query, eventID); err != nil {
		return nil, fmt.Errorf("list days by event: %w", err)
	}
	return days, nil
}

// Update writes the editable text fields of a day.
func (r *DayRepository) Update(ctx context.Context, day *models.Day) error {
	const query = `UPDATE days SET title = :title, locations_text = :locations_text, notes = :notes WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, day)
	if err != nil {
		return fmt.Errorf("update day: %w", err)
	}
	return expectAffected(res, "update day")
}

// DeleteCascade removes a day's image rows and then the day, in one transaction.
func (r *DayRepository) DeleteCascade(ctx context.Context, dayID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin day delete transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM images WHERE day_id = $1`, dayID); err != nil {
		return fmt.Errorf("delete day images: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM days WHERE id = $1`, dayID)
	if err != nil {
		return fmt.Errorf("delete day: %w", err)
	}
	if err = expectAffected(res, "delete day"); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit day delete transaction: %w", err)
	}
	return nil
}

func insertDays(ctx context.Context, exec sqlx.ExtContext, days []models.Day) error {
	const query = `INSERT INTO days (id, event_id, date, title, locations_text, notes, sort_index)
	VALUES (:id, :event_id, :date, :title, :locations_text, :notes, :sort_index)`
	for i := range days {
		if _, err := sqlx.NamedExecContext(ctx, exec, query, &days[i]); err != nil {
			return fmt.Errorf("insert day %s: %w", days[i].Date, err)
		}
	}
	return nil
}
