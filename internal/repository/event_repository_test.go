package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tankermike11/staycation-journal/internal/models"
)

func TestEventRepositoryCreateWithHero(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	caption := models.HeroCaption
	hero := &models.Image{
		ID:                 "hero-1",
		Caption:            &caption,
		StorageKeyOriginal: "original/hero-1.jpg",
		StorageKeyWeb:      "web/hero-1.jpg",
		StorageKeyThumb:    "thumb/hero-1.jpg",
	}
	event := &models.Event{
		ID:        "event-1",
		Title:     "Lake weekend",
		StartDate: models.NewDate(2024, time.March, 1),
		EndDate:   models.NewDate(2024, time.March, 2),
		Tags:      pq.StringArray{"lake", "family"},
	}
	days := []models.Day{
		{ID: "day-1", EventID: "event-1", Date: models.NewDate(2024, time.March, 1), SortIndex: 1},
		{ID: "day-2", EventID: "event-1", Date: models.NewDate(2024, time.March, 2), SortIndex: 2},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO images")).
		WithArgs("hero-1", nil, models.HeroCaption, 0, "original/hero-1.jpg", "web/hero-1.jpg", "thumb/hero-1.jpg", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).
		WithArgs("event-1", "Lake weekend", "2024-03-01", "2024-03-02", nil, sqlmock.AnyArg(), "hero-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO days")).
		WithArgs("day-1", "event-1", "2024-03-01", nil, nil, nil, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO days")).
		WithArgs("day-2", "event-1", "2024-03-02", nil, nil, nil, 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateWithHero(context.Background(), event, hero, days))
	require.NotNil(t, event.HeroImageID)
	assert.Equal(t, "hero-1", *event.HeroImageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCreateRollsBackOnDayFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	event := &models.Event{ID: "event-1", Title: "Trip", StartDate: models.NewDate(2024, 1, 1), EndDate: models.NewDate(2024, 1, 1)}
	days := []models.Day{{ID: "day-1", EventID: "event-1", Date: models.NewDate(2024, 1, 1), SortIndex: 1}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO days")).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	require.Error(t, repo.CreateWithHero(context.Background(), event, nil, days))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateRegeneratesDays(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	event := &models.Event{ID: "event-1", Title: "Trip", StartDate: models.NewDate(2024, 1, 31), EndDate: models.NewDate(2024, 2, 1)}
	days := []models.Day{
		{ID: "day-a", EventID: "event-1", Date: models.NewDate(2024, 1, 31), SortIndex: 1},
		{ID: "day-b", EventID: "event-1", Date: models.NewDate(2024, 2, 1), SortIndex: 2},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET title")).
		WithArgs("Trip", "2024-01-31", "2024-02-01", nil, sqlmock.AnyArg(), "event-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM days WHERE event_id = $1 FOR UPDATE")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("old-1").AddRow("old-2").AddRow("old-3"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM images i JOIN days d ON d.id = i.day_id WHERE d.event_id = $1")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM days WHERE event_id = $1")).
		WithArgs("event-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO days")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO days")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), event, days))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateRefusesRegenerationWithPhotos(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	event := &models.Event{ID: "event-1", Title: "Trip", StartDate: models.NewDate(2024, 1, 31), EndDate: models.NewDate(2024, 2, 2)}
	days := []models.Day{{ID: "day-a", EventID: "event-1", Date: models.NewDate(2024, 1, 31), SortIndex: 1}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET title")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM days WHERE event_id = $1 FOR UPDATE")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("old-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM images")).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), event, days)
	require.ErrorIs(t, err, models.ErrEventHasPhotos)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateKeepsDaysWhenNil(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	event := &models.Event{ID: "event-1", Title: "Renamed", StartDate: models.NewDate(2024, 1, 1), EndDate: models.NewDate(2024, 1, 2)}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET title")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), event, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryDeleteCascade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM images WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM days WHERE event_id = $1")).
		WithArgs("event-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).
		WithArgs("event-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteCascade(context.Background(), "event-1", []string{"img-1", "img-2", "hero-1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryDeleteCascadeMissingEvent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM days WHERE event_id = $1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), "missing", nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryGetByIDScansTags(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "start_date", "end_date", "summary", "tags", "hero_image_id", "created_at"}).
		AddRow("event-1", "Lake", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), nil, "{lake,family}", "hero-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = $1")).
		WithArgs("event-1").
		WillReturnRows(rows)

	event, err := repo.GetByID(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"lake", "family"}, event.Tags)
	assert.Equal(t, "2024-03-03", event.EndDate.String())
	assert.Equal(t, "hero-1", *event.HeroImageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDayRepositoryDeleteCascade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDayRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM images WHERE day_id = $1")).
		WithArgs("day-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM days WHERE id = $1")).
		WithArgs("day-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteCascade(context.Background(), "day-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDayRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDayRepository(db)

	title := "Beach"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE days SET title")).
		WithArgs("Beach", nil, nil, "day-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), &models.Day{ID: "day-1", Title: &title}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDayRepositoryListByEvent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDayRepository(db)

	rows := sqlmock.NewRows([]string{"id", "event_id", "date", "title", "locations_text", "notes", "sort_index"}).
		AddRow("day-1", "event-1", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), nil, nil, nil, 1).
		AddRow("day-2", "event-1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "Ski", "Alps", nil, 2)
	mock.ExpectQuery(regexp.QuoteMeta("FROM days WHERE event_id = $1 ORDER BY sort_index ASC")).
		WithArgs("event-1").
		WillReturnRows(rows)

	days, err := repo.ListByEvent(context.Background(), "event-1")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-02-01", days[1].Date.String())
	assert.Equal(t, "Alps", *days[1].LocationsText)
	assert.NoError(t, mock.ExpectationsWereMet())
}
