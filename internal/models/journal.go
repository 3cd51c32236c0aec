package models

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// HeroCaption is stored on every event cover image.
const HeroCaption = "Event hero"

// ErrEventHasPhotos is returned when days cannot be regenerated because one of them holds photos.
var ErrEventHasPhotos = errors.New("event days hold photos")

// Event is a trip spanning an inclusive date range.
type Event struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	StartDate   Date           `db:"start_date" json:"startDate"`
	EndDate     Date           `db:"end_date" json:"endDate"`
	Summary     *string        `db:"summary" json:"summary,omitempty"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	HeroImageID *string        `db:"hero_image_id" json:"heroImageId,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// Day is one calendar date within an event.
type Day struct {
	ID            string  `db:"id" json:"id"`
	EventID       string  `db:"event_id" json:"eventId"`
	Date          Date    `db:"date" json:"date"`
	Title         *string `db:"title" json:"title,omitempty"`
	LocationsText *string `db:"locations_text" json:"locationsText,omitempty"`
	Notes         *string `db:"notes" json:"notes,omitempty"`
	SortIndex     int     `db:"sort_index" json:"sortIndex"`
}

// Image is one uploaded photo. A nil DayID marks an event hero image.
type Image struct {
	ID                 string    `db:"id" json:"id"`
	DayID              *string   `db:"day_id" json:"dayId,omitempty"`
	Caption            *string   `db:"caption" json:"caption,omitempty"`
	SortIndex          int       `db:"sort_index" json:"sortIndex"`
	StorageKeyOriginal string    `db:"storage_key_original" json:"-"`
	StorageKeyWeb      string    `db:"storage_key_web" json:"-"`
	StorageKeyThumb    string    `db:"storage_key_thumb" json:"-"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}

// IsHero reports whether the image is an event cover rather than a day photo.
func (i Image) IsHero() bool {
	return i.DayID == nil
}

// StorageKeys lists the object keys in original, web, thumb order.
func (i Image) StorageKeys() []string {
	return []string{i.StorageKeyOriginal, i.StorageKeyWeb, i.StorageKeyThumb}
}
