package dto

import (
	"time"

	"github.com/tankermike11/staycation-journal/internal/models"
)

// Direction moves an image within its day.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// CreateEventRequest is bound from the multipart event form. The hero file travels separately.
type CreateEventRequest struct {
	Title     string `form:"title" validate:"required"`
	StartDate string `form:"startDate" validate:"required"`
	EndDate   string `form:"endDate" validate:"required"`
	Summary   string `form:"summary"`
	Tags      string `form:"tags"`
}

// UpdateEventRequest edits an event. Tags is comma separated text.
type UpdateEventRequest struct {
	Title     string  `json:"title" validate:"required"`
	StartDate string  `json:"startDate" validate:"required"`
	EndDate   string  `json:"endDate" validate:"required"`
	Summary   *string `json:"summary"`
	Tags      *string `json:"tags"`
}

// UpdateDayRequest edits the free text fields of a day. Blank values clear the field.
type UpdateDayRequest struct {
	Title         *string `json:"title"`
	LocationsText *string `json:"locationsText"`
	Notes         *string `json:"notes"`
}

// UpdateCaptionRequest edits an image caption. A blank caption clears it.
type UpdateCaptionRequest struct {
	Caption string `json:"caption"`
}

// ReorderRequest moves an image one slot within its day.
type ReorderRequest struct {
	ImageID   string    `json:"imageId" validate:"required"`
	Direction Direction `json:"direction" validate:"required,oneof=up down"`
}

// UploadFailure names a file that could not be ingested.
type UploadFailure struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// UploadResponse reports how many images were created.
type UploadResponse struct {
	Count  int             `json:"count"`
	Failed []UploadFailure `json:"failed,omitempty"`
}

// ImageURLs are signed links to each stored variant.
type ImageURLs struct {
	Thumb     string    `json:"thumb"`
	Web       string    `json:"web"`
	Orig      string    `json:"orig"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ImageView is an image with its signed URLs.
type ImageView struct {
	models.Image
	URLs ImageURLs `json:"urls"`
}

// EventSummary is one row of the events list.
type EventSummary struct {
	models.Event
	HeroThumbURL string `json:"heroThumbUrl,omitempty"`
}

// EventDetail is an event with its ordered days.
type EventDetail struct {
	models.Event
	Hero *ImageView   `json:"hero,omitempty"`
	Days []models.Day `json:"days"`
}

// DayDetail is a day with its ordered photos.
type DayDetail struct {
	models.Day
	EventTitle string      `json:"eventTitle"`
	Images     []ImageView `json:"images"`
}
