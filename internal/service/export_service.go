package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/tankermike11/staycation-journal/internal/models"
	appErrors "github.com/tankermike11/staycation-journal/pkg/errors"
	"github.com/tankermike11/staycation-journal/pkg/export"
	"github.com/tankermike11/staycation-journal/pkg/media"
)

type exportEventReader interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

type exportDayLister interface {
	ListByEvent(ctx context.Context, eventID string) ([]models.Day, error)
}

type exportImageReader interface {
	GetByID(ctx context.Context, id string) (*models.Image, error)
	ListByDay(ctx context.Context, dayID string) ([]models.Image, error)
}

type pdfRenderer interface {
	Render(j export.Journal) ([]byte, error)
}

// ExportService renders an event as a printable journal.
type ExportService struct {
	events    exportEventReader
	days      exportDayLister
	images    exportImageReader
	lifecycle mediaLifecycle
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(events exportEventReader, days exportDayLister, images exportImageReader, lifecycle mediaLifecycle, logger *zap.Logger, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		events:    events,
		days:      days,
		images:    images,
		lifecycle: lifecycle,
		pdf:       pdf,
		logger:    logger,
	}
}

// EventPDF renders the event with every day and its thumbnails. It returns the document and a download filename.
func (s *ExportService) EventPDF(ctx context.Context, id string) ([]byte, string, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	days, err := s.days.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list days")
	}

	journal := export.Journal{
		Title:     event.Title,
		DateRange: formatRange(event.StartDate, event.EndDate),
		Summary:   deref(event.Summary),
		Tags:      []string(event.Tags),
	}
	if event.HeroImageID != nil {
		hero, err := s.images.GetByID(ctx, *event.HeroImageID)
		switch {
		case err == nil:
			photo, err := s.photo(ctx, *hero)
			if err != nil {
				return nil, "", err
			}
			photo.Caption = ""
			journal.Hero = &photo
		case !errors.Is(err, sql.ErrNoRows):
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hero image")
		}
	}

	for _, day := range days {
		images, err := s.images.ListByDay(ctx, day.ID)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list day photos")
		}
		section := export.Day{
			Heading:   dayHeading(day),
			Locations: deref(day.LocationsText),
			Notes:     deref(day.Notes),
		}
		for _, img := range images {
			photo, err := s.photo(ctx, img)
			if err != nil {
				return nil, "", err
			}
			section.Photos = append(section.Photos, photo)
		}
		journal.Days = append(journal.Days, section)
	}

	doc, err := s.pdf.Render(journal)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	s.logger.Info("event exported", zap.String("event_id", event.ID), zap.Int("days", len(days)), zap.Int("bytes", len(doc)))
	return doc, sanitizeFilename(event.Title) + ".pdf", nil
}

// photo reads the thumbnail of img. A missing blob yields an empty placeholder rather than failing the export.
func (s *ExportService) photo(ctx context.Context, img models.Image) (export.Photo, error) {
	photo := export.Photo{Caption: deref(img.Caption)}
	obj, err := s.lifecycle.Open(ctx, img, media.VariantThumb)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) {
			s.logger.Warn("thumbnail missing from storage", zap.String("image_id", img.ID))
			return photo, nil
		}
		return export.Photo{}, err
	}
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return export.Photo{}, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read image from storage")
	}
	photo.JPEG = data
	return photo, nil
}

func dayHeading(day models.Day) string {
	heading := day.Date.Time().Format("Monday, 2 January 2006")
	if title := deref(day.Title); title != "" {
		heading += " - " + title
	}
	return heading
}

func formatRange(start, end models.Date) string {
	if start.Equal(end) {
		return start.Time().Format("2 January 2006")
	}
	return fmt.Sprintf("%s to %s", start.Time().Format("2 January 2006"), end.Time().Format("2 January 2006"))
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func sanitizeFilename(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "journal"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "\"", "", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
