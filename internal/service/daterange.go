package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tankermike11/staycation-journal/internal/models"
)

// ExpandDateRange lists every calendar date from start through end inclusive, ascending.
func ExpandDateRange(start, end models.Date) ([]models.Date, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("start and end dates are required")
	}
	if start.After(end) {
		return nil, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	dates := make([]models.Date, 0, 8)
	for d := start; !d.After(end); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// buildDays maps dates to new day rows numbered 1..N.
func buildDays(eventID string, dates []models.Date) []models.Day {
	days := make([]models.Day, len(dates))
	for i, d := range dates {
		days[i] = models.Day{
			ID:        uuid.NewString(),
			EventID:   eventID,
			Date:      d,
			SortIndex: i + 1,
		}
	}
	return days
}

// parseTags splits comma separated text, dropping blanks. No tags yields nil so the column stays NULL.
func parseTags(raw string) pq.StringArray {
	var tags pq.StringArray
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// optionalText trims s and maps blank to nil.
func optionalText(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
