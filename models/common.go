package models

import (
	"strings"
	"time"
)

// FlashMessage represents a flash message for user feedback
type FlashMessage struct {
	Type    string `json:"type"` // "success", "error", "warning", "info"
	Message string `json:"message"`
}

// Display layouts, modelled on the en-IN locale
const (
	// TableDateTimeLayout renders 2-digit day/month and a 12-hour clock
	TableDateTimeLayout = "02/01/2006, 03:04 pm"
	// ExportDateTimeLayout renders the default en-IN date-time string
	ExportDateTimeLayout = "2/1/2006, 3:04:05 pm"
)

// FormatDate formats a time as YYYY-MM-DD in its own location
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDateTimeLocal formats t in loc for a datetime-local input (minute precision)
func FormatDateTimeLocal(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateTimeLocalLayout)
}

// ParseDateTimeLocal parses a datetime-local value as wall time in loc
func ParseDateTimeLocal(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	// Some browsers submit seconds as well
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return t, nil
	}
	return time.ParseInLocation(DateTimeLocalLayout, s, loc)
}

// FormatTableDateTime formats t for the recent entries table
func FormatTableDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TableDateTimeLayout)
}

// FormatExportDateTime formats t for exported documents
func FormatExportDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(ExportDateTimeLayout)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// HasErrors returns true if there are validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// GetMessages returns all error messages as a slice of strings
func (ve ValidationErrors) GetMessages() []string {
	messages := make([]string, len(ve))
	for i, err := range ve {
		messages[i] = err.Message
	}
	return messages
}

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	return "validation failed: " + strings.Join(ve.GetMessages(), ", ")
}

// Has reports whether field failed validation
func (ve ValidationErrors) Has(field string) bool {
	for _, err := range ve {
		if err.Field == field {
			return true
		}
	}
	return false
}
