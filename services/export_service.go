package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blogem/diesel-log/export"
	"github.com/blogem/diesel-log/metrics"
	"github.com/blogem/diesel-log/models"
	"github.com/blogem/diesel-log/repositories"
)

// ErrNoData is returned when there are no records to export
var ErrNoData = errors.New("no data to export")

// DefaultFilePrefix names downloaded files
const DefaultFilePrefix = "TNSTC_Diesel_Logs"

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportFile is a rendered export ready for download
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService interface defines export business logic
type ExportService interface {
	ExportCSV(ctx context.Context) (*ExportFile, error)
	ExportXLSX(ctx context.Context) (*ExportFile, error)
	Export(ctx context.Context, format string) (*ExportFile, error)
}

// exportService implements ExportService interface
type exportService struct {
	repo    repositories.FuelLogRepository
	loc     *time.Location
	prefix  string
	now     func() time.Time
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
}

// NewExportService creates a new export service
func NewExportService(repo repositories.FuelLogRepository, loc *time.Location, prefix string, m *metrics.Metrics, logger logrus.FieldLogger) ExportService {
	if prefix == "" {
		prefix = DefaultFilePrefix
	}
	return &exportService{
		repo:    repo,
		loc:     loc,
		prefix:  prefix,
		now:     time.Now,
		metrics: m,
		logger:  logger,
	}
}

// Export renders all records in the given format
func (s *exportService) Export(ctx context.Context, format string) (*ExportFile, error) {
	switch format {
	case FormatCSV:
		return s.ExportCSV(ctx)
	case FormatXLSX:
		return s.ExportXLSX(ctx)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// ExportCSV renders all records, oldest refuel first, as CSV
func (s *exportService) ExportCSV(ctx context.Context) (*ExportFile, error) {
	return s.render(ctx, FormatCSV)
}

// ExportXLSX renders all records, oldest refuel first, as a spreadsheet
func (s *exportService) ExportXLSX(ctx context.Context) (*ExportFile, error) {
	return s.render(ctx, FormatXLSX)
}

func (s *exportService) render(ctx context.Context, format string) (*ExportFile, error) {
	logs, err := s.repo.List(ctx, repositories.ListOptions{OrderBy: repositories.SortByTimestamp})
	if err != nil {
		s.count(format, "failed")
		s.logger.WithError(err).WithField("format", format).Error("Failed to read fuel logs for export")
		return nil, fmt.Errorf("failed to export data: %w", err)
	}
	if len(logs) == 0 {
		s.count(format, "empty")
		return nil, ErrNoData
	}

	file := &ExportFile{
		Filename: s.Filename(format),
		Rows:     len(logs),
	}

	var buf bytes.Buffer
	switch format {
	case FormatXLSX:
		file.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteXLSX(&buf, logs, s.loc)
	default:
		file.ContentType = "text/csv;charset=utf-8;"
		err = export.WriteCSV(&buf, logs, s.loc)
	}
	if err != nil {
		s.count(format, "failed")
		return nil, fmt.Errorf("failed to render %s export: %w", format, err)
	}
	file.Data = buf.Bytes()

	s.count(format, "ok")
	s.logger.WithFields(logrus.Fields{
		"format": format,
		"rows":   file.Rows,
	}).Info("Fuel logs exported")

	return file, nil
}

// Filename names an export made now, e.g. TNSTC_Diesel_Logs_2024-01-15.csv.
// The date is the UTC calendar date.
func (s *exportService) Filename(format string) string {
	return fmt.Sprintf("%s_%s.%s", s.prefix, models.FormatDate(s.now().UTC()), format)
}

func (s *exportService) count(format, status string) {
	if s.metrics != nil {
		s.metrics.ExportsTotal.WithLabelValues(format, status).Inc()
	}
}
