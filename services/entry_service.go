package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blogem/diesel-log/metrics"
	"github.com/blogem/diesel-log/models"
	"github.com/blogem/diesel-log/repositories"
)

// EntryService interface defines fuel log entry business logic
type EntryService interface {
	NewForm() *models.FuelLogForm
	Submit(ctx context.Context, form *models.FuelLogForm) (*models.FuelLog, error)
	Location() *time.Location
}

// entryService implements EntryService interface
type entryService struct {
	repo    repositories.FuelLogRepository
	loc     *time.Location
	now     func() time.Time
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
}

// NewEntryService creates a new entry service
func NewEntryService(repo repositories.FuelLogRepository, loc *time.Location, m *metrics.Metrics, logger logrus.FieldLogger) EntryService {
	return &entryService{
		repo:    repo,
		loc:     loc,
		now:     time.Now,
		metrics: m,
		logger:  logger,
	}
}

// NewForm returns a blank form stamped with the current time
func (s *entryService) NewForm() *models.FuelLogForm {
	return models.NewFuelLogForm(s.now(), s.loc)
}

// Location returns the display location used to read and show timestamps
func (s *entryService) Location() *time.Location {
	return s.loc
}

// Submit validates the form, derives KMPL and stores one new record.
// Validation failures return models.ValidationErrors without touching the store.
func (s *entryService) Submit(ctx context.Context, form *models.FuelLogForm) (*models.FuelLog, error) {
	form.Recompute()

	if errs := form.Validate(s.loc); errs.HasErrors() {
		s.count("invalid")
		return nil, errs
	}

	log, err := form.ToFuelLog(s.loc)
	if err != nil {
		s.count("invalid")
		return nil, err
	}

	if err := s.repo.Create(ctx, log); err != nil {
		s.count("failed")
		s.logger.WithError(err).WithField("vehicle_no", log.VehicleNo).Error("Failed to save fuel log")
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	s.count("saved")
	s.logger.WithFields(logrus.Fields{
		"id":         log.ID,
		"vehicle_no": log.VehicleNo,
		"kmpl":       log.KMPLText(),
	}).Info("Fuel log saved")

	return log, nil
}

func (s *entryService) count(status string) {
	if s.metrics != nil {
		s.metrics.EntriesSubmittedTotal.WithLabelValues(status).Inc()
	}
}
