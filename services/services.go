package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blogem/diesel-log/metrics"
	"github.com/blogem/diesel-log/realtime"
	"github.com/blogem/diesel-log/repositories"
)

// Options carries the settings shared by the services
type Options struct {
	Location   *time.Location
	FeedLimit  int
	FilePrefix string
	Metrics    *metrics.Metrics
	Logger     logrus.FieldLogger
}

// Services holds all service instances
type Services struct {
	Entry  EntryService
	Feed   FeedService
	Export ExportService
}

// NewServices creates and initializes all service instances. changes
// delivers store change notifications to the feed.
func NewServices(repos *repositories.Repositories, changes realtime.Notifier, opts Options) *Services {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &Services{
		Entry:  NewEntryService(repos.FuelLog, opts.Location, opts.Metrics, opts.Logger.WithField("component", "entry")),
		Feed:   NewFeedService(repos.FuelLog, changes, opts.FeedLimit, opts.Metrics, opts.Logger.WithField("component", "feed")),
		Export: NewExportService(repos.FuelLog, opts.Location, opts.FilePrefix, opts.Metrics, opts.Logger.WithField("component", "export")),
	}
}
