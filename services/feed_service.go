package services

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/blogem/diesel-log/metrics"
	"github.com/blogem/diesel-log/models"
	"github.com/blogem/diesel-log/realtime"
	"github.com/blogem/diesel-log/repositories"
)

// DefaultFeedLimit is the number of entries shown in the recent entries table
const DefaultFeedLimit = 20

// FeedService keeps the most recently created entries in memory and
// reloads them whenever the store reports a change.
type FeedService interface {
	Start(ctx context.Context) error
	Refresh(ctx context.Context) error
	Recent() []models.FuelLog
	Subscribe() (*realtime.Subscription, error)
	Close()
}

// feedService implements FeedService interface
type feedService struct {
	repo    repositories.FuelLogRepository
	changes realtime.Notifier
	updates *realtime.Broker
	limit   int
	metrics *metrics.Metrics
	logger  logrus.FieldLogger

	mu       sync.RWMutex
	snapshot []models.FuelLog

	sub    *realtime.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewFeedService creates a new feed service. changes delivers store change
// notifications; limit <= 0 uses DefaultFeedLimit.
func NewFeedService(repo repositories.FuelLogRepository, changes realtime.Notifier, limit int, m *metrics.Metrics, logger logrus.FieldLogger) FeedService {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return &feedService{
		repo:     repo,
		changes:  changes,
		updates:  realtime.NewBroker(realtime.DefaultSubscriberBuffer),
		limit:    limit,
		metrics:  m,
		logger:   logger,
		snapshot: []models.FuelLog{},
	}
}

// Start loads the initial snapshot and follows store changes until Close
// or ctx is done. A failed initial load leaves the feed empty.
func (s *feedService) Start(ctx context.Context) error {
	_ = s.Refresh(ctx)

	sub, err := s.changes.Subscribe()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.sub = sub
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-sub.Events():
				if !ok {
					return
				}
				s.logger.WithFields(logrus.Fields{
					"type": change.Type,
					"id":   change.ID,
				}).Debug("Fuel log changed")
				_ = s.Refresh(ctx)
			}
		}
	}()

	return nil
}

// Refresh reloads the snapshot. On failure the previous snapshot is kept.
func (s *feedService) Refresh(ctx context.Context) error {
	logs, err := s.repo.List(ctx, repositories.ListOptions{
		OrderBy:    repositories.SortByCreatedAt,
		Descending: true,
		Limit:      s.limit,
	})
	if err != nil {
		s.countRefresh("failed")
		s.logger.WithError(err).Warn("Failed to refresh recent entries")
		return err
	}

	s.mu.Lock()
	s.snapshot = logs
	s.mu.Unlock()

	s.countRefresh("ok")
	if s.metrics != nil {
		s.metrics.FeedEntries.Set(float64(len(logs)))
	}
	s.updates.Publish(realtime.Change{Type: realtime.ChangeRefresh})
	return nil
}

// Recent returns a copy of the current snapshot, newest first
func (s *feedService) Recent() []models.FuelLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FuelLog, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Subscribe returns a subscription that receives one event per refresh
func (s *feedService) Subscribe() (*realtime.Subscription, error) {
	return s.updates.Subscribe()
}

// Close stops following changes and ends every update subscription
func (s *feedService) Close() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.sub != nil {
			s.sub.Close()
		}
		s.wg.Wait()
		s.updates.Close()
	})
}

func (s *feedService) countRefresh(status string) {
	if s.metrics != nil {
		s.metrics.FeedRefreshesTotal.WithLabelValues(status).Inc()
	}
}
