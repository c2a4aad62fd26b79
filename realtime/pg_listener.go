package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// PostgresChannel is the NOTIFY channel written by the diesel_logs trigger
const PostgresChannel = "diesel_logs_changes"

// NotificationSource is the part of *pq.Listener the bridge consumes
type NotificationSource interface {
	NotificationChannel() <-chan *pq.Notification
	Close() error
}

// PostgresListener forwards NOTIFY payloads from the store into a Publisher
type PostgresListener struct {
	source    NotificationSource
	publisher Publisher
	logger    logrus.FieldLogger

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewPostgresListener connects a pq.Listener to dsn and listens on PostgresChannel
func NewPostgresListener(dsn string, publisher Publisher, logger logrus.FieldLogger) (*PostgresListener, error) {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.WithError(err).WithField("event", ev).Warn("Postgres listener connection problem")
		}
	}

	listener := pq.NewListener(dsn, 2*time.Second, time.Minute, reportProblem)
	if err := listener.Listen(PostgresChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", PostgresChannel, err)
	}

	return NewPostgresListenerFromSource(listener, publisher, logger), nil
}

// NewPostgresListenerFromSource wraps an already listening source
func NewPostgresListenerFromSource(source NotificationSource, publisher Publisher, logger logrus.FieldLogger) *PostgresListener {
	return &PostgresListener{
		source:    source,
		publisher: publisher,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start pumps notifications until ctx ends or Close is called
func (l *PostgresListener) Start(ctx context.Context) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.done:
				return
			case n, ok := <-l.source.NotificationChannel():
				if !ok {
					return
				}
				l.publisher.Publish(decodeNotification(n, l.logger))
			}
		}
	}()
}

// Close stops the pump and releases the connection
func (l *PostgresListener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		l.wg.Wait()
		err = l.source.Close()
	})
	return err
}

// decodeNotification turns a NOTIFY into a Change. A nil notification is
// what pq delivers after re-establishing a lost connection.
func decodeNotification(n *pq.Notification, logger logrus.FieldLogger) Change {
	if n == nil {
		return Change{Type: ChangeResync}
	}

	var change Change
	if err := json.Unmarshal([]byte(n.Extra), &change); err != nil || change.Type == "" {
		logger.WithField("payload", n.Extra).Debug("Unrecognised change payload")
		return Change{Type: ChangeResync}
	}
	return change
}
