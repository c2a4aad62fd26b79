package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blogem/diesel-log/realtime"
	"github.com/blogem/diesel-log/services"
)

// DefaultHeartbeatInterval keeps idle streams alive through proxies
const DefaultHeartbeatInterval = 15 * time.Second

// FeedController serves the recent entries table and its live updates
type FeedController struct {
	services *services.Services
	opts     Options
}

// NewFeedController creates a new feed controller
func NewFeedController(services *services.Services, opts Options) *FeedController {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if opts.RetryMillis <= 0 {
		opts.RetryMillis = 2000
	}
	return &FeedController{services: services, opts: opts}
}

// Recent handles GET /entries/recent - the table body partial
func (c *FeedController) Recent(w http.ResponseWriter, r *http.Request) {
	tmpl, err := parseTemplates(entriesTemplate, entriesTemplate)
	if err != nil {
		http.Error(w, "Failed to parse template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	rows := entryRows(c.services.Feed.Recent(), c.services.Entry.Location())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := tmpl.ExecuteTemplate(w, "entries_rows", rows); err != nil {
		c.opts.Logger.WithError(err).Error("Failed to render recent entries")
	}
}

// API handles GET /api/entries - the recent entries as JSON
func (c *FeedController) API(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(c.services.Feed.Recent()); err != nil {
		c.opts.Logger.WithError(err).Warn("Failed to encode recent entries")
	}
}

// Stream handles GET /entries/stream - one "refresh" event per feed reload
func (c *FeedController) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	subscription, err := c.services.Feed.Subscribe()
	if err != nil {
		http.Error(w, "Live updates unavailable", http.StatusServiceUnavailable)
		return
	}
	defer subscription.Close()

	if c.opts.Metrics != nil {
		c.opts.Metrics.StreamClients.Inc()
		defer c.opts.Metrics.StreamClients.Dec()
	}

	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", c.opts.RetryMillis); err != nil {
		return
	}
	// Refreshes published before this connection (or between reconnects)
	// were not delivered to it, so the page reloads once on every connect.
	if err := writeRefreshEvent(w, realtime.Change{Type: realtime.ChangeResync, At: time.Now().UTC()}); err != nil {
		return
	}
	flusher.Flush()

	ctx := r.Context()
	heartbeat := time.NewTicker(c.opts.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-subscription.Events():
			if !ok {
				// Feed closed during shutdown
				return
			}
			if err := writeRefreshEvent(w, event); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeRefreshEvent(w io.Writer, event realtime.Change) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: refresh\ndata: %s\n\n", data)
	return err
}
