package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogem/diesel-log/config"
	"github.com/blogem/diesel-log/controllers"
	"github.com/blogem/diesel-log/database"
	"github.com/blogem/diesel-log/metrics"
	"github.com/blogem/diesel-log/realtime"
	"github.com/blogem/diesel-log/repositories"
	"github.com/blogem/diesel-log/services"
)

type testServer struct {
	server   *httptest.Server
	services *services.Services
	repos    *repositories.Repositories
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := database.Initialize(database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "router.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	changes := realtime.NewBroker(8)
	t.Cleanup(changes.Close)

	m := metrics.New(prometheus.NewRegistry())
	repos := repositories.NewRepositories(db, changes)
	srvs := services.NewServices(repos, changes, services.Options{
		Location: time.FixedZone("IST", 5*3600+1800),
		Metrics:  m,
		Logger:   logger,
	})
	require.NoError(t, srvs.Feed.Start(context.Background()))
	t.Cleanup(srvs.Feed.Close)

	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second, EnableMetrics: true},
	}
	ctrl := controllers.NewControllers(srvs, nil, controllers.Options{Logger: logger, Metrics: m})
	router, err := setupRouter(ctrl, repos.Audit, db, m, cfg, logger)
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testServer{server: server, services: srvs, repos: repos}
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)
	assert.Contains(t, string(body), `"storage":"sqlite3"`)
}

func TestSubmitAppearsInFeedAndExport(t *testing.T) {
	ts := newTestServer(t)
	client := noRedirectClient()

	// Empty log cannot be exported
	resp, err := client.Get(ts.server.URL + "/export.csv")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	updates, err := ts.services.Feed.Subscribe()
	require.NoError(t, err)
	defer updates.Close()

	form := url.Values{
		"date_time":         {"2024-01-15T09:30"},
		"vehicle_no":        {"TN 68 N 1234"},
		"route_no":          {"10A"},
		"staff_no":          {"10DR051"},
		"driver_name":       {"K. Raju"},
		"kilometers_driven": {"100"},
		"diesel_litres":     {"33"},
	}
	resp, err = client.PostForm(ts.server.URL+"/entries", form)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	// The write triggers one feed reload
	select {
	case <-updates.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("feed was not refreshed after the write")
	}
	recent := ts.services.Feed.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, 3.03, recent[0].KMPL)
	assert.Equal(t, "anonymous", recent[0].RecordedBy)

	resp, err = client.Get(ts.server.URL + "/entries/recent")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "15/01/2024, 09:30 am")

	resp, err = client.Get(ts.server.URL + "/export.csv")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	lines := strings.Split(string(body), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"15/1/2024, 9:30:00 am","TN 68 N 1234","10A","10DR051","K. Raju",100,33,3.03`, lines[1])

	// The submission was audited in the background
	assert.Eventually(t, func() bool {
		entries, err := ts.repos.Audit.Recent(context.Background(), 5)
		return err == nil && len(entries) == 1 && entries[0].StatusCode == http.StatusSeeOther
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRejectedSubmitStoresNothing(t *testing.T) {
	ts := newTestServer(t)

	resp, err := noRedirectClient().PostForm(ts.server.URL+"/entries", url.Values{"vehicle_no": {"TN 68 N 1234"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	logs, err := ts.repos.FuelLog.List(context.Background(), repositories.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
