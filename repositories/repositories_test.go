package repositories

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogem/diesel-log/database"
	"github.com/blogem/diesel-log/models"
	"github.com/blogem/diesel-log/realtime"
	"github.com/blogem/diesel-log/userctx"
)

func setupTestDB(t *testing.T) *database.DB {
	// Initialize test database using the actual migration system
	db, err := database.Initialize(database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func sampleLog(vehicle string, at time.Time) *models.FuelLog {
	return &models.FuelLog{
		Timestamp:        at,
		VehicleNo:        vehicle,
		RouteNo:          "10A",
		StaffNo:          "10DR051",
		DriverName:       "K. Raju",
		KilometersDriven: 100,
		DieselLitres:     33,
		KMPL:             3.03,
	}
}

// steppingClock returns an instant one second later on every call
func steppingClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Second)
		return now
	}
}

func TestFuelLogRepository_SQLite(t *testing.T) {
	db := setupTestDB(t)
	repo := &sqliteFuelLogRepository{
		db:    db,
		clock: steppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	ctx := userctx.SetUserEmail(context.Background(), "clerk@depot.example")

	// Test Create
	refuelled := time.Date(2024, 1, 15, 4, 0, 0, 0, time.UTC)
	entry := sampleLog("TN 68 N 1234", refuelled)
	err := repo.Create(ctx, entry)
	if err != nil {
		t.Fatalf("Failed to create fuel log: %v", err)
	}

	if entry.ID == "" {
		t.Error("Expected ID to be set after creation")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set after creation")
	}
	assert.Equal(t, "clerk@depot.example", entry.RecordedBy)

	// Test List round trip
	logs, err := repo.List(context.Background(), ListOptions{OrderBy: SortByCreatedAt, Descending: true})
	require.NoError(t, err)
	require.Len(t, logs, 1)

	got := logs[0]
	assert.Equal(t, entry.ID, got.ID)
	assert.True(t, refuelled.Equal(got.Timestamp), "timestamp %v", got.Timestamp)
	assert.Equal(t, "TN 68 N 1234", got.VehicleNo)
	assert.Equal(t, "10A", got.RouteNo)
	assert.Equal(t, "10DR051", got.StaffNo)
	assert.Equal(t, "K. Raju", got.DriverName)
	assert.Equal(t, 100.0, got.KilometersDriven)
	assert.Equal(t, 33.0, got.DieselLitres)
	assert.Equal(t, 3.03, got.KMPL)
	assert.Equal(t, "clerk@depot.example", got.RecordedBy)
}

func TestFuelLogRepository_SQLiteDefaultsToAnonymous(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteFuelLogRepository(db)

	entry := sampleLog("TN 01 A 0001", time.Now())
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.Equal(t, "anonymous", entry.RecordedBy)
}

func TestFuelLogRepository_SQLiteOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := &sqliteFuelLogRepository{
		db:    db,
		clock: steppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	ctx := context.Background()

	// Insert 25 entries whose refuel times run backwards
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 25; i++ {
		entry := sampleLog("BUS", base.Add(-time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(ctx, entry))
		ids = append(ids, entry.ID)
	}

	recent, err := repo.List(ctx, ListOptions{OrderBy: SortByCreatedAt, Descending: true, Limit: 20})
	require.NoError(t, err)
	require.Len(t, recent, 20)
	assert.Equal(t, ids[24], recent[0].ID)
	assert.Equal(t, ids[5], recent[19].ID)
	for i := 1; i < len(recent); i++ {
		assert.True(t, recent[i-1].CreatedAt.After(recent[i].CreatedAt))
	}

	all, err := repo.List(ctx, ListOptions{OrderBy: SortByTimestamp})
	require.NoError(t, err)
	require.Len(t, all, 25)
	assert.Equal(t, ids[24], all[0].ID)
	assert.Equal(t, ids[0], all[24].ID)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Timestamp.Before(all[i-1].Timestamp))
	}
}

func TestFuelLogRepository_ListEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteFuelLogRepository(db)

	logs, err := repo.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)
}

func TestOrderClause(t *testing.T) {
	clause, err := orderClause(ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY created_at ASC, id ASC", clause)

	clause, err = orderClause(ListOptions{OrderBy: SortByTimestamp, Descending: true, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY date_time DESC, id DESC LIMIT 5", clause)

	_, err = orderClause(ListOptions{OrderBy: "driver_name; DROP TABLE diesel_logs"})
	assert.Error(t, err)

	_, err = orderClause(ListOptions{Limit: -1})
	assert.Error(t, err)
}

func newMockPostgres(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})
	return &database.DB{DB: sqlDB, Driver: database.DriverPostgres}, mock
}

func TestFuelLogRepository_PostgresCreate(t *testing.T) {
	db, mock := newMockPostgres(t)
	repo := NewPostgresFuelLogRepository(db)

	at := time.Date(2024, 1, 15, 4, 0, 0, 0, time.UTC)
	createdAt := time.Date(2024, 1, 15, 4, 1, 0, 0, time.UTC)
	entry := sampleLog("TN 68 N 1234", at)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO diesel_logs")).
		WithArgs(at, "TN 68 N 1234", "10A", "10DR051", "K. Raju", 100.0, 33.0, 3.03, "anonymous").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow("5f0c6e7a-1111-4c1e-9a35-6f4b7e0c0001", createdAt))

	require.NoError(t, repo.Create(context.Background(), entry))
	assert.Equal(t, "5f0c6e7a-1111-4c1e-9a35-6f4b7e0c0001", entry.ID)
	assert.Equal(t, createdAt, entry.CreatedAt)
}

func TestFuelLogRepository_PostgresCreateFailure(t *testing.T) {
	db, mock := newMockPostgres(t)
	repo := NewPostgresFuelLogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO diesel_logs")).
		WillReturnError(errors.New("connection refused"))

	entry := sampleLog("TN 68 N 1234", time.Now())
	err := repo.Create(context.Background(), entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create fuel log")
	assert.Empty(t, entry.ID)
}

func TestFuelLogRepository_PostgresList(t *testing.T) {
	db, mock := newMockPostgres(t)
	repo := NewPostgresFuelLogRepository(db)

	columns := []string{"id", "date_time", "vehicle_no", "route_no", "staff_no", "driver_name",
		"kilometers_driven", "diesel_litres", "kmpl", "created_at", "recorded_by"}
	at := time.Date(2024, 1, 15, 4, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM diesel_logs ORDER BY created_at DESC, id DESC LIMIT 20")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("b", at, "TN 02", "5", "S2", "Driver B", 120.0, 24.0, 5.0, at.Add(time.Minute), "anonymous").
			AddRow("a", at, "TN 01", "4", "S1", "Driver A", 100.0, 33.0, 3.03, at, "anonymous"))

	logs, err := repo.List(context.Background(), ListOptions{OrderBy: SortByCreatedAt, Descending: true, Limit: 20})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "b", logs[0].ID)
	assert.Equal(t, 5.0, logs[0].KMPL)
	assert.Equal(t, "Driver A", logs[1].DriverName)
}

func TestFuelLogRepository_PostgresListFailure(t *testing.T) {
	db, mock := newMockPostgres(t)
	repo := NewPostgresFuelLogRepository(db)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation does not exist"))

	_, err := repo.List(context.Background(), ListOptions{OrderBy: SortByTimestamp})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query fuel logs")
}

type recordingPublisher struct {
	changes []realtime.Change
}

func (p *recordingPublisher) Publish(change realtime.Change) {
	p.changes = append(p.changes, change)
}

func TestNotifyingFuelLogRepository(t *testing.T) {
	db := setupTestDB(t)
	publisher := &recordingPublisher{}
	repo := NewNotifyingFuelLogRepository(NewSQLiteFuelLogRepository(db), publisher)

	entry := sampleLog("TN 68 N 1234", time.Now())
	require.NoError(t, repo.Create(context.Background(), entry))

	// Exactly one notification per successful write
	require.Len(t, publisher.changes, 1)
	assert.Equal(t, realtime.ChangeInsert, publisher.changes[0].Type)
	assert.Equal(t, entry.ID, publisher.changes[0].ID)

	// Reads never notify
	_, err := repo.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Len(t, publisher.changes, 1)
}

func TestNotifyingFuelLogRepository_FailedWriteIsSilent(t *testing.T) {
	db, mock := newMockPostgres(t)
	publisher := &recordingPublisher{}
	repo := NewNotifyingFuelLogRepository(NewPostgresFuelLogRepository(db), publisher)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO diesel_logs")).
		WillReturnError(errors.New("disk full"))

	err := repo.Create(context.Background(), sampleLog("X", time.Now()))
	assert.Error(t, err)
	assert.Empty(t, publisher.changes)
}

func TestNewRepositories(t *testing.T) {
	db := setupTestDB(t)

	repos := NewRepositories(db, realtime.NewBroker(1))
	_, notifying := repos.FuelLog.(*notifyingFuelLogRepository)
	assert.True(t, notifying, "sqlite writes must notify in-process")

	pg, _ := newMockPostgres(t)
	repos = NewRepositories(pg, realtime.NewBroker(1))
	_, plain := repos.FuelLog.(*postgresFuelLogRepository)
	assert.True(t, plain, "postgres notifies through its trigger")
}

func TestAuditRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	first := &models.AuditLogEntry{
		UserEmail:  "anonymous",
		Method:     "POST",
		Path:       "/entries",
		FormData:   "vehicle_no=TN+68",
		UserAgent:  "test",
		IPAddress:  "127.0.0.1",
		StatusCode: 303,
	}
	require.NoError(t, repo.Create(ctx, first))
	assert.False(t, first.Timestamp.IsZero())

	second := &models.AuditLogEntry{UserEmail: "anonymous", Method: "POST", Path: "/entries", StatusCode: 400}
	require.NoError(t, repo.Create(ctx, second))

	entries, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 400, entries[0].StatusCode)
	assert.Equal(t, "vehicle_no=TN+68", entries[1].FormData)
	assert.Equal(t, 303, entries[1].StatusCode)
}
