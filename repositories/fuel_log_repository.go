package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blogem/diesel-log/database"
	"github.com/blogem/diesel-log/models"
	"github.com/blogem/diesel-log/realtime"
	"github.com/blogem/diesel-log/userctx"
)

// SortField is a column the fuel log can be ordered by
type SortField string

const (
	// SortByCreatedAt orders by insertion instant
	SortByCreatedAt SortField = "created_at"
	// SortByTimestamp orders by the refuel instant
	SortByTimestamp SortField = "date_time"
)

// ListOptions controls ordering and size of a List call
type ListOptions struct {
	OrderBy    SortField
	Descending bool
	Limit      int // 0 means no limit
}

// FuelLogRepository is the record store for diesel log entries. Records are
// immutable: there is no update or delete.
type FuelLogRepository interface {
	Create(ctx context.Context, log *models.FuelLog) error
	List(ctx context.Context, opts ListOptions) ([]models.FuelLog, error)
}

// orderClause validates opts and renders the ORDER BY / LIMIT tail
func orderClause(opts ListOptions) (string, error) {
	switch opts.OrderBy {
	case SortByCreatedAt, SortByTimestamp:
	case "":
		opts.OrderBy = SortByCreatedAt
	default:
		return "", fmt.Errorf("unsupported sort field %q", opts.OrderBy)
	}
	if opts.Limit < 0 {
		return "", fmt.Errorf("invalid limit %d", opts.Limit)
	}

	direction := "ASC"
	if opts.Descending {
		direction = "DESC"
	}

	clause := fmt.Sprintf(" ORDER BY %s %s, id %s", opts.OrderBy, direction, direction)
	if opts.Limit > 0 {
		clause += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	return clause, nil
}

const selectFuelLogs = `
		SELECT id, date_time, vehicle_no, route_no, staff_no, driver_name,
		       kilometers_driven, diesel_litres, kmpl, created_at, recorded_by
		FROM diesel_logs`

// listFuelLogs runs the shared List query against either driver
func listFuelLogs(ctx context.Context, db *database.DB, opts ListOptions) ([]models.FuelLog, error) {
	tail, err := orderClause(opts)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectFuelLogs+tail)
	if err != nil {
		return nil, fmt.Errorf("failed to query fuel logs: %w", err)
	}
	defer rows.Close()

	logs := []models.FuelLog{}
	for rows.Next() {
		var log models.FuelLog
		err := rows.Scan(
			&log.ID,
			&log.Timestamp,
			&log.VehicleNo,
			&log.RouteNo,
			&log.StaffNo,
			&log.DriverName,
			&log.KilometersDriven,
			&log.DieselLitres,
			&log.KMPL,
			&log.CreatedAt,
			&log.RecordedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fuel log: %w", err)
		}
		log.Timestamp = log.Timestamp.UTC()
		log.CreatedAt = log.CreatedAt.UTC()
		logs = append(logs, log)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fuel logs: %w", err)
	}

	return logs, nil
}

// sqliteFuelLogRepository assigns IDs and insertion instants itself since
// SQLite has no UUID default.
type sqliteFuelLogRepository struct {
	db    *database.DB
	clock func() time.Time
}

// NewSQLiteFuelLogRepository creates a fuel log repository over SQLite
func NewSQLiteFuelLogRepository(db *database.DB) FuelLogRepository {
	return &sqliteFuelLogRepository{db: db, clock: time.Now}
}

// Create inserts a new fuel log and fills in ID and CreatedAt
func (r *sqliteFuelLogRepository) Create(ctx context.Context, log *models.FuelLog) error {
	query := `
		INSERT INTO diesel_logs (id, date_time, vehicle_no, route_no, staff_no, driver_name,
		                         kilometers_driven, diesel_litres, kmpl, recorded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	id := uuid.NewString()
	createdAt := r.clock().UTC()
	recordedBy := userctx.GetUserEmail(ctx)

	_, err := r.db.ExecContext(ctx, query,
		id,
		log.Timestamp.UTC(),
		log.VehicleNo,
		log.RouteNo,
		log.StaffNo,
		log.DriverName,
		log.KilometersDriven,
		log.DieselLitres,
		log.KMPL,
		recordedBy,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create fuel log: %w", err)
	}

	log.ID = id
	log.CreatedAt = createdAt
	log.RecordedBy = recordedBy
	return nil
}

// List returns fuel logs in the requested order
func (r *sqliteFuelLogRepository) List(ctx context.Context, opts ListOptions) ([]models.FuelLog, error) {
	return listFuelLogs(ctx, r.db, opts)
}

// postgresFuelLogRepository lets the database assign id and created_at
type postgresFuelLogRepository struct {
	db *database.DB
}

// NewPostgresFuelLogRepository creates a fuel log repository over PostgreSQL
func NewPostgresFuelLogRepository(db *database.DB) FuelLogRepository {
	return &postgresFuelLogRepository{db: db}
}

// Create inserts a new fuel log and fills in ID and CreatedAt
func (r *postgresFuelLogRepository) Create(ctx context.Context, log *models.FuelLog) error {
	query := `
		INSERT INTO diesel_logs (date_time, vehicle_no, route_no, staff_no, driver_name,
		                         kilometers_driven, diesel_litres, kmpl, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	recordedBy := userctx.GetUserEmail(ctx)

	var id string
	var createdAt time.Time
	err := r.db.QueryRowContext(ctx, query,
		log.Timestamp.UTC(),
		log.VehicleNo,
		log.RouteNo,
		log.StaffNo,
		log.DriverName,
		log.KilometersDriven,
		log.DieselLitres,
		log.KMPL,
		recordedBy,
	).Scan(&id, &createdAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("failed to create fuel log: no row returned")
	}
	if err != nil {
		return fmt.Errorf("failed to create fuel log: %w", err)
	}

	log.ID = id
	log.CreatedAt = createdAt.UTC()
	log.RecordedBy = recordedBy
	return nil
}

// List returns fuel logs in the requested order
func (r *postgresFuelLogRepository) List(ctx context.Context, opts ListOptions) ([]models.FuelLog, error) {
	return listFuelLogs(ctx, r.db, opts)
}

// notifyingFuelLogRepository publishes a change after every successful
// write. Used where the store itself cannot notify.
type notifyingFuelLogRepository struct {
	FuelLogRepository
	publisher realtime.Publisher
}

// NewNotifyingFuelLogRepository wraps repo so writes publish change notifications
func NewNotifyingFuelLogRepository(repo FuelLogRepository, publisher realtime.Publisher) FuelLogRepository {
	return &notifyingFuelLogRepository{FuelLogRepository: repo, publisher: publisher}
}

// Create inserts the log and announces it
func (r *notifyingFuelLogRepository) Create(ctx context.Context, log *models.FuelLog) error {
	if err := r.FuelLogRepository.Create(ctx, log); err != nil {
		return err
	}
	r.publisher.Publish(realtime.Change{Type: realtime.ChangeInsert, ID: log.ID})
	return nil
}
