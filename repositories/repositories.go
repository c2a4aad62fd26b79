package repositories

import (
	"github.com/blogem/diesel-log/database"
	"github.com/blogem/diesel-log/realtime"
)

// Repositories struct holds all repository interfaces
type Repositories struct {
	FuelLog FuelLogRepository
	Audit   AuditRepository
}

// NewRepositories creates and initializes all repositories for the store's
// driver. SQLite cannot notify other connections, so its writes publish to
// publisher directly; PostgreSQL notifies through its trigger instead.
func NewRepositories(db *database.DB, publisher realtime.Publisher) *Repositories {
	var fuelLog FuelLogRepository
	switch db.Driver {
	case database.DriverPostgres:
		fuelLog = NewPostgresFuelLogRepository(db)
	default:
		fuelLog = NewSQLiteFuelLogRepository(db)
		if publisher != nil {
			fuelLog = NewNotifyingFuelLogRepository(fuelLog, publisher)
		}
	}

	return &Repositories{
		FuelLog: fuelLog,
		Audit:   NewAuditRepository(db),
	}
}
