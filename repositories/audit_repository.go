package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/blogem/diesel-log/database"
	"github.com/blogem/diesel-log/models"
)

// AuditRepository handles audit log persistence
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) error
	Recent(ctx context.Context, limit int) ([]models.AuditLogEntry, error)
}

type auditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *database.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	query := r.db.Rebind(`
		INSERT INTO audit_log (timestamp, user_email, method, path, form_data, user_agent, ip_address, status_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		query,
		entry.Timestamp,
		entry.UserEmail,
		entry.Method,
		entry.Path,
		entry.FormData,
		entry.UserAgent,
		entry.IPAddress,
		entry.StatusCode,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log entry: %w", err)
	}

	return nil
}

// Recent returns the newest audit entries first
func (r *auditRepository) Recent(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	query := r.db.Rebind(`
		SELECT id, timestamp, user_email, method, path, COALESCE(form_data, ''),
		       COALESCE(user_agent, ''), COALESCE(ip_address, ''), status_code
		FROM audit_log
		ORDER BY id DESC
		LIMIT ?
	`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		var entry models.AuditLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.UserEmail,
			&entry.Method,
			&entry.Path,
			&entry.FormData,
			&entry.UserAgent,
			&entry.IPAddress,
			&entry.StatusCode,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
