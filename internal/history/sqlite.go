package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const schema = `
	CREATE TABLE IF NOT EXISTS audited_invoices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_id TEXT NOT NULL,
		vendor TEXT NOT NULL,
		total TEXT NOT NULL,
		issue_date TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		audited_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audited_invoices_invoice_id
		ON audited_invoices (invoice_id);
`

// SQLiteStore persists the audit history in sqlite. Totals are stored
// as decimal strings to keep exact values across the round trip.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates the store and ensures its schema exists.
func NewSQLiteStore(db *sql.DB, logger *zap.Logger) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO audited_invoices (
			invoice_id, vendor, total, issue_date, fingerprint, audited_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.InvoiceID,
		rec.Vendor,
		rec.Total.String(),
		rec.IssueDate.Format("2006-01-02"),
		rec.Fingerprint,
		rec.AuditedAt.UTC(),
	)
	if err != nil {
		s.logger.Error("Failed to append history record",
			zap.String("invoice_id", rec.InvoiceID),
			zap.Error(err))
		return fmt.Errorf("failed to append history record: %w", err)
	}
	return nil
}

// All implements Store.
func (s *SQLiteStore) All(ctx context.Context) ([]Record, error) {
	query := `
		SELECT invoice_id, vendor, total, issue_date, fingerprint, audited_at
		FROM audited_invoices
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.logger.Error("Failed to query history", zap.Error(err))
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec       Record
			totalStr  string
			issueDate string
		)
		if err := rows.Scan(&rec.InvoiceID, &rec.Vendor, &totalStr, &issueDate, &rec.Fingerprint, &rec.AuditedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		total, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt total %q for invoice %s: %w", totalStr, rec.InvoiceID, err)
		}
		rec.Total = total
		day, err := time.Parse("2006-01-02", issueDate)
		if err != nil {
			return nil, fmt.Errorf("corrupt issue_date %q for invoice %s: %w", issueDate, rec.InvoiceID, err)
		}
		rec.IssueDate = day
		records = append(records, rec)
	}
	return records, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)
