package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Manager handles persistence of the local operation history
type Manager struct {
	db *sql.DB
}

// OperationRecord represents one completed logging operation
type OperationRecord struct {
	ID           string
	Kind         string // "transfer" or "request"
	Timestamp    time.Time
	MediaType    string
	MediaID      string
	TransferType string
	Source       string
	Destination  string
	Direction    string
	Requestor    string
	Purpose      string
	FileCount    int
	TotalBytes   int64
	DetailFile   string
	Status       string // "success", "failed", "partial"
	Error        string
}

// NewManager creates a new state manager backed by a sqlite database in
// the given data directory
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "transferlog.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Limit connection pool to prevent "database is locked" errors
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Enable WAL mode for better concurrency and set busy timeout
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db}

	if err := manager.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return manager, nil
}

// initSchema creates the database schema
func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		media_type TEXT,
		media_id TEXT,
		transfer_type TEXT,
		source TEXT,
		destination TEXT,
		direction TEXT,
		requestor TEXT,
		purpose TEXT,
		file_count INTEGER DEFAULT 0,
		total_bytes INTEGER DEFAULT 0,
		detail_file TEXT,
		status TEXT NOT NULL,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_operations_kind_time ON operations(kind, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_operations_status ON operations(status);
	`

	_, err := m.db.Exec(schema)
	return err
}

// SaveOperation records a completed operation. An empty ID gets a
// generated one; the assigned ID is returned.
func (m *Manager) SaveOperation(record OperationRecord) (string, error) {
	if record.Status != "success" && record.Status != "failed" && record.Status != "partial" {
		return "", fmt.Errorf("invalid status: %s (must be 'success', 'failed', or 'partial')", record.Status)
	}
	if record.Kind != "transfer" && record.Kind != "request" {
		return "", fmt.Errorf("invalid kind: %s (must be 'transfer' or 'request')", record.Kind)
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	query := `
		INSERT INTO operations (id, kind, timestamp, media_type, media_id, transfer_type,
			source, destination, direction, requestor, purpose,
			file_count, total_bytes, detail_file, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := m.db.Exec(query,
		record.ID,
		record.Kind,
		record.Timestamp,
		record.MediaType,
		record.MediaID,
		record.TransferType,
		record.Source,
		record.Destination,
		record.Direction,
		record.Requestor,
		record.Purpose,
		record.FileCount,
		record.TotalBytes,
		record.DetailFile,
		record.Status,
		record.Error,
	)

	if err != nil {
		return "", fmt.Errorf("failed to save operation record: %w", err)
	}

	return record.ID, nil
}

const selectColumns = `id, kind, timestamp, media_type, media_id, transfer_type,
		source, destination, direction, requestor, purpose,
		file_count, total_bytes, detail_file, status, error`

// GetHistory retrieves the most recent operations of one kind
func (m *Manager) GetHistory(kind string, limit int) ([]OperationRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := `
		SELECT ` + selectColumns + `
		FROM operations
		WHERE kind = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := m.db.Query(query, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetAllHistory retrieves the most recent operations of any kind
func (m *Manager) GetAllHistory(limit int) ([]OperationRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := `
		SELECT ` + selectColumns + `
		FROM operations
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := m.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query all history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetLastSuccess retrieves the most recent successful operation of one
// kind, or nil when none exists
func (m *Manager) GetLastSuccess(kind string) (*OperationRecord, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM operations
		WHERE kind = ? AND status = 'success'
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var record OperationRecord
	err := m.db.QueryRow(query, kind).Scan(
		&record.ID,
		&record.Kind,
		&record.Timestamp,
		&record.MediaType,
		&record.MediaID,
		&record.TransferType,
		&record.Source,
		&record.Destination,
		&record.Direction,
		&record.Requestor,
		&record.Purpose,
		&record.FileCount,
		&record.TotalBytes,
		&record.DetailFile,
		&record.Status,
		&record.Error,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query last success: %w", err)
	}

	return &record, nil
}

func scanRecords(rows *sql.Rows) ([]OperationRecord, error) {
	var records []OperationRecord
	for rows.Next() {
		var record OperationRecord
		err := rows.Scan(
			&record.ID,
			&record.Kind,
			&record.Timestamp,
			&record.MediaType,
			&record.MediaID,
			&record.TransferType,
			&record.Source,
			&record.Destination,
			&record.Direction,
			&record.Requestor,
			&record.Purpose,
			&record.FileCount,
			&record.TotalBytes,
			&record.DetailFile,
			&record.Status,
			&record.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
