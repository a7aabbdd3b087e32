package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"jtdxmon/internal/errors"
	"jtdxmon/internal/models"
	"jtdxmon/internal/security"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	decoded_at TIMESTAMP NOT NULL,
	caller TEXT NOT NULL,
	called TEXT NOT NULL DEFAULT '',
	snr INTEGER NOT NULL,
	frequency_offset INTEGER NOT NULL,
	message TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_contacts_decoded_at ON contacts(decoded_at);
CREATE INDEX IF NOT EXISTS idx_contacts_caller ON contacts(caller);
`

// Store persists reported contact events for later review. It is an
// optional convenience; the tail cursor and the dedup window stay in
// process memory and are never written here.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := security.ValidateFilePath(dbPath); err != nil {
		return nil, fmt.Errorf("invalid history database path: %w", err)
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to create history database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close history database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveContact appends one reported contact. The record's ID is filled in
// on success.
func (s *Store) SaveContact(ctx context.Context, record *models.ContactRecord) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (decoded_at, caller, called, snr, frequency_offset, message)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.Timestamp, record.Caller, record.Called, record.SNR, record.FrequencyOffset, record.Message,
	)
	if err != nil {
		return errors.NewDatabaseError("insert contact", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.NewDatabaseError("insert contact", err)
	}
	record.ID = id
	return nil
}

// RecentContacts returns up to limit contacts, newest first.
func (s *Store) RecentContacts(ctx context.Context, limit int) ([]models.ContactRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, decoded_at, caller, called, snr, frequency_offset, message, created_at
		 FROM contacts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("query recent contacts", err)
	}
	defer rows.Close()

	var records []models.ContactRecord
	for rows.Next() {
		var r models.ContactRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Caller, &r.Called, &r.SNR, &r.FrequencyOffset, &r.Message, &r.CreatedAt); err != nil {
			return nil, errors.NewDatabaseError("scan contact", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("iterate contacts", err)
	}

	return records, nil
}

// ContactCount returns the total number of recorded contacts.
func (s *Store) ContactCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&count); err != nil {
		return 0, errors.NewDatabaseError("count contacts", err)
	}
	return count, nil
}
