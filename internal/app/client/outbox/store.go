package outbox

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"sitekeeper/internal/infrastructure/migration"
)

// Store is the durable queue of pending mutations, backed by SQLite.
// Entries are drained in creation order; every operation is a single
// transaction against the storage engine.
type Store struct {
	db *sql.DB
}

// NewStore opens the client database and applies schema migrations.
// Any open or migration failure is reported as ErrStorageUnavailable:
// offline capability must be disabled for the session, not retried.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := migration.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return &Store{db: db}, nil
}

// Enqueue persists a new entry.
func (s *Store) Enqueue(entry Entry) error {
	jsonBody, formFields, err := encodeBody(entry)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO outbox (id, idempotency_key, method, path, body_kind,
		                    json_body, form_fields, created_at, retry_count, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.IdempotencyKey, entry.Method, entry.Path, string(entry.BodyKind),
		jsonBody, formFields, entry.CreatedAt, entry.RetryCount, entry.LastError)
	if err != nil {
		return fmt.Errorf("failed to enqueue entry: %w", err)
	}

	return nil
}

// ListAll returns every pending entry ordered by creation time. The
// result is a snapshot: entries enqueued afterwards are picked up on
// the next drain cycle.
func (s *Store) ListAll() ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, idempotency_key, method, path, body_kind,
		       json_body, form_fields, created_at, retry_count, last_error
		FROM outbox
		ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Count returns the number of pending entries.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM outbox").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Remove deletes one entry after its replay was confirmed.
func (s *Store) Remove(id string) error {
	if _, err := s.db.Exec("DELETE FROM outbox WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to remove entry: %w", err)
	}
	return nil
}

// Update overwrites one entry, used to record a failed replay.
func (s *Store) Update(entry Entry) error {
	jsonBody, formFields, err := encodeBody(entry)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		UPDATE outbox
		SET idempotency_key = ?, method = ?, path = ?, body_kind = ?,
		    json_body = ?, form_fields = ?, created_at = ?, retry_count = ?, last_error = ?
		WHERE id = ?
	`, entry.IdempotencyKey, entry.Method, entry.Path, string(entry.BodyKind),
		jsonBody, formFields, entry.CreatedAt, entry.RetryCount, entry.LastError, entry.ID)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}

	return nil
}

// DB exposes the underlying handle so the read cache can share the
// same database file.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encodeBody(entry Entry) (jsonBody, formFields sql.NullString, err error) {
	if entry.BodyKind == BodyJSON && entry.JSONBody != nil {
		jsonBody = sql.NullString{String: string(entry.JSONBody), Valid: true}
	}
	if entry.BodyKind == BodyForm && entry.FormFields != nil {
		data, merr := json.Marshal(entry.FormFields)
		if merr != nil {
			return jsonBody, formFields, fmt.Errorf("failed to serialize form fields: %w", merr)
		}
		formFields = sql.NullString{String: string(data), Valid: true}
	}
	return jsonBody, formFields, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var entry Entry
	var bodyKind string
	var jsonBody, formFields sql.NullString

	if err := rows.Scan(&entry.ID, &entry.IdempotencyKey, &entry.Method, &entry.Path,
		&bodyKind, &jsonBody, &formFields, &entry.CreatedAt,
		&entry.RetryCount, &entry.LastError); err != nil {
		return Entry{}, fmt.Errorf("failed to scan entry: %w", err)
	}

	entry.BodyKind = BodyKind(bodyKind)
	if jsonBody.Valid {
		entry.JSONBody = json.RawMessage(jsonBody.String)
	}
	if formFields.Valid {
		if err := json.Unmarshal([]byte(formFields.String), &entry.FormFields); err != nil {
			return Entry{}, fmt.Errorf("failed to parse form fields: %w", err)
		}
	}

	return entry, nil
}
