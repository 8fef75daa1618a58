package credential

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists credentials in a single-table sqlite file readable only by the owner.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("credential dir: %w", err)
	}
	// Create the file up front so it never exists with looser permissions.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("credential file: %w", err)
	}
	f.Close()

	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: sqlDB}
	if _, err := sqlDB.Exec(`
	CREATE TABLE IF NOT EXISTS credentials (
		service TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("credential schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Save(token, username, email, password string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for k, v := range fields(token, username, email, password) {
		if _, err := tx.Exec(`
			INSERT INTO credentials (service, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(service) DO UPDATE SET value=?, updated_at=?`,
			k, v, now, v, now,
		); err != nil {
			return fmt.Errorf("save %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Load(service string) (string, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM credentials WHERE service = ?", service).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *SQLiteStore) DeleteAll() error {
	_, err := s.db.Exec("DELETE FROM credentials")
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
