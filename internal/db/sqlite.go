package db

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type Database struct {
	db *sql.DB
}

func NewSQLite(path string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	d := &Database{db: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS catalog_videos (
		video_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		thumbnail_url TEXT NOT NULL DEFAULT '',
		channel_title TEXT NOT NULL DEFAULT '',
		published_at TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS catalog_subtitles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		start REAL NOT NULL,
		duration REAL NOT NULL,
		FOREIGN KEY (video_id) REFERENCES catalog_videos(video_id) ON DELETE CASCADE,
		UNIQUE(video_id, position)
	);

	CREATE TABLE IF NOT EXISTS saved_videos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		video_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		UNIQUE(user_id, video_id)
	);

	CREATE TABLE IF NOT EXISTS subtitles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		saved_video_id INTEGER NOT NULL,
		en_subtitle TEXT NOT NULL DEFAULT '',
		ja_subtitle TEXT NOT NULL DEFAULT '',
		start REAL NOT NULL,
		duration REAL NOT NULL,
		FOREIGN KEY (saved_video_id) REFERENCES saved_videos(id) ON DELETE CASCADE
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqlErr sqlite3.Error
	return errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
