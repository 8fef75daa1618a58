package db

import (
	"database/sql"
	"errors"

	"github.com/subtitle-study/app/internal/db/models"
)

// CreateUser inserts a user with an already hashed password.
func (d *Database) CreateUser(name, email, passwordHash string) (*models.User, error) {
	res, err := d.db.Exec(
		"INSERT INTO users (name, email, password) VALUES (?, ?, ?)",
		name, email, passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return d.GetUserByID(id)
}

func (d *Database) GetUserByEmail(email string) (*models.User, error) {
	return d.scanUser(d.db.QueryRow(
		"SELECT id, name, email, password, created_at FROM users WHERE email = ?", email,
	))
}

func (d *Database) GetUserByID(id int64) (*models.User, error) {
	return d.scanUser(d.db.QueryRow(
		"SELECT id, name, email, password, created_at FROM users WHERE id = ?", id,
	))
}

func (d *Database) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// EmailExists reports whether email is registered.
func (d *Database) EmailExists(email string) (bool, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&count)
	return count > 0, err
}

// DeleteUser removes the user; saved videos and their subtitles cascade.
func (d *Database) DeleteUser(id int64) error {
	res, err := d.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
