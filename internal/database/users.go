package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateEmail is returned by CreateUser when the email is taken.
var ErrDuplicateEmail = errors.New("email already registered")

// CreateUser inserts a user with an already-hashed password.
func (db *DB) CreateUser(email, name, passwordHash string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO users (email, name, password_hash) VALUES (?, ?, ?)`,
		email, name, passwordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	return result.LastInsertId()
}

// GetUserByEmail returns the user with the given email, or nil if none.
func (db *DB) GetUserByEmail(email string) (*User, error) {
	return scanUser(db.conn.QueryRow(
		`SELECT id, email, name, password_hash, created_on FROM users WHERE email = ?`, email,
	))
}

// GetUserByID returns the user with the given ID, or nil if none.
func (db *DB) GetUserByID(id int64) (*User, error) {
	return scanUser(db.conn.QueryRow(
		`SELECT id, email, name, password_hash, created_on FROM users WHERE id = ?`, id,
	))
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedOn); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
