package storage

import (
	"context"
	"database/sql"
	"errors"

	"expense-ledger/internal/apperr"
	"expense-ledger/internal/models"
)

var userConstraintMessages = map[constraint]string{
	uniqueViolation: "Username already registered",
	valueTooLong:    "username, email and password hash must be at most 100 characters",
}

// CreateUser creates a new user with the given username, email and password
// hash. The unique index on username decides concurrent registrations.
func (db *DB) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var id int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			db.q(`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?) RETURNING id`),
			username, email, passwordHash,
		).Scan(&id)
	})
	if err != nil {
		return nil, classify(err, userConstraintMessages)
	}

	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		db.q(`SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?`),
		id,
	)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		db.q(`SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?`),
		username,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return &u, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
