package auth

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"expense-ledger/internal/apperr"
	"expense-ledger/internal/models"
)

// UserStore is the persistence the credential flow needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Credentials registers users and checks their passwords.
type Credentials struct {
	users UserStore
	cost  int
	// dummyHash is compared against when the username is unknown so that
	// both failure paths do the same bcrypt work.
	dummyHash string
}

// NewCredentials creates a Credentials backed by users, hashing with the
// given bcrypt cost.
func NewCredentials(users UserStore, cost int) (*Credentials, error) {
	dummy, err := HashPasswordWithCost("not-a-real-password", cost)
	if err != nil {
		return nil, err
	}
	return &Credentials{users: users, cost: cost, dummyHash: dummy}, nil
}

// maxFieldLen matches the width of the username and email columns.
const maxFieldLen = 100

var errInvalidCredentials = apperr.Authentication("Invalid credentials")

// Register creates a user and returns its id. A taken username yields a
// conflict error; the storage unique constraint is the final arbiter.
func (c *Credentials) Register(ctx context.Context, username, email, password string) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	switch {
	case username == "":
		return 0, apperr.Validation("username is required")
	case email == "":
		return 0, apperr.Validation("email is required")
	case password == "":
		return 0, apperr.Validation("password is required")
	case utf8.RuneCountInString(username) > maxFieldLen:
		return 0, apperr.Validation("username must be at most 100 characters")
	case utf8.RuneCountInString(email) > maxFieldLen:
		return 0, apperr.Validation("email must be at most 100 characters")
	}

	// Cheap early answer for the common case.
	if _, err := c.users.GetUserByUsername(ctx, username); err == nil {
		return 0, apperr.Conflict("Username already registered")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return 0, err
	}

	hash, err := HashPasswordWithCost(password, c.cost)
	if err != nil {
		return 0, err
	}
	user, err := c.users.CreateUser(ctx, username, email, hash)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// Authenticate returns the user when password matches. Unknown users and
// wrong passwords produce the same error.
func (c *Credentials) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := c.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			CheckPassword(password, c.dummyHash)
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !c.VerifyPassword(user, password) {
		return nil, errInvalidCredentials
	}
	return user, nil
}

// VerifyPassword reports whether password matches the user's stored hash.
func (c *Credentials) VerifyPassword(user *models.User, password string) bool {
	if user == nil {
		return false
	}
	return CheckPassword(password, user.PasswordHash)
}
