package storage

import (
	"context"
	"database/sql"
	"strings"
	"unicode/utf8"

	"expense-ledger/internal/apperr"
	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

const maxCategoryLen = 50

var transactionConstraintMessages = map[constraint]string{
	checkViolation:      "type must be one of 'Income' or 'Expenditure'",
	foreignKeyViolation: "User not found",
	valueTooLong:        "category must be at most 50 characters",
}

var errNoRecords = apperr.NotFound("No records found for the given user_id")

const transactionColumns = `id, user_id, date, category, type, amount`

// validateEntry checks the fields the schema constrains and returns the
// amount normalized to two decimals.
func validateEntry(category string, typ models.TransactionType, amount decimal.Decimal) (decimal.Decimal, error) {
	if !typ.Valid() {
		return decimal.Decimal{}, apperr.Validation("type must be one of 'Income' or 'Expenditure'")
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return decimal.Decimal{}, apperr.Validation("category must be at most 50 characters")
	}
	return models.NormalizeAmount(amount)
}

// CreateTransaction inserts a ledger entry for userID.
func (db *DB) CreateTransaction(ctx context.Context, userID int64, date models.Date, category string, typ models.TransactionType, amount decimal.Decimal) (*models.Transaction, error) {
	category = strings.TrimSpace(category)
	amount, err := validateEntry(category, typ, amount)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	t := &models.Transaction{UserID: userID, Date: date, Category: category, Type: typ, Amount: amount}
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			db.q(`INSERT INTO transactions (user_id, date, category, type, amount) VALUES (?, ?, ?, ?, ?) RETURNING id`),
			userID, date.String(), category, string(typ), amount.StringFixed(2),
		).Scan(&t.ID)
	})
	if err != nil {
		return nil, classify(err, transactionConstraintMessages)
	}
	return t, nil
}

// ListTransactions returns every entry owned by userID in storage order.
func (db *DB) ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		db.q(`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY id`),
		userID,
	)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

// FindMatching returns entries equal to f on all five fields.
func (db *DB) FindMatching(ctx context.Context, f models.Filter) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		db.q(`SELECT `+transactionColumns+` FROM transactions
			WHERE user_id = ? AND date = ? AND category = ? AND type = ? AND amount = ?
			ORDER BY id`),
		filterArgs(f)...,
	)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

// DeleteMatching removes every entry equal to f and returns how many were
// removed. Zero matches is a not-found error and deletes nothing.
func (db *DB) DeleteMatching(ctx context.Context, f models.Filter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			db.q(`DELETE FROM transactions
				WHERE user_id = ? AND date = ? AND category = ? AND type = ? AND amount = ?`),
			filterArgs(f)...,
		)
		if err != nil {
			return err
		}
		if n, err = res.RowsAffected(); err != nil {
			return err
		}
		if n == 0 {
			return errNoRecords
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func filterArgs(f models.Filter) []any {
	return []any{f.UserID, f.Date.String(), strings.TrimSpace(f.Category), string(f.Type), f.Amount.Round(2).StringFixed(2)}
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var typ string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Date, &t.Category, &typ, &t.Amount); err != nil {
			return nil, err
		}
		t.Type = models.TransactionType(typ)
		out = append(out, t)
	}
	return out, rows.Err()
}
