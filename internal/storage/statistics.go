package storage

import (
	"context"
	"sort"
	"time"

	"expense-ledger/internal/models"
)

func monthBounds(year, month int) (models.Date, models.Date) {
	start := models.NewDate(year, time.Month(month), 1)
	return start, models.Date{Time: start.AddDate(0, 1, 0)}
}

// TransactionsByMonth returns userID's entries dated within the given month,
// latest date first.
func (db *DB) TransactionsByMonth(ctx context.Context, userID int64, year, month int) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start, end := monthBounds(year, month)
	rows, err := db.conn.QueryContext(ctx,
		db.q(`SELECT `+transactionColumns+` FROM transactions
			WHERE user_id = ? AND date >= ? AND date < ?
			ORDER BY date DESC, id DESC`),
		userID, start.String(), end.String(),
	)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

// CategoryTotalsByMonth sums userID's entries per category and type for the
// given month. Sums are computed in decimal, not by the database, so SQLite's
// text amounts stay exact. Results are ordered by type, then largest total.
func (db *DB) CategoryTotalsByMonth(ctx context.Context, userID int64, year, month int) ([]models.CategoryTotal, error) {
	txs, err := db.TransactionsByMonth(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}

	type key struct {
		category string
		typ      models.TransactionType
	}
	byKey := map[key]*models.CategoryTotal{}
	for _, t := range txs {
		k := key{t.Category, t.Type}
		ct, ok := byKey[k]
		if !ok {
			ct = &models.CategoryTotal{Category: t.Category, Type: t.Type}
			byKey[k] = ct
		}
		ct.Total = ct.Total.Add(t.Amount)
		ct.Count++
	}

	out := make([]models.CategoryTotal, 0, len(byKey))
	for _, ct := range byKey {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}
