package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// StatsCategoryItem is one category's share of a month.
type StatsCategoryItem struct {
	Category   string                 `json:"category"`
	Type       models.TransactionType `json:"type"`
	Total      json.Number            `json:"total"`
	Count      int                    `json:"count"`
	Percentage json.Number            `json:"percentage"`
}

// MonthRef identifies a month for navigation.
type MonthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// StatsViewModel is the statistics response for one month.
type StatsViewModel struct {
	Year           int                 `json:"year"`
	Month          int                 `json:"month"`
	MonthName      string              `json:"month_name"`
	Income         json.Number         `json:"income"`
	Expenditure    json.Number         `json:"expenditure"`
	Net            json.Number         `json:"net"`
	Categories     []StatsCategoryItem `json:"categories"`
	Statements     []statementView     `json:"statements"`
	Prev           MonthRef            `json:"prev"`
	Next           MonthRef            `json:"next"`
	IsCurrentMonth bool                `json:"is_current_month"`
}

var hundred = decimal.NewFromInt(100)

// Statistics handles GET /expense/dashboard/statistics. The month comes from
// the year and month query params and defaults to the current one.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	now := h.opts.Now()
	year := now.Year()
	month := int(now.Month())

	if y, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil && y >= 1 && y <= 9999 {
		year = y
	}
	if m, err := strconv.Atoi(r.URL.Query().Get("month")); err == nil && m >= 1 && m <= 12 {
		month = m
	}

	categoryTotals, err := h.db.CategoryTotalsByMonth(r.Context(), userID, year, month)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	txs, err := h.db.TransactionsByMonth(r.Context(), userID, year, month)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Percentages are relative to the total of the same type.
	typeTotals := map[models.TransactionType]decimal.Decimal{}
	for _, ct := range categoryTotals {
		typeTotals[ct.Type] = typeTotals[ct.Type].Add(ct.Total)
	}

	categoryItems := make([]StatsCategoryItem, 0, len(categoryTotals))
	for _, ct := range categoryTotals {
		percentage := decimal.Zero
		if total := typeTotals[ct.Type]; total.IsPositive() {
			percentage = ct.Total.Div(total).Mul(hundred)
		}
		categoryItems = append(categoryItems, StatsCategoryItem{
			Category:   ct.Category,
			Type:       ct.Type,
			Total:      amountNumber(ct.Total),
			Count:      ct.Count,
			Percentage: amountNumber(percentage),
		})
	}

	statements := make([]statementView, 0, len(txs))
	for _, t := range txs {
		statements = append(statements, newStatementView(t))
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	prevDate := first.AddDate(0, -1, 0)
	nextDate := first.AddDate(0, 1, 0)

	income := typeTotals[models.TypeIncome]
	expenditure := typeTotals[models.TypeExpenditure]

	writeJSON(w, http.StatusOK, StatsViewModel{
		Year:           year,
		Month:          month,
		MonthName:      time.Month(month).String(),
		Income:         amountNumber(income),
		Expenditure:    amountNumber(expenditure),
		Net:            amountNumber(income.Sub(expenditure)),
		Categories:     categoryItems,
		Statements:     statements,
		Prev:           MonthRef{Year: prevDate.Year(), Month: int(prevDate.Month())},
		Next:           MonthRef{Year: nextDate.Year(), Month: int(nextDate.Month())},
		IsCurrentMonth: year == now.Year() && month == int(now.Month()),
	})
}
