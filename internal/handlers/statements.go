package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"expense-ledger/internal/apperr"
	"expense-ledger/internal/auth"
	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// statementView is the wire shape of a ledger entry. Amounts are written as
// JSON numbers with two fractional digits.
type statementView struct {
	Date     models.Date            `json:"date"`
	Category string                 `json:"category"`
	Type     models.TransactionType `json:"type"`
	Amount   json.Number            `json:"amount"`
}

func amountNumber(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func newStatementView(t models.Transaction) statementView {
	return statementView{Date: t.Date, Category: t.Category, Type: t.Type, Amount: amountNumber(t.Amount)}
}

type statementRequest struct {
	Date     *models.Date    `json:"date"`
	Category string          `json:"category"`
	Type     string          `json:"type"`
	Amount   json.RawMessage `json:"amount"`
}

type statementResponse struct {
	Message string        `json:"message"`
	Data    statementView `json:"data"`
}

const statementAdded = "Account statement added successfully"

// Dashboard handles GET /expense/dashboard: the caller's entries in storage
// order.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	txs, err := h.db.ListTransactions(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]statementView, 0, len(txs))
	for _, t := range txs {
		out = append(out, newStatementView(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// AddStatement handles POST /expense/dashboard.
func (h *Handlers) AddStatement(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req statementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Date == nil {
		h.writeError(w, r, apperr.Validation("date is required"))
		return
	}
	if len(req.Amount) == 0 || string(req.Amount) == "null" {
		h.writeError(w, r, apperr.Validation("amount is required"))
		return
	}
	amount, err := models.ParseAmountJSON(req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	typ, err := models.ParseTransactionType(req.Type)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// The token may outlive its user.
	if _, err := h.db.GetUserByID(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	t, err := h.db.CreateTransaction(r.Context(), userID, *req.Date, req.Category, typ, amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statementResponse{Message: statementAdded, Data: newStatementView(*t)})
}

// statementFilter reads the five path segments shared by the edit and delete
// routes. The type is not validated: an unknown type matches nothing.
func statementFilter(r *http.Request) (models.Filter, error) {
	userID, err := strconv.ParseInt(r.PathValue("user_id"), 10, 64)
	if err != nil {
		return models.Filter{}, apperr.Wrap(apperr.KindValidation, "invalid user_id", err)
	}
	date, err := models.ParseDate(r.PathValue("date"))
	if err != nil {
		return models.Filter{}, err
	}
	amount, err := models.ParseAmount(r.PathValue("amount"))
	if err != nil {
		return models.Filter{}, err
	}
	return models.Filter{
		UserID:   userID,
		Date:     date,
		Category: strings.TrimSpace(r.PathValue("category")),
		Type:     models.TransactionType(r.PathValue("type")),
		Amount:   amount,
	}, nil
}

type filterEcho struct {
	UserID   int64                  `json:"user_id"`
	Date     models.Date            `json:"date"`
	Type     models.TransactionType `json:"type"`
	Amount   json.Number            `json:"amount"`
	Category string                 `json:"category"`
}

// EditLookup handles GET /expense/dashboard/statement/edit/... It removes
// every entry matching the path and echoes the filter back, so the client
// can resubmit the edited values through EditRecreate. The two calls are
// not atomic.
func (h *Handlers) EditLookup(w http.ResponseWriter, r *http.Request) {
	f, err := statementFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeOwner(r, f.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := h.db.DeleteMatching(r.Context(), f); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filterEcho{
		UserID:   f.UserID,
		Date:     f.Date,
		Type:     f.Type,
		Amount:   amountNumber(f.Amount),
		Category: f.Category,
	})
}

// EditRecreate handles POST /expense/dashboard/statement/edit/... by
// creating an entry from the path values.
func (h *Handlers) EditRecreate(w http.ResponseWriter, r *http.Request) {
	f, err := statementFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeOwner(r, f.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	typ, err := models.ParseTransactionType(string(f.Type))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	t, err := h.db.CreateTransaction(r.Context(), f.UserID, f.Date, f.Category, typ, f.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statementResponse{Message: statementAdded, Data: newStatementView(*t)})
}

type deleteResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// DeleteStatements handles DELETE /expense/dashboard/statement/delete/...
func (h *Handlers) DeleteStatements(w http.ResponseWriter, r *http.Request) {
	f, err := statementFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeOwner(r, f.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}

	n, err := h.db.DeleteMatching(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{
		Message: fmt.Sprintf("All records for user_id %d have been deleted", f.UserID),
		Deleted: n,
	})
}
