package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"expense-ledger/internal/apperr"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TypeIncome      TransactionType = "Income"
	TypeExpenditure TransactionType = "Expenditure"
)

// ParseTransactionType accepts exactly "Income" or "Expenditure".
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TypeIncome, TypeExpenditure:
		return t, nil
	}
	return "", apperr.Validation("type must be one of 'Income' or 'Expenditure'")
}

// Valid reports whether t is one of the enumerated types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpenditure
}

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, apperr.Wrap(apperr.KindValidation, "invalid date, expected YYYY-MM-DD", err)
	}
	return Date{t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return apperr.Wrap(apperr.KindValidation, "date must be a string", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as YYYY-MM-DD text.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan reads a date column. SQLite hands back text (or a time when the column
// is declared DATE), Postgres hands back a time.Time.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = Date{time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)}
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", s, err)
	}
	*d = Date{t}
	return nil
}

// Amounts are NUMERIC(10,2): at most 8 integer digits and 2 fractional ones.
const (
	maxIntegerDigits = 8
	// maxAmountLen bounds amount text before it is parsed.
	maxAmountLen = 32
)

var (
	maxAmount       = decimal.New(1, maxIntegerDigits)
	errAmountTooBig = apperr.Validation("amount exceeds 8 integer digits")
)

// NormalizeAmount rounds to two fractional digits and rejects values that do
// not fit the storage column. Magnitude is checked from the digit count and
// exponent before any rescaling.
func NormalizeAmount(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsZero() {
		return decimal.Zero, nil
	}
	// |d| lies in [10^(m-1), 10^m).
	m := int64(d.NumDigits()) + int64(d.Exponent())
	if m > maxIntegerDigits {
		return decimal.Decimal{}, errAmountTooBig
	}
	if m < -2 {
		// Below 0.001, rounds to zero.
		return decimal.Zero, nil
	}
	d = d.Round(2)
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Decimal{}, errAmountTooBig
	}
	return d, nil
}

// ParseAmount parses a decimal string and normalizes it.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxAmountLen {
		return decimal.Decimal{}, apperr.Validation("amount is too long")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, apperr.Wrap(apperr.KindValidation, "invalid amount", err)
	}
	return NormalizeAmount(d)
}

// ParseAmountJSON reads an amount given as a JSON number or string.
func ParseAmountJSON(raw []byte) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return ParseAmount(s)
}

// Transaction is a dated ledger entry owned by a user.
type Transaction struct {
	ID       int64           `json:"id"`
	UserID   int64           `json:"user_id"`
	Date     Date            `json:"date"`
	Category string          `json:"category"`
	Type     TransactionType `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
}

// Filter is the exact-match key used to find or delete ledger entries.
type Filter struct {
	UserID   int64
	Date     Date
	Category string
	Type     TransactionType
	Amount   decimal.Decimal
}

// CategoryTotal aggregates one category and type over a period.
type CategoryTotal struct {
	Category string
	Type     TransactionType
	Total    decimal.Decimal
	Count    int
}
