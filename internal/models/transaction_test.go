package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"expense-ledger/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionType(t *testing.T) {
	for _, s := range []string{"Income", "Expenditure"} {
		typ, err := ParseTransactionType(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(typ))
		assert.True(t, typ.Valid())
	}

	for _, s := range []string{"Savings", "income", "", "EXPENDITURE"} {
		_, err := ParseTransactionType(s)
		assert.ErrorIs(t, err, apperr.ErrValidation, "type %q should be rejected", s)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-05"`), &d))
	assert.Equal(t, NewDate(2024, time.January, 5), d)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-01-05"`, string(out))

	err = json.Unmarshal([]byte(`"05/01/2024"`), &d)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDateScan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan("2024-02-29"))
	assert.Equal(t, "2024-02-29", d.String())

	require.NoError(t, d.Scan([]byte("2023-12-31")))
	assert.Equal(t, "2023-12-31", d.String())

	require.NoError(t, d.Scan(time.Date(2024, 3, 1, 15, 4, 5, 0, time.Local)))
	assert.Equal(t, "2024-03-01", d.String())

	require.NoError(t, d.Scan("2024-03-02T00:00:00Z"))
	assert.Equal(t, "2024-03-02", d.String())

	assert.Error(t, d.Scan(42))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "42.50", want: "42.50"},
		{in: "42.5", want: "42.50"},
		{in: "7", want: "7.00"},
		{in: "0.005", want: "0.01"},
		{in: "-12.345", want: "-12.35"},
		{in: "99999999.99", want: "99999999.99"},
		{in: "100000000", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "0e10000000", want: "0.00"},
		{in: "1e-99999999", want: "0.00"},
		{in: "0.0049", want: "0.00"},
		{in: "1e7", want: "10000000.00"},
		{in: "1e8", wantErr: true},
		{in: "1e10000000", wantErr: true},
		{in: "-1e999999999", wantErr: true},
		{in: strings.Repeat("1", 40), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			start := time.Now()
			got, err := ParseAmount(tt.in)
			assert.Less(t, time.Since(start), 100*time.Millisecond)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				assert.Less(t, len(err.Error()), 100)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestParseAmountJSON(t *testing.T) {
	for _, in := range []string{`42.5`, `"42.50"`, ` 42.50 `} {
		got, err := ParseAmountJSON([]byte(in))
		require.NoError(t, err, in)
		assert.Equal(t, "42.50", got.StringFixed(2))
	}

	_, err := ParseAmountJSON([]byte(`1e10000000`))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = ParseAmountJSON([]byte(`true`))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestNormalizeAmount_LargeExponent(t *testing.T) {
	_, err := NormalizeAmount(decimal.New(1, 10000000))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := NormalizeAmount(decimal.New(5, -3))
	require.NoError(t, err)
	assert.Equal(t, "0.01", got.StringFixed(2))
}

