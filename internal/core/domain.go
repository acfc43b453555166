package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the fixed-width layout stored in expenses.date. Values in
// this layout sort chronologically under plain string comparison.
const TimestampLayout = "2006-01-02 15:04:05"

// NotAvailable is shown in place of values that are missing from storage.
const NotAvailable = "N/A"

type (
	// Expense is a persisted expense record. Date is nil for legacy rows
	// written before the date column existed.
	Expense struct {
		ID       int64
		Amount   float64
		Category string
		Note     *string
		Date     *string
	}

	// NewExpense is the client-supplied part of an expense. The server
	// assigns the id and the date.
	NewExpense struct {
		Amount   *decimal.Decimal
		Category string
		Note     *string
	}
)

// Validate checks that the required fields are present.
func (n NewExpense) Validate() error {
	if n.Amount == nil {
		return Validation("validate expense", ErrMissingAmount)
	}
	if !fitsFloat64(*n.Amount) {
		return Validation("validate expense", fmt.Errorf("%w: out of range", ErrInvalidAmount))
	}
	if strings.TrimSpace(n.Category) == "" {
		return Validation("validate expense", ErrMissingCategory)
	}
	return nil
}

// maxAmountExponent bounds the decimal exponent before any float conversion,
// which would otherwise expand the full power of ten.
const maxAmountExponent = 400

// fitsFloat64 reports whether d converts to a finite float64, the type of
// the REAL amount column.
func fitsFloat64(d decimal.Decimal) bool {
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return false
	}
	f, _ := d.Float64()
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// AmountFloat returns the amount as stored in the REAL column.
func (n NewExpense) AmountFloat() float64 {
	if n.Amount == nil {
		return 0
	}
	f, _ := n.Amount.Float64()
	return f
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
