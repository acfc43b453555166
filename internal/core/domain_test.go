package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewExpenseValidate(t *testing.T) {
	amt := decimal.RequireFromString("25.50")
	huge := decimal.RequireFromString("1e400")
	hugeNegative := decimal.RequireFromString("-1e400")
	hugeExponent := decimal.RequireFromString("1e1000000000")
	good := NewExpense{Amount: &amt, Category: "Food"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		in   NewExpense
		want error
	}{
		{"missing amount", NewExpense{Category: "Food"}, ErrMissingAmount},
		{"missing category", NewExpense{Amount: &amt}, ErrMissingCategory},
		{"blank category", NewExpense{Amount: &amt, Category: "   "}, ErrMissingCategory},
		{"overflowing amount", NewExpense{Amount: &huge, Category: "Food"}, ErrInvalidAmount},
		{"overflowing negative amount", NewExpense{Amount: &hugeNegative, Category: "Food"}, ErrInvalidAmount},
		{"huge exponent", NewExpense{Amount: &hugeExponent, Category: "Food"}, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if KindOf(err) != KindValidation {
				t.Fatalf("expected validation kind, got %v", KindOf(err))
			}
		})
	}
}

func TestNewExpenseValidate_LargeFiniteAmount(t *testing.T) {
	amt := decimal.RequireFromString("1e300")
	if err := (NewExpense{Amount: &amt, Category: "Food"}).Validate(); err != nil {
		t.Fatalf("1e300 fits a float64, got %v", err)
	}
}

func TestAmountFloat(t *testing.T) {
	amt := decimal.RequireFromString("25.50")
	if got := (NewExpense{Amount: &amt}).AmountFloat(); got != 25.5 {
		t.Fatalf("AmountFloat = %v, want 25.5", got)
	}
	if got := (NewExpense{}).AmountFloat(); got != 0 {
		t.Fatalf("AmountFloat of missing amount = %v, want 0", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := FormatTimestamp(time.Date(2025, 3, 7, 9, 5, 1, 0, time.Local))
	if ts != "2025-03-07 09:05:01" {
		t.Fatalf("FormatTimestamp = %q", ts)
	}
}

func TestTimestampsSortLexically(t *testing.T) {
	earlier := FormatTimestamp(time.Date(2024, 12, 31, 23, 59, 59, 0, time.Local))
	later := FormatTimestamp(time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local))
	if !(earlier < later) {
		t.Fatalf("expected %q < %q", earlier, later)
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatal("plain error should have unknown kind")
	}
	wrapped := Storage("insert expense", errors.New("disk I/O error"))
	if KindOf(wrapped) != KindStorage {
		t.Fatalf("expected storage kind")
	}
	if wrapped.Error() != "insert expense: disk I/O error" {
		t.Fatalf("Error() = %q", wrapped.Error())
	}
	if KindRemoteService.String() != "remote_service_error" {
		t.Fatalf("String() = %q", KindRemoteService.String())
	}
}
