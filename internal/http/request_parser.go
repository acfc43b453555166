package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"spendlog/internal/core"
)

var errMalformedBody = errors.New("request body must be a JSON object")

type addExpenseRequest struct {
	Amount   json.RawMessage `json:"amount"`
	Category *string         `json:"category"`
	Note     *string         `json:"note"`
}

type chatRequest struct {
	Message *string `json:"message"`
}

// decodeJSON reads one JSON object from the body. An empty body decodes to
// the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		return core.Validation("read request body", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if body[0] != '{' {
		return core.Validation("decode request body", errMalformedBody)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return core.Validation("decode request body", err)
	}
	return nil
}

// parseAddExpense turns the request into a NewExpense. amount may be a JSON
// number or a numeric string; null or absent means missing.
func parseAddExpense(w http.ResponseWriter, r *http.Request, maxBytes int64) (core.NewExpense, error) {
	var req addExpenseRequest
	if err := decodeJSON(w, r, maxBytes, &req); err != nil {
		return core.NewExpense{}, err
	}

	amount, err := parseAmountField(req.Amount)
	if err != nil {
		return core.NewExpense{}, core.Validation("parse amount", err)
	}

	e := core.NewExpense{Amount: amount, Note: req.Note}
	if req.Category != nil {
		e.Category = sanitizeInput(*req.Category)
	}
	if e.Note != nil {
		note := sanitizeInput(*e.Note)
		e.Note = &note
	}

	if err := e.Validate(); err != nil {
		return core.NewExpense{}, err
	}
	return e, nil
}

func parseAmountField(raw json.RawMessage) (*decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidAmount, err)
		}
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		d, err := core.ParseAmount(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, s)
		}
		return &d, nil
	}

	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidAmount, raw)
	}
	return &d, nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
