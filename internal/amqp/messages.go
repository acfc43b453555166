package amqp

import (
	"encoding/json"
	"time"

	"spendlog/internal/core"
)

// ExpenseCreatedMessage announces a newly stored expense to downstream consumers
type ExpenseCreatedMessage struct {
	ID        int64     `json:"id"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	Note      *string   `json:"note"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseCreatedMessage builds the event for a stored expense
func NewExpenseCreatedMessage(e core.Expense) *ExpenseCreatedMessage {
	date := core.NotAvailable
	if e.Date != nil {
		date = *e.Date
	}
	return &ExpenseCreatedMessage{
		ID:        e.ID,
		Amount:    e.Amount,
		Category:  e.Category,
		Note:      e.Note,
		Date:      date,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
