package advisor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"spendlog/internal/core"
)

const (
	// Greeting is returned by every successful Initialize.
	Greeting = "Hello! I've analyzed your expenses. How can I help you save money today?"
	// Acknowledgment is the canned model turn that follows the brief.
	Acknowledgment = "Understood. I am ready to act as your Financial Advisor based on this data."
	// NotInitializedReply is returned when a message arrives before Initialize.
	NotInitializedReply = "Please initialize the chat first."

	errorReplyPrefix = "I encountered an error: "
)

const briefTemplate = `You are an AI Financial Advisor. You are chatting with a user about their personal expenses.
Current Expenses Data:
{expenses}
Your Goal:
1. Answer questions about their spending.
2. Provide actionable money-saving advice.
3. Be friendly, motivating, and professional.
4. Remember the context of the conversation.
Keep responses concise (under 2-3 sentences) unless asked for a detailed breakdown.`

// Brief renders the advisor instruction with the snapshot embedded in it.
func Brief(snapshot []core.CategoryAmount) string {
	return strings.Replace(briefTemplate, "{expenses}", FormatSnapshot(snapshot), 1)
}

// FormatSnapshot renders pairs as [['Food', 12.5], ['Rent', 900.0]].
func FormatSnapshot(snapshot []core.CategoryAmount) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, p := range snapshot {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		b.WriteString(quoteCategory(p.Category))
		b.WriteString(", ")
		b.WriteString(formatAmount(p.Amount))
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// quoteCategory renders s as a quoted literal for the snapshot list. It
// uses single quotes unless s contains a single quote and no double quote.
func quoteCategory(s string) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}

func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ErrorReply is the chat text shown for a failed exchange. The operation
// prefix of a *core.Error is left out.
func ErrorReply(err error) string {
	var e *core.Error
	if errors.As(err, &e) && e.Err != nil {
		err = e.Err
	}
	return errorReplyPrefix + err.Error()
}
