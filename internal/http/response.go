package http

import (
	"encoding/json"
	"net/http"

	"spendlog/internal/core"
	"spendlog/internal/log"
)

type statusBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

type chatBody struct {
	Response string `json:"response"`
}

type recentExpenseBody struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Note     *string `json:"note"`
	Date     string  `json:"date"`
}

type statsBody struct {
	TotalBalance     float64 `json:"total_balance"`
	TransactionCount int64   `json:"transaction_count"`
	HighestCategory  string  `json:"highest_category"`
}

// pair renders as a two element JSON array
type pair [2]any

func categoryPairs(totals []core.CategoryTotal) []pair {
	out := make([]pair, 0, len(totals))
	for _, t := range totals {
		out = append(out, pair{t.Category, t.Total})
	}
	return out
}

func dailyPairs(trend []core.DailyTotal) []pair {
	out := make([]pair, 0, len(trend))
	for _, d := range trend {
		out = append(out, pair{d.Day, d.Total})
	}
	return out
}

func recentBodies(recent []core.RecentExpense) []recentExpenseBody {
	out := make([]recentExpenseBody, 0, len(recent))
	for _, e := range recent {
		out = append(out, recentExpenseBody{
			Category: e.Category,
			Amount:   e.Amount,
			Note:     e.Note,
			Date:     e.Date,
		})
	}
	return out
}

// statusForKind maps an error kind to the HTTP status reported for it
func statusForKind(kind core.ErrorKind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindRemoteService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v before the status is written. A value that cannot be
// encoded is reported as 500 {"error": ...}.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx := r.Context()
		log.FromContext(ctx).WithComponent(log.ComponentHTTP).ErrorContext(ctx, "Response encoding failed",
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, status,
			log.FieldError, err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorBody{Error: "encode response: " + err.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func (s *Server) writeRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusTooManyRequests, statusBody{
		Status:  "error",
		Message: "Rate limit exceeded. Please try again later.",
	})
}
