package http

import (
	"net/http"

	"spendlog/internal/core"
	"spendlog/internal/log"
)

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentExpense)

	e, err := parseAddExpense(w, r, s.maxBodyBytes)
	if err != nil {
		s.writeExpenseError(w, r, err)
		return
	}

	saved, err := s.expenses.CreateExpense(ctx, e)
	if err != nil {
		s.writeExpenseError(w, r, err)
		return
	}

	logger.InfoContext(ctx, "Expense created",
		log.NewFields().WithExpense(saved.ID, saved.Amount, saved.Category).WithOperation(log.OpCreate).ToSlice()...)

	writeJSON(w, r, http.StatusOK, statusBody{Status: "success"})
}

func (s *Server) writeExpenseError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status := statusForKind(kind)

	level := log.FromContext(r.Context()).WithComponent(log.ComponentExpense)
	fields := log.NewFields().WithOperation(log.OpCreate).WithErrorType(kind.String()).WithError(err).ToSlice()
	if status >= http.StatusInternalServerError {
		level.ErrorContext(r.Context(), "Expense not saved", fields...)
	} else {
		level.WarnContext(r.Context(), "Expense rejected", fields...)
	}

	writeJSON(w, r, status, statusBody{Status: "error", Message: err.Error()})
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.expenses.CategoryTotals(r.Context())
	if err != nil {
		s.writeReadError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, categoryPairs(totals))
}

func (s *Server) handleRecentExpenses(w http.ResponseWriter, r *http.Request) {
	recent, err := s.expenses.RecentExpenses(r.Context())
	if err != nil {
		s.writeReadError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, recentBodies(recent))
}

func (s *Server) handleSpendingTrend(w http.ResponseWriter, r *http.Request) {
	trend, err := s.expenses.SpendingTrend(r.Context())
	if err != nil {
		s.writeReadError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dailyPairs(trend))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.expenses.Stats(r.Context())
	if err != nil {
		s.writeReadError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, statsBody{
		TotalBalance:     stats.TotalBalance,
		TransactionCount: stats.TransactionCount,
		HighestCategory:  stats.HighestCategory,
	})
}

// writeReadError reports a failed read as 500 {"error": msg}
func (s *Server) writeReadError(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContext(r.Context()).WithComponent(log.ComponentExpense).ErrorContext(r.Context(), "Expense query failed",
		log.NewFields().WithOperation(log.OpRead).WithErrorType(core.KindOf(err).String()).WithError(err).ToSlice()...)
	writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: err.Error()})
}
