package services

import (
	"context"
	"errors"
	"fmt"

	"spendlog/internal/core"
	"spendlog/internal/log"
	"spendlog/internal/storage"
)

// ExpenseStore is the persistence the service needs
type ExpenseStore interface {
	Insert(ctx context.Context, e core.NewExpense) (core.Expense, error)
	CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error)
	RecentExpenses(ctx context.Context, limit int) ([]core.RecentExpense, error)
	SpendingTrend(ctx context.Context, days int) ([]core.DailyTotal, error)
	Stats(ctx context.Context) (core.Stats, error)
	Snapshot(ctx context.Context) ([]core.CategoryAmount, error)
	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher announces stored expenses. Optional.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
	Close() error
}

// ExpenseService orchestrates expense operations across SQLite and AMQP
type ExpenseService struct {
	store     ExpenseStore
	publisher EventPublisher
	logger    *log.Logger

	recentLimit int
	trendDays   int
}

// NewExpenseService wires a store and an optional publisher. Pass a nil
// publisher to run without events.
func NewExpenseService(store ExpenseStore, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExpenseService{
		store:       store,
		publisher:   publisher,
		logger:      logger.WithComponent(log.ComponentExpense),
		recentLimit: storage.RecentLimit,
		trendDays:   storage.TrendDays,
	}
}

// CreateExpense saves an expense locally and publishes an expense.created event
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.NewExpense) (core.Expense, error) {
	saved, err := s.store.Insert(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}

	if s.publisher == nil {
		return saved, nil
	}
	if err := s.publisher.PublishExpenseCreated(ctx, saved); err != nil {
		// the expense is stored; the event is best-effort
		s.logger.WarnContext(ctx, "Failed to publish expense created event",
			log.FieldExpenseID, saved.ID,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
	return saved, nil
}

func (s *ExpenseService) CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error) {
	return s.store.CategoryTotals(ctx)
}

func (s *ExpenseService) RecentExpenses(ctx context.Context) ([]core.RecentExpense, error) {
	return s.store.RecentExpenses(ctx, s.recentLimit)
}

func (s *ExpenseService) SpendingTrend(ctx context.Context) ([]core.DailyTotal, error) {
	return s.store.SpendingTrend(ctx, s.trendDays)
}

func (s *ExpenseService) Stats(ctx context.Context) (core.Stats, error) {
	return s.store.Stats(ctx)
}

// Snapshot returns the data the advisor is briefed with
func (s *ExpenseService) Snapshot(ctx context.Context) ([]core.CategoryAmount, error) {
	return s.store.Snapshot(ctx)
}

// Ready reports whether the store can serve requests
func (s *ExpenseService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close closes both storage and AMQP connections
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
