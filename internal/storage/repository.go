package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/core"
	"spendlog/internal/log"

	_ "modernc.org/sqlite"
)

const (
	// RecentLimit is how many expenses the recent list shows.
	RecentLimit = 10
	// TrendDays is how many distinct days the spending trend covers.
	TrendDays = 7
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// Option customises a repository.
type Option func(*SQLiteRepository)

// WithClock overrides the clock used to stamp new expenses.
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) { r.now = now }
}

// NewSQLiteRepository opens the database at dbPath and migrates it.
//
// A failed migration is logged and the repository is still returned, so the
// server can start in a degraded state. Only failing to open the file is fatal.
func NewSQLiteRepository(ctx context.Context, dbPath string, logger *log.Logger, opts ...Option) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	// busy_timeout lets concurrent writers wait for the lock instead of failing immediately
	dsn := dbPath + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		logger.ErrorContext(ctx, "Schema migration failed, continuing with existing schema",
			log.FieldOperation, log.OpMigrate,
			log.FieldError, err)
	} else {
		logger.InfoContext(ctx, "Schema is up to date", log.FieldOperation, log.OpMigrate, "db_path", dbPath)
	}

	repo := &SQLiteRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(repo)
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return core.Storage("ping database", err)
	}
	return nil
}

// Insert stores a new expense stamped with the current server time.
func (r *SQLiteRepository) Insert(ctx context.Context, e core.NewExpense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	amount := e.AmountFloat()
	date := core.FormatTimestamp(r.now())

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (amount, category, note, date) VALUES (?, ?, ?, ?)`,
		amount, e.Category, e.Note, date)
	if err != nil {
		return core.Expense{}, core.Storage("insert expense", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, core.Storage("read expense id", err)
	}

	r.logger.DebugContext(ctx, "Expense saved to SQLite",
		log.NewFields().WithExpense(id, amount, e.Category).WithOperation(log.OpCreate).ToSlice()...)

	return core.Expense{
		ID:       id,
		Amount:   amount,
		Category: e.Category,
		Note:     e.Note,
		Date:     &date,
	}, nil
}

// CategoryTotals sums amounts per category.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount) AS total FROM expenses GROUP BY category`)
	if err != nil {
		return nil, core.Storage("query category totals", err)
	}
	defer rows.Close()

	totals := []core.CategoryTotal{}
	for rows.Next() {
		var t core.CategoryTotal
		if err := rows.Scan(&t.Category, &t.Total); err != nil {
			return nil, core.Storage("scan category total", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Storage("iterate category totals", err)
	}
	return totals, nil
}

// RecentExpenses returns the newest expenses first. Rows without a date are
// listed after dated ones and shown with core.NotAvailable.
func (r *SQLiteRepository) RecentExpenses(ctx context.Context, limit int) ([]core.RecentExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, amount, note, COALESCE(date, ?) AS display_date
		FROM expenses
		ORDER BY expenses.date IS NULL, expenses.date DESC, expenses.id DESC
		LIMIT ?`, core.NotAvailable, limit)
	if err != nil {
		return nil, core.Storage("query recent expenses", err)
	}
	defer rows.Close()

	recent := []core.RecentExpense{}
	for rows.Next() {
		var (
			e    core.RecentExpense
			note sql.NullString
		)
		if err := rows.Scan(&e.Category, &e.Amount, &note, &e.Date); err != nil {
			return nil, core.Storage("scan recent expense", err)
		}
		if note.Valid {
			e.Note = &note.String
		}
		recent = append(recent, e)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Storage("iterate recent expenses", err)
	}
	return recent, nil
}

// SpendingTrend returns per-day totals for the most recent days that have
// spending, oldest first.
func (r *SQLiteRepository) SpendingTrend(ctx context.Context, days int) ([]core.DailyTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(date, 1, 10) AS day, SUM(amount) AS total
		FROM expenses
		WHERE date IS NOT NULL
		GROUP BY day
		ORDER BY day DESC
		LIMIT ?`, days)
	if err != nil {
		return nil, core.Storage("query spending trend", err)
	}
	defer rows.Close()

	trend := []core.DailyTotal{}
	for rows.Next() {
		var d core.DailyTotal
		if err := rows.Scan(&d.Day, &d.Total); err != nil {
			return nil, core.Storage("scan daily total", err)
		}
		trend = append(trend, d)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Storage("iterate spending trend", err)
	}

	// selected newest-first, presented oldest-first
	for i, j := 0, len(trend)-1; i < j; i, j = i+1, j-1 {
		trend[i], trend[j] = trend[j], trend[i]
	}
	return trend, nil
}

// Stats computes the dashboard summary. The three reads are independent and
// run concurrently.
func (r *SQLiteRepository) Stats(ctx context.Context) (core.Stats, error) {
	stats := core.Stats{HighestCategory: core.NotAvailable}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := r.db.QueryRowContext(gctx,
			`SELECT COALESCE(SUM(amount), 0) FROM expenses`).Scan(&stats.TotalBalance)
		if err != nil {
			return core.Storage("query total balance", err)
		}
		return nil
	})

	g.Go(func() error {
		err := r.db.QueryRowContext(gctx,
			`SELECT COUNT(*) FROM expenses`).Scan(&stats.TransactionCount)
		if err != nil {
			return core.Storage("query transaction count", err)
		}
		return nil
	})

	g.Go(func() error {
		var category string
		err := r.db.QueryRowContext(gctx,
			`SELECT category FROM expenses ORDER BY amount DESC, id ASC LIMIT 1`).Scan(&category)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return core.Storage("query highest expense", err)
		}
		stats.HighestCategory = category
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.Stats{}, err
	}
	return stats, nil
}

// Snapshot returns every (category, amount) pair in insertion order.
func (r *SQLiteRepository) Snapshot(ctx context.Context) ([]core.CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, amount FROM expenses ORDER BY id`)
	if err != nil {
		return nil, core.Storage("query expense snapshot", err)
	}
	defer rows.Close()

	snapshot := []core.CategoryAmount{}
	for rows.Next() {
		var c core.CategoryAmount
		if err := rows.Scan(&c.Category, &c.Amount); err != nil {
			return nil, core.Storage("scan expense snapshot", err)
		}
		snapshot = append(snapshot, c)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Storage("iterate expense snapshot", err)
	}

	r.logger.DebugContext(ctx, "Expense snapshot loaded", log.FieldCount, len(snapshot))
	return snapshot, nil
}
