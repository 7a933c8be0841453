// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface. It is the default backend: a single file, real
// transactions, no CGO.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/tripmate/ledger/internal/ledger"
	"github.com/tripmate/ledger/internal/models"
	"github.com/tripmate/ledger/internal/money"
	"github.com/tripmate/ledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Serialized access keeps the optimistic version checks honest under
	// concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateExpense persists an expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var adjusts sql.NullString
	if expense.AdjustsExpenseID != "" {
		adjusts = sql.NullString{String: expense.AdjustsExpenseID, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses
		 (id, trip_id, payer_user_id, created_by_user_id, amount_cents, currency,
		  description, type, status, is_locked, adjusts_expense_id, created_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.TripID, expense.PayerID, expense.CreatedBy,
		expense.Amount.Cents, expense.Amount.Currency, expense.Description,
		string(expense.Type), string(expense.Status), boolToInt(expense.Locked),
		adjusts, expense.CreatedAt.UnixNano(), expense.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertSplits(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense with its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	tx, err := s.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	return getExpense(ctx, tx, expenseID)
}

// GetExpenses retrieves the given expenses with splits from one snapshot; any
// missing id is an error.
func (s *SQLiteStore) GetExpenses(ctx context.Context, expenseIDs []string) ([]models.Expense, error) {
	tx, err := s.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	expenses := make([]models.Expense, 0, len(expenseIDs))
	for _, id := range expenseIDs {
		e, err := getExpense(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, nil
}

// UpdateExpense applies a mutation guarded by the optimistic version check
// and replaces the splits atomically.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses
		 SET amount_cents = ?, description = ?, status = ?, is_locked = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		expense.Amount.Cents, expense.Description, string(expense.Status),
		boolToInt(expense.Locked), expense.ID, expense.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM expenses WHERE id = ?", expense.ID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ledger.NotFoundf("expense %s not found", expense.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to check expense existence: %w", err)
		}
		return ledger.Conflictf("expense %s was modified concurrently", expense.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear splits: %w", err)
	}
	if err := insertSplits(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	expense.Version++
	return nil
}

// ListTripExpenses returns all of a trip's expenses with splits, newest
// first.
func (s *SQLiteStore) ListTripExpenses(ctx context.Context, tripID string) ([]models.Expense, error) {
	tx, err := s.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		selectExpense+" WHERE trip_id = ? ORDER BY created_at DESC, id DESC", tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	for i := range expenses {
		if err := loadSplits(ctx, tx, &expenses[i]); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

const selectExpense = `SELECT id, trip_id, payer_user_id, created_by_user_id,
	amount_cents, currency, description, type, status, is_locked,
	adjusts_expense_id, created_at, version FROM expenses`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier covers *sql.DB and *sql.Tx, so read helpers can run inside a
// transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// beginRead opens a read-only transaction. Multi-statement reads run inside
// one so they observe a single consistent snapshot; a row and its splits (or
// a settlement and its members) can never straddle a concurrent commit.
func (s *SQLiteStore) beginRead(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	return tx, nil
}

func getExpense(ctx context.Context, q querier, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(q.QueryRowContext(ctx,
		selectExpense+" WHERE id = ?", expenseID))
	if err == sql.ErrNoRows {
		return nil, ledger.NotFoundf("expense %s not found", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if err := loadSplits(ctx, q, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func scanExpense(row scanner) (*models.Expense, error) {
	var (
		e         models.Expense
		cents     int64
		currency  string
		locked    int
		adjusts   sql.NullString
		createdAt int64
	)
	err := row.Scan(&e.ID, &e.TripID, &e.PayerID, &e.CreatedBy, &cents, &currency,
		&e.Description, &e.Type, &e.Status, &locked, &adjusts, &createdAt, &e.Version)
	if err != nil {
		return nil, err
	}
	e.Amount = money.Money{Cents: cents, Currency: currency}
	e.Locked = locked != 0
	if adjusts.Valid {
		e.AdjustsExpenseID = adjusts.String
	}
	e.CreatedAt = time.Unix(0, createdAt)
	return &e, nil
}

func loadSplits(ctx context.Context, q querier, expense *models.Expense) error {
	rows, err := q.QueryContext(ctx,
		"SELECT user_id, share_cents, weight FROM expense_splits WHERE expense_id = ? ORDER BY position",
		expense.ID)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID string
			cents  int64
			weight int64
		)
		if err := rows.Scan(&userID, &cents, &weight); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		expense.Splits = append(expense.Splits, models.Split{
			ExpenseID: expense.ID,
			UserID:    userID,
			Share:     money.Money{Cents: cents, Currency: expense.Amount.Currency},
			Weight:    weight,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}
	return nil
}

func insertSplits(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i, split := range expense.Splits {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, position, share_cents, weight) VALUES (?, ?, ?, ?, ?)",
			expense.ID, split.UserID, i, split.Share.Cents, split.Weight)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
