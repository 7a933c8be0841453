package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tripmate/ledger/internal/ledger"
	"github.com/tripmate/ledger/internal/models"
)

// CreateSettlement persists a PENDING settlement, re-checking each member's
// eligibility inside the transaction. An expense voided or locked between
// the request-time check and this call aborts the whole creation.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, expenseID := range settlement.ExpenseIDs {
		var (
			status string
			locked int
		)
		err := tx.QueryRowContext(ctx,
			"SELECT status, is_locked FROM expenses WHERE id = ?", expenseID,
		).Scan(&status, &locked)
		if err == sql.ErrNoRows {
			return ledger.NotFoundf("expense %s not found", expenseID)
		}
		if err != nil {
			return fmt.Errorf("failed to check expense %s: %w", expenseID, err)
		}
		if models.ExpenseStatus(status) != models.StatusActive || locked != 0 {
			return ledger.Ineligiblef("expense %s is not eligible for settlement", expenseID)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settlements (id, trip_id, status, created_by_user_id, created_at, paid_at)
		 VALUES (?, ?, ?, ?, ?, NULL)`,
		settlement.ID, settlement.TripID, string(settlement.Status),
		settlement.CreatedBy, settlement.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	for i, expenseID := range settlement.ExpenseIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO settlement_expenses (settlement_id, expense_id, position) VALUES (?, ?, ?)",
			settlement.ID, expenseID, i)
		if err != nil {
			return fmt.Errorf("failed to insert settlement member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSettlement retrieves a settlement with its member expense ids.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	tx, err := s.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	settlement, err := scanSettlement(tx.QueryRowContext(ctx,
		selectSettlement+" WHERE id = ?", settlementID))
	if err == sql.ErrNoRows {
		return nil, ledger.NotFoundf("settlement %s not found", settlementID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	if err := loadMembers(ctx, tx, settlement); err != nil {
		return nil, err
	}
	return settlement, nil
}

// MarkSettlementPaid flips the settlement to PAID and locks every member
// expense in a single transaction. Calling it on a PAID settlement returns
// KindAlreadyPaid and changes nothing.
func (s *SQLiteStore) MarkSettlementPaid(ctx context.Context, settlementID string, paidAt time.Time) (*models.Settlement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	settlement, err := scanSettlement(tx.QueryRowContext(ctx,
		selectSettlement+" WHERE id = ?", settlementID))
	if err == sql.ErrNoRows {
		return nil, ledger.NotFoundf("settlement %s not found", settlementID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	if settlement.Status == models.SettlementPaid {
		return nil, ledger.AlreadyPaidf("settlement %s is already paid", settlementID)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE settlements SET status = ?, paid_at = ? WHERE id = ?",
		string(models.SettlementPaid), paidAt.UnixNano(), settlementID,
	); err != nil {
		return nil, fmt.Errorf("failed to update settlement: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE expenses SET is_locked = 1, version = version + 1
		 WHERE id IN (SELECT expense_id FROM settlement_expenses WHERE settlement_id = ?)`,
		settlementID,
	); err != nil {
		return nil, fmt.Errorf("failed to lock member expenses: %w", err)
	}

	if err := loadMembers(ctx, tx, settlement); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	settlement.Status = models.SettlementPaid
	settlement.PaidAt = &paidAt
	return settlement, nil
}

// ListTripSettlements returns a trip's settlements, newest first.
func (s *SQLiteStore) ListTripSettlements(ctx context.Context, tripID string) ([]models.Settlement, error) {
	tx, err := s.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		selectSettlement+" WHERE trip_id = ? ORDER BY created_at DESC, id DESC", tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	rows.Close()

	for i := range settlements {
		if err := loadMembers(ctx, tx, &settlements[i]); err != nil {
			return nil, err
		}
	}
	return settlements, nil
}

const selectSettlement = `SELECT id, trip_id, status, created_by_user_id, created_at, paid_at FROM settlements`

func scanSettlement(row scanner) (*models.Settlement, error) {
	var (
		st        models.Settlement
		createdAt int64
		paidAt    sql.NullInt64
	)
	err := row.Scan(&st.ID, &st.TripID, &st.Status, &st.CreatedBy, &createdAt, &paidAt)
	if err != nil {
		return nil, err
	}
	st.CreatedAt = time.Unix(0, createdAt)
	if paidAt.Valid {
		t := time.Unix(0, paidAt.Int64)
		st.PaidAt = &t
	}
	return &st, nil
}

func loadMembers(ctx context.Context, q querier, settlement *models.Settlement) error {
	rows, err := q.QueryContext(ctx,
		"SELECT expense_id FROM settlement_expenses WHERE settlement_id = ? ORDER BY position",
		settlement.ID)
	if err != nil {
		return fmt.Errorf("failed to get settlement members: %w", err)
	}
	defer rows.Close()

	settlement.ExpenseIDs = nil
	for rows.Next() {
		var expenseID string
		if err := rows.Scan(&expenseID); err != nil {
			return fmt.Errorf("failed to scan settlement member: %w", err)
		}
		settlement.ExpenseIDs = append(settlement.ExpenseIDs, expenseID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate settlement members: %w", err)
	}
	return nil
}
