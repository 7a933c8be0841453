// Package postgres provides a gorm/PostgreSQL implementation of
// storage.Store for deployments that already run Postgres. Atomicity comes
// from db.Transaction; the optimistic version check uses a guarded UPDATE.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/tripmate/ledger/internal/ledger"
	"github.com/tripmate/ledger/internal/models"
	"github.com/tripmate/ledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on top of gorm.
type Store struct {
	db *gorm.DB
}

// New connects to the database and auto-migrates the schema.
func New(databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&tripRow{},
		&participantRow{},
		&expenseRow{},
		&splitRow{},
		&settlementRow{},
		&settlementExpenseRow{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toExpenseRow(expense)
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		if rows := toSplitRows(expense); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to insert splits: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	var result models.Expense
	err := s.readTx(ctx, func(tx *gorm.DB) error {
		e, err := getExpense(tx, expenseID)
		if err != nil {
			return err
		}
		result = *e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Store) GetExpenses(ctx context.Context, expenseIDs []string) ([]models.Expense, error) {
	expenses := make([]models.Expense, 0, len(expenseIDs))
	err := s.readTx(ctx, func(tx *gorm.DB) error {
		for _, id := range expenseIDs {
			e, err := getExpense(tx, id)
			if err != nil {
				return err
			}
			expenses = append(expenses, *e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&expenseRow{}).
			Where("id = ? AND version = ?", expense.ID, expense.Version).
			Updates(map[string]any{
				"amount_cents": expense.Amount.Cents,
				"description":  expense.Description,
				"status":       string(expense.Status),
				"is_locked":    expense.Locked,
				"version":      expense.Version + 1,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update expense: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&expenseRow{}).Where("id = ?", expense.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check expense existence: %w", err)
			}
			if count == 0 {
				return ledger.NotFoundf("expense %s not found", expense.ID)
			}
			return ledger.Conflictf("expense %s was modified concurrently", expense.ID)
		}

		if err := tx.Where("expense_id = ?", expense.ID).Delete(&splitRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear splits: %w", err)
		}
		if rows := toSplitRows(expense); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to insert splits: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	expense.Version++
	return nil
}

func (s *Store) ListTripExpenses(ctx context.Context, tripID string) ([]models.Expense, error) {
	var expenses []models.Expense
	err := s.readTx(ctx, func(tx *gorm.DB) error {
		var rows []expenseRow
		err := tx.Where("trip_id = ?", tripID).
			Order("created_at DESC, id DESC").
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to list expenses: %w", err)
		}

		expenses = make([]models.Expense, 0, len(rows))
		for _, row := range rows {
			splits, err := splitsFor(tx, row.ID)
			if err != nil {
				return err
			}
			expenses = append(expenses, fromExpenseRow(row, splits))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-check eligibility inside the transaction with row locks, so a
		// concurrent void or lock aborts the whole creation.
		for _, expenseID := range settlement.ExpenseIDs {
			var row expenseRow
			err := tx.Clauses(forUpdate()).First(&row, "id = ?", expenseID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.NotFoundf("expense %s not found", expenseID)
			}
			if err != nil {
				return fmt.Errorf("failed to check expense %s: %w", expenseID, err)
			}
			if models.ExpenseStatus(row.Status) != models.StatusActive || row.IsLocked {
				return ledger.Ineligiblef("expense %s is not eligible for settlement", expenseID)
			}
		}

		row := settlementRow{
			ID:              settlement.ID,
			TripID:          settlement.TripID,
			Status:          string(settlement.Status),
			CreatedByUserID: settlement.CreatedBy,
			CreatedAt:       settlement.CreatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
		members := make([]settlementExpenseRow, len(settlement.ExpenseIDs))
		for i, expenseID := range settlement.ExpenseIDs {
			members[i] = settlementExpenseRow{
				SettlementID: settlement.ID,
				ExpenseID:    expenseID,
				Position:     i,
			}
		}
		if err := tx.Create(&members).Error; err != nil {
			return fmt.Errorf("failed to insert settlement members: %w", err)
		}
		return nil
	})
}

func (s *Store) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	var result models.Settlement
	err := s.readTx(ctx, func(tx *gorm.DB) error {
		var row settlementRow
		err := tx.First(&row, "id = ?", settlementID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.NotFoundf("settlement %s not found", settlementID)
		}
		if err != nil {
			return fmt.Errorf("failed to get settlement: %w", err)
		}

		members, err := membersFor(tx, settlementID)
		if err != nil {
			return err
		}
		result = fromSettlementRow(row, members)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Store) MarkSettlementPaid(ctx context.Context, settlementID string, paidAt time.Time) (*models.Settlement, error) {
	var result models.Settlement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row settlementRow
		err := tx.Clauses(forUpdate()).First(&row, "id = ?", settlementID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.NotFoundf("settlement %s not found", settlementID)
		}
		if err != nil {
			return fmt.Errorf("failed to get settlement: %w", err)
		}
		if models.SettlementStatus(row.Status) == models.SettlementPaid {
			return ledger.AlreadyPaidf("settlement %s is already paid", settlementID)
		}

		if err := tx.Model(&settlementRow{}).Where("id = ?", settlementID).
			Updates(map[string]any{
				"status":  string(models.SettlementPaid),
				"paid_at": paidAt,
			}).Error; err != nil {
			return fmt.Errorf("failed to update settlement: %w", err)
		}

		if err := tx.Model(&expenseRow{}).
			Where("id IN (?)", tx.Model(&settlementExpenseRow{}).
				Select("expense_id").Where("settlement_id = ?", settlementID)).
			Updates(map[string]any{
				"is_locked": true,
				"version":   gorm.Expr("version + 1"),
			}).Error; err != nil {
			return fmt.Errorf("failed to lock member expenses: %w", err)
		}

		members, err := membersFor(tx, settlementID)
		if err != nil {
			return err
		}
		row.Status = string(models.SettlementPaid)
		row.PaidAt = &paidAt
		result = fromSettlementRow(row, members)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Store) ListTripSettlements(ctx context.Context, tripID string) ([]models.Settlement, error) {
	var settlements []models.Settlement
	err := s.readTx(ctx, func(tx *gorm.DB) error {
		var rows []settlementRow
		err := tx.Where("trip_id = ?", tripID).
			Order("created_at DESC, id DESC").
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to list settlements: %w", err)
		}

		settlements = make([]models.Settlement, 0, len(rows))
		for _, row := range rows {
			members, err := membersFor(tx, row.ID)
			if err != nil {
				return err
			}
			settlements = append(settlements, fromSettlementRow(row, members))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlements, nil
}

func (s *Store) UpsertTrip(ctx context.Context, trip *models.Trip) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := tripRow{ID: trip.ID, CreatorID: trip.CreatorID, Currency: trip.Currency}
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to upsert trip: %w", err)
		}
		if err := tx.Where("trip_id = ?", trip.ID).Delete(&participantRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear participants: %w", err)
		}
		if len(trip.Participants) == 0 {
			return nil
		}
		rows := make([]participantRow, len(trip.Participants))
		for i, p := range trip.Participants {
			rows[i] = participantRow{TripID: trip.ID, UserID: p.UserID, Status: string(p.Status)}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert participants: %w", err)
		}
		return nil
	})
}

func (s *Store) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	var trip *models.Trip
	err := s.readTx(ctx, func(tx *gorm.DB) error {
		var row tripRow
		err := tx.First(&row, "id = ?", tripID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.NotFoundf("trip %s not found", tripID)
		}
		if err != nil {
			return fmt.Errorf("failed to get trip: %w", err)
		}

		var participants []participantRow
		if err := tx.Where("trip_id = ?", tripID).
			Order("user_id").
			Find(&participants).Error; err != nil {
			return fmt.Errorf("failed to get participants: %w", err)
		}

		trip = &models.Trip{ID: row.ID, CreatorID: row.CreatorID, Currency: row.Currency}
		for _, p := range participants {
			trip.Participants = append(trip.Participants, models.Participant{
				TripID: p.TripID,
				UserID: p.UserID,
				Status: models.ParticipantStatus(p.Status),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// readTx runs fn inside a read-only transaction so multi-query reads observe
// one consistent snapshot. Without it a reader could see an updated amount
// paired with the prior splits, or a settlement with only some members
// locked.
func (s *Store) readTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{ReadOnly: true})
}

func getExpense(tx *gorm.DB, expenseID string) (*models.Expense, error) {
	var row expenseRow
	err := tx.First(&row, "id = ?", expenseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ledger.NotFoundf("expense %s not found", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	splits, err := splitsFor(tx, expenseID)
	if err != nil {
		return nil, err
	}
	e := fromExpenseRow(row, splits)
	return &e, nil
}

func splitsFor(tx *gorm.DB, expenseID string) ([]splitRow, error) {
	var splits []splitRow
	err := tx.Where("expense_id = ?", expenseID).
		Order("position").
		Find(&splits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	return splits, nil
}

func membersFor(tx *gorm.DB, settlementID string) ([]settlementExpenseRow, error) {
	var members []settlementExpenseRow
	err := tx.Where("settlement_id = ?", settlementID).
		Order("position").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement members: %w", err)
	}
	return members, nil
}

// forUpdate takes a row lock so eligibility checks and the MarkPaid read
// hold until the transaction commits.
func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}
