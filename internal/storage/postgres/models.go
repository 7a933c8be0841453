package postgres

import (
	"time"

	"github.com/tripmate/ledger/internal/models"
	"github.com/tripmate/ledger/internal/money"
)

// Row types mirror the domain records with gorm tags. Conversion happens at
// this boundary only; the rest of the ledger never sees gorm.

type tripRow struct {
	ID        string `gorm:"primaryKey"`
	CreatorID string `gorm:"not null"`
	Currency  string `gorm:"not null;size:3"`
}

func (tripRow) TableName() string { return "trips" }

type participantRow struct {
	TripID string `gorm:"primaryKey"`
	UserID string `gorm:"primaryKey"`
	Status string `gorm:"not null;size:16"`
}

func (participantRow) TableName() string { return "trip_participants" }

type expenseRow struct {
	ID               string `gorm:"primaryKey"`
	TripID           string `gorm:"index;not null"`
	PayerUserID      string `gorm:"not null"`
	CreatedByUserID  string `gorm:"not null"`
	AmountCents      int64  `gorm:"not null"`
	Currency         string `gorm:"not null;size:3"`
	Description      string
	Type             string `gorm:"not null;size:16"`
	Status           string `gorm:"not null;size:16"`
	IsLocked         bool   `gorm:"not null;default:false"`
	AdjustsExpenseID *string
	CreatedAt        time.Time `gorm:"not null"`
	Version          int64     `gorm:"not null"`
}

func (expenseRow) TableName() string { return "expenses" }

type splitRow struct {
	ExpenseID  string `gorm:"primaryKey"`
	UserID     string `gorm:"primaryKey"`
	Position   int    `gorm:"not null"`
	ShareCents int64  `gorm:"not null"`
	Weight     int64  `gorm:"not null;default:0"`
}

func (splitRow) TableName() string { return "expense_splits" }

type settlementRow struct {
	ID              string     `gorm:"primaryKey"`
	TripID          string     `gorm:"index;not null"`
	Status          string     `gorm:"not null;size:16"`
	CreatedByUserID string     `gorm:"not null"`
	CreatedAt       time.Time  `gorm:"not null"`
	PaidAt          *time.Time
}

func (settlementRow) TableName() string { return "settlements" }

type settlementExpenseRow struct {
	SettlementID string `gorm:"primaryKey"`
	ExpenseID    string `gorm:"primaryKey"`
	Position     int    `gorm:"not null"`
}

func (settlementExpenseRow) TableName() string { return "settlement_expenses" }

func toExpenseRow(e *models.Expense) expenseRow {
	row := expenseRow{
		ID:              e.ID,
		TripID:          e.TripID,
		PayerUserID:     e.PayerID,
		CreatedByUserID: e.CreatedBy,
		AmountCents:     e.Amount.Cents,
		Currency:        e.Amount.Currency,
		Description:     e.Description,
		Type:            string(e.Type),
		Status:          string(e.Status),
		IsLocked:        e.Locked,
		CreatedAt:       e.CreatedAt,
		Version:         e.Version,
	}
	if e.AdjustsExpenseID != "" {
		id := e.AdjustsExpenseID
		row.AdjustsExpenseID = &id
	}
	return row
}

func fromExpenseRow(row expenseRow, splits []splitRow) models.Expense {
	e := models.Expense{
		ID:          row.ID,
		TripID:      row.TripID,
		PayerID:     row.PayerUserID,
		CreatedBy:   row.CreatedByUserID,
		Amount:      money.Money{Cents: row.AmountCents, Currency: row.Currency},
		Description: row.Description,
		Type:        models.ExpenseType(row.Type),
		Status:      models.ExpenseStatus(row.Status),
		Locked:      row.IsLocked,
		CreatedAt:   row.CreatedAt,
		Version:     row.Version,
	}
	if row.AdjustsExpenseID != nil {
		e.AdjustsExpenseID = *row.AdjustsExpenseID
	}
	for _, s := range splits {
		e.Splits = append(e.Splits, models.Split{
			ExpenseID: s.ExpenseID,
			UserID:    s.UserID,
			Share:     money.Money{Cents: s.ShareCents, Currency: row.Currency},
			Weight:    s.Weight,
		})
	}
	return e
}

func toSplitRows(e *models.Expense) []splitRow {
	rows := make([]splitRow, len(e.Splits))
	for i, s := range e.Splits {
		rows[i] = splitRow{
			ExpenseID:  e.ID,
			UserID:     s.UserID,
			Position:   i,
			ShareCents: s.Share.Cents,
			Weight:     s.Weight,
		}
	}
	return rows
}

func fromSettlementRow(row settlementRow, members []settlementExpenseRow) models.Settlement {
	st := models.Settlement{
		ID:        row.ID,
		TripID:    row.TripID,
		Status:    models.SettlementStatus(row.Status),
		CreatedBy: row.CreatedByUserID,
		CreatedAt: row.CreatedAt,
		PaidAt:    row.PaidAt,
	}
	for _, m := range members {
		st.ExpenseIDs = append(st.ExpenseIDs, m.ExpenseID)
	}
	return st
}
