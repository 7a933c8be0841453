package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tripmate/ledger/internal/ledger"
	"github.com/tripmate/ledger/internal/models"
)

// UpsertTrip replaces the trip read model and its participant rows.
func (s *SQLiteStore) UpsertTrip(ctx context.Context, trip *models.Trip) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO trips (id, creator_id, currency) VALUES (?, ?, ?)",
		trip.ID, trip.CreatorID, trip.Currency)
	if err != nil {
		return fmt.Errorf("failed to upsert trip: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM trip_participants WHERE trip_id = ?", trip.ID); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	for _, p := range trip.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO trip_participants (trip_id, user_id, status) VALUES (?, ?, ?)",
			trip.ID, p.UserID, string(p.Status))
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTrip retrieves the trip read model with participants.
func (s *SQLiteStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	tx, err := s.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	trip := &models.Trip{}
	err = tx.QueryRowContext(ctx,
		"SELECT id, creator_id, currency FROM trips WHERE id = ?", tripID,
	).Scan(&trip.ID, &trip.CreatorID, &trip.Currency)
	if err == sql.ErrNoRows {
		return nil, ledger.NotFoundf("trip %s not found", tripID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT user_id, status FROM trip_participants WHERE trip_id = ? ORDER BY user_id", tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := models.Participant{TripID: tripID}
		if err := rows.Scan(&p.UserID, &p.Status); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		trip.Participants = append(trip.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return trip, nil
}
