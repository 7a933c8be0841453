// Package trips adapts the stored trip read model to the policy layer's
// TripDirectory port. Trip and participant CRUD stays with the external trip
// service; this is strictly the read side the ledger consumes.
package trips

import (
	"context"

	"github.com/tripmate/ledger/internal/models"
	"github.com/tripmate/ledger/internal/policy"
	"github.com/tripmate/ledger/internal/storage"
)

var _ policy.TripDirectory = (*Directory)(nil)

// Directory answers membership and currency questions from the store.
type Directory struct {
	store storage.Store
}

// New creates a Directory over the given store.
func New(store storage.Store) *Directory {
	return &Directory{store: store}
}

// Trip returns the full trip read model.
func (d *Directory) Trip(ctx context.Context, tripID string) (*models.Trip, error) {
	return d.store.GetTrip(ctx, tripID)
}

// IsAcceptedParticipant reports whether userID is an accepted participant of
// the trip. The creator counts as accepted.
func (d *Directory) IsAcceptedParticipant(ctx context.Context, tripID, userID string) (bool, error) {
	trip, err := d.store.GetTrip(ctx, tripID)
	if err != nil {
		return false, err
	}
	if trip.CreatorID == userID {
		return true, nil
	}
	for _, p := range trip.Participants {
		if p.UserID == userID && p.Status == models.ParticipantAccepted {
			return true, nil
		}
	}
	return false, nil
}

// IsCreator reports whether userID is the trip's owning creator.
func (d *Directory) IsCreator(ctx context.Context, tripID, userID string) (bool, error) {
	trip, err := d.store.GetTrip(ctx, tripID)
	if err != nil {
		return false, err
	}
	return trip.CreatorID == userID, nil
}
