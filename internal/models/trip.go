package models

// ParticipantStatus is the invitation state of a trip member.
type ParticipantStatus string

const (
	ParticipantPending  ParticipantStatus = "pending"
	ParticipantAccepted ParticipantStatus = "accepted"
	ParticipantDeclined ParticipantStatus = "declined"
)

// Trip is the read model of the external trip service: just enough to
// authorize ledger commands and tag amounts with the trip currency. Trip
// CRUD lives outside this core; an external sync keeps this model current.
type Trip struct {
	// ID is the trip identifier, assigned by the trip service.
	ID string

	// CreatorID is the owning creator; the only actor who may mark
	// settlements paid or override edit/void permissions.
	CreatorID string

	// Currency is the ISO 4217 code every amount in this trip carries.
	Currency string

	// Participants are the invited members with their invitation status.
	// Only accepted participants may transact against the ledger.
	Participants []Participant
}

// Participant is one invited trip member.
type Participant struct {
	TripID string
	UserID string
	Status ParticipantStatus
}
