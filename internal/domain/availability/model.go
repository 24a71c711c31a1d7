package availability

import "time"

const (
	StatusAvailable   = "Available"
	StatusUnavailable = "Unavailable"
	StatusUnknown     = "Unknown"
)

const (
	ProviderAttending   = "Attending"
	ProviderDeclined    = "Declined"
	ProviderWaitingList = "Waiting List"
	ProviderUnanswered  = "Unanswered"
)

// Availability is one player's status for one match.
type Availability struct {
	MatchID           int64
	PlayerID          int64
	Status            string
	ProviderStatus    string
	ProviderUpdatedAt *time.Time
	UpdatedAt         time.Time
}
