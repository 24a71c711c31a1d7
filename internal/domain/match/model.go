package match

import (
	"strings"
	"time"
)

const (
	SourceImported = "Imported"
	SourceManual   = "Manual"
)

// Match is a fixture scoped to one team season, unique by (TeamSeasonID, Name).
type Match struct {
	ID                  int64
	TeamSeasonID        int64
	Name                string
	OpponentName        string
	Date                *time.Time
	HomeAway            string
	IsCancelled         bool
	KickoffTime         string
	MeetTime            string
	Location            string
	FormatID            *int64
	Source              string
	SheetCol            string
	SpondEventID        string
	SpondAvailabilityID string
	TeamSheetTitle      string
	Notes               string
	IsManual            bool
}

func (m Match) IsHome() bool {
	switch strings.ToLower(strings.TrimSpace(m.HomeAway)) {
	case "home", "h":
		return true
	default:
		return false
	}
}

// ProviderEventID is the availability provider event used for this match.
func (m Match) ProviderEventID() string {
	if id := strings.TrimSpace(m.SpondAvailabilityID); id != "" {
		return id
	}
	return strings.TrimSpace(m.SpondEventID)
}

// SheetDetails are values a lineup sync reads from the match worksheet.
// Empty strings leave the stored value untouched.
type SheetDetails struct {
	FormatID       *int64
	KickoffTime    string
	MeetTime       string
	Location       string
	TeamSheetTitle string
}
