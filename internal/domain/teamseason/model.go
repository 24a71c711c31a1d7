package teamseason

import "strings"

const (
	ScoringStandard  = "standard"
	ScoringTriesOnly = "tries_only"
)

// TeamSeason is one sync scope: a team, a season and the spreadsheet that
// holds its fixtures and lineups.
type TeamSeason struct {
	ID            int64
	TeamID        int64
	TeamName      string
	SpondGroupID  string
	SeasonName    string
	SpreadsheetID string
	SheetName     string
	ScoringType   string
}

func (t TeamSeason) DisplayName() string {
	return strings.TrimSpace(t.TeamName + " " + t.SeasonName)
}

// SelectionSheet returns the worksheet that holds the fixture header rows and
// the player grid, falling back to the given default.
func (t TeamSeason) SelectionSheet(fallback string) string {
	if name := strings.TrimSpace(t.SheetName); name != "" {
		return name
	}
	return fallback
}

func NormalizeScoringType(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), ScoringTriesOnly) {
		return ScoringTriesOnly
	}
	return ScoringStandard
}
