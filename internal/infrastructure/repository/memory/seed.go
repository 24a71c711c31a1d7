package memory

import (
	"github.com/riskibarqy/team-sheet-sync/internal/domain/matchformat"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
)

// SeedMatchFormats mirrors the formats inserted by the schema migration, in
// the same order.
func SeedMatchFormats() []matchformat.Format {
	return []matchformat.Format{
		{
			ID: 1, Name: "Thirds", Periods: 3, PeriodDuration: 20, PlayersOnPitch: 15, SpreadsheetKey: "Thirds",
			Columns: []matchformat.PeriodColumn{{Period: 1, Column: "AB"}, {Period: 2, Column: "AE"}, {Period: 3, Column: "AH"}},
		},
		{
			ID: 2, Name: "Quarters", Periods: 4, PeriodDuration: 15, PlayersOnPitch: 15, SpreadsheetKey: "Quarters",
			Columns: []matchformat.PeriodColumn{{Period: 1, Column: "H"}, {Period: 2, Column: "K"}, {Period: 3, Column: "N"}, {Period: 4, Column: "Q"}},
		},
		{
			ID: 3, Name: "2 Halves", Periods: 2, PeriodDuration: 40, PlayersOnPitch: 15, SpreadsheetKey: "2 Halves",
			Columns: []matchformat.PeriodColumn{{Period: 1, Column: "B"}},
		},
		{
			ID: 4, Name: "Halves", Periods: 2, PeriodDuration: 40, PlayersOnPitch: 15, SpreadsheetKey: "Halves",
			Columns: []matchformat.PeriodColumn{{Period: 1, Column: "U"}, {Period: 2, Column: "X"}},
		},
		{
			ID: 5, Name: matchformat.DefaultName, Periods: 1, PeriodDuration: 80, PlayersOnPitch: 15,
			Columns: []matchformat.PeriodColumn{{Period: 1, Column: "B"}},
		},
	}
}

// SeedDevTeamSeason builds a local-only team season pointing at spreadsheetID.
func SeedDevTeamSeason(spreadsheetID string) teamseason.TeamSeason {
	return teamseason.TeamSeason{
		ID:            1,
		TeamID:        1,
		TeamName:      "Sandbach",
		SeasonName:    "2025/26",
		SpreadsheetID: spreadsheetID,
		ScoringType:   teamseason.ScoringStandard,
	}
}

// NewSeededStore returns a store holding the default formats.
func NewSeededStore() *Store {
	store := NewStore()
	store.SetFormats(SeedMatchFormats())
	return store
}
