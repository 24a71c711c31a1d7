package httpapi

import (
	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
)

type teamSeasonDTO struct {
	ID            int64  `json:"id"`
	TeamID        int64  `json:"team_id"`
	TeamName      string `json:"team_name"`
	SeasonName    string `json:"season_name"`
	DisplayName   string `json:"display_name"`
	SpreadsheetID string `json:"spreadsheet_id"`
	SheetName     string `json:"sheet_name,omitempty"`
	ScoringType   string `json:"scoring_type"`
}

type matchDTO struct {
	ID                  int64  `json:"id"`
	TeamSeasonID        int64  `json:"team_season_id"`
	Name                string `json:"name"`
	OpponentName        string `json:"opponent_name"`
	Date                string `json:"date,omitempty"`
	HomeAway            string `json:"home_away"`
	IsCancelled         bool   `json:"is_cancelled"`
	KickoffTime         string `json:"kickoff_time,omitempty"`
	MeetTime            string `json:"meet_time,omitempty"`
	Location            string `json:"location,omitempty"`
	FormatID            *int64 `json:"format_id,omitempty"`
	Source              string `json:"source"`
	SheetCol            string `json:"sheet_col,omitempty"`
	SpondEventID        string `json:"spond_event_id,omitempty"`
	SpondAvailabilityID string `json:"spond_availability_id,omitempty"`
	IsManual            bool   `json:"is_manual"`
}

func teamSeasonToDTO(v teamseason.TeamSeason) teamSeasonDTO {
	return teamSeasonDTO{
		ID:            v.ID,
		TeamID:        v.TeamID,
		TeamName:      v.TeamName,
		SeasonName:    v.SeasonName,
		DisplayName:   v.DisplayName(),
		SpreadsheetID: v.SpreadsheetID,
		SheetName:     v.SheetName,
		ScoringType:   teamseason.NormalizeScoringType(v.ScoringType),
	}
}

func matchToDTO(v match.Match) matchDTO {
	out := matchDTO{
		ID:                  v.ID,
		TeamSeasonID:        v.TeamSeasonID,
		Name:                v.Name,
		OpponentName:        v.OpponentName,
		HomeAway:            v.HomeAway,
		IsCancelled:         v.IsCancelled,
		KickoffTime:         v.KickoffTime,
		MeetTime:            v.MeetTime,
		Location:            v.Location,
		FormatID:            v.FormatID,
		Source:              v.Source,
		SheetCol:            v.SheetCol,
		SpondEventID:        v.SpondEventID,
		SpondAvailabilityID: v.SpondAvailabilityID,
		IsManual:            v.IsManual,
	}
	if v.Date != nil {
		out.Date = v.Date.Format("2006-01-02")
	}
	return out
}
