package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
	qb "github.com/riskibarqy/team-sheet-sync/internal/platform/querybuilder"
)

type teamSeasonTableModel struct {
	ID            int64  `db:"id"`
	TeamID        int64  `db:"team_id"`
	TeamName      string `db:"team_name"`
	SpondGroupID  string `db:"spond_group_id"`
	SeasonName    string `db:"season_name"`
	SpreadsheetID string `db:"spreadsheet_id"`
	SheetName     string `db:"sheet_name"`
	ScoringType   string `db:"scoring_type"`
}

var teamSeasonSelectColumns = []string{
	"ts.id",
	"ts.team_id",
	"t.name AS team_name",
	"t.spond_group_id",
	"s.name AS season_name",
	"ts.spreadsheet_id",
	"ts.sheet_name",
	"ts.scoring_type",
}

const teamSeasonFrom = "team_seasons ts JOIN teams t ON t.id = ts.team_id JOIN seasons s ON s.id = ts.season_id"

type TeamSeasonRepository struct {
	db *sqlx.DB
}

func NewTeamSeasonRepository(db *sqlx.DB) *TeamSeasonRepository {
	return &TeamSeasonRepository{db: db}
}

func (r *TeamSeasonRepository) List(ctx context.Context) ([]teamseason.TeamSeason, error) {
	query, args, err := qb.Select(teamSeasonSelectColumns...).From(teamSeasonFrom).
		OrderBy("ts.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list team seasons query: %w", err)
	}

	var rows []teamSeasonTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list team seasons: %w", err)
	}

	out := make([]teamseason.TeamSeason, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamSeasonFromRow(row))
	}
	return out, nil
}

func (r *TeamSeasonRepository) GetByID(ctx context.Context, id int64) (teamseason.TeamSeason, bool, error) {
	query, args, err := qb.Select(teamSeasonSelectColumns...).From(teamSeasonFrom).
		Where(qb.Eq("ts.id", id)).
		ToSQL()
	if err != nil {
		return teamseason.TeamSeason{}, false, fmt.Errorf("build get team season query: %w", err)
	}

	var row teamSeasonTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return teamseason.TeamSeason{}, false, nil
		}
		return teamseason.TeamSeason{}, false, fmt.Errorf("get team season: %w", err)
	}
	return teamSeasonFromRow(row), true, nil
}

func teamSeasonFromRow(row teamSeasonTableModel) teamseason.TeamSeason {
	return teamseason.TeamSeason{
		ID:            row.ID,
		TeamID:        row.TeamID,
		TeamName:      row.TeamName,
		SpondGroupID:  row.SpondGroupID,
		SeasonName:    row.SeasonName,
		SpreadsheetID: row.SpreadsheetID,
		SheetName:     row.SheetName,
		ScoringType:   teamseason.NormalizeScoringType(row.ScoringType),
	}
}
