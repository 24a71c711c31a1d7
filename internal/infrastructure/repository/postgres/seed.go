package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/team-sheet-sync/internal/infrastructure/repository/memory"
)

// BootstrapSeed inserts one team season bound to spreadsheetID when the
// database has none. Formats come from the schema migration.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, spreadsheetID string) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM team_seasons`); err != nil {
		return fmt.Errorf("count team seasons for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	ts := memory.SeedDevTeamSeason(spreadsheetID)
	return NewTxManager(db).WithinTx(ctx, func(ctx context.Context) error {
		q := conn(ctx, db)

		var teamID int64
		if err := q.GetContext(ctx, &teamID, `
INSERT INTO teams (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
RETURNING id`, ts.TeamName); err != nil {
			return fmt.Errorf("seed team %s: %w", ts.TeamName, err)
		}

		var seasonID int64
		if err := q.GetContext(ctx, &seasonID, `
INSERT INTO seasons (name, is_active) VALUES ($1, TRUE)
ON CONFLICT (name) DO UPDATE SET is_active = TRUE
RETURNING id`, ts.SeasonName); err != nil {
			return fmt.Errorf("seed season %s: %w", ts.SeasonName, err)
		}

		sqlQuery, args, err := sqlx.Named(`
INSERT INTO team_seasons (team_id, season_id, spreadsheet_id, sheet_name, scoring_type)
VALUES (:team_id, :season_id, :spreadsheet_id, :sheet_name, :scoring_type)
ON CONFLICT (team_id, season_id) DO NOTHING`, map[string]any{
			"team_id":        teamID,
			"season_id":      seasonID,
			"spreadsheet_id": ts.SpreadsheetID,
			"sheet_name":     ts.SheetName,
			"scoring_type":   ts.ScoringType,
		})
		if err != nil {
			return fmt.Errorf("bind seed team season query: %w", err)
		}
		if _, err := q.ExecContext(ctx, db.Rebind(sqlQuery), args...); err != nil {
			return fmt.Errorf("seed team season: %w", err)
		}
		return nil
	})
}
