package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	qb "github.com/riskibarqy/team-sheet-sync/internal/platform/querybuilder"
)

type matchTableModel struct {
	ID                  int64         `db:"id"`
	TeamSeasonID        int64         `db:"team_season_id"`
	Name                string        `db:"name"`
	OpponentName        string        `db:"opponent_name"`
	Date                sql.NullTime  `db:"date"`
	HomeAway            string        `db:"home_away"`
	IsCancelled         bool          `db:"is_cancelled"`
	KickoffTime         string        `db:"kickoff_time"`
	MeetTime            string        `db:"meet_time"`
	Location            string        `db:"location"`
	FormatID            sql.NullInt64 `db:"format_id"`
	Source              string        `db:"source"`
	SheetCol            string        `db:"sheet_col"`
	SpondEventID        string        `db:"spond_event_id"`
	SpondAvailabilityID string        `db:"spond_availability_id"`
	TeamSheetTitle      string        `db:"team_sheet_title"`
	Notes               string        `db:"notes"`
}

type matchImportModel struct {
	TeamSeasonID int64        `db:"team_season_id"`
	Name         string       `db:"name"`
	OpponentName string       `db:"opponent_name"`
	Date         sql.NullTime `db:"date"`
	HomeAway     string       `db:"home_away"`
	IsCancelled  bool         `db:"is_cancelled"`
	Location     string       `db:"location"`
	Source       string       `db:"source"`
	SheetCol     string       `db:"sheet_col"`
}

var matchSelectColumns = []string{
	"id",
	"team_season_id",
	"name",
	"opponent_name",
	"date",
	"home_away",
	"is_cancelled",
	"kickoff_time",
	"meet_time",
	"location",
	"format_id",
	"source",
	"sheet_col",
	"spond_event_id",
	"spond_availability_id",
	"team_sheet_title",
	"notes",
}

// Sheet-owned columns are overwritten on re-import.
var matchImportedOwnedColumns = []string{
	"opponent_name",
	"date",
	"home_away",
	"is_cancelled",
	"sheet_col",
	"source",
}

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, id int64) (match.Match, bool, error) {
	return r.getOne(ctx, "get match by id", qb.Eq("id", id))
}

func (r *MatchRepository) GetByNaturalKey(ctx context.Context, teamSeasonID int64, name string) (match.Match, bool, error) {
	return r.getOne(ctx, "get match by natural key", qb.Eq("team_season_id", teamSeasonID), qb.Eq("name", name))
}

func (r *MatchRepository) getOne(ctx context.Context, op string, conds ...qb.Condition) (match.Match, bool, error) {
	query, args, err := qb.Select(matchSelectColumns...).From("matches").
		Where(conds...).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build %s query: %w", op, err)
	}

	var row matchTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return matchFromRow(row), true, nil
}

func (r *MatchRepository) ListByTeamSeason(ctx context.Context, teamSeasonID int64) ([]match.Match, error) {
	query, args, err := qb.Select(matchSelectColumns...).From("matches").
		Where(qb.Eq("team_season_id", teamSeasonID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) UpsertImported(ctx context.Context, item match.Match) (match.Match, error) {
	model := matchImportModel{
		TeamSeasonID: item.TeamSeasonID,
		Name:         item.Name,
		OpponentName: item.OpponentName,
		Date:         timePtrToNull(item.Date),
		HomeAway:     item.HomeAway,
		IsCancelled:  item.IsCancelled,
		Location:     item.Location,
		Source:       item.Source,
		SheetCol:     item.SheetCol,
	}
	if model.Source == "" {
		model.Source = match.SourceImported
	}

	insert, err := qb.InsertModel("matches", model)
	if err != nil {
		return match.Match{}, fmt.Errorf("build upsert match query: %w", err)
	}
	// A location typed in by hand survives.
	query, args, err := insert.OnConflict("team_season_id", "name").
		DoUpdate(matchImportedOwnedColumns...).
		DoUpdateExpr("location", "COALESCE(NULLIF(matches.location, ''), EXCLUDED.location)").
		DoUpdateExpr("updated_at", "NOW()").
		Returning(matchSelectColumns...).
		ToSQL()
	if err != nil {
		return match.Match{}, fmt.Errorf("build upsert match query: %w", err)
	}

	var row matchTableModel
	if err := conn(ctx, r.db).QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		return match.Match{}, fmt.Errorf("upsert match %q: %w", item.Name, err)
	}
	return matchFromRow(row), nil
}

func (r *MatchRepository) UpdateSheetDetails(ctx context.Context, matchID int64, details match.SheetDetails) error {
	builder := qb.Update("matches")
	changed := false
	set := func(column, value string) {
		if value == "" {
			return
		}
		builder.Set(column, value)
		changed = true
	}
	if details.FormatID != nil {
		builder.Set("format_id", *details.FormatID)
		changed = true
	}
	set("kickoff_time", details.KickoffTime)
	set("meet_time", details.MeetTime)
	set("location", details.Location)
	set("team_sheet_title", details.TeamSheetTitle)
	if !changed {
		return nil
	}

	query, args, err := builder.
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match sheet details query: %w", err)
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match sheet details: %w", err)
	}
	return nil
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:                  row.ID,
		TeamSeasonID:        row.TeamSeasonID,
		Name:                row.Name,
		OpponentName:        row.OpponentName,
		Date:                nullTimePtr(row.Date),
		HomeAway:            row.HomeAway,
		IsCancelled:         row.IsCancelled,
		KickoffTime:         row.KickoffTime,
		MeetTime:            row.MeetTime,
		Location:            row.Location,
		FormatID:            nullInt64Ptr(row.FormatID),
		Source:              row.Source,
		SheetCol:            row.SheetCol,
		SpondEventID:        row.SpondEventID,
		SpondAvailabilityID: row.SpondAvailabilityID,
		TeamSheetTitle:      row.TeamSheetTitle,
		Notes:               row.Notes,
		IsManual:            row.Source == match.SourceManual,
	}
}
