package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/matchformat"
	qb "github.com/riskibarqy/team-sheet-sync/internal/platform/querybuilder"
)

type matchFormatTableModel struct {
	ID             int64  `db:"id"`
	Name           string `db:"name"`
	Periods        int    `db:"periods"`
	PeriodDuration int    `db:"period_duration"`
	PlayersOnPitch int    `db:"players_on_pitch"`
	SpreadsheetKey string `db:"spreadsheet_key"`
	ColumnConfig   []byte `db:"column_config"`
}

var matchFormatSelectColumns = []string{
	"id",
	"name",
	"periods",
	"period_duration",
	"players_on_pitch",
	"spreadsheet_key",
	"column_config",
}

type MatchFormatRepository struct {
	db *sqlx.DB
}

func NewMatchFormatRepository(db *sqlx.DB) *MatchFormatRepository {
	return &MatchFormatRepository{db: db}
}

func (r *MatchFormatRepository) List(ctx context.Context) ([]matchformat.Format, error) {
	query, args, err := qb.Select(matchFormatSelectColumns...).From("match_formats").
		OrderBy("sort_order", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list match formats query: %w", err)
	}

	var rows []matchFormatTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list match formats: %w", err)
	}

	out := make([]matchformat.Format, 0, len(rows))
	for _, row := range rows {
		item, err := matchFormatFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *MatchFormatRepository) GetByID(ctx context.Context, id int64) (matchformat.Format, bool, error) {
	query, args, err := qb.Select(matchFormatSelectColumns...).From("match_formats").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return matchformat.Format{}, false, fmt.Errorf("build get match format query: %w", err)
	}

	var row matchFormatTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return matchformat.Format{}, false, nil
		}
		return matchformat.Format{}, false, fmt.Errorf("get match format: %w", err)
	}
	item, err := matchFormatFromRow(row)
	if err != nil {
		return matchformat.Format{}, false, err
	}
	return item, true, nil
}

func matchFormatFromRow(row matchFormatTableModel) (matchformat.Format, error) {
	columns, err := decodeColumnConfig(row.ColumnConfig)
	if err != nil {
		return matchformat.Format{}, fmt.Errorf("decode column_config of match format id=%d: %w", row.ID, err)
	}
	return matchformat.Format{
		ID:             row.ID,
		Name:           row.Name,
		Periods:        row.Periods,
		PeriodDuration: row.PeriodDuration,
		PlayersOnPitch: row.PlayersOnPitch,
		SpreadsheetKey: row.SpreadsheetKey,
		Columns:        columns,
	}, nil
}

// decodeColumnConfig reads a JSON list of [period, "letter"] pairs, e.g.
// [[1,"H"],[2,"K"]]. Malformed pairs are skipped.
func decodeColumnConfig(raw []byte) ([]matchformat.PeriodColumn, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	var pairs [][]any
	if err := sonic.Unmarshal(raw, &pairs); err != nil {
		return nil, err
	}

	out := make([]matchformat.PeriodColumn, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			continue
		}
		period, ok := pair[0].(float64)
		if !ok || period < 1 {
			continue
		}
		letter, ok := pair[1].(string)
		letter = strings.ToUpper(strings.TrimSpace(letter))
		if !ok || letter == "" {
			continue
		}
		out = append(out, matchformat.PeriodColumn{Period: int(period), Column: letter})
	}
	return out, nil
}
