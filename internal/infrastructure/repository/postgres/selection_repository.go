package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/selection"
	qb "github.com/riskibarqy/team-sheet-sync/internal/platform/querybuilder"
)

type selectionTableModel struct {
	MatchID        int64  `db:"match_id"`
	PlayerID       int64  `db:"player_id"`
	Period         int    `db:"period"`
	PositionNumber int    `db:"position_number"`
	Role           string `db:"role"`
}

var selectionColumns = []string{"match_id", "player_id", "period", "position_number", "role"}

type SelectionRepository struct {
	db *sqlx.DB
	tx *TxManager
}

func NewSelectionRepository(db *sqlx.DB) *SelectionRepository {
	return &SelectionRepository{db: db, tx: NewTxManager(db)}
}

func (r *SelectionRepository) ListByMatch(ctx context.Context, matchID int64) ([]selection.Selection, error) {
	query, args, err := qb.Select(selectionColumns...).From("team_selections").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("period", "position_number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list selections query: %w", err)
	}

	var rows []selectionTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}

	out := make([]selection.Selection, 0, len(rows))
	for _, row := range rows {
		out = append(out, selection.Selection{
			MatchID:  row.MatchID,
			PlayerID: row.PlayerID,
			Period:   row.Period,
			Position: row.PositionNumber,
			Role:     selection.Role(row.Role),
		})
	}
	return out, nil
}

func (r *SelectionRepository) CountByMatch(ctx context.Context, matchID int64) (int, error) {
	query, args, err := qb.Select("COUNT(1)").From("team_selections").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count selections query: %w", err)
	}

	var count int
	if err := conn(ctx, r.db).GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count selections: %w", err)
	}
	return count, nil
}

// ReplaceForMatch deletes and inserts in one transaction; a caller's
// transaction is joined.
func (r *SelectionRepository) ReplaceForMatch(ctx context.Context, matchID int64, items []selection.Selection) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.db)

		deleteQuery, deleteArgs, err := qb.DeleteFrom("team_selections").
			Where(qb.Eq("match_id", matchID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build delete selections query: %w", err)
		}
		if _, err := q.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
			return fmt.Errorf("delete selections match_id=%d: %w", matchID, err)
		}
		if len(items) == 0 {
			return nil
		}

		insert := qb.InsertInto("team_selections").Columns(selectionColumns...)
		for _, item := range items {
			role := item.Role
			if role == "" {
				role = selection.RoleForPosition(item.Position)
			}
			insert.Values(matchID, item.PlayerID, item.Period, item.Position, string(role))
		}
		insertQuery, insertArgs, err := insert.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert selections query: %w", err)
		}
		if _, err := q.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("insert selections match_id=%d: %w", matchID, err)
		}
		return nil
	})
}
