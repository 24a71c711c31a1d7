package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/player"
	qb "github.com/riskibarqy/team-sheet-sync/internal/platform/querybuilder"
)

type playerTableModel struct {
	ID        int64         `db:"id"`
	Name      string        `db:"name"`
	Position  string        `db:"position"`
	IsForward bool          `db:"is_forward"`
	IsBack    bool          `db:"is_back"`
	SpondID   string        `db:"spond_id"`
	SheetRow  sql.NullInt32 `db:"sheet_row"`
	LeftDate  sql.NullTime  `db:"left_date"`
}

type playerInsertModel struct {
	Name string `db:"name"`
}

type aliasTableModel struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	PlayerID int64  `db:"player_id"`
}

var playerSelectColumns = []string{
	"id",
	"name",
	"position",
	"is_forward",
	"is_back",
	"spond_id",
	"sheet_row",
	"left_date",
}

const (
	mergeRepointAliasesSQL = `UPDATE player_aliases SET player_id = $2 WHERE player_id = $1`
	mergeAddAliasSQL       = `INSERT INTO player_aliases (name, player_id)
SELECT name, $2 FROM players WHERE id = $1
ON CONFLICT (name) DO NOTHING`
	mergeDropConflictingAvailabilitySQL = `DELETE FROM availability a
WHERE a.player_id = $1
  AND EXISTS (SELECT 1 FROM availability b WHERE b.match_id = a.match_id AND b.player_id = $2)`
	mergeMoveAvailabilitySQL = `UPDATE availability SET player_id = $2 WHERE player_id = $1`
	mergeMoveSelectionsSQL   = `UPDATE team_selections SET player_id = $2 WHERE player_id = $1`
	mergeDeleteSourceSQL     = `DELETE FROM players WHERE id = $1`
)

type PlayerRepository struct {
	db *sqlx.DB
	tx *TxManager
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db, tx: NewTxManager(db)}
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (player.Player, bool, error) {
	return r.getOne(ctx, "get player by id", qb.Eq("id", id))
}

func (r *PlayerRepository) GetByName(ctx context.Context, name string) (player.Player, bool, error) {
	return r.getOne(ctx, "get player by name", qb.Eq("name", name))
}

func (r *PlayerRepository) getOne(ctx context.Context, op string, cond qb.Condition) (player.Player, bool, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(cond, qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build %s query: %w", op, err)
	}

	var row playerTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return playerFromRow(row), true, nil
}

func (r *PlayerRepository) GetAlias(ctx context.Context, name string) (player.Alias, bool, error) {
	query, args, err := qb.Select("id", "name", "player_id").From("player_aliases").
		Where(qb.Eq("name", name)).
		ToSQL()
	if err != nil {
		return player.Alias{}, false, fmt.Errorf("build get player alias query: %w", err)
	}

	var row aliasTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Alias{}, false, nil
		}
		return player.Alias{}, false, fmt.Errorf("get player alias: %w", err)
	}
	return player.Alias{ID: row.ID, Name: row.Name, PlayerID: row.PlayerID}, true, nil
}

func (r *PlayerRepository) ListByIDs(ctx context.Context, ids []int64) ([]player.Player, error) {
	if len(ids) == 0 {
		return []player.Player{}, nil
	}
	return r.list(ctx, "select players by ids", qb.In("id", int64SliceToAny(ids)))
}

func (r *PlayerRepository) ListWithSpondID(ctx context.Context) ([]player.Player, error) {
	return r.list(ctx, "select players with spond id", qb.Expr("spond_id <> ''"))
}

func (r *PlayerRepository) list(ctx context.Context, op string, cond qb.Condition) ([]player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(cond, qb.IsNull("deleted_at")).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []playerTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

// Create inserts an active player, or returns the active player that a
// concurrent transaction committed under the same name first.
func (r *PlayerRepository) Create(ctx context.Context, name string) (player.Player, error) {
	insert, err := qb.InsertModel("players", playerInsertModel{Name: name})
	if err != nil {
		return player.Player{}, fmt.Errorf("build insert player query: %w", err)
	}
	query, args, err := insert.
		OnConflict("name").Where("deleted_at IS NULL").DoNothing().
		Returning(playerSelectColumns...).
		ToSQL()
	if err != nil {
		return player.Player{}, fmt.Errorf("build insert player query: %w", err)
	}

	var row playerTableModel
	err = conn(ctx, r.db).QueryRowxContext(ctx, query, args...).StructScan(&row)
	switch {
	case err == nil:
		return playerFromRow(row), nil
	case isNotFound(err):
		existing, found, getErr := r.GetByName(ctx, name)
		if getErr != nil {
			return player.Player{}, getErr
		}
		if !found {
			return player.Player{}, fmt.Errorf("player %q conflicted but is not visible", name)
		}
		return existing, nil
	case isUniqueViolation(err):
		return player.Player{}, fmt.Errorf("player %q already exists: %w", name, err)
	default:
		return player.Player{}, fmt.Errorf("insert player: %w", err)
	}
}

func (r *PlayerRepository) UpdateSheetRow(ctx context.Context, playerID int64, row int) error {
	query, args, err := qb.Update("players").
		Set("sheet_row", row).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update player sheet row query: %w", err)
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update player sheet row: %w", err)
	}
	return nil
}

func (r *PlayerRepository) Merge(ctx context.Context, sourceID, targetID int64) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.db)
		steps := []struct {
			name  string
			query string
		}{
			{name: "repoint aliases", query: mergeRepointAliasesSQL},
			{name: "add alias", query: mergeAddAliasSQL},
			{name: "drop conflicting availability", query: mergeDropConflictingAvailabilitySQL},
			{name: "move availability", query: mergeMoveAvailabilitySQL},
			{name: "move selections", query: mergeMoveSelectionsSQL},
		}
		for _, step := range steps {
			if _, err := q.ExecContext(ctx, step.query, sourceID, targetID); err != nil {
				return fmt.Errorf("merge players %s: %w", step.name, err)
			}
		}
		if _, err := q.ExecContext(ctx, mergeDeleteSourceSQL, sourceID); err != nil {
			return fmt.Errorf("merge players delete source: %w", err)
		}
		return nil
	})
}

func playerFromRow(row playerTableModel) player.Player {
	return player.Player{
		ID:        row.ID,
		Name:      row.Name,
		Position:  row.Position,
		IsForward: row.IsForward,
		IsBack:    row.IsBack,
		SpondID:   row.SpondID,
		SheetRow:  nullIntPtr(row.SheetRow),
		LeftDate:  nullTimePtr(row.LeftDate),
	}
}
