package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/availability"
	qb "github.com/riskibarqy/team-sheet-sync/internal/platform/querybuilder"
)

type availabilityTableModel struct {
	MatchID          int64        `db:"match_id"`
	PlayerID         int64        `db:"player_id"`
	Status           string       `db:"status"`
	SpondStatus      string       `db:"spond_status"`
	SpondLastUpdated sql.NullTime `db:"spond_last_updated"`
	UpdatedAt        time.Time    `db:"updated_at"`
}

type availabilityStatusModel struct {
	MatchID  int64  `db:"match_id"`
	PlayerID int64  `db:"player_id"`
	Status   string `db:"status"`
}

type availabilityProviderModel struct {
	MatchID          int64     `db:"match_id"`
	PlayerID         int64     `db:"player_id"`
	Status           string    `db:"status"`
	SpondStatus      string    `db:"spond_status"`
	SpondLastUpdated time.Time `db:"spond_last_updated"`
}

func upsertAvailability(model any, columns ...string) (string, []any, error) {
	insert, err := qb.InsertModel("availability", model)
	if err != nil {
		return "", nil, err
	}
	return insert.OnConflict("match_id", "player_id").
		DoUpdate(columns...).
		DoUpdateExpr("updated_at", "NOW()").
		ToSQL()
}

type AvailabilityRepository struct {
	db *sqlx.DB
}

func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) ListByMatch(ctx context.Context, matchID int64) ([]availability.Availability, error) {
	query, args, err := qb.Select("match_id", "player_id", "status", "spond_status", "spond_last_updated", "updated_at").
		From("availability").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list availability query: %w", err)
	}

	var rows []availabilityTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}

	out := make([]availability.Availability, 0, len(rows))
	for _, row := range rows {
		out = append(out, availability.Availability{
			MatchID:           row.MatchID,
			PlayerID:          row.PlayerID,
			Status:            row.Status,
			ProviderStatus:    row.SpondStatus,
			ProviderUpdatedAt: nullTimePtr(row.SpondLastUpdated),
			UpdatedAt:         row.UpdatedAt,
		})
	}
	return out, nil
}

func (r *AvailabilityRepository) UpsertStatus(ctx context.Context, matchID, playerID int64, status string) error {
	query, args, err := upsertAvailability(availabilityStatusModel{
		MatchID:  matchID,
		PlayerID: playerID,
		Status:   status,
	}, "status")
	if err != nil {
		return fmt.Errorf("build upsert availability query: %w", err)
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert availability match_id=%d player_id=%d: %w", matchID, playerID, err)
	}
	return nil
}

func (r *AvailabilityRepository) UpsertProviderStatus(ctx context.Context, matchID, playerID int64, status, providerStatus string, at time.Time) error {
	query, args, err := upsertAvailability(availabilityProviderModel{
		MatchID:          matchID,
		PlayerID:         playerID,
		Status:           status,
		SpondStatus:      providerStatus,
		SpondLastUpdated: at.UTC(),
	}, "status", "spond_status", "spond_last_updated")
	if err != nil {
		return fmt.Errorf("build upsert provider availability query: %w", err)
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert provider availability match_id=%d player_id=%d: %w", matchID, playerID, err)
	}
	return nil
}
