package postgres

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/availability"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/player"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/selection"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const integrationEnv = "TEAMSHEET_PG_IT"

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if os.Getenv(integrationEnv) != "1" {
		t.Skipf("set %s=1 to run postgres integration tests", integrationEnv)
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16.3-alpine",
		tcpostgres.WithDatabase("team_sheet"),
		tcpostgres.WithUsername("sync"),
		tcpostgres.WithPassword("secret"),
		tcpostgres.WithInitScripts(filepath.Join("..", "..", "..", "..", "db", "migrations", "000001_init_schema.up.sql")),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `
INSERT INTO teams (id, name) VALUES (1, 'Sandbach');
INSERT INTO seasons (id, name) VALUES (1, '2025/26');
INSERT INTO team_seasons (id, team_id, season_id, spreadsheet_id) VALUES (1, 1, 1, 'sheet-abc');`)
	require.NoError(t, err)
	return db
}

func TestRepositories_Integration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	teamSeasons := NewTeamSeasonRepository(db)
	players := NewPlayerRepository(db)
	matches := NewMatchRepository(db)
	formats := NewMatchFormatRepository(db)
	marks := NewAvailabilityRepository(db)
	selections := NewSelectionRepository(db)
	txManager := NewTxManager(db)

	ts, found, err := teamSeasons.GetByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Sandbach 2025/26", ts.DisplayName())

	list, err := formats.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	require.Equal(t, "Thirds", list[0].Name)
	require.Equal(t, "AH", list[0].Columns[2].Column)
	require.Equal(t, "Standard 15s", list[4].Name)

	t.Run("upsert keeps manual location", func(t *testing.T) {
		item, err := matches.UpsertImported(ctx, match.Match{TeamSeasonID: 1, Name: "02: Trafford (H)", HomeAway: "Home", Location: "Home ground"})
		require.NoError(t, err)
		require.NoError(t, matches.UpdateSheetDetails(ctx, item.ID, match.SheetDetails{Location: "Trafford MV", KickoffTime: "15:00"}))

		again, err := matches.UpsertImported(ctx, match.Match{TeamSeasonID: 1, Name: "02: Trafford (H)", HomeAway: "Home", IsCancelled: true, Location: "Home ground"})
		require.NoError(t, err)
		require.Equal(t, item.ID, again.ID)
		require.True(t, again.IsCancelled)
		require.Equal(t, "Trafford MV", again.Location)
		require.Equal(t, "15:00", again.KickoffTime)
	})

	t.Run("rollback leaves no rows", func(t *testing.T) {
		err := txManager.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := players.Create(ctx, "Ghost"); err != nil {
				return err
			}
			return context.Canceled
		})
		require.ErrorIs(t, err, context.Canceled)
		_, found, err := players.GetByName(ctx, "Ghost")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("concurrent create resolves to one player", func(t *testing.T) {
		firstInserted := make(chan struct{})
		var (
			wg     sync.WaitGroup
			first  player.Player
			second player.Player
			errFst error
			errSnd error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			errFst = txManager.WithinTx(ctx, func(ctx context.Context) error {
				var err error
				first, err = players.Create(ctx, "Tom Hale")
				close(firstInserted)
				if err != nil {
					return err
				}
				time.Sleep(200 * time.Millisecond)
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			<-firstInserted
			errSnd = txManager.WithinTx(ctx, func(ctx context.Context) error {
				_, found, err := players.GetByName(ctx, "Tom Hale")
				if err != nil {
					return err
				}
				if found {
					t.Errorf("uncommitted player visible to second transaction")
				}
				second, err = players.Create(ctx, "Tom Hale")
				return err
			})
		}()
		wg.Wait()

		require.NoError(t, errFst)
		require.NoError(t, errSnd)
		require.NotZero(t, first.ID)
		require.Equal(t, first.ID, second.ID)

		var count int
		require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM players WHERE name = $1", "Tom Hale"))
		require.Equal(t, 1, count)
	})

	t.Run("replace selections and merge", func(t *testing.T) {
		item, err := matches.UpsertImported(ctx, match.Match{TeamSeasonID: 1, Name: "01: Leek (A)"})
		require.NoError(t, err)
		source, err := players.Create(ctx, "Jon Smith")
		require.NoError(t, err)
		target, err := players.Create(ctx, "John Smith")
		require.NoError(t, err)

		require.NoError(t, selections.ReplaceForMatch(ctx, item.ID, []selection.Selection{
			{PlayerID: source.ID, Period: 1, Position: 1},
			{PlayerID: target.ID, Period: 1, Position: 16},
		}))
		require.NoError(t, selections.ReplaceForMatch(ctx, item.ID, []selection.Selection{
			{PlayerID: source.ID, Period: 1, Position: 2},
		}))
		count, err := selections.CountByMatch(ctx, item.ID)
		require.NoError(t, err)
		require.Equal(t, 1, count)

		require.NoError(t, marks.UpsertStatus(ctx, item.ID, source.ID, "Y"))
		require.NoError(t, marks.UpsertProviderStatus(ctx, item.ID, target.ID, availability.StatusUnavailable, availability.ProviderDeclined, time.Now()))

		require.NoError(t, players.Merge(ctx, source.ID, target.ID))

		alias, found, err := players.GetAlias(ctx, "Jon Smith")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, target.ID, alias.PlayerID)

		rows, err := marks.ListByMatch(ctx, item.ID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, availability.ProviderDeclined, rows[0].ProviderStatus)

		sels, err := selections.ListByMatch(ctx, item.ID)
		require.NoError(t, err)
		require.Len(t, sels, 1)
		require.Equal(t, target.ID, sels[0].PlayerID)
		require.Equal(t, selection.RoleStarter, sels[0].Role)
	})
}
