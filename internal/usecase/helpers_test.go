package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
	"github.com/riskibarqy/team-sheet-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
)

const testSpreadsheetID = "sheet-abc"

var errGatewayDown = errors.New("gateway down")

// fakeGateway serves worksheets from memory and records calls.
type fakeGateway struct {
	mu            sync.Mutex
	authenticated bool
	titles        []string
	grids         map[string]Grid
	gridErr       error
	batchErr      error

	gridCalls   int
	batchCalls  int
	batchRanges []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{authenticated: true, grids: make(map[string]Grid)}
}

func (g *fakeGateway) put(title string, grid Grid) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.grids[title]; !ok {
		g.titles = append(g.titles, title)
	}
	g.grids[title] = grid
}

func (g *fakeGateway) IsAuthenticated(context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authenticated
}

func (g *fakeGateway) ListWorksheets(context.Context, string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.titles...), nil
}

func (g *fakeGateway) GetCellValue(_ context.Context, _ string, worksheet, cell string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	grid := g.grids[worksheet]
	col := ColumnLetterToIndex(strings.TrimRight(cell, "0123456789"))
	row := 0
	for _, c := range strings.TrimLeft(cell, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		row = row*10 + int(c-'0')
	}
	return grid.Cell(row-1, col), nil
}

func (g *fakeGateway) GetGrid(_ context.Context, _ string, worksheet, _ string) (Grid, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gridCalls++
	if g.gridErr != nil {
		return nil, g.gridErr
	}
	grid, ok := g.grids[worksheet]
	if !ok {
		return nil, errors.New("worksheet not found")
	}
	return grid, nil
}

func (g *fakeGateway) BatchGetGrids(_ context.Context, _ string, ranges []string) ([]Grid, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.batchCalls++
	g.batchRanges = append(g.batchRanges, ranges...)
	if g.batchErr != nil {
		return nil, g.batchErr
	}
	out := make([]Grid, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, g.grids[titleFromRange(r)])
	}
	return out, nil
}

func titleFromRange(r string) string {
	idx := strings.LastIndex(r, "'!")
	if !strings.HasPrefix(r, "'") || idx < 0 {
		return r
	}
	return strings.ReplaceAll(r[1:idx], "''", "'")
}

type syncEnv struct {
	store        *memory.Store
	teamSeasons  *memory.TeamSeasonRepository
	matches      *memory.MatchRepository
	players      *memory.PlayerRepository
	availability *memory.AvailabilityRepository
	selections   *memory.SelectionRepository
	formats      *memory.MatchFormatRepository
	tx           *memory.TxManager
	gateway      *fakeGateway
	master       *MasterDataSyncService
	lineups      *SelectionSyncService
}

func newSyncEnv(t *testing.T) *syncEnv {
	t.Helper()

	store := memory.NewSeededStore()
	store.AddTeamSeason(teamseason.TeamSeason{
		ID:            1,
		TeamID:        1,
		TeamName:      "Sandbach",
		SeasonName:    "2025/26",
		SpreadsheetID: testSpreadsheetID,
	})

	env := &syncEnv{
		store:        store,
		teamSeasons:  memory.NewTeamSeasonRepository(store),
		matches:      memory.NewMatchRepository(store),
		players:      memory.NewPlayerRepository(store),
		availability: memory.NewAvailabilityRepository(store),
		selections:   memory.NewSelectionRepository(store),
		formats:      memory.NewMatchFormatRepository(store),
		tx:           memory.NewTxManager(store),
		gateway:      newFakeGateway(),
	}
	env.master = NewMasterDataSyncService(
		env.teamSeasons, env.matches, env.players, env.availability, env.tx, env.gateway,
		SyncConfig{}, logging.NewNop(),
	)
	env.lineups = NewSelectionSyncService(
		env.teamSeasons, env.matches, env.players, env.selections, env.formats, env.tx, env.gateway,
		logging.NewNop(),
	)
	return env
}

type fixtureHeader struct {
	name, homeAway, status, date string
}

// selectionGrid lays out fixture headers from column O and player rows from
// spreadsheet row 5. marks[i][j] is player i's cell for fixture j.
func selectionGrid(fixtures []fixtureHeader, players []string, marks [][]string) Grid {
	width := fixtureFirstColumn + len(fixtures)
	grid := make(Grid, playerFirstRow+len(players))
	for i := range grid {
		grid[i] = make([]string, width)
	}
	for j, f := range fixtures {
		col := fixtureFirstColumn + j
		grid[fixtureNameRow][col] = f.name
		grid[fixtureHomeAwayRow][col] = f.homeAway
		grid[fixtureStatusRow][col] = f.status
		grid[fixtureDateRow][col] = f.date
	}
	for i, name := range players {
		row := playerFirstRow + i
		grid[row][playerNameColumn] = name
		if i < len(marks) {
			for j, mark := range marks[i] {
				grid[row][fixtureFirstColumn+j] = mark
			}
		}
	}
	return grid
}

// lineupGrid builds a match worksheet with template in B1. names maps a column
// letter to the values of spreadsheet rows 5 onwards.
func lineupGrid(template string, names map[string][]string) Grid {
	grid := make(Grid, 60)
	for i := range grid {
		grid[i] = make([]string, 52)
	}
	grid[templateTypeRow][templateTypeColumn] = template
	for letter, values := range names {
		col := ColumnLetterToIndex(letter)
		for i, v := range values {
			grid[starterFirstRow+i][col] = v
		}
	}
	return grid
}

func mustSyncMasterData(t *testing.T, env *syncEnv) {
	t.Helper()
	if !env.master.SyncMasterData(context.Background(), 1) {
		t.Fatalf("expected master data sync to succeed")
	}
}
