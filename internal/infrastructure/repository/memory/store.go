package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/availability"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/matchformat"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/player"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/selection"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
)

type availabilityKey struct {
	matchID  int64
	playerID int64
}

type tables struct {
	teamSeasons  map[int64]teamseason.TeamSeason
	players      map[int64]player.Player
	aliases      map[int64]player.Alias
	matches      map[int64]match.Match
	formats      []matchformat.Format
	availability map[availabilityKey]availability.Availability
	selections   map[int64][]selection.Selection

	nextPlayerID int64
	nextAliasID  int64
	nextMatchID  int64
}

func (t tables) clone() tables {
	out := tables{
		teamSeasons:  make(map[int64]teamseason.TeamSeason, len(t.teamSeasons)),
		players:      make(map[int64]player.Player, len(t.players)),
		aliases:      make(map[int64]player.Alias, len(t.aliases)),
		matches:      make(map[int64]match.Match, len(t.matches)),
		formats:      append([]matchformat.Format(nil), t.formats...),
		availability: make(map[availabilityKey]availability.Availability, len(t.availability)),
		selections:   make(map[int64][]selection.Selection, len(t.selections)),
		nextPlayerID: t.nextPlayerID,
		nextAliasID:  t.nextAliasID,
		nextMatchID:  t.nextMatchID,
	}
	for k, v := range t.teamSeasons {
		out.teamSeasons[k] = v
	}
	for k, v := range t.players {
		out.players[k] = v
	}
	for k, v := range t.aliases {
		out.aliases[k] = v
	}
	for k, v := range t.matches {
		out.matches[k] = v
	}
	for k, v := range t.availability {
		out.availability[k] = v
	}
	for k, v := range t.selections {
		out.selections[k] = append([]selection.Selection(nil), v...)
	}
	return out
}

// Store keeps every table in process memory. Transactions are serialized and
// restore a snapshot when fn fails or panics.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data tables
}

func NewStore() *Store {
	return &Store{data: tables{
		teamSeasons:  make(map[int64]teamseason.TeamSeason),
		players:      make(map[int64]player.Player),
		aliases:      make(map[int64]player.Alias),
		matches:      make(map[int64]match.Match),
		availability: make(map[availabilityKey]availability.Availability),
		selections:   make(map[int64][]selection.Selection),
	}}
}

type txKey struct{}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == s {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	committed := false
	defer func() {
		if committed {
			return
		}
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

// AddTeamSeason inserts or replaces a team season. Tests and the dev seed use it.
func (s *Store) AddTeamSeason(item teamseason.TeamSeason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.teamSeasons[item.ID] = item
}

// SetFormats replaces the configured match formats, keeping their order.
func (s *Store) SetFormats(items []matchformat.Format) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.formats = append([]matchformat.Format(nil), items...)
}

// AddAlias records name as an alias of playerID.
func (s *Store) AddAlias(name string, playerID int64) player.Alias {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.nextAliasID++
	item := player.Alias{ID: s.data.nextAliasID, Name: name, PlayerID: playerID}
	s.data.aliases[item.ID] = item
	return item
}

// SetPlayerSpondID links a player to an availability-provider member id.
func (s *Store) SetPlayerSpondID(playerID int64, spondID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.data.players[playerID]; ok {
		p.SpondID = spondID
		s.data.players[playerID] = p
	}
}

// SetMatchEvents links a match to availability-provider events.
func (s *Store) SetMatchEvents(matchID int64, eventID, availabilityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.data.matches[matchID]; ok {
		m.SpondEventID = eventID
		m.SpondAvailabilityID = availabilityID
		s.data.matches[matchID] = m
	}
}

type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.store.WithinTx(ctx, fn)
}
