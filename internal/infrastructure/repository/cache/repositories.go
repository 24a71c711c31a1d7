package cache

import (
	"context"
	"strconv"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/matchformat"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
	basecache "github.com/riskibarqy/team-sheet-sync/internal/platform/cache"
)

// TeamSeasonRepository and MatchFormatRepository cache reference data that
// sync never writes. Matches, players and lineups always read through.

type TeamSeasonRepository struct {
	next  teamseason.Repository
	cache *basecache.Store
}

func NewTeamSeasonRepository(next teamseason.Repository, cache *basecache.Store) *TeamSeasonRepository {
	return &TeamSeasonRepository{next: next, cache: cache}
}

func (r *TeamSeasonRepository) List(ctx context.Context) ([]teamseason.TeamSeason, error) {
	v, err := r.cache.GetOrLoad(ctx, "team-season:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]teamseason.TeamSeason(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]teamseason.TeamSeason)
	return append([]teamseason.TeamSeason(nil), items...), nil
}

func (r *TeamSeasonRepository) GetByID(ctx context.Context, id int64) (teamseason.TeamSeason, bool, error) {
	key := "team-season:id:" + strconv.FormatInt(id, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return cachedTeamSeasonByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return teamseason.TeamSeason{}, false, err
	}

	cached, _ := v.(cachedTeamSeasonByID)
	return cached.value, cached.exists, nil
}

type cachedTeamSeasonByID struct {
	value  teamseason.TeamSeason
	exists bool
}

type MatchFormatRepository struct {
	next  matchformat.Repository
	cache *basecache.Store
}

func NewMatchFormatRepository(next matchformat.Repository, cache *basecache.Store) *MatchFormatRepository {
	return &MatchFormatRepository{next: next, cache: cache}
}

func (r *MatchFormatRepository) List(ctx context.Context) ([]matchformat.Format, error) {
	v, err := r.cache.GetOrLoad(ctx, "match-format:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return cloneFormats(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]matchformat.Format)
	return cloneFormats(items), nil
}

func (r *MatchFormatRepository) GetByID(ctx context.Context, id int64) (matchformat.Format, bool, error) {
	key := "match-format:id:" + strconv.FormatInt(id, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return cachedFormatByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return matchformat.Format{}, false, err
	}

	cached, _ := v.(cachedFormatByID)
	item := cached.value
	item.Columns = append([]matchformat.PeriodColumn(nil), item.Columns...)
	return item, cached.exists, nil
}

type cachedFormatByID struct {
	value  matchformat.Format
	exists bool
}

func cloneFormats(items []matchformat.Format) []matchformat.Format {
	out := make([]matchformat.Format, 0, len(items))
	for _, item := range items {
		item.Columns = append([]matchformat.PeriodColumn(nil), item.Columns...)
		out = append(out, item)
	}
	return out
}
