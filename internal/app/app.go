package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/team-sheet-sync/internal/config"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/availability"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/matchformat"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/player"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/selection"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
	"github.com/riskibarqy/team-sheet-sync/internal/infrastructure/events"
	cacherepo "github.com/riskibarqy/team-sheet-sync/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/team-sheet-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/team-sheet-sync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/team-sheet-sync/internal/infrastructure/sheets"
	"github.com/riskibarqy/team-sheet-sync/internal/infrastructure/spond"
	"github.com/riskibarqy/team-sheet-sync/internal/interfaces/httpapi"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/cache"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/id"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
	"github.com/riskibarqy/team-sheet-sync/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

// Container holds the wired services shared by the API and the sheetsync CLI.
type Container struct {
	Catalog      *usecase.CatalogService
	TeamSheets   *usecase.TeamSheetService
	ContextSync  *usecase.ContextSyncService
	Availability *usecase.AvailabilitySyncService
	Merge        *usecase.PlayerMergeService

	logger  *logging.Logger
	closers []func() error
}

type repositories struct {
	teamSeasons  teamseason.Repository
	matches      match.Repository
	players      player.Repository
	availability availability.Repository
	selections   selection.Repository
	formats      matchformat.Repository
	tx           usecase.TxManager
}

// Build wires storage, external clients and use cases from cfg. An empty
// DB_URL selects the in-memory store.
func Build(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Container{logger: logger}

	repos, err := c.openRepositories(ctx, cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	gateway, err := newSheetsGateway(ctx, cfg, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if !gateway.IsAuthenticated(ctx) {
		logger.WarnContext(ctx, "google sheets credentials missing or invalid, sync runs will fail until configured")
	}

	publisher := c.newPublisher(cfg)
	syncCfg := usecase.SyncConfig{
		SelectionSheetName: cfg.Sync.SelectionSheet,
		HomeGround:         cfg.Sync.HomeGround,
	}

	master := usecase.NewMasterDataSyncService(
		repos.teamSeasons, repos.matches, repos.players, repos.availability, repos.tx, gateway, syncCfg, logger,
	)
	lineups := usecase.NewSelectionSyncService(
		repos.teamSeasons, repos.matches, repos.players, repos.selections, repos.formats, repos.tx, gateway, logger,
	)
	c.ContextSync = usecase.NewContextSyncService(
		repos.teamSeasons, repos.matches, master, lineups, publisher, id.NewUUIDGenerator(), cfg.Sync.MaxWorkers, logger,
	)
	c.Catalog = usecase.NewCatalogService(repos.teamSeasons, repos.matches)
	c.TeamSheets = usecase.NewTeamSheetService(
		repos.matches, repos.formats, repos.selections, repos.players, gateway, c.ContextSync, logger,
	)
	c.Availability = usecase.NewAvailabilitySyncService(
		repos.matches, repos.players, repos.availability, newAvailabilityProvider(cfg, logger), repos.tx, logger,
	)
	c.Merge = usecase.NewPlayerMergeService(repos.players, repos.tx, logger)

	return c, nil
}

// Close releases the database pool and the event publisher.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) openRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	if cfg.DBURL == "" {
		c.logger.WarnContext(ctx, "DB_URL empty, using in-memory store")
		store := memory.NewSeededStore()
		if cfg.Sync.BootstrapSpreadsheet != "" {
			store.AddTeamSeason(memory.SeedDevTeamSeason(cfg.Sync.BootstrapSpreadsheet))
		}
		return repositories{
			teamSeasons:  memory.NewTeamSeasonRepository(store),
			matches:      memory.NewMatchRepository(store),
			players:      memory.NewPlayerRepository(store),
			availability: memory.NewAvailabilityRepository(store),
			selections:   memory.NewSelectionRepository(store),
			formats:      memory.NewMatchFormatRepository(store),
			tx:           memory.NewTxManager(store),
		}, nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return repositories{}, err
	}
	c.closers = append(c.closers, db.Close)

	if cfg.Sync.BootstrapSpreadsheet != "" {
		if err := postgres.BootstrapSeed(ctx, db, cfg.Sync.BootstrapSpreadsheet); err != nil {
			return repositories{}, fmt.Errorf("bootstrap seed: %w", err)
		}
	}

	repos := repositories{
		teamSeasons:  postgres.NewTeamSeasonRepository(db),
		matches:      postgres.NewMatchRepository(db),
		players:      postgres.NewPlayerRepository(db),
		availability: postgres.NewAvailabilityRepository(db),
		selections:   postgres.NewSelectionRepository(db),
		formats:      postgres.NewMatchFormatRepository(db),
		tx:           postgres.NewTxManager(db),
	}
	if cfg.CacheEnabled {
		store := cache.NewStore(cfg.CacheTTL)
		repos.teamSeasons = cacherepo.NewTeamSeasonRepository(repos.teamSeasons, store)
		repos.formats = cacherepo.NewMatchFormatRepository(repos.formats, store)
	}
	return repos, nil
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.ServiceName)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func newSheetsGateway(ctx context.Context, cfg config.Config, logger *logging.Logger) (*sheets.Client, error) {
	tokens, err := sheets.NewTokenSource(ctx, sheets.CredentialsConfig{
		ClientID:     cfg.Sheets.ClientID,
		ClientSecret: cfg.Sheets.ClientSecret,
		RefreshToken: cfg.Sheets.RefreshToken,
		TokenFile:    cfg.Sheets.TokenFile,
	})
	if err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}

	return sheets.NewClient(sheets.ClientConfig{
		BaseURL:          cfg.Sheets.BaseURL,
		TokenSource:      tokens,
		Timeout:          cfg.Sheets.Timeout,
		MaxRetries:       cfg.Sheets.MaxRetries,
		DocumentCacheTTL: cfg.Sheets.DocumentCacheTTL,
		DocumentCacheMax: cfg.Sheets.DocumentCacheMax,
		Logger:           logger,
		CircuitBreaker:   cfg.Sheets.Circuit,
	}), nil
}

// newAvailabilityProvider returns a nil interface when Spond is off so the
// availability service reports the dependency as unavailable.
func newAvailabilityProvider(cfg config.Config, logger *logging.Logger) usecase.AvailabilityProvider {
	if !cfg.Spond.Enabled {
		logger.Info("spond disabled", "reason", "SPOND_ENABLED=false")
		return nil
	}
	if !cfg.Spond.Configured() {
		logger.Warn("spond disabled", "reason", "SPOND_USERNAME or SPOND_PASSWORD empty")
		return nil
	}
	return spond.NewClient(spond.ClientConfig{
		BaseURL:        cfg.Spond.BaseURL,
		Username:       cfg.Spond.Username,
		Password:       cfg.Spond.Password,
		Timeout:        cfg.Spond.Timeout,
		Logger:         logger,
		CircuitBreaker: cfg.Spond.Circuit,
	})
}

func (c *Container) newPublisher(cfg config.Config) usecase.SyncEventPublisher {
	if !cfg.AMQP.Enabled {
		return usecase.NoopSyncEventPublisher()
	}
	publisher := events.NewAMQPPublisher(events.AMQPPublisherConfig{
		URL:      cfg.AMQP.URL,
		Exchange: cfg.AMQP.Exchange,
		Logger:   c.logger,
	})
	c.closers = append(c.closers, publisher.Close)
	return publisher
}

// NewHTTPServer builds the API server around the container's services.
func NewHTTPServer(cfg config.Config, c *Container, logger *logging.Logger) (*http.Server, error) {
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	handler := httpapi.NewHandler(c.Catalog, c.TeamSheets, c.ContextSync, c.Availability, c.Merge, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	})

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}, nil
}
