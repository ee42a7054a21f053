package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mygleague/inhouse/internal/config"
	"github.com/mygleague/inhouse/internal/domain/battle"
	"github.com/mygleague/inhouse/internal/domain/chat"
	"github.com/mygleague/inhouse/internal/domain/faction"
	"github.com/mygleague/inhouse/internal/domain/inventory"
	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/match"
	"github.com/mygleague/inhouse/internal/domain/points"
	"github.com/mygleague/inhouse/internal/domain/profile"
	"github.com/mygleague/inhouse/internal/domain/team"
	chatmem "github.com/mygleague/inhouse/internal/infrastructure/chat/memory"
	chatrest "github.com/mygleague/inhouse/internal/infrastructure/chat/rest"
	"github.com/mygleague/inhouse/internal/infrastructure/repository/memory"
	"github.com/mygleague/inhouse/internal/infrastructure/repository/postgres"
	"github.com/mygleague/inhouse/internal/interfaces/httpapi"
	"github.com/mygleague/inhouse/internal/platform/cache"
	idgen "github.com/mygleague/inhouse/internal/platform/id"
	"github.com/mygleague/inhouse/internal/usecase"
)

type repositories struct {
	lobby     lobby.Repository
	team      team.Repository
	match     match.Repository
	points    points.Repository
	inventory inventory.Repository
	profile   profile.Repository
	faction   faction.Repository
	battle    battle.Repository
}

// NewHTTPServer wires the whole service graph. The returned cleanup closes
// the database handle and is a no-op in memory mode.
func NewHTTPServer(cfg config.Config, logger *slog.Logger) (*http.Server, func() error, error) {
	repos, cleanup, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	gateway := buildChatGateway(cfg, logger)
	ids := idgen.NewRandomGenerator()

	registration := usecase.NewRegistrationService(repos.lobby, gateway, ids, cfg.OrganizerRoleID, logger)
	builder := usecase.NewBuilderService(repos.lobby, repos.team, repos.match, gateway, ids, cfg.OrganizerRoleID, logger)
	series := usecase.NewSeriesService(repos.lobby, repos.team, repos.match, gateway, cfg.DraftBaseURL, cfg.OrganizerRoleID, logger)
	builder.SetRoundStarter(series)

	settlement := usecase.NewSettlementService(
		repos.lobby, repos.team, repos.match, repos.points, repos.inventory,
		gateway, ids, cfg.OrganizerRoleID, logger,
	)
	shop := usecase.NewShopService(repos.points, repos.inventory, repos.profile, ids, logger)
	factions := usecase.NewFactionService(repos.faction, repos.profile, repos.points, repos.inventory, ids, logger)
	settlement.SetContributionApplier(factions)

	battleSvc := usecase.NewBattleService(repos.lobby, repos.battle, repos.points, gateway, ids, cfg.OrganizerRoleID, logger)
	profiles := usecase.NewProfileService(repos.profile, repos.inventory, logger)
	recount := usecase.NewRecountService(repos.lobby, repos.team, repos.match, repos.points, ids, logger)

	var store *cache.Store
	if cfg.CacheEnabled {
		store = cache.NewStore(cfg.CacheTTL)
	}
	dashboard := usecase.NewDashboardService(repos.lobby, repos.match, repos.points, repos.profile, store)

	handler := httpapi.NewHandler(
		registration, builder, series, settlement,
		shop, factions, battleSvc, recount, profiles, dashboard,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.BotAPIToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		_ = cleanup()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, cleanup, nil
}

func buildRepositories(cfg config.Config, logger *slog.Logger) (repositories, func() error, error) {
	if cfg.MemoryMode() {
		logger.Info("running on in-memory repositories", "reason", "DB_URL empty")

		profileRepo := memory.NewProfileRepository()
		factionRepo := memory.NewFactionRepository(profileRepo)
		memory.SeedFactions(factionRepo)

		return repositories{
			lobby:     memory.NewLobbyRepository(),
			team:      memory.NewTeamRepository(),
			match:     memory.NewMatchRepository(),
			points:    memory.NewPointsRepository(),
			inventory: memory.NewInventoryRepository(),
			profile:   profileRepo,
			faction:   factionRepo,
			battle:    memory.NewBattleRepository(),
		}, func() error { return nil }, nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return repositories{}, nil, err
	}

	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := postgres.BootstrapSeed(seedCtx, db); err != nil {
		_ = db.Close()
		return repositories{}, nil, fmt.Errorf("bootstrap seed: %w", err)
	}

	logger.Info("running on postgres repositories", "db_name", dbNameFromURL(cfg.DBURL))

	return repositories{
		lobby:     postgres.NewLobbyRepository(db),
		team:      postgres.NewTeamRepository(db),
		match:     postgres.NewMatchRepository(db),
		points:    postgres.NewPointsRepository(db),
		inventory: postgres.NewInventoryRepository(db),
		profile:   postgres.NewProfileRepository(db),
		faction:   postgres.NewFactionRepository(db),
		battle:    postgres.NewBattleRepository(db),
	}, db.Close, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
	)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

func buildChatGateway(cfg config.Config, logger *slog.Logger) chat.Gateway {
	if !cfg.DiscordEnabled {
		logger.Info("chat gateway running in memory", "reason", "DISCORD_ENABLED=false")
		return chatmem.NewGateway()
	}

	return chatrest.NewClient(chatrest.Config{
		BaseURL:  cfg.DiscordBaseURL,
		BotToken: cfg.DiscordBotToken,
		Timeout:  cfg.DiscordTimeout,
		Breaker:  cfg.DiscordCircuit,
	}, logger)
}
