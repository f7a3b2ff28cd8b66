package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/signalmesh/advisor/internal/application"
	"github.com/signalmesh/advisor/internal/cache"
	"github.com/signalmesh/advisor/internal/config"
	"github.com/signalmesh/advisor/internal/domain/risk"
	"github.com/signalmesh/advisor/internal/engine"
	httpapi "github.com/signalmesh/advisor/internal/interfaces/http"
	"github.com/signalmesh/advisor/internal/persistence"
	"github.com/signalmesh/advisor/internal/persistence/postgres"
	"github.com/signalmesh/advisor/internal/risktrack"
	"github.com/signalmesh/advisor/internal/sources"
)

const version = "v1.2.0"

var (
	configPath string
	marketFlag string
	vixFlag    float64
	newsFlag   bool
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "advisor",
		Short:   "Regime-aware trading recommendation engine",
		Version: version,
		Long: `advisor combines weighted signal voting, regime-dependent weight
adjustment, multi-timeframe alignment, and an entry-confirmation
checklist into auditable LONG/SHORT/HOLD recommendations.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration")
	rootCmd.PersistentFlags().StringVar(&marketFlag, "market", "forex", "Market (forex|crypto)")
	rootCmd.PersistentFlags().Float64Var(&vixFlag, "vix", 18, "VIX reading for offline mode")
	rootCmd.PersistentFlags().BoolVar(&newsFlag, "news", false, "Inside a major-news window (offline mode)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <asset>",
		Short: "Run one analysis and print the recommendation as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	contextCmd := &cobra.Command{
		Use:   "context",
		Short: "Print the current market context as JSON",
		RunE:  runContext,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		RunE:  runServe,
	}
	serveCmd.Flags().String("host", "127.0.0.1", "Bind host")
	serveCmd.Flags().Int("port", 8080, "Bind port")
	serveCmd.Flags().String("redis", "", "Redis address (empty: in-memory cache)")
	serveCmd.Flags().String("pg", "", "PostgreSQL DSN for history (empty: disabled)")

	rootCmd.AddCommand(analyzeCmd, contextCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// buildStack wires an engine and service over the offline fixture
// providers. Live data feeds plug in through the same interfaces.
func buildStack(cfg *config.Config, store cache.Store, repo persistence.RecommendationRepo) (*application.Service, *risktrack.Tracker, error) {
	tracker := risktrack.NewTracker(cfg.Risk.Capital, cfg.Risk.Limits)

	collectorCfg := sources.DefaultCollectorConfig()
	collectorCfg.SourceTimeout = cfg.Engine.SourceTimeout
	collector := sources.NewCollector(collectorCfg, log.Logger, sources.FixtureSet()...)

	contexts := &engine.StaticContextProvider{Cfg: cfg, VIX: vixFlag, News: newsFlag}
	eng, err := engine.New(cfg, engine.Deps{
		Contexts:   contexts,
		Trends:     &engine.StaticTrendProvider{Set: engine.FixtureTrends()},
		Indicators: &engine.StaticIndicatorProvider{Ind: engine.FixtureIndicators()},
		Portfolio:  &engine.StaticPortfolioProvider{State: engine.FixturePortfolio()},
		Signals:    collector,
		Tracker:    tracker,
		Logger:     log.Logger,
	})
	if err != nil {
		return nil, nil, err
	}

	svc := application.NewService(application.DefaultServiceConfig(), eng, contexts, tracker, store, repo, log.Logger)
	return svc, tracker, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, _, err := buildStack(cfg, cache.NewMemoryStore(), nil)
	if err != nil {
		return err
	}

	rec, err := svc.Analyze(cmd.Context(), engine.Request{
		Market: risk.AssetClass(marketFlag),
		Asset:  args[0],
	}, false)
	if err != nil {
		return err
	}
	return printJSON(rec)
}

func runContext(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, _, err := buildStack(cfg, cache.NewMemoryStore(), nil)
	if err != nil {
		return err
	}

	mctx, err := svc.MarketContext(cmd.Context(), risk.AssetClass(marketFlag))
	if err != nil {
		return err
	}
	return printJSON(mctx)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var store cache.Store = cache.NewMemoryStore()
	if addr, _ := cmd.Flags().GetString("redis"); addr != "" {
		redisStore := cache.NewRedisStore(cache.RedisConfig{Addr: addr})
		if err := redisStore.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		store = redisStore
		log.Info().Str("addr", addr).Msg("redis cache connected")
	}

	var repo persistence.RecommendationRepo
	if dsn, _ := cmd.Flags().GetString("pg"); dsn != "" {
		db, err := sqlx.Open("postgres", dsn)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		if err := postgres.EnsureSchema(pingCtx, db); err != nil {
			return err
		}
		repo = postgres.NewRecommendationRepo(db, 10*time.Second)
		log.Info().Msg("postgres history enabled")
	}

	svc, _, err := buildStack(cfg, store, repo)
	if err != nil {
		return err
	}

	serverCfg := httpapi.DefaultServerConfig()
	serverCfg.Host, _ = cmd.Flags().GetString("host")
	serverCfg.Port, _ = cmd.Flags().GetInt("port")
	srv := httpapi.NewServer(serverCfg, svc, httpapi.NewMetricsRegistry(), log.Logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
