package main

//	@title						QualityWatch API
//	@version					0.1.0
//	@description				Data-stream quality scoring, threshold evaluation and alert lifecycle management.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/HerbHall/qualitywatch/api/swagger"
	"github.com/HerbHall/qualitywatch/internal/alerts"
	"github.com/HerbHall/qualitywatch/internal/auth"
	"github.com/HerbHall/qualitywatch/internal/config"
	"github.com/HerbHall/qualitywatch/internal/event"
	"github.com/HerbHall/qualitywatch/internal/feed"
	"github.com/HerbHall/qualitywatch/internal/health"
	"github.com/HerbHall/qualitywatch/internal/perf"
	"github.com/HerbHall/qualitywatch/internal/quality"
	"github.com/HerbHall/qualitywatch/internal/registry"
	"github.com/HerbHall/qualitywatch/internal/server"
	"github.com/HerbHall/qualitywatch/internal/statsink"
	"github.com/HerbHall/qualitywatch/internal/store"
	"github.com/HerbHall/qualitywatch/internal/version"
	"github.com/HerbHall/qualitywatch/internal/ws"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	// Subcommand dispatch (before flag.Parse).
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			os.Args = append(os.Args[:1], os.Args[2:]...)
		case "config":
			runConfig(os.Args[2:])
			return
		case "token":
			runToken(os.Args[2:])
			return
		case "version":
			fmt.Println(version.String())
			return
		}
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(viperCfg)

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("QualityWatch starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openStore(ctx, viperCfg, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	bus := event.NewBus(logger.Named("event"))
	reg := registry.New(logger.Named("registry"))

	// Register all plugins (compile-time composition)
	modules := []plugin.Plugin{
		alerts.New(),
		feed.New(),
		quality.New(),
		perf.New(),
		health.New(),
		statsink.New(),
	}
	for _, m := range modules {
		if err := reg.Register(m); err != nil {
			logger.Fatal("failed to register plugin", zap.Error(err))
		}
		name := m.Info().Name
		if key := "plugins." + name + ".enabled"; viperCfg.IsSet(key) && !viperCfg.GetBool(key) {
			reg.Disable(name)
			logger.Info("plugin disabled by configuration", zap.String("plugin", name))
		}
	}

	if err := reg.Validate(); err != nil {
		logger.Fatal("plugin validation failed", zap.Error(err))
	}

	if err := reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config:  cfg.Sub("plugins." + name),
			Logger:  logger.Named(name),
			Store:   db,
			Bus:     bus,
			Plugins: reg,
		}
	}); err != nil {
		logger.Fatal("failed to initialize plugins", zap.Error(err))
	}

	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start plugins", zap.Error(err))
	}

	// Plugins registered OnChange callbacks during Init; start the watcher now.
	cfg.Watch()

	authCfg := auth.DefaultConfig()
	if err := cfg.Sub("auth").Unmarshal(&authCfg); err != nil {
		logger.Fatal("invalid auth configuration", zap.Error(err))
	}
	tokens := auth.NewTokenServiceFromConfig(authCfg)
	if tokens == nil {
		logger.Warn("auth.jwt_secret is empty; mutating API requests are not authenticated",
			zap.String("component", "auth"),
		)
	} else {
		logger.Info("bearer token auth enabled",
			zap.String("component", "auth"),
			zap.Duration("token_ttl", tokens.TTL()),
		)
	}

	wsHandler := ws.NewHandler(tokens, bus, logger.Named("ws"))

	var srvCfg server.Config
	if err := viperCfg.UnmarshalKey("server", &srvCfg); err != nil {
		logger.Fatal("invalid server configuration", zap.Error(err))
	}
	addr := srvCfg.Addr()
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		return db.DB().PingContext(ctx)
	})
	srv := server.New(addr, reg, logger, readyCheck, server.Options{
		Tokens:    tokens,
		DevMode:   srvCfg.DevMode,
		RateLimit: srvCfg.RateLimit,
		RateBurst: srvCfg.RateBurst,
		Extra:     []server.RouteRegistrar{wsHandler},
	})

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("QualityWatch ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	wsHandler.Close()
	reg.StopAll(shutdownCtx)

	logger.Info("QualityWatch stopped")
}

// openStore opens the configured database and refuses to run against a
// schema written by a newer binary.
func openStore(ctx context.Context, v *viper.Viper, logger *zap.Logger) (*store.SQLStore, error) {
	driver := v.GetString("database.driver")
	dsn := v.GetString("database.dsn")
	if driver == store.DriverSQLite || driver == "" {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	}
	db, err := store.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("driver", db.Driver()),
	)
	return db, nil
}
