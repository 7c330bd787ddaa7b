package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/threatwatch-io/threatwatch/internal/adapters/cache"
	"github.com/threatwatch-io/threatwatch/internal/adapters/feedstore"
	"github.com/threatwatch-io/threatwatch/internal/adapters/storage"
	"github.com/threatwatch-io/threatwatch/internal/adapters/web"
	"github.com/threatwatch-io/threatwatch/internal/adapters/web/websocket"
	"github.com/threatwatch-io/threatwatch/internal/config"
	"github.com/threatwatch-io/threatwatch/internal/core/domain"
	"github.com/threatwatch-io/threatwatch/internal/core/ports"
	"github.com/threatwatch-io/threatwatch/internal/core/services/analysis"
	"github.com/threatwatch-io/threatwatch/internal/core/services/auth"
	"github.com/threatwatch-io/threatwatch/internal/core/services/recompute"
	"github.com/threatwatch-io/threatwatch/internal/core/services/risk"
	"github.com/threatwatch-io/threatwatch/internal/telemetry"
)

// Application is the facade for the entire system. It owns every adapter
// and wires the pure engine services to their side-effecting collaborators.
type Application struct {
	Config      *config.Config
	ThreatStore *feedstore.SQLiteRepository
	SystemStore *storage.SQLiteAdapter
	Cache       ports.AssessmentCache
	AuthService *auth.Service
	Pipeline    *recompute.Service
	Hub         *websocket.Hub
	WebServer   *web.Server

	shutdownTracer func(context.Context) error
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

func (app *Application) bootstrap() error {
	// 1. Foundation & Infrastructure
	telemetry.InitMetrics()

	shutdown, err := telemetry.InitTracer()
	if err != nil {
		log.Printf("Warning: tracer initialization failed: %v", err)
	} else {
		app.shutdownTracer = shutdown
	}

	if err := app.initStorage(); err != nil {
		return err
	}
	app.initCache()

	// 2. Engine Services
	engineCfg, err := config.LoadEngineConfig(app.Config.EnginePath)
	if err != nil {
		return fmt.Errorf("failed to load engine config: %w", err)
	}

	analyzer := analysis.NewServiceWith(
		analysis.NewProductNameMatcherWithConfig(engineCfg.ProductAliases, engineCfg.FuzzyThreshold),
		analysis.NewVersionMatcher(),
	)

	classifier, err := risk.NewRiskLevelClassifierWithThresholds(risk.Thresholds{
		Critical: engineCfg.Thresholds.Critical,
		High:     engineCfg.Thresholds.High,
		Medium:   engineCfg.Thresholds.Medium,
	})
	if err != nil {
		return fmt.Errorf("invalid risk thresholds: %w", err)
	}
	riskService := risk.NewServiceWith(risk.NewCVSSScoreCalculator(), risk.NewWeightFactorCalculator(), classifier)

	// 3. Auth
	app.AuthService = auth.NewService(app.SystemStore)
	if err := app.ensureDefaultAdmin(); err != nil {
		log.Printf("Warning: could not ensure default admin: %v", err)
	}

	// 4. Pipeline & Servers
	app.Hub = websocket.NewHub()
	app.Pipeline = recompute.NewService(recompute.Config{
		Threats:      app.ThreatStore,
		Assets:       app.SystemStore,
		PIRs:         app.SystemStore,
		Analyzer:     analyzer,
		Risk:         riskService,
		Associations: app.SystemStore,
		Assessments:  app.SystemStore,
		Cache:        app.Cache,
		Broadcaster:  app.Hub,
		Workers:      app.Config.Workers,
	})

	app.WebServer = web.NewServer(app.Config.Addr, web.Deps{
		AuthService:  app.AuthService,
		Threats:      app.ThreatStore,
		Assets:       app.SystemStore,
		PIRs:         app.SystemStore,
		Associations: app.SystemStore,
		Assessments:  app.SystemStore,
		Pipeline:     app.Pipeline,
		Hub:          app.Hub,
	})

	return nil
}

func (app *Application) initStorage() error {
	for _, path := range []string{app.Config.DBPath, app.Config.FeedDBPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	threatStore, err := feedstore.NewSQLiteRepository(app.Config.FeedDBPath)
	if err != nil {
		return fmt.Errorf("failed to init threat feed storage: %w", err)
	}
	app.ThreatStore = threatStore

	systemStore, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init system storage: %w", err)
	}
	app.SystemStore = systemStore
	return nil
}

func (app *Application) initCache() {
	if app.Config.RedisAddr == "" {
		log.Println("No Redis endpoint configured, assessment caching disabled")
		app.Cache = cache.NoopCache{}
		return
	}

	redisCache, err := cache.NewRedisAssessmentCache(app.Config.RedisAddr, "", app.Config.RedisDB, app.Config.CacheTTL)
	if err != nil {
		log.Printf("Warning: Redis unavailable (%v), assessment caching disabled", err)
		app.Cache = cache.NoopCache{}
		return
	}
	app.Cache = redisCache
}

func (app *Application) ensureDefaultAdmin() error {
	username := app.Config.BootstrapOp
	if username == "" {
		return nil
	}
	if _, err := app.SystemStore.GetByUsername(context.Background(), username); err == nil {
		return nil
	}

	log.Printf("Provisioning default admin user %q...", username)
	return app.AuthService.CreateUser(context.Background(), domain.User{
		Username: username,
		Role:     domain.RoleAdmin,
	}, "changeit")
}

// Run starts every component and blocks until ctx is cancelled or the
// web server fails.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting ThreatWatch components...")

	errChan := make(chan error, 1)
	go func() {
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	slog.Info("ThreatWatch Ready. Press Ctrl+C to terminate.")

	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case err := <-errChan:
		app.cleanup()
		return err
	}

	return app.cleanup()
}

func (app *Application) cleanup() error {
	slog.Info("Cleaning up resources...")

	if closer, ok := app.Cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Printf("Cache close error: %v", err)
		}
	}
	if app.ThreatStore != nil {
		if err := app.ThreatStore.Close(); err != nil {
			log.Printf("Threat store close error: %v", err)
		}
	}
	if app.SystemStore != nil {
		if err := app.SystemStore.Close(); err != nil {
			log.Printf("System store close error: %v", err)
		}
	}
	if app.shutdownTracer != nil {
		if err := app.shutdownTracer(context.Background()); err != nil {
			log.Printf("Tracer shutdown error: %v", err)
		}
	}
	return nil
}
