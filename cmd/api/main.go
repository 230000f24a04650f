package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/application/purchasing"
	"github.com/jhoicas/clinistock-api/internal/application/usecase"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
	"github.com/jhoicas/clinistock-api/internal/infrastructure/events"
	"github.com/jhoicas/clinistock-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/clinistock-api/internal/infrastructure/pdf"
	"github.com/jhoicas/clinistock-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/clinistock-api/internal/interfaces/http"
	"github.com/jhoicas/clinistock-api/internal/worker"
	"github.com/jhoicas/clinistock-api/pkg/config"
	"github.com/jhoicas/clinistock-api/pkg/logger"
)

// storage lo que cada driver aporta al armado de la aplicación.
type storage struct {
	txRunner   inventory.TxRunner
	repos      inventory.Repos
	categories repository.CategoryRepository
	suppliers  repository.SupplierRepository
	health     map[string]httpRouter.Pinger
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st storage
	switch cfg.Storage.Driver {
	case "memory":
		store := memory.NewStore(cfg.Ledger.LockTimeout)
		st = storage{
			txRunner:   store,
			repos:      store.Repos(),
			categories: store.Categories(),
			suppliers:  store.Suppliers(),
			health:     map[string]httpRouter.Pinger{},
			close:      func() {},
		}
		log.Warn().Msg("STORAGE_DRIVER=memory: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("aplicar esquema")
			}
			log.Info().Msg("esquema aplicado")
		}
		st = storage{
			txRunner:   postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
			repos:      postgres.NewRepos(pool),
			categories: postgres.NewCategoryRepository(pool),
			suppliers:  postgres.NewSupplierRepository(pool),
			health:     map[string]httpRouter.Pinger{"db": httpRouter.PingFunc(pool.Ping)},
			close:      pool.Close,
		}
	}
	defer st.close()

	// Eventos de stock: Redis si está habilitado, si no se descartan.
	var publisher inventory.EventPublisher = inventory.NopPublisher{}
	if cfg.Redis.Enabled {
		rdb, err := events.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, cfg.Redis.EventList)
		st.health["redis"] = httpRouter.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		log.Info().Str("list", cfg.Redis.EventList).Msg("publicación de eventos en Redis habilitada")
	}

	stock := inventory.NewClinicStockProjection(st.txRunner, st.repos)
	batches := inventory.NewBatchTracker(st.txRunner, st.repos)
	ledger := inventory.NewStockLedger(st.txRunner, st.repos, batches, stock, publisher)
	replenishmentUC := inventory.NewReplenishmentUseCase(stock, st.repos)
	workflow := purchasing.NewPurchaseOrderWorkflow(
		st.txRunner, st.repos, st.suppliers, batches, ledger, infrapdf.NewPurchaseOrderGenerator(),
	)

	workerDone := worker.StartExpirySweeper(ctx, batches, cfg.Worker.ExpirySweepInterval)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Clinistock API",
	}))

	app.Get("/health", httpRouter.Health(cfg.App.Name, st.health))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ItemCatalog:   usecase.NewItemCatalog(st.repos.Items, st.categories, st.repos.Stock, st.repos.Orders),
		CategoryUC:    usecase.NewCategoryUseCase(st.categories),
		SupplierUC:    usecase.NewSupplierRegistry(st.suppliers),
		ClinicUC:      usecase.NewClinicUseCase(st.repos.Clinics),
		Ledger:        ledger,
		Stock:         stock,
		Batches:       batches,
		Replenishment: replenishmentUC,
		Purchasing:    workflow,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	<-workerDone

	log.Info().Msg("aplicación detenida")
}
