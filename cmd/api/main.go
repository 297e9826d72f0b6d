package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	_ "github.com/jhoicas/remisiones-api/docs"
	"github.com/jhoicas/remisiones-api/internal/application/billing"
	"github.com/jhoicas/remisiones-api/internal/application/inventory"
	"github.com/jhoicas/remisiones-api/internal/application/ports"
	"github.com/jhoicas/remisiones-api/internal/application/remission"
	"github.com/jhoicas/remisiones-api/internal/application/usecase"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
	"github.com/jhoicas/remisiones-api/internal/infrastructure/cfdi"
	"github.com/jhoicas/remisiones-api/internal/infrastructure/lock"
	"github.com/jhoicas/remisiones-api/internal/infrastructure/memory"
	"github.com/jhoicas/remisiones-api/internal/infrastructure/postgres"
	"github.com/jhoicas/remisiones-api/internal/infrastructure/report"
	"github.com/jhoicas/remisiones-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/remisiones-api/internal/interfaces/http"
	"github.com/jhoicas/remisiones-api/pkg/config"
	"github.com/jhoicas/remisiones-api/pkg/logger"
)

func main() {
	// .env es opcional: en contenedores las variables ya vienen del entorno.
	_ = godotenv.Load()

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
		Str("db_driver", cfg.DB.Driver).
		Bool("cfdi_mock", cfg.CFDI.IsMock()).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner ports.TxRunner
		snapshot ports.SnapshotRunner
		repos    repository.Repositories
		ping     func(context.Context) error
	)
	switch cfg.DB.Driver {
	case "memory":
		store := memory.NewStore()
		txRunner, snapshot, repos = store, store, store.Repositories()
		log.Warn().Msg("persistencia en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			log.Info().Strs("applied", applied).Msg("migraciones aplicadas")
		}
		runner := postgres.NewTxRunner(pool)
		txRunner, snapshot, repos, ping = runner, runner, postgres.NewRepositories(pool), pool.Ping
	}

	// Timbrado: sello opcional con el CSD, PAC real o simulado.
	var sealer *cfdi.Sealer
	if cfg.CFDI.CertPath != "" {
		sealer, err = cfdi.LoadSealer(cfg.CFDI.CertPath, cfg.CFDI.CertPassword)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.CFDI.CertPath).Msg("cargar CSD")
		}
		log.Info().Str("no_certificado", sealer.CertificateNumber()).Msg("CSD cargado")
	}
	builder := cfdi.NewBuilder(cfdi.IssuerFromConfig(cfg.CFDI), sealer)

	var stamper billing.Stamper
	if cfg.CFDI.IsMock() {
		stamper = cfdi.NewMockStamper()
	} else {
		stamper = cfdi.NewPACClient(cfdi.PACConfig{
			BaseURL: cfg.CFDI.PACURL,
			User:    cfg.CFDI.PACUser,
			Token:   cfg.CFDI.PACToken,
			Rate:    cfg.CFDI.PACRate,
			Burst:   cfg.CFDI.PACBurst,
		})
	}

	var locker billing.Locker = lock.NoopLocker{}
	if cfg.Redis.Addr != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL)
	}

	var artifacts billing.ArtifactStore
	switch cfg.Storage.Driver {
	case "gcs":
		gcs, err := storage.NewGCSStore(ctx, cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("Cloud Storage")
		}
		defer gcs.Close()
		artifacts = gcs
	default:
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir)
		if err != nil {
			log.Fatal().Err(err).Msg("almacenamiento local")
		}
		artifacts = local
	}

	ledger := inventory.NewStockLedger()
	invoiceCfg := billing.InvoiceConfig{ClaimTTL: cfg.CFDI.ClaimTTL, StampTimeout: cfg.CFDI.StampTimeout}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimitMB * 1024 * 1024,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.CFDI.StampTimeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Remisiones API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:     usecase.NewProductUseCase(repos.Products),
		SupplierUC:    usecase.NewSupplierUseCase(repos.Suppliers),
		ClientUC:      usecase.NewClientUseCase(repos.Clients),
		ReceiptUC:     inventory.NewReceiptUseCase(txRunner, repos, ledger, log),
		AdjustmentUC:  inventory.NewAdjustmentUseCase(txRunner, ledger, log),
		LedgerQueryUC: inventory.NewLedgerQueryUseCase(snapshot, repos, report.NewKardexXLSX()),
		ShipmentUC:    remission.NewShipmentUseCase(txRunner, repos, ledger, cfg.CFDI.ClaimTTL, log),
		InvoiceUC:     billing.NewInvoiceUseCase(txRunner, builder, stamper, locker, artifacts, invoiceCfg, log),
		PaymentUC:     billing.NewPaymentUseCase(txRunner, repos, log),
		JWTSecret:     cfg.JWT.Secret,
		ServiceName:   cfg.App.Name,
		Ping:          ping,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
