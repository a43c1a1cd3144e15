package main

import (
	"context"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/snapsweep/media-service/internal/app"
	"github.com/snapsweep/media-service/internal/config"
	"github.com/snapsweep/media-service/internal/constants"
	"github.com/snapsweep/media-service/internal/controllers"
	"github.com/snapsweep/media-service/internal/entitlement"
	"github.com/snapsweep/media-service/internal/mediastore"
	"github.com/snapsweep/media-service/internal/middleware"
	"github.com/snapsweep/media-service/internal/observability"
	"github.com/snapsweep/media-service/internal/repositories"
	"github.com/snapsweep/media-service/internal/routes"
	"github.com/snapsweep/media-service/internal/services"
	"github.com/snapsweep/media-service/internal/utils"
	_ "time/tzdata"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize media-service:", err)
	}
	defer application.Close()

	if err := repositories.EnsureSchema(context.Background(), application.DB); err != nil {
		utils.Logger.Fatal("Failed to ensure schema:", err)
	}

	// Repositories
	markerRepo := repositories.NewPendingMarkerRepository(application.DB)
	commitLogRepo := repositories.NewCommitLogRepository(application.DB)
	quotaRepo := repositories.NewQuotaRepository(application.DB)

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedTestMarkers(context.Background(), markerRepo); err != nil {
			utils.Logger.Fatal("Failed to seed test markers:", err)
		}
	}

	store := newMediaStore(cfg)
	provider := newEntitlementProvider(cfg)
	events := observability.NewLogEmitter()

	// Services
	markerService := services.NewMarkerService(markerRepo)
	quotaService := services.NewQuotaLedgerService(quotaRepo, provider)
	executor := services.NewDeletionExecutor(store)
	orchestrator := services.NewCommitOrchestrator(
		markerRepo,
		commitLogRepo,
		quotaService,
		executor,
		events,
		time.Duration(cfg.LDFlag_StuckCommitStaleMinutes)*time.Minute,
	)

	// Resolve anything a previous process left mid-commit before serving.
	if err := orchestrator.RecoverStuckCommits(context.Background()); err != nil {
		utils.Logger.WithError(err).Error("Startup stuck-commit sweep failed")
	}

	// Controllers
	healthController := controllers.NewHealthController(application)
	binController := controllers.NewBinController(markerService)
	commitController := controllers.NewCommitController(orchestrator, events)
	quotaController := controllers.NewQuotaController(quotaService)

	// Router setup
	router := mux.NewRouter()

	// Public Routes
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)

	// Secured routes
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))
	secured.HandleFunc(routes.BinMarkers, binController.MarkAsset).Methods(http.MethodPost)
	secured.HandleFunc(routes.BinMarkers, binController.ListBin).Methods(http.MethodGet)
	secured.HandleFunc(routes.BinRestore, binController.RestoreAssets).Methods(http.MethodPost)
	secured.HandleFunc(routes.BinRestoreAll, binController.RestoreAll).Methods(http.MethodPost)
	secured.HandleFunc(routes.CommitPreview, commitController.GetPreview).Methods(http.MethodGet)
	secured.HandleFunc(routes.Commit, commitController.Commit).Methods(http.MethodPost)
	secured.HandleFunc(routes.Quota, quotaController.GetQuota).Methods(http.MethodGet)
	secured.HandleFunc(routes.QuotaUnlock, quotaController.UnlockPro).Methods(http.MethodPost)

	// Cron job setup
	c := cron.New(cron.WithLocation(time.UTC))

	_, err = c.AddFunc(constants.StuckCommitSweepCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.StuckCommitSweepTimeout)
		defer cancel()
		utils.Logger.Info("Starting stuck-commit sweep cron job...")
		if err := orchestrator.RecoverStuckCommits(ctx); err != nil {
			utils.Logger.WithError(err).Error("Failed to sweep stuck commits")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule stuck-commit sweep cron")
	}

	_, err = c.AddFunc(constants.QuotaRevalidationCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.StuckCommitSweepTimeout)
		defer cancel()
		utils.Logger.Info("Starting quota revalidation cron job...")
		quotaService.Validate(ctx)
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule quota revalidation cron")
	}

	_, err = c.AddFunc(constants.FailedPurgeCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.FailedPurgeTimeout)
		defer cancel()
		utils.Logger.Info("Starting failed-entry purge cron job...")
		if err := orchestrator.PurgeResolvedFailures(ctx, constants.FailedEntryRetention); err != nil {
			utils.Logger.WithError(err).Error("Failed to purge resolved failures")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule failed-entry purge cron")
	}

	c.Start()
	utils.Logger.Info("Scheduled maintenance cron jobs")

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Platform", "X-Device-ID"},
		AllowCredentials: false,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("media-service failed to start:", err)
	}
}

func newMediaStore(cfg *config.Config) mediastore.Store {
	if cfg.MediaBackend == "memory" {
		utils.Logger.Warn("Using in-memory media store; deletions are not durable")
		return mediastore.NewMemoryStore()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to load AWS config")
	}
	store, err := mediastore.NewS3Store(context.Background(), mediastore.S3StoreConfig{
		Client:    s3.NewFromConfig(awsCfg),
		Bucket:    cfg.MediaS3Bucket,
		KeyPrefix: cfg.MediaS3Prefix,
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialize S3 media store")
	}
	return store
}

func newEntitlementProvider(cfg *config.Config) entitlement.Provider {
	if cfg.StripeSecretKey == "" {
		utils.Logger.Warn("STRIPE_SECRET_KEY not set; entitlement checks run in static free mode")
		return &entitlement.StaticProvider{}
	}
	return entitlement.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeCustomerID)
}
