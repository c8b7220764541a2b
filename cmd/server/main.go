package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	certapp "github.com/projecta/backend/internal/application/certification"
	changelogapp "github.com/projecta/backend/internal/application/changelog"
	projectapp "github.com/projecta/backend/internal/application/project"
	sponsorshipapp "github.com/projecta/backend/internal/application/sponsorship"
	"github.com/projecta/backend/internal/infrastructure/auth"
	"github.com/projecta/backend/internal/infrastructure/billing"
	"github.com/projecta/backend/internal/infrastructure/config"
	"github.com/projecta/backend/internal/infrastructure/logger"
	"github.com/projecta/backend/internal/infrastructure/notification"
	"github.com/projecta/backend/internal/infrastructure/persistence"
	"github.com/projecta/backend/internal/infrastructure/printing"
	"github.com/projecta/backend/internal/infrastructure/scheduler"
	"github.com/projecta/backend/internal/infrastructure/storage"
	"github.com/projecta/backend/internal/infrastructure/telemetry"
	"github.com/projecta/backend/internal/interfaces/http/handler"
	"github.com/projecta/backend/internal/interfaces/http/middleware"
	"github.com/projecta/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/projecta/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

//	@title			Projecta Backend API
//	@version		1.0
//	@description	Project certification, sponsorship and changelog API

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// Telemetry first so the OTLP log core can be teed into the main logger
	providers, err := telemetry.Setup(context.Background(), cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log, err := logger.New(logCfg, providers.Logs.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Projecta backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh, false)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Warn("Database tracing not enabled", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis backs reviewer sessions and the shared rate limit budget
	var redisClient *redis.Client
	var sessions auth.ReviewerSessionRegistry = auth.NewInMemoryReviewerSessionRegistry()
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			_ = redisClient.Close()
		}()
		sessions = auth.NewRedisReviewerSessionRegistryWithClient(redisClient)
		log.Info("Reviewer sessions stored in Redis", zap.String("addr", cfg.Redis.Addr()))
	} else {
		log.Warn("Redis not configured, reviewer sessions are kept in process memory")
	}

	// Repositories
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	statusRepo := persistence.NewGormStatusRepository(db.DB)
	checklistRepo := persistence.NewGormChecklistRepository(db.DB)
	orgRepo := persistence.NewGormOrganisationRepository(db.DB)
	reviewerRepo := persistence.NewGormReviewerRepository(db.DB)
	answerRepo := persistence.NewGormChecklistAnswerRepository(db.DB)
	courseRepo := persistence.NewGormCourseRepository(db.DB)
	attendeeRepo := persistence.NewGormAttendeeRepository(db.DB)
	certificateRepo := persistence.NewGormCertificateRepository(db.DB)
	historyRepo := persistence.NewGormStatusChangeRepository(db.DB)
	sponsorRepo := persistence.NewGormSponsorRepository(db.DB)
	periodRepo := persistence.NewGormPeriodRepository(db.DB)
	changelogRepo := persistence.NewGormChangelogRepository(db.DB)

	metrics, err := telemetry.NewWorkflowMetrics(providers.Meter.Meter("projecta/workflow"))
	if err != nil {
		log.Fatal("Failed to register workflow metrics", zap.Error(err))
	}

	// Outgoing mail
	dispatcher := notification.NewDispatcher(newMailSender(cfg.SMTP, log), log, metrics)

	// Certificate rendering and storage
	var mirror storage.ObjectMirror
	if cfg.Storage.S3Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(context.Background()); err != nil {
			log.Fatal("Failed to prepare S3 bucket", zap.Error(err), zap.String("bucket", s3.GetBucket()))
		}
		mirror = s3
	}
	documents, err := storage.NewDocumentStorage(cfg.Storage.MediaRoot, mirror, log)
	if err != nil {
		log.Fatal("Failed to initialize document storage", zap.Error(err))
	}
	renderer := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Printing.Timeout,
		RemoteURL:      cfg.Printing.RemoteURL,
		NoSandbox:      cfg.Printing.NoSandbox,
		PaperWidthMM:   cfg.Printing.PaperWidth,
		PaperHeightMM:  cfg.Printing.PaperHeight,
		Logger:         log,
	})
	defer func() {
		_ = renderer.Close()
	}()

	// Application services
	projectService := projectapp.NewProjectService(projectRepo, log)
	statusService := projectapp.NewStatusService(projectRepo, statusRepo, log)
	checklistService := projectapp.NewChecklistService(projectRepo, checklistRepo, log)
	organisationService := certapp.NewOrganisationService(certapp.OrganisationRepositories{
		Organisations: orgRepo,
		Projects:      projectRepo,
		Statuses:      statusRepo,
		Checklists:    checklistRepo,
		Answers:       answerRepo,
		Reviewers:     reviewerRepo,
		History:       historyRepo,
	}, sessions, dispatcher, log,
		certapp.WithTransitionRecorder(metrics),
		certapp.WithReviewerValidity(cfg.Reviewer.DefaultValidity),
	)
	courseService := certapp.NewCourseService(orgRepo, projectRepo, reviewerRepo, courseRepo, log)
	attendeeService := certapp.NewAttendeeService(orgRepo, projectRepo, reviewerRepo, attendeeRepo, courseRepo, metrics, log)
	certificateService := certapp.NewCertificateService(certapp.CertificateDeps{
		Organisations: orgRepo,
		Projects:      projectRepo,
		Reviewers:     reviewerRepo,
		Courses:       courseRepo,
		Attendees:     attendeeRepo,
		Certificates:  certificateRepo,
		Layout:        printing.NewCertificateLayout(cfg.Storage.MediaRoot, log),
		Renderer:      renderer,
		Storage:       documents,
		Metrics:       metrics,
	}, cfg.Printing, cfg.App.PublicURL, log)

	sponsorshipOpts := []sponsorshipapp.Option{sponsorshipapp.WithMetrics(metrics)}
	if cfg.Stripe.SecretKey != "" {
		gateway, err := billing.NewStripeGateway(cfg.Stripe, log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe gateway", zap.Error(err))
		}
		sponsorshipOpts = append(sponsorshipOpts, sponsorshipapp.WithGateway(gateway))
	} else {
		log.Warn("Stripe not configured, subscription sync and cancel are disabled")
	}
	sponsorshipService := sponsorshipapp.NewService(projectRepo, sponsorRepo, periodRepo, dispatcher, log, sponsorshipOpts...)
	changelogService := changelogapp.NewService(projectRepo, changelogRepo, log)

	// Background subscription sync
	if cfg.Scheduler.Enabled {
		syncScheduler, err := scheduler.NewSubscriptionSyncScheduler(sponsorshipService, cfg.Scheduler, log)
		if err != nil {
			log.Fatal("Failed to create subscription scheduler", zap.Error(err))
		}
		if err := syncScheduler.Start(); err != nil {
			log.Fatal("Failed to start subscription scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping subscription scheduler", zap.Error(err))
			}
		}()
		log.Info("Subscription scheduler started",
			zap.String("cron", cfg.Scheduler.SubscriptionSyncCron),
			zap.Time("next_run", syncScheduler.NextRun(time.Now())),
		)
	}

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	jwtService := auth.NewJWTService(cfg.JWT)
	cookies, err := auth.NewReviewerCookieStore(auth.CookieStoreConfig{
		Secret: []byte(cfg.Reviewer.CookieSecret),
		MaxAge: int(cfg.Reviewer.DefaultValidity.Seconds()),
		Secure: cfg.Reviewer.CookieSecure,
	})
	if err != nil {
		log.Fatal("Failed to initialize reviewer cookie store", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	tracingCfg := middleware.DefaultTracingConfig()
	tracingCfg.ServiceName = cfg.Telemetry.ServiceName
	tracingCfg.Enabled = cfg.Telemetry.Enabled
	profilingCfg := middleware.DefaultProfilingConfig()
	profilingCfg.Enabled = cfg.Telemetry.ProfilingEnabled

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(tracingCfg))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(providers.Meter.Meter("projecta/http"), log))
	engine.Use(middleware.Profiling(profilingCfg))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))
	engine.Use(middleware.Authenticate(middleware.AuthConfig{
		JWTService: jwtService,
		Sessions:   cookies,
		Reviewers:  organisationService,
		Logger:     log,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	// keyed by tenant, so after Authenticate
	if cfg.HTTP.RateLimitEnabled {
		store, err := middleware.NewRateLimitStore(redisClient)
		if err != nil {
			log.Fatal("Failed to create rate limit store", zap.Error(err))
		}
		engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Requests: int64(cfg.HTTP.RateLimitRequests),
			Window:   cfg.HTTP.RateLimitWindow,
			Store:    store,
			Logger:   log,
		}))
	}

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = redisPinger{redisClient}
	}
	handlers := router.Handlers{
		System:        handler.NewSystemHandler(Version, checks),
		Projects:      handler.NewProjectHandler(projectService, statusService, checklistService),
		Organisations: handler.NewOrganisationHandler(organisationService),
		Reviewers:     handler.NewReviewerHandler(organisationService, cookies),
		Courses:       handler.NewCourseHandler(courseService, attendeeService),
		Certificates:  handler.NewCertificateHandler(certificateService),
		Sponsorship:   handler.NewSponsorshipHandler(sponsorshipService),
		Changelog:     handler.NewChangelogHandler(changelogService),
	}
	router.Mount(engine, handlers,
		middleware.SwaggerProtection(cfg.Swagger, middleware.RequireActor()),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := providers.Shutdown(ctx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newMailSender returns an SMTP sender, or one that only logs when no SMTP
// host is configured
func newMailSender(cfg config.SMTPConfig, log *zap.Logger) notification.Sender {
	if cfg.Host == "" {
		log.Warn("SMTP not configured, notifications are only logged")
		return notification.NewLogSender(log)
	}
	sender, err := notification.NewSMTPSender(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize SMTP sender", zap.Error(err))
	}
	return sender
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
