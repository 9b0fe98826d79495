package router

import (
	"time"

	draftsvc "arena-backend/internal/application/drafts"
	livesyncsvc "arena-backend/internal/application/livesync"
	marketsvc "arena-backend/internal/application/market"
	portfoliosvc "arena-backend/internal/application/portfolio"
	schedsvc "arena-backend/internal/application/schedule"
	stagesvc "arena-backend/internal/application/stage"
	authsvc "arena-backend/internal/auth"
	"arena-backend/internal/config"
	"arena-backend/internal/constants"
	"arena-backend/internal/infrastructure/database"
	authhandler "arena-backend/internal/interfaces/handlers/auth"
	healthhandler "arena-backend/internal/interfaces/handlers/health"
	investhandler "arena-backend/internal/interfaces/handlers/investments"
	livesynchandler "arena-backend/internal/interfaces/handlers/livesync"
	markethandler "arena-backend/internal/interfaces/handlers/market"
	schedhandler "arena-backend/internal/interfaces/handlers/schedule"
	stagehandler "arena-backend/internal/interfaces/handlers/stage"
	"arena-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app with all global middleware and route
// registration.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, redisClient, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)

	app.Use(middleware.HealthMarker(redisClient))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	// Health module (GET /, GET /reset, GET /health/json, GET /health/errors)
	healthHandlers := &healthhandler.Handlers{
		Rdb:            redisClient,
		DB:             &gormDBPinger{db: db},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", healthHandlers.Root)
	app.Get("/reset", healthHandlers.Reset)
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/errors", healthHandlers.Errors)

	// Auth (no auth middleware): POST login, GET me, DELETE logout
	var userFinder authsvc.UserFinder
	if db != nil {
		userFinder = &authsvc.GormUserFinder{DB: db}
	}
	authHandlers := &authhandler.Handlers{
		UserFinder: userFinder,
		Rdb:        redisClient,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", authHandlers.Login)
	authGroup.Get("/me", authHandlers.Me)
	authGroup.Delete("/logout", authHandlers.Logout)

	// --- Protected modules (auth required) ---
	if db != nil && redisClient != nil {
		stageService := &stagesvc.Service{
			DB:            db,
			BiddingWindow: time.Duration(cfg.BiddingWindowMin) * time.Minute,
		}
		scheduleService := &schedsvc.Service{DB: db}
		draftService := &draftsvc.Service{DB: db}
		portfolioService := &portfoliosvc.Service{DB: db}
		marketService := &marketsvc.Service{DB: db}
		livesyncService := &livesyncsvc.Service{DB: db, Market: marketService}

		// Cluster stage module (operator only) + snapshot read
		stageHandlers := &stagehandler.Handlers{Service: stageService}
		livesyncHandlers := &livesynchandler.Handlers{
			Service:  livesyncService,
			Interval: time.Duration(cfg.SyncIntervalSeconds) * time.Second,
		}
		clusterGroup := app.Group("/api/v1/clusters", middleware.RequireAuth())
		clusterGroup.Post("/:cluster_id/advance-stage", middleware.AuthorizePermission(constants.ManageStage), stageHandlers.AdvanceStage)
		clusterGroup.Post("/:cluster_id/open-bidding", middleware.AuthorizePermission(constants.ManageStage), stageHandlers.OpenBidding)
		clusterGroup.Post("/:cluster_id/close-bidding", middleware.AuthorizePermission(constants.ManageStage), stageHandlers.CloseBidding)
		clusterGroup.Get("/:cluster_id/snapshot", middleware.AuthorizePermission(constants.ViewData), livesyncHandlers.Snapshot)

		// Schedule module (operator writes, authed reads)
		scheduleHandlers := &schedhandler.Handlers{Service: scheduleService}
		scheduleGroup := app.Group("/api/v1/schedule", middleware.RequireAuth())
		scheduleGroup.Post("/start-pitch", middleware.AuthorizePermission(constants.ManageSchedule), scheduleHandlers.StartPitch)
		scheduleGroup.Post("/end-pitch", middleware.AuthorizePermission(constants.ManageSchedule), scheduleHandlers.EndPitch)
		scheduleGroup.Post("/skip-pitch", middleware.AuthorizePermission(constants.ManageSchedule), scheduleHandlers.SkipPitch)
		scheduleGroup.Post("/pause-pitch", middleware.AuthorizePermission(constants.ManageSchedule), scheduleHandlers.PausePitch)
		scheduleGroup.Post("/resume-pitch", middleware.AuthorizePermission(constants.ManageSchedule), scheduleHandlers.ResumePitch)
		scheduleGroup.Post("/:cluster_id/ensure", middleware.AuthorizePermission(constants.ManageSchedule), scheduleHandlers.EnsureSchedule)
		scheduleGroup.Get("/:cluster_id", middleware.AuthorizePermission(constants.ViewData), scheduleHandlers.ListSchedule)

		// Investments module (team leads, scoped to own team)
		investHandlers := &investhandler.Handlers{
			Drafts:    draftService,
			Portfolio: portfolioService,
		}
		investGroup := app.Group("/api/v1/investments", middleware.RequireAuth())
		investGroup.Post("/save-draft", middleware.AuthorizePermission(constants.SaveDraft), investHandlers.SaveDraft)
		investGroup.Post("/edit-draft", middleware.AuthorizePermission(constants.SaveDraft), investHandlers.EditDraft)
		investGroup.Post("/commit-portfolio", middleware.AuthorizePermission(constants.CommitPortfolio), investHandlers.CommitPortfolio)
		investGroup.Get("/mine", middleware.AuthorizePermission(constants.ViewData), investHandlers.Mine)

		// Market module (sealed reveal)
		marketHandlers := &markethandler.Handlers{Service: marketService}
		marketGroup := app.Group("/api/v1/market", middleware.RequireAuth())
		marketGroup.Get("/:cluster_id/valuations", middleware.AuthorizePermission(constants.ViewData), marketHandlers.GetValuations)

		// Live sync stream
		streamGroup := app.Group("/api/v1/stream", middleware.RequireAuth())
		streamGroup.Get("/:cluster_id", middleware.AuthorizePermission(constants.ViewData), livesyncHandlers.Stream)
	}

	return app, db, redisClient, nil
}
