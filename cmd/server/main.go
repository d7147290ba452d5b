package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jarboard/backend/internal/config"
	"github.com/jarboard/backend/internal/db"
	"github.com/jarboard/backend/internal/handlers"
	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/middleware"
	"github.com/jarboard/backend/internal/observability"
	"github.com/jarboard/backend/internal/realtime"
	"github.com/jarboard/backend/internal/repos"
	"github.com/jarboard/backend/internal/server"
	"github.com/jarboard/backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Config load failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	if shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "jarboard-backend",
		Environment: os.Getenv("ENVIRONMENT"),
		Version:     os.Getenv("VERSION"),
	}); shutdown != nil {
		defer shutdown(context.Background())
	}

	// Postgres
	postgresService, err := db.NewPostgresService(cfg.Postgres, log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.SetupChangeCapture(); err != nil {
		log.Error("Change capture setup failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	jarRepo := repos.NewJarRepo(thePG, log)
	tagRepo := repos.NewTagRepo(thePG, log)
	linkRepo := repos.NewLinkRepo(thePG, log)
	todoRepo := repos.NewTodoRepo(thePG, log)
	noteRepo := repos.NewNoteRepo(thePG, log)

	// Realtime pipeline: triggers -> pg_notify -> listener -> bus -> sessions.
	log.Info("Setting up realtime pipeline from main...")
	bus := realtime.NewBus(log)
	var publisher realtime.Publisher = bus
	if cfg.RedisAddr != "" {
		relay, err := realtime.NewRedisRelay(cfg.RedisAddr, cfg.RedisChannel, log)
		if err != nil {
			log.Error("Redis relay init failed", "error", err)
			os.Exit(1)
		}
		defer relay.Close()
		if err := relay.StartForwarder(ctx, bus); err != nil {
			log.Error("Redis forwarder start failed", "error", err)
			os.Exit(1)
		}
		publisher = relay
	}
	listener := realtime.NewListener(log, realtime.PgxConnector(cfg.Postgres.DSN(), db.ChangeChannel), publisher)
	go listener.Run(ctx)

	// Services
	log.Info("Setting up Services from main...")
	resolver := services.NewMentionResolver(thePG, log, jarRepo, tagRepo)
	linkSync := services.NewLinkSyncService(thePG, log, linkRepo, todoRepo, noteRepo)
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userService := services.NewUserService(thePG, log, userRepo)
	jarService := services.NewJarService(thePG, log, jarRepo, tagRepo, linkRepo, resolver, linkSync)
	tagService := services.NewTagService(thePG, log, tagRepo, jarRepo, linkRepo, resolver, linkSync)
	todoService := services.NewTodoService(thePG, log, todoRepo, jarRepo, tagRepo, resolver, linkSync)
	noteService := services.NewNoteService(thePG, log, noteRepo, resolver, linkSync)
	suggestService := services.NewSuggestService(log, jarRepo, tagRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	jarHandler := handlers.NewJarHandler(jarService)
	tagHandler := handlers.NewTagHandler(tagService)
	todoHandler := handlers.NewTodoHandler(todoService)
	noteHandler := handlers.NewNoteHandler(noteService)
	suggestHandler := handlers.NewSuggestHandler(suggestService)
	streamHandler := handlers.NewStreamHandler(log, bus)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		UserHandler:    userHandler,
		JarHandler:     jarHandler,
		TagHandler:     tagHandler,
		TodoHandler:    todoHandler,
		NoteHandler:    noteHandler,
		SuggestHandler: suggestHandler,
		StreamHandler:  streamHandler,
	})

	fmt.Printf("Server listening on :%s\n", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
