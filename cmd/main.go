package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/cache"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/config"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/handler"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/hub"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/idgen"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/live"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/provider"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/repository"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/service"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/database"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/jwt"
	pkglog "github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/middleware"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "live-engagement",
	})
	logger := pkglog.L()

	// Connect to database using GORM
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db,
		&domain.StreamModel{},
		&domain.MessageModel{},
		&domain.PollModel{},
		&domain.VoteModel{},
		&domain.QuestionModel{},
		&domain.BanModel{},
		&domain.ModerationActionModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	// Repositories
	streamRepo := repository.NewGormStreamRepository(db)
	archiveRepo := repository.NewGormArchiveRepository(db)

	var chatArchive repository.ChatArchive
	switch cfg.Archive.Driver {
	case "cassandra":
		cassArchive, err := repository.NewCassandraChatArchive(cfg.Archive.Cassandra)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to cassandra")
		}
		defer cassArchive.Close()
		chatArchive = cassArchive
		logger.Info().Msg("cassandra chat archive connected")
	default:
		chatArchive = repository.NewGormChatArchive(db)
	}

	// Stream record cache
	var streamCache cache.StreamCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisStreamCache(cfg.Cache)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		streamCache = redisCache
		logger.Info().Msg("redis cache connected")
	}

	// Event bus
	bus, err := pubsub.NewPubSub(cfg.PubSub)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to event bus")
	}
	defer bus.Close()
	logger.Info().Str("driver", cfg.PubSub.Driver).Msg("event bus connected")

	// Broadcast provider
	var prov provider.Provider = provider.NewNoopProvider()
	if cfg.Provider.Enabled {
		prov = provider.NewHTTPProvider(cfg.Provider)
	}

	// ID generator and the live engine
	ids, err := idgen.New(cfg.IDGen)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create id generator")
	}

	registry := live.NewRegistry(cfg.Live, ids)
	defer registry.Close()

	// Event exporter pumps engine events onto the bus.
	exporterCtx, stopExporter := context.WithCancel(context.Background())
	exporter := service.NewExporter(registry, bus)
	go exporter.Run(exporterCtx)

	// Service
	archiver := service.NewArchiver(archiveRepo, chatArchive)
	streamService := service.NewStreamService(
		streamRepo, archiveRepo, chatArchive, archiver,
		streamCache, cfg.Cache.TTL,
		registry, prov, bus,
		cfg.Defaults.ToStreamConfig(),
	)

	// Auth: verify tokens locally against the issuer's public key.
	var verifier *jwt.Verifier
	if cfg.Auth.Enabled {
		pem, err := os.ReadFile(cfg.Auth.PublicKeyPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Auth.PublicKeyPath).Msg("failed to read jwt public key")
		}
		verifier, err = jwt.NewVerifier(pem)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to parse jwt public key")
		}
	} else {
		logger.Warn().Msg("auth disabled, all requests are anonymous or trusted")
	}
	authMiddleware := middleware.NewAuthMiddleware(verifier)

	// Transport
	wsHub := hub.NewHub(registry)
	httpHandler := handler.NewHandler(streamService, authMiddleware)
	wsHandler := handler.NewWSHandler(wsHub, registry, verifier, cfg.WebSocket)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	httpHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", addr).Str("db_driver", cfg.Database.Driver).Msg("live-engagement starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Graceful shutdown: stop accepting, close sockets, drain archival.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	wsHub.CloseAll()
	stopExporter()
	archiver.Wait()
	logger.Info().Msg("shutdown complete")
}
