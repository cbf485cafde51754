package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/contactkeeper/contacts_api/internal/cache"
	"github.com/contactkeeper/contacts_api/internal/config"
	"github.com/contactkeeper/contacts_api/internal/es"
	"github.com/contactkeeper/contacts_api/internal/handlers"
	"github.com/contactkeeper/contacts_api/internal/logging"
	"github.com/contactkeeper/contacts_api/internal/mail"
	mwauth "github.com/contactkeeper/contacts_api/internal/middleware/auth"
	"github.com/contactkeeper/contacts_api/internal/mykafka"
	"github.com/contactkeeper/contacts_api/internal/repo"
	authsvc "github.com/contactkeeper/contacts_api/internal/service/auth"
	contactsvc "github.com/contactkeeper/contacts_api/internal/service/contacts"
	"github.com/contactkeeper/contacts_api/internal/service/token"
	"github.com/contactkeeper/contacts_api/internal/upload"
	httpserver "github.com/contactkeeper/contacts_api/internal/transport/http"
)

const contactsIndex = "contacts"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	userCache, err := cache.New(cfg.REDIS_URL, time.Duration(cfg.CACHE_TTL)*time.Second, logger)
	if err != nil {
		log.Fatalf("redis init: %v", err)
	}

	esClient, err := es.NewClient(cfg)
	if err != nil {
		log.Fatalf("elasticsearch init: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	avatars, err := upload.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("minio init: %v", err)
	}

	producer := mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})

	tokens, err := token.NewService(
		[]byte(cfg.JWT_SECRET),
		cfg.JWT_ALGORITHM,
		time.Duration(cfg.JWT_EXPIRATION_SECONDS)*time.Second,
		time.Duration(cfg.JWT_REFRESH_EXPIRATION_SECONDS)*time.Second,
		time.Duration(cfg.RESET_EXPIRATION_SECONDS)*time.Second,
	)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	store := repo.New(db)
	auth := authsvc.New(store, tokens, userCache)
	contacts := contactsvc.New(store, contactsvc.NewIndexer(esClient, contactsIndex))
	sender := mail.NewSMTPSender(cfg)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.ORIGINS}))
	e.Use(httpserver.RequestLogger(logger))

	authHandler := &handlers.AuthHandler{Auth: auth, Mail: sender, Producer: producer, Log: logger}
	deps := httpserver.Deps{
		DB:          db,
		Guard:       &mwauth.Guard{Auth: auth},
		AuthHandler: authHandler,
		UserHandler: &handlers.UserHandler{
			Auth:     auth,
			Uploader: avatars,
			Producer: producer,
			Mailer:   authHandler,
		},
		ContactHandler: &handlers.ContactHandler{Contacts: contacts, Producer: producer},
		SearchHandler:  &handlers.SearchHandler{Contacts: contacts},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + cfg.APP_PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}
	if err := userCache.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}
	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
