package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/config"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/db"
	httpapi "github.com/boutiabderrahim-hash/shisha23mm/internal/http"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/logger"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/queue"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/storage"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/store"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	posStore, err := store.NewPostgres(ctx, pool)
	if err != nil {
		log.Fatal("state store init failed", zap.Error(err))
	}
	if err := store.SeedDefaults(ctx, posStore, cfg.AdminPIN); err != nil {
		log.Fatal("state seed failed", zap.Error(err))
	}

	session, err := pos.NewSession(ctx, posStore, cfg.TaxRate, pos.SystemClock)
	if err != nil {
		log.Fatal("session load failed", zap.Error(err))
	}
	log.Info("terminal session ready", zap.Float64("taxRate", cfg.TaxRate))

	var events *queue.Events
	if cfg.RabbitMQURL != "" {
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; continuing without events", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := qc.EnsureExchange(queue.EventsExchange); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq exchange failed", zap.Error(err))
				}
				log.Warn("rabbitmq exchange failed; continuing without events", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}
		if qc != nil {
			defer qc.Close()
			events = queue.NewEvents(qc, log)
			log.Info("event publishing enabled", zap.String("exchange", queue.EventsExchange))
		}
	} else {
		log.Info("event publishing disabled (RABBITMQ_URL is empty)")
	}

	var backups *storage.ObjectStore
	if cfg.ObjectStoreEndpoint != "" && cfg.ObjectStoreBucket != "" {
		backups, err = storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
			StorageClass:    cfg.ObjectStoreStorageClass,
		})
		if err != nil {
			log.Warn("object store init failed; backups disabled", zap.Error(err))
			backups = nil
		} else {
			log.Info("state backups enabled", zap.String("bucket", cfg.ObjectStoreBucket))
		}
	}

	wsServer := ws.New(session, log, cfg)
	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(session, log, cfg, events, wsServer, backups),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("pos api ready", zap.String("base", "/api"))
		log.Info("pos ws ready", zap.String("base", "/ws"))
		log.Info("pos terminal listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
