package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wisal-aid/coupon-service/internal/api"
	"github.com/wisal-aid/coupon-service/internal/api/middleware"
	"github.com/wisal-aid/coupon-service/internal/config"
	"github.com/wisal-aid/coupon-service/pkg/db"
	"github.com/wisal-aid/coupon-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		panic(err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	conn, err := db.NewPostgresConnection(db.Config{
		Host:            cfg.DB.Host,
		Port:            cfg.DB.Port,
		User:            cfg.DB.User,
		Password:        cfg.DB.Password,
		Name:            cfg.DB.Name,
		SSLMode:         cfg.DB.SSLMode,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureSchema(ctx, conn); err != nil {
		cancel()
		log.WithError(err).Fatal("schema bootstrap")
	}
	cancel()

	handler := api.NewRouter(conn, cfg.JWTSecret, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(log))
	r.Mount("/", handler)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("HTTP server shutdown")
		}
		close(idleConnsClosed)
	}()

	log.WithField("addr", cfg.HTTPAddr).Info("starting coupon-service")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("listen")
	}

	<-idleConnsClosed
	log.Info("server stopped")
}
