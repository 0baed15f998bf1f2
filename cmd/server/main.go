package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"bytedrop/internal/api"
	"bytedrop/internal/config"
	"bytedrop/internal/database"
	"bytedrop/internal/logging"
	"bytedrop/internal/migrations"
	"bytedrop/internal/repository/postgres"
	"bytedrop/internal/service"
	"bytedrop/internal/storage/local"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New()
	logger.Println("configuration loaded, starting up")

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	blobs := local.NewStore(cfg.StorageDir)
	admission := service.NewAdmissionPolicy(cfg.MaxFileSize, cfg.ReservedMargin, blobs)
	files := service.NewFileService(postgres.NewFileRepository(db), blobs, admission, logger)
	router := api.NewRouter(cfg, api.NewFileHandler(files))

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		// No write timeout: uploads and downloads may legitimately stream
		// for a long time. Idle connections still get reaped.
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		Handler:           router,
	}

	logger.Printf("listening on :%s", cfg.HTTPPort)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}

	logger.Println("server stopped")
}
