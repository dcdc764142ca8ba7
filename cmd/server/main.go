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

	"github.com/anonto42/yatube/backend/internal/router"
	"github.com/anonto42/yatube/backend/pkg/config"
	"github.com/anonto42/yatube/backend/pkg/firebase"
	"github.com/anonto42/yatube/backend/pkg/pagecache"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connection
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB() // Ensure the connection is closed when main exits

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	media, err := router.MediaStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	opts := router.Options{
		Config:    cfg,
		Media:     media,
		PageCache: pagecache.New(cfg.PageCacheTTL),
	}

	// Firebase sign-in is optional
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	switch {
	case err == nil:
		opts.Firebase = firebaseApp
	case errors.Is(err, firebase.ErrNotConfigured):
		log.Println("Firebase login disabled: no credentials configured.")
	default:
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	e, err := router.New(db.Gorm, opts)
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// SIGHUP empties the page cache
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			opts.PageCache.Clear()
			e.Logger.Info("page cache cleared")
		}
	}()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	e.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Error(err)
	}
}
