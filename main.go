package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subtitle-study/app/internal/api"
	"github.com/subtitle-study/app/internal/auth"
	"github.com/subtitle-study/app/internal/config"
	"github.com/subtitle-study/app/internal/db"
	dbmodels "github.com/subtitle-study/app/internal/db/models"
	"github.com/subtitle-study/app/internal/storage"
	"github.com/subtitle-study/app/internal/subtitle/translate"
)

func main() {
	cfg := config.Load()

	// Ensure data directory exists
	os.MkdirAll(cfg.DataPath, 0755)

	// Initialize database
	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Seed the searchable catalog
	if cfg.CatalogPath != "" {
		catalog, err := loadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("Failed to load catalog: %v", err)
		}
		if err := database.SeedCatalog(catalog); err != nil {
			log.Fatalf("Failed to seed catalog: %v", err)
		}
		log.Printf("Catalog seeded: %d videos from %s", len(catalog.Videos), cfg.CatalogPath)
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret)

	translator := translate.NewService(translate.Config{
		Engine:      cfg.TranslateEngine,
		SourceLang:  cfg.TranslateSourceLang,
		TargetLang:  cfg.TranslateTargetLang,
		OpenAIKey:   cfg.OpenAIKey,
		GeminiKey:   cfg.GeminiKey,
		GeminiModel: cfg.GeminiModel,
		DeepLKey:    cfg.DeepLKey,
	})
	if engine := translator.Engine(); engine != nil {
		log.Printf("Translation engine: %s (%s -> %s)", engine.Name(), cfg.TranslateSourceLang, cfg.TranslateTargetLang)
	} else {
		log.Printf("Translation disabled: no engine API key configured")
	}

	router := api.NewRouter(database, jwtService, translator, api.Options{
		CORSOrigins:   cfg.CORSOrigins,
		AuthRateLimit: 20,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on %s", addr)
	log.Printf("Data path: %s", cfg.DataPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadCatalog reads a YAML catalog file or scans a directory of caption files.
func loadCatalog(path string) (*dbmodels.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return storage.ScanCatalog(path)
	}
	return db.LoadCatalog(path)
}
