package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/fielddata/visitdedupe/internal/config"
	"github.com/fielddata/visitdedupe/internal/export"
	"github.com/fielddata/visitdedupe/internal/middleware"
	"github.com/fielddata/visitdedupe/internal/schema"
	"github.com/fielddata/visitdedupe/internal/server"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sc, err := schema.ForVariant(cfg.SchemaVariant)
	if err != nil {
		log.Fatalf("Failed to resolve schema variant: %v", err)
	}
	if errs := schema.Validate(sc); len(errs) > 0 {
		for _, validationErr := range errs {
			log.Printf("[schema] %s: %s", validationErr.Column, validationErr.Message)
		}
		log.Fatalf("Schema variant %q failed validation", sc.Variant)
	}

	store := export.NewStore(export.WithTTL(cfg.RunTTL))
	handler := server.NewHTTPHandler(sc, store, int64(cfg.MaxUploadMB)<<20)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	mux := http.NewServeMux()
	mux.Handle("/dedupe", corsHandler.Handler(middleware.LoggingMiddleware(handler)))
	mux.Handle("/dedupe/", corsHandler.Handler(middleware.LoggingMiddleware(handler)))

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting dedupe server on %s (schema variant %s)", cfg.Addr, sc.Variant)
		log.Printf("Upload endpoint available at http://localhost%s/dedupe", cfg.Addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
