package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petalboard/internal/api"
	"petalboard/internal/config"
	"petalboard/internal/db"
	"petalboard/internal/repository"
	"petalboard/internal/services/auth"
	"petalboard/internal/services/realtime"
	"petalboard/internal/telemetry"
)

func main() {
	log.Println("🌷 Starting petalboard server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Initialize Jaeger tracing first so all operations are traced
	jaegerShutdown, err := telemetry.InitJaeger("petalboard", cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("⚠️  Failed to shutdown Jaeger: %v", err)
		}
	}()

	// Initialize GORM database
	database, err := db.NewGorm(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Initialize repositories
	docRepo := repository.NewDocumentRepository(database.DB)
	accountRepo := repository.NewAccountRepository(database.DB)

	// Initialize the snapshot hub for real-time subscriptions
	hub := realtime.NewHub(docRepo, cfg.SendBufferSize)
	hub.Start()

	wsHandler := realtime.NewWebSocketHandler(hub)

	// Initialize auth service. The mailer only logs reset tokens; wire a
	// real Mailer and TokenVerifier when the external providers exist.
	authService := auth.NewService(
		accountRepo,
		cfg.JWTSecret,
		cfg.TokenLifetime,
		cfg.ResetLifetime,
	)

	// Initialize handlers with dependency injection
	handler := api.NewHandler(docRepo, authService, hub)

	// Setup routes
	router := api.SetupRoutes(handler, wsHandler)

	// Configure HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine so shutdown signals are handled
	go func() {
		log.Printf("🌐 Server listening on http://%s", addr)
		log.Printf("📚 API Endpoints:")
		log.Printf("   POST   /api/collections/:name/documents     - Create document")
		log.Printf("   GET    /api/collections/:name/documents     - List documents")
		log.Printf("   PATCH  /api/collections/:name/documents/:id - Merge fields")
		log.Printf("   DELETE /api/collections/:name/documents/:id - Delete document")
		log.Printf("   WS     /ws/collections/:name                - Subscribe to snapshots")
		log.Printf("   POST   /api/auth/{register,login,google,reset}")
		log.Printf("   GET    /api/products                        - Static catalog")
		log.Println()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	// Close all live subscriptions after the HTTP listener stops
	hub.Shutdown()

	log.Println("✓ Server shutdown complete")
}
