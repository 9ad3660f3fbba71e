/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the meal-planning server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Start the nightly materialization scheduler
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags win over environment variables; .env is loaded first.
  -port / PORT              HTTP server port (default: 8080)
  -db / DATABASE_PATH       SQLite database path (default: mealplan.db)
                            Use ":memory:" for in-memory database
  -jwt-secret / JWT_SECRET  Token signing secret (required)
  -job-hour / JOB_HOUR      UTC hour for the nightly job (default: 21)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/mealplan.db" -jwt-secret="change-me"

  # Run with in-memory database
  ./server -db=":memory:" -jwt-secret="change-me"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/mealplan-engine/api"
	"github.com/warp/mealplan-engine/store/sqlite"
)

func main() {
	// .env is optional; flags override whatever it sets.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "mealplan.db"), "SQLite database path")
	jwtSecret := flag.String("jwt-secret", envStr("JWT_SECRET", ""), "JWT signing secret")
	jobHour := flag.Int("job-hour", envInt("JOB_HOUR", 21), "UTC hour for the nightly materialization job")
	flag.Parse()

	if *jwtSecret == "" {
		log.Fatal("JWT secret is required (set -jwt-secret or JWT_SECRET)")
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler and scheduler
	handler := api.NewHandler(store, api.NewTokenIssuer(*jwtSecret))

	scheduler := api.NewNightlyScheduler(handler.Materializer)
	scheduler.Hour = *jobHour
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
