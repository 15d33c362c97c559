/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Hydrate the rule set from stored configs (plus built-in presets)
  4. Create API handler with dependencies
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 8080)
  -db       SQLite database path (default: payroll.db)
            Use ":memory:" for an in-memory database
  -presets  Register the built-in jurisdiction presets at startup
  -log      Log level: debug, info, warn, error (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database and built-in presets
  ./server -db="./data/payroll.db" -presets

  # Run with in-memory database
  ./server -db=":memory:"

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
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/jurisdiction"
	"github.com/warp/payroll-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "payroll.db", "SQLite database path")
	usePresets := flag.Bool("presets", false, "register built-in jurisdiction presets")
	logLevel := flag.String("log", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(level)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	// Rule set: optionally pre-seeded, then hydrated from stored configs.
	rules := jurisdiction.NewRuleSet()
	if *usePresets {
		rules = jurisdiction.DefaultRuleSet()
		logger.WithField("jurisdictions", rules.Jurisdictions()).
			Info("registered built-in jurisdiction presets")
	}

	// Initialize handler
	handler := api.NewHandler(store, rules)
	handler.Logger = logger
	handler.Processor.Logger = logger

	if err := handler.LoadRules(context.Background()); err != nil {
		logger.WithError(err).Warn("failed to load stored rules")
	}

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
		logger.Infof("server starting on http://localhost:%d", *port)
		logger.Infof("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("server forced to shutdown")
	}

	logger.Info("server stopped")
}
