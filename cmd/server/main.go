package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/budgetbook/backend/internal/api/handlers"
	"github.com/budgetbook/backend/internal/api/middleware"
	"github.com/budgetbook/backend/internal/config"
	identityFB "github.com/budgetbook/backend/internal/identity/firebase"
	"github.com/budgetbook/backend/internal/lifecycle"
	"github.com/budgetbook/backend/internal/logger"
	storeFS "github.com/budgetbook/backend/internal/store/firestore"
)

func main() {
	cfg := config.Load()

	// Parse command-line flags
	port := flag.String("port", cfg.Port, "HTTP server port")
	flag.Parse()

	// Initialize logger
	log := logger.New("server")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Initialize the document store
	st, err := storeFS.New(ctx, cfg.ProjectID, cfg.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Firestore store")
	}
	defer st.Close()

	// Initialize the identity service
	ids, err := identityFB.New(ctx, cfg.ProjectID, cfg.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Firebase identity service")
	}

	// Initialize handlers
	svc := lifecycle.New(st, ids, log)
	accountHandler := handlers.NewAccountHandler(svc, log)
	settingsHandler := handlers.NewSettingsHandler(st, log)
	transactionsHandler := handlers.NewTransactionsHandler(st, log)

	// Authenticated API routes
	api := http.NewServeMux()

	api.HandleFunc("/v1/account/delete", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			accountHandler.DeleteAccount(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.CodeMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/v1/settings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			settingsHandler.GetSettings(w, r)
		case http.MethodPut:
			settingsHandler.SaveSettings(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.CodeMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.AddTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.CodeMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/v1/transactions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.CodeMethodNotAllowed, "Method not allowed")
			return
		}
		// Extract transaction ID from path
		transactionID := strings.TrimPrefix(r.URL.Path, "/v1/transactions/")
		if transactionID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.CodeInvalidArgument, "Transaction ID is required")
			return
		}
		transactionsHandler.DeleteTransaction(w, r, transactionID)
	})

	// Create router; health stays outside the auth boundary
	mux := http.NewServeMux()
	mux.Handle("/v1/", middleware.Auth(ids)(api))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
