package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	amqp "github.com/rabbitmq/amqp091-go"

	"payment-transaction-manager/internal/client"
	"payment-transaction-manager/internal/config"
	"payment-transaction-manager/internal/dispatch"
	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/event"
	"payment-transaction-manager/internal/handler"
	"payment-transaction-manager/internal/idempotency"
	"payment-transaction-manager/internal/repository"
	"payment-transaction-manager/internal/usecase"
)

// Server represents the HTTP server
type Server struct {
	router   *mux.Router
	server   *http.Server
	db       *sql.DB
	amqpConn *amqp.Connection
	tasks    *usecase.TaskRunner
	logger   *slog.Logger
	port     string
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	// Initialize database connection
	db, err := sql.Open("postgres", cfg.GetDBConnectionString())
	if err != nil {
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test database connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("Successfully connected to database")
	}

	// Initialize store (Unit of Work)
	store := repository.NewStore(db, logger)

	// Event publisher: AMQP when configured, structured log otherwise
	var publisher event.Publisher
	var amqpConn *amqp.Connection
	if cfg.AMQPURL != "" {
		amqpConn, err = amqp.Dial(cfg.AMQPURL)
		if err != nil {
			db.Close()
			return nil, err
		}
		channel, err := amqpConn.Channel()
		if err != nil {
			amqpConn.Close()
			db.Close()
			return nil, err
		}
		publisher, err = event.NewAMQPPublisher(channel, cfg.AMQPExchange)
		if err != nil {
			amqpConn.Close()
			db.Close()
			return nil, err
		}
	} else {
		publisher = event.NewLogPublisher(logger)
	}
	events := event.NewService(publisher, logger)

	// Collaborator clients
	accounts := client.NewAccountClient(cfg.AccountServiceURL, cfg.ClientTimeout)
	merchants := client.NewMerchantClient(cfg.MerchantServiceURL, cfg.ClientTimeout)
	fraud := client.NewFraudClient(cfg.FraudServiceURL, cfg.ClientTimeout)
	fees := client.NewFeeClient(cfg.FeeServiceURL, cfg.ClientTimeout)
	posting := client.NewPostingClient(cfg.PostingServiceURL, cfg.ClientTimeout)

	providers := make([]domain.ProviderService, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		types := make([]domain.TransactionType, 0, len(p.Types))
		for _, t := range p.Types {
			types = append(types, domain.TransactionType(t))
		}
		providers = append(providers, client.NewProviderClient(p.Name, p.URL, cfg.ClientTimeout, types, p.MerchantCodes))
	}

	// Use cases
	tasks := usecase.NewTaskRunner(logger)
	repo := store.Transactions()

	billPayments := usecase.NewCreateBillPayment(accounts, merchants, fraud, fees, posting, providers, events, repo, tasks, logger)
	airtimeLoads := usecase.NewCreateAirtimeLoad(accounts, merchants, fraud, fees, posting, providers, events, repo, tasks, logger)

	reserveSuccess := usecase.NewReserveAmountSuccess(repo, providers, events, logger)
	reserveFailed := usecase.NewReserveAmountFailed(repo, events, fees, logger)
	settle := usecase.NewSettleTransaction(repo, events, logger)
	release := usecase.NewReleaseTransaction(repo, events, fees, logger)
	successfulPayment := usecase.NewHandleSuccessfulPayment(repo, events, posting, logger)
	failedPayment := usecase.NewHandleFailedPayment(repo, events, posting, logger)

	// Posting response dispatch with database-backed idempotency
	idem := idempotency.NewService(store.Idempotency(), logger)
	dispatcher := dispatch.NewDispatcher(idem, store, reserveSuccess, reserveFailed, settle, release, logger)
	for _, p := range cfg.Providers {
		for _, t := range p.Types {
			dispatcher.Register(domain.TransactionType(t), p.Name)
		}
	}

	// Initialize handlers
	transactionHandler := handler.NewTransactionHandler(billPayments, airtimeLoads, repo)
	postingHandler := handler.NewPostingHandler(dispatcher)
	providerHandler := handler.NewProviderHandler(successfulPayment, failedPayment)

	// Setup router
	router := mux.NewRouter()

	// Add middleware for logging
	router.Use(loggingMiddleware(logger))

	// Transaction routes
	router.HandleFunc("/transactions/bill-payments", transactionHandler.CreateBillPayment).Methods("POST")
	router.HandleFunc("/transactions/airtime-loads", transactionHandler.CreateAirtimeLoad).Methods("POST")
	router.HandleFunc("/transactions/{transaction_id}", transactionHandler.GetTransaction).Methods("GET")

	// Posting response routes
	router.HandleFunc("/postings/reservations/responses", postingHandler.ReservationResponse).Methods("POST")
	router.HandleFunc("/postings/settlements/responses", postingHandler.SettlementResponse).Methods("POST")
	router.HandleFunc("/postings/releases/responses", postingHandler.ReleaseResponse).Methods("POST")
	router.HandleFunc("/postings/customer-fees/responses", postingHandler.CustomerFeeResponse).Methods("POST")
	router.HandleFunc("/postings/vendor-fees/responses", postingHandler.VendorFeeResponse).Methods("POST")

	// Provider payment outcome callback
	router.HandleFunc("/providers/payments/responses", providerHandler.PaymentResponse).Methods("POST")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		// Check database connectivity in health check
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return &Server{
		router:   router,
		db:       db,
		amqpConn: amqpConn,
		tasks:    tasks,
		logger:   logger,
	}, nil
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create response wrapper to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", time.Since(start),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	// Get the actual port being used
	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	// Create HTTP server
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.logger != nil {
		s.logger.Info("Starting server", "port", s.port)
	}

	// Start server in background
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("Server failed to start", "error", err)
			}
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server. Detached reservation tasks are
// drained before connections close so no posting call is cut mid-flight.
func (s *Server) Stop(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("Shutting down server")
	}

	var shutdownErr error
	if s.server != nil {
		shutdownErr = s.server.Shutdown(ctx)
	}

	s.tasks.Wait()

	if s.amqpConn != nil {
		s.amqpConn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}

	return shutdownErr
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	// Initialize logger - use io.Discard for tests to avoid panic
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		// Test environment - use discard logger
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		// Production environment - use stdout
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	// Start the server and get the actual port
	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		return nil, "", err
	}

	return server, port, nil
}
