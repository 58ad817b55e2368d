package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/movelend/lending-service/internal/config"
	"github.com/movelend/lending-service/internal/handler"
	"github.com/movelend/lending-service/internal/integrations/oracle"
	"github.com/movelend/lending-service/internal/middleware"
	"github.com/movelend/lending-service/internal/repository"
	"github.com/movelend/lending-service/internal/riskengine"
	"github.com/movelend/lending-service/internal/scheduler"
	"github.com/movelend/lending-service/internal/service"
	"github.com/movelend/lending-service/internal/utils/email"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	oracleClient := oracle.NewClient(cfg, logger)
	engine := riskengine.New(oracleClient, time.Now, logger)
	mailer := email.NewSender(cfg, logger)
	svc := service.NewService(repo, engine, mailer, logger, cfg, time.Now)
	h := handler.NewHandler(svc, logger)

	// Start nightly jobs
	jobs := scheduler.New(svc, mailer, logger, engine.Now)
	if err := jobs.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer jobs.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/rates/{score}", h.QuoteRate).Methods("GET")
	authRouter.HandleFunc("/loans", h.CreateLoan).Methods("POST")
	authRouter.HandleFunc("/loans/{id}/votes", h.CastVote).Methods("POST")
	authRouter.HandleFunc("/loans/{id}/approve", h.ApproveLoan).Methods("POST")
	authRouter.HandleFunc("/loans/{id}/reject", h.RejectLoan).Methods("POST")
	authRouter.HandleFunc("/loans/{id}/schedule", h.GetSchedule).Methods("GET")
	authRouter.HandleFunc("/loans/{id}/payments/{number}", h.RecordPayment).Methods("POST")
	authRouter.HandleFunc("/payment-requests", h.CreatePaymentRequest).Methods("POST")
	authRouter.HandleFunc("/payment-requests/{id}/complete", h.CompletePaymentRequest).Methods("POST")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
