package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	"github.com/koopkredit/lending-service/internal/config"
	"github.com/koopkredit/lending-service/internal/handler"
	"github.com/koopkredit/lending-service/internal/integrations/cbr"
	"github.com/koopkredit/lending-service/internal/middleware"
	"github.com/koopkredit/lending-service/internal/reminder"
	"github.com/koopkredit/lending-service/internal/repository"
	"github.com/koopkredit/lending-service/internal/service"
	"github.com/koopkredit/lending-service/internal/utils/email"
	_ "github.com/lib/pq"
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
	cbrClient := cbr.NewCBRClient(cfg, logger)
	sender := email.NewSender(cfg, logger)
	svc := service.NewService(repo, logger, cfg, cbrClient, sender)
	h := handler.NewHandler(svc)

	// Start daily payment reminders
	job := reminder.NewJob(repo, sender, cfg, logger)
	reminderCron, err := job.Start()
	if err != nil {
		logger.Fatalf("Failed to start reminder job: %v", err)
	}
	defer reminderCron.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/rates/effective", h.EffectiveRate).Methods("GET")

	// Member routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/loans", h.ApplyForLoan).Methods("POST")
	authRouter.HandleFunc("/loans/{id}", h.GetLoan).Methods("GET")
	authRouter.HandleFunc("/loans/{id}/schedule", h.GetSchedule).Methods("GET")
	authRouter.HandleFunc("/loans/{id}/progress", h.GetProgress).Methods("GET")
	authRouter.HandleFunc("/loans/{id}/payments", h.SubmitPayment).Methods("POST")

	// Admin routes
	adminRouter := authRouter.PathPrefix("/").Subrouter()
	adminRouter.Use(middleware.RequireAdmin)
	adminRouter.HandleFunc("/members/{id}/approve", h.ApproveMember).Methods("POST")
	adminRouter.HandleFunc("/loans/{id}/approve", h.ApproveLoan).Methods("POST")
	adminRouter.HandleFunc("/loans/{id}/reject", h.RejectLoan).Methods("POST")
	adminRouter.HandleFunc("/payments/{id}/verify", h.VerifyPayment).Methods("POST")
	adminRouter.HandleFunc("/rates", h.UpdateRate).Methods("POST")
	adminRouter.HandleFunc("/rates/suggested", h.SuggestedRate).Methods("GET")

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
