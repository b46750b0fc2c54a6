package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"parkhub/assets"
	"parkhub/internal/api"
	"parkhub/internal/auth"
	"parkhub/internal/db"
	"parkhub/internal/registry"
	"parkhub/internal/repository"
	"parkhub/internal/service"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET not set")
	}

	sqlDB, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	if os.Getenv("DB_AUTOMIGRATE") != "false" {
		if err := runMigrations(dbURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	userRepo := repository.NewPgUserRepository(sqlDB)
	slotRepo := repository.NewPgSlotRepository(sqlDB)
	parkingRepo := repository.NewPgParkingRepository(sqlDB)

	parkingSvc := service.NewParkingService(registry.New(), slotRepo, parkingRepo)
	adminSvc := service.NewAdminService(parkingSvc.Registry, slotRepo, parkingRepo)
	authSvc := service.NewAuthService(userRepo)
	senderSvc := service.NewSenderService()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := slotRepo.Seed(ctx, registry.Codes()); err != nil {
		log.Fatalf("Failed to seed slots: %v", err)
	}
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword != "" {
		if err := authSvc.SeedAdmin(ctx, adminEmail, adminPassword); err != nil {
			log.Fatalf("Failed to seed admin account: %v", err)
		}
	} else {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
	}
	if err := parkingSvc.WarmRegistry(ctx); err != nil {
		log.Fatalf("Failed to warm slot registry: %v", err)
	}
	cancel()

	jobSvc := service.NewJobService(parkingSvc)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 5m", jobSvc.ReconcileRegistry); err != nil {
		log.Fatalf("Failed to schedule registry reconciliation: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	templatesDir := os.Getenv("TEMPLATES_DIR")
	if templatesDir == "" {
		templatesDir = "web/templates"
	}
	renderer, err := api.NewRenderer(templatesDir)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	sessionTTL := 12 * time.Hour
	if raw := os.Getenv("SESSION_TTL_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			log.Fatalf("Invalid SESSION_TTL_HOURS %q", raw)
		}
		sessionTTL = time.Duration(hours) * time.Hour
	}
	sessions := auth.NewManager(sessionSecret, sessionTTL)
	authHandler := api.NewAuthHandler(authSvc, senderSvc, sessions, renderer, baseURL)
	parkingHandler := api.NewParkingHandler(parkingSvc, userRepo, senderSvc, renderer)
	adminHandler := api.NewAdminHandler(adminSvc, renderer)

	r := mux.NewRouter()

	// Public pages
	r.HandleFunc("/register", authHandler.RegisterPage).Methods("GET")
	r.HandleFunc("/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/login", authHandler.LoginPage).Methods("GET")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("GET")
	r.HandleFunc("/forgot_password", authHandler.ForgotPasswordPage).Methods("GET")
	r.HandleFunc("/forgot_password", authHandler.ForgotPassword).Methods("POST")
	r.HandleFunc("/reset_password/{token}", authHandler.ResetPasswordPage).Methods("GET")
	r.HandleFunc("/reset_password/{token}", authHandler.ResetPassword).Methods("POST")
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		session, err := sessions.FromRequest(req)
		switch {
		case err != nil:
			http.Redirect(w, req, "/login", http.StatusSeeOther)
		case session.Role == db.RoleAdmin:
			http.Redirect(w, req, "/dashboard", http.StatusSeeOther)
		default:
			http.Redirect(w, req, "/park", http.StatusSeeOther)
		}
	}).Methods("GET")

	// Customer pages (session required)
	r.Handle("/park", sessions.RequireUser(http.HandlerFunc(parkingHandler.ParkPage))).Methods("GET")
	r.Handle("/park", sessions.RequireUser(http.HandlerFunc(parkingHandler.Park))).Methods("POST")
	r.Handle("/receipt_by_slot/{slot_code}", sessions.RequireUser(http.HandlerFunc(parkingHandler.ReceiptPage))).Methods("GET")
	r.Handle("/account", sessions.RequireUser(http.HandlerFunc(authHandler.AccountPage))).Methods("GET")
	r.Handle("/change_password", sessions.RequireUser(http.HandlerFunc(authHandler.ChangePassword))).Methods("POST")
	r.Handle("/confirm_payment/{slot_code}", sessions.RequireUserJSON(http.HandlerFunc(parkingHandler.ConfirmPayment))).Methods("POST")

	// Admin (protected)
	r.Handle("/dashboard", sessions.RequireAdmin(http.HandlerFunc(adminHandler.DashboardPage))).Methods("GET")
	r.Handle("/api/dashboard_stats", sessions.RequireAdminJSON(http.HandlerFunc(adminHandler.DashboardStats))).Methods("GET")

	handler := handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, r))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}

func runMigrations(dbURL string) error {
	sourceDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
	if err != nil {
		return err
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dbURL)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
