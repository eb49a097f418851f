package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/IANDYI/immunization-service/internal/adapters/handler"
	"github.com/IANDYI/immunization-service/internal/adapters/middleware"
	"github.com/IANDYI/immunization-service/internal/adapters/repository"
	"github.com/IANDYI/immunization-service/internal/adapters/worker"
	"github.com/IANDYI/immunization-service/internal/config"
	"github.com/IANDYI/immunization-service/internal/core/catalog"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"github.com/IANDYI/immunization-service/internal/core/schedule"
	"github.com/IANDYI/immunization-service/internal/core/services"
	"github.com/IANDYI/immunization-service/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "immunization-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to database with retry logic
	db, err := config.ConnectDatabase(cfg.DatabaseURL, 5, 2*time.Second, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := config.InitDatabase(db, cfg.DropTablesOnStartup, log); err != nil {
		log.Fatal("Failed to initialize database schema", zap.Error(err))
	}

	guidelines, err := loadCatalog(cfg)
	if err != nil {
		log.Fatal("Failed to load guideline catalog", zap.Error(err))
	}
	log.Info("Guideline catalog loaded",
		zap.String("source", cfg.CatalogSource),
		zap.Strings("guidelines", guidelines.Guidelines()),
	)
	generator := schedule.NewGenerator(guidelines)

	// Initialize RabbitMQ publisher
	publisher, err := repository.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.ReminderQueueName,
		cfg.CircuitBreaker.Settings("rabbitmq"), log)
	if err != nil {
		log.Fatal("Failed to initialize RabbitMQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Initialize repositories
	sqlRepo := repository.NewSQLRepository(db, cfg.CircuitBreaker.Settings("database"))

	// Initialize services
	childService := services.NewChildService(sqlRepo, sqlRepo, generator)
	vaccinationService := services.NewVaccinationService(sqlRepo, sqlRepo)
	eventService := services.NewHealthEventService(sqlRepo, sqlRepo, sqlRepo)
	reminderService := services.NewReminderService(sqlRepo, sqlRepo, sqlRepo, publisher, log)

	// Background work shares one context, cancelled on shutdown
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Child profiles can also arrive from the identity service via RabbitMQ.
	// Each replica runs its own consumer; RabbitMQ distributes messages round-robin.
	childConsumer, err := repository.NewChildConsumer(cfg.RabbitMQURL, cfg.ChildQueueName, childService, log)
	if err != nil {
		log.Fatal("Failed to initialize RabbitMQ child consumer", zap.Error(err))
	}
	defer childConsumer.Close()
	go func() {
		if err := childConsumer.StartConsuming(bgCtx); err != nil {
			log.Error("Child consumer error", zap.Error(err))
		}
	}()

	if cfg.ReminderInterval > 0 {
		reminderWorker := worker.NewReminderWorker(reminderService, cfg.ReminderInterval,
			worker.NewReminderMetrics(prometheus.DefaultRegisterer), log)
		go reminderWorker.Run(bgCtx)
	} else {
		log.Info("Reminder sweep disabled")
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey, log)
	defer authMiddleware.Stop()

	mux := newRouter(routes{
		auth:         authMiddleware,
		health:       handler.NewHealthHandler(db, log),
		schedules:    handler.NewScheduleHandler(generator, log),
		children:     handler.NewChildHandler(childService, log),
		vaccinations: handler.NewVaccinationHandler(vaccinationService, log),
		events:       handler.NewHealthEventHandler(eventService, log),
		reminders:    handler.NewReminderHandler(reminderService, log),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.MetricsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting Immunization Service", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Stop consuming and sweeping before draining HTTP
	bgCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited")
}

// loadCatalog builds the guideline catalog selected by configuration
func loadCatalog(cfg *config.Config) (ports.GuidelineCatalogProvider, error) {
	switch cfg.CatalogSource {
	case config.CatalogSourceJSON:
		if cfg.CatalogDir != "" {
			return catalog.LoadJSONCatalogDir(cfg.CatalogDir)
		}
		return catalog.EmbeddedJSONCatalog()
	default:
		return catalog.NewStaticCatalog(), nil
	}
}

type routes struct {
	auth         *middleware.AuthMiddleware
	health       *handler.HealthHandler
	schedules    *handler.ScheduleHandler
	children     *handler.ChildHandler
	vaccinations *handler.VaccinationHandler
	events       *handler.HealthEventHandler
	reminders    *handler.ReminderHandler
}

func newRouter(rt routes) *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible, no auth required)
	mux.HandleFunc("GET /metrics", handler.Metrics)
	mux.HandleFunc("GET /health", rt.health.Health)
	mux.HandleFunc("GET /health/ready", rt.health.Ready)
	mux.HandleFunc("GET /health/live", rt.health.Live)

	// API endpoints: PARENT and ADMIN tokens only; ownership and the
	// read-only ADMIN rule are enforced by the services
	roles := []string{middleware.RoleParent, middleware.RoleAdmin}
	authed := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, rt.auth.RequireAnyRole(roles, h))
	}

	// Guideline catalog and stateless schedule tools
	authed("GET /guidelines", rt.schedules.ListGuidelines)
	authed("GET /guidelines/{guideline}/doses", rt.schedules.ListDoses)
	authed("POST /schedules/preview", rt.schedules.Preview)
	authed("POST /schedules/categorize", rt.schedules.Categorize)

	// Child profiles
	authed("POST /children", rt.children.CreateChild)
	authed("GET /children", rt.children.ListChildren)
	authed("GET /children/{child_id}", rt.children.GetChild)
	authed("PUT /children/{child_id}", rt.children.UpdateChild)
	authed("DELETE /children/{child_id}", rt.children.DeleteChild)
	authed("POST /children/{child_id}/schedule/regenerate", rt.children.RegenerateSchedule)

	// Scheduled vaccinations
	authed("GET /children/{child_id}/vaccinations", rt.vaccinations.ListVaccinations)
	authed("GET /children/{child_id}/vaccinations/overview", rt.vaccinations.Overview)
	authed("POST /vaccinations/{vaccination_id}/complete", rt.vaccinations.MarkCompleted)
	authed("POST /vaccinations/{vaccination_id}/pending", rt.vaccinations.MarkPending)

	// Reminders
	authed("GET /children/{child_id}/reminder-settings", rt.reminders.GetSettings)
	authed("PUT /children/{child_id}/reminder-settings", rt.reminders.SaveSettings)
	authed("GET /children/{child_id}/reminders", rt.reminders.DueReminders)

	// Health timeline
	authed("POST /children/{child_id}/health-events", rt.events.AddEvent)
	authed("GET /children/{child_id}/health-events", rt.events.ListEvents)
	authed("DELETE /health-events/{event_id}", rt.events.DeleteEvent)
	authed("GET /children/{child_id}/timeline", rt.events.Timeline)

	return mux
}
