package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/myhealth/scheduling-api/internal/config"
	"github.com/myhealth/scheduling-api/internal/email"
	"github.com/myhealth/scheduling-api/internal/repository/postgres"
	auditService "github.com/myhealth/scheduling-api/internal/service/audit"
	doctorService "github.com/myhealth/scheduling-api/internal/service/doctor"
	notificationService "github.com/myhealth/scheduling-api/internal/service/notification"
	sweepService "github.com/myhealth/scheduling-api/internal/service/sweep"
	"github.com/myhealth/scheduling-api/pkg/logger"
	"github.com/myhealth/scheduling-api/pkg/metrics"
)

// The worker owns the periodic sweeps: reminders for tomorrow's
// appointments, recurring appointment rollover, and leave expiry. Each
// sweep is idempotent, so running the worker alongside a replica is safe
// if ever needed.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logger.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	appointmentRepo := postgres.NewAppointmentRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	leaveRepo := postgres.NewLeaveRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	emailSvc := email.NewSMTPService(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	notifier := notificationService.NewService(emailSvc, log.ZL)
	auditor := auditService.NewService(auditRepo, log.ZL)
	doctorSvc := doctorService.NewService(doctorRepo, auditor)

	m := metrics.New("scheduling_worker")
	sweeper := sweepService.NewService(
		appointmentRepo, leaveRepo, patientRepo,
		doctorSvc, notifier, m, log.ZL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics endpoint for scraping; the worker serves nothing else.
	metricsSrv := &http.Server{Addr: ":9091", Handler: promhttp.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "metrics server failed")
		}
	}()

	go runSweep(ctx, cfg.Worker.ReminderInterval, func() {
		if _, err := sweeper.SendReminders(ctx); err != nil {
			log.Error(err, "reminder sweep failed")
		}
	})
	go runSweep(ctx, cfg.Worker.RecurrenceInterval, func() {
		if _, err := sweeper.RollRecurring(ctx); err != nil {
			log.Error(err, "recurrence sweep failed")
		}
	})
	go runSweep(ctx, cfg.Worker.LeaveInterval, func() {
		if _, err := sweeper.ExpireLeaves(ctx); err != nil {
			log.Error(err, "leave expiry sweep failed")
		}
	})

	log.Info("worker started")
	<-ctx.Done()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "metrics server shutdown failed")
	}
}

// runSweep fires once at startup and then on every tick until the
// context is cancelled.
func runSweep(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = time.Hour
	}

	fn()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
