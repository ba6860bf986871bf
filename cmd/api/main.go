package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/myhealth/scheduling-api/internal/config"
	"github.com/myhealth/scheduling-api/internal/email"
	appointmentHandler "github.com/myhealth/scheduling-api/internal/handler/appointment"
	auditHandler "github.com/myhealth/scheduling-api/internal/handler/audit"
	doctorHandler "github.com/myhealth/scheduling-api/internal/handler/doctor"
	healthHandler "github.com/myhealth/scheduling-api/internal/handler/health"
	leaveHandler "github.com/myhealth/scheduling-api/internal/handler/leave"
	medicalHandler "github.com/myhealth/scheduling-api/internal/handler/medical"
	patientHandler "github.com/myhealth/scheduling-api/internal/handler/patient"
	waitlistHandler "github.com/myhealth/scheduling-api/internal/handler/waitlist"
	"github.com/myhealth/scheduling-api/internal/repository/postgres"
	"github.com/myhealth/scheduling-api/internal/router"
	appointmentService "github.com/myhealth/scheduling-api/internal/service/appointment"
	auditService "github.com/myhealth/scheduling-api/internal/service/audit"
	doctorService "github.com/myhealth/scheduling-api/internal/service/doctor"
	leaveService "github.com/myhealth/scheduling-api/internal/service/leave"
	medicalService "github.com/myhealth/scheduling-api/internal/service/medical"
	notificationService "github.com/myhealth/scheduling-api/internal/service/notification"
	patientService "github.com/myhealth/scheduling-api/internal/service/patient"
	waitlistService "github.com/myhealth/scheduling-api/internal/service/waitlist"
	"github.com/myhealth/scheduling-api/pkg/auth"
	"github.com/myhealth/scheduling-api/pkg/lock"
	"github.com/myhealth/scheduling-api/pkg/logger"
)

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

	locker, err := lock.NewLocker(lock.Config{
		URL:          cfg.Redis.URL,
		TTL:          cfg.Redis.LockTTL,
		RetryBackoff: cfg.Redis.RetryBackoff,
		MaxRetries:   cfg.Redis.MaxRetries,
	})
	if err != nil {
		// Booking falls back to the unique slot index when Redis is away.
		log.Error(err, "redis unavailable, bookings will rely on the slot index alone")
		locker = nil
	} else {
		defer locker.Close()
	}

	appointmentRepo := postgres.NewAppointmentRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	leaveRepo := postgres.NewLeaveRepository(db)
	waitlistRepo := postgres.NewWaitlistRepository(db)
	medicalRepo := postgres.NewMedicalRecordRepository(db)
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
	patientSvc := patientService.NewService(patientRepo, appointmentRepo, auditor)
	leaveSvc := leaveService.NewService(leaveRepo, doctorSvc, auditor)
	waitlistSvc := waitlistService.NewService(waitlistRepo, patientRepo, doctorRepo, auditor)
	medicalSvc := medicalService.NewService(medicalRepo, patientRepo, appointmentRepo, auditor)

	var bookingLock appointmentService.Locker
	if locker != nil {
		bookingLock = locker
	}
	appointmentSvc := appointmentService.NewService(
		appointmentRepo, patientRepo, leaveRepo, waitlistRepo,
		doctorSvc, notifier, auditor, bookingLock, log.ZL,
	)

	verifier := auth.NewTokenVerifier(cfg.JWT.Secret)

	engine := router.New(cfg, log.ZL, verifier, router.Handlers{
		Appointment: appointmentHandler.NewHandler(appointmentSvc),
		Leave:       leaveHandler.NewHandler(leaveSvc),
		Waitlist:    waitlistHandler.NewHandler(waitlistSvc),
		Doctor:      doctorHandler.NewHandler(doctorSvc),
		Patient:     patientHandler.NewHandler(patientSvc),
		Medical:     medicalHandler.NewHandler(medicalSvc),
		Audit:       auditHandler.NewHandler(auditor),
		Health:      healthHandler.NewHandler(db),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "graceful shutdown failed")
	}
}
