package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dentalcare/clinic-api/internal/account"
	"github.com/dentalcare/clinic-api/internal/auth"
	"github.com/dentalcare/clinic-api/internal/billing"
	"github.com/dentalcare/clinic-api/internal/booking"
	"github.com/dentalcare/clinic-api/internal/clinical"
	"github.com/dentalcare/clinic-api/internal/inventory"
	"github.com/dentalcare/clinic-api/internal/notification"
)

type RouterConfig struct {
	Accounts      *account.Service
	Booking       *booking.Service
	Clinical      *clinical.Service
	Billing       *billing.Service
	Inventory     *inventory.Service
	Notifications *notification.Service
	Tokens        *auth.TokenIssuer
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	Logger        zerolog.Logger
	Env           string
	Version       string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public auth endpoints
	r.Post("/auth/register", registerHandler(cfg.Accounts))
	r.Post("/auth/login", loginHandler(cfg.Accounts))

	// Everything else requires a bearer token
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Tokens))

		r.Get("/users", listUsersHandler(cfg.Accounts))
		r.Get("/users/{id}", getUserHandler(cfg.Accounts))
		r.Post("/patients", createPatientHandler(cfg.Accounts))
		r.Patch("/patients/{id}", updatePatientHandler(cfg.Accounts))
		r.Delete("/patients/{id}", deletePatientHandler(cfg.Accounts))

		r.Get("/doctors/{id}/slots", dayScheduleHandler(cfg.Booking))
		r.Post("/reservations", createReservationHandler(cfg.Booking))
		r.Get("/reservations", listReservationsHandler(cfg.Booking))
		r.Get("/reservations/{id}", getReservationHandler(cfg.Booking))
		r.Post("/reservations/{id}/confirm", transitionHandler(cfg.Booking, booking.StatusConfirmed))
		r.Post("/reservations/{id}/cancel", transitionHandler(cfg.Booking, booking.StatusCancelled))
		r.Post("/reservations/{id}/complete", transitionHandler(cfg.Booking, booking.StatusCompleted))

		r.Get("/patients/{id}/odontogram", currentOdontogramHandler(cfg.Clinical))
		r.Get("/patients/{id}/records", recordHistoryHandler(cfg.Clinical))
		r.Post("/patients/{id}/records", createRecordHandler(cfg.Clinical))
		r.Patch("/records/{id}", amendRecordHandler(cfg.Clinical))

		r.Post("/invoices", createInvoiceHandler(cfg.Billing))
		r.Get("/invoices", listInvoicesHandler(cfg.Billing))
		r.Get("/invoices/{id}", getInvoiceHandler(cfg.Billing))
		r.Post("/invoices/{id}/paid", payInvoiceHandler(cfg.Billing))
		r.Delete("/invoices/{id}", deleteInvoiceHandler(cfg.Billing))

		r.Get("/medicines", listMedicinesHandler(cfg.Inventory))
		r.Post("/medicines", createMedicineHandler(cfg.Inventory))
		r.Post("/medicines/{id}/stock", adjustStockHandler(cfg.Inventory))

		r.Get("/notifications", listNotificationsHandler(cfg.Notifications))
		r.Post("/notifications/{id}/read", markNotificationReadHandler(cfg.Notifications))
		r.Post("/notifications/read-all", markAllNotificationsReadHandler(cfg.Notifications))
	})

	return r
}
