package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/clock"
	"github.com/BruksfildServices01/barber-booking/internal/config"
	domainAppointment "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	domainPayment "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/handlers"
	infraLock "github.com/BruksfildServices01/barber-booking/internal/infra/lock"
	infraRepo "github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	"github.com/BruksfildServices01/barber-booking/internal/observability"
	ucAppointment "github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
	ucPayment "github.com/BruksfildServices01/barber-booking/internal/usecase/payment"
	"github.com/BruksfildServices01/barber-booking/internal/usecase/webhook"
)

// Deps are the process-wide singletons built in main. Redis, Gateway and
// Archiver are optional.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Log      *zap.Logger
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Audit    *audit.Dispatcher
	Clock    clock.Clock
	Location *time.Location

	Redis    *redis.Client
	Gateway  domainPayment.BillingGateway
	Archiver domainPayment.Archiver
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware())
	r.Use(observability.GinMiddleware(d.Log))

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(d.DB)
	paymentRepo := infraRepo.NewPaymentGormRepository(d.DB)
	ledgerRepo := infraRepo.NewLedgerGormRepository(d.DB)
	webhookRepo := infraRepo.NewWebhookGormRepository(d.DB)

	var locker domainAppointment.BookingLocker
	if d.Redis != nil {
		locker = infraLock.NewRedisBookingLocker(d.Redis, cfg.BookingLockTTL, d.Log.Named("booking.lock"))
	}

	provider := cfg.PaymentProvider
	if d.Gateway != nil {
		provider = d.Gateway.Provider()
	}

	// ======================================================
	// USE CASES - PAYMENTS
	// ======================================================
	poster := ucPayment.NewLedgerPoster(paymentRepo, d.Metrics, d.Clock, d.Log.Named("payment.poster"))
	reconciler := ucPayment.NewReconciler(paymentRepo, poster, provider, d.Clock, d.Log.Named("payment.reconciler"))

	var (
		createIntentUC  *ucPayment.CreatePaymentIntent
		cancelIntentUC  *ucPayment.CancelPaymentIntent
		subscriptionsUC *ucPayment.SubscriptionActions
		charger         ucAppointment.Charger
	)
	if d.Gateway != nil {
		createIntentUC = ucPayment.NewCreatePaymentIntent(paymentRepo, d.Gateway, d.Audit, d.Clock, d.Log.Named("payment.intent"))
		cancelIntentUC = ucPayment.NewCancelPaymentIntent(paymentRepo, d.Gateway, d.Audit)
		subscriptionsUC = ucPayment.NewSubscriptionActions(paymentRepo, d.Gateway, d.Audit, d.Clock, d.Log.Named("payment.subscription"))
		charger = createIntentUC
	}

	ingestor := webhook.NewIngestor(webhookRepo, reconciler, d.Clock, d.Log.Named("webhook"), webhook.Options{
		Provider: provider,
		Secret:   cfg.WebhookSecret,
		Archiver: d.Archiver,
		Metrics:  d.Metrics,
	})

	// ======================================================
	// USE CASES - APPOINTMENTS
	// ======================================================
	bookUC := ucAppointment.NewBookAppointment(appointmentRepo, locker, d.Audit, d.Metrics, d.Clock, d.Location)
	availabilityUC := ucAppointment.NewGetAvailability(appointmentRepo, d.Clock, d.Location)

	// ======================================================
	// HANDLERS
	// ======================================================
	appointmentHandler := handlers.NewAppointmentHandler(handlers.AppointmentUseCases{
		Book:        bookUC,
		Reschedule:  ucAppointment.NewRescheduleAppointment(appointmentRepo, locker, d.Audit, d.Clock, d.Location),
		Confirm:     ucAppointment.NewConfirmAppointment(appointmentRepo, d.Audit, d.Clock),
		Start:       ucAppointment.NewStartAppointment(appointmentRepo, d.Audit, d.Clock),
		Complete:    ucAppointment.NewCompleteAppointment(appointmentRepo, d.Audit, d.Clock, charger, d.Log.Named("appointment.complete")),
		Cancel:      ucAppointment.NewCancelAppointment(appointmentRepo, d.Audit, d.Clock),
		NoShow:      ucAppointment.NewMarkNoShow(appointmentRepo, d.Audit, d.Clock),
		ListByDate:  ucAppointment.NewListAppointmentsByDate(appointmentRepo, d.Location),
		ListByMonth: ucAppointment.NewListAppointmentsByMonth(appointmentRepo, d.Location),
	}, d.Location)

	publicHandler := handlers.NewPublicHandler(availabilityUC, bookUC, d.Location)
	paymentHandler := handlers.NewPaymentHandler(createIntentUC, cancelIntentUC, subscriptionsUC)
	ledgerHandler := handlers.NewLedgerHandler(ledgerRepo)
	settingsHandler := handlers.NewSettingsHandler(appointmentRepo)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB, d.Location)
	webhookEventsHandler := handlers.NewWebhookEventsHandler(webhookRepo)
	webhookHandler := handlers.NewWebhookHandler(ingestor, cfg.WebhookSignatureHeader, d.Log.Named("webhook.http"))
	healthHandler := handlers.NewHealthHandler(d.DB, d.Redis)

	// ======================================================
	// OPS
	// ======================================================
	r.GET("/health", healthHandler.Check)
	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// WEBHOOKS
		// ------------------------------
		hooks := api.Group("/webhooks")
		hooks.Use(limiter.Middleware())
		{
			hooks.POST("/payments", webhookHandler.Receive)
			for _, method := range []string{
				http.MethodGet,
				http.MethodPut,
				http.MethodPatch,
				http.MethodDelete,
				http.MethodHead,
			} {
				hooks.Handle(method, "/payments", webhookHandler.MethodNotAllowed)
			}
		}

		// ------------------------------
		// API PÚBLICA
		// ------------------------------
		publicAPI := api.Group("/public")
		publicAPI.Use(limiter.Middleware())
		{
			publicAPI.GET("/availability", publicHandler.Availability)
			publicAPI.POST("/appointments", publicHandler.CreateAppointment)
		}

		// ------------------------------
		// API PRIVADA
		// ------------------------------
		secured := api.Group("/me")
		secured.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		{
			secured.POST("/appointments", appointmentHandler.Create)
			secured.GET("/appointments", appointmentHandler.ListByDate)
			secured.GET("/appointments/month", appointmentHandler.ListByMonth)
			secured.PATCH("/appointments/:id/confirm", appointmentHandler.Confirm)
			secured.PATCH("/appointments/:id/start", appointmentHandler.Start)
			secured.PATCH("/appointments/:id/complete", appointmentHandler.Complete)
			secured.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.PATCH("/appointments/:id/no-show", appointmentHandler.NoShow)
			secured.PATCH("/appointments/:id/reschedule", appointmentHandler.Reschedule)

			secured.POST("/payments/intents", paymentHandler.CreateIntent)
			secured.POST("/payments/intents/:id/cancel", paymentHandler.CancelIntent)

			secured.POST("/subscriptions", paymentHandler.CreateSubscription)
			secured.POST("/subscriptions/:id/cancel", paymentHandler.CancelSubscription)
			secured.POST("/subscriptions/:id/pause", paymentHandler.PauseSubscription)
			secured.POST("/subscriptions/:id/resume", paymentHandler.ResumeSubscription)

			secured.GET("/ledger", ledgerHandler.List)
			secured.GET("/ledger/balance", ledgerHandler.Balance)

			secured.GET("/settings", settingsHandler.Get)
			secured.PUT("/settings", settingsHandler.Update)

			secured.GET("/audit-logs", auditLogsHandler.List)
			secured.GET("/webhook-events", webhookEventsHandler.List)
		}
	}
}
