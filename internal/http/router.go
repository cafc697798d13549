package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"eukexpress-backend/internal/handlers"
	"eukexpress-backend/internal/middleware"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Auth          *handlers.AuthHandler
	TOTP          *handlers.TOTPHandler
	Shipments     *handlers.ShipmentHandler
	Communication *handlers.CommunicationHandler
	Dashboard     *handlers.DashboardHandler
	Public        *handlers.PublicHandler
	Razorpay      *handlers.RazorpayHandler
	Health        *handlers.HealthHandler
	Monitoring    *handlers.MonitoringHandler
	Activity      http.Handler
}

func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware, cors func(http.Handler) http.Handler, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MetricsMiddleware)

	// Probes and metrics (no auth)
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public API routes
	api.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")
	api.HandleFunc("/auth/logout", h.Auth.Logout).Methods("POST")
	api.HandleFunc("/payments/webhook", h.Razorpay.HandleWebhook).Methods("POST")

	public := api.PathPrefix("/public").Subrouter()
	public.HandleFunc("/status", h.Health.PublicStatus).Methods("GET")
	public.HandleFunc("/track/{tracking}", h.Public.Track).Methods("GET")
	public.HandleFunc("/track/{tracking}/qr", h.Public.QRCode).Methods("GET")
	public.HandleFunc("/track/{tracking}/invoice", h.Public.Invoice).Methods("GET")

	// Protected API routes - Auth
	authAPI := api.PathPrefix("/auth").Subrouter()
	authAPI.Use(authMiddleware.Authenticate)
	authAPI.HandleFunc("/verify", h.Auth.Verify).Methods("GET")
	authAPI.HandleFunc("/change-password", h.Auth.ChangePassword).Methods("POST")
	authAPI.HandleFunc("/2fa/setup", h.TOTP.Setup).Methods("POST")
	authAPI.HandleFunc("/2fa/enable", h.TOTP.Enable).Methods("POST")
	authAPI.HandleFunc("/2fa/disable", h.TOTP.Disable).Methods("POST")

	// Protected API routes - Dashboard
	dashboardAPI := api.PathPrefix("/dashboard").Subrouter()
	dashboardAPI.Use(authMiddleware.Authenticate)
	dashboardAPI.HandleFunc("", h.Dashboard.Dashboard).Methods("GET")
	dashboardAPI.HandleFunc("/quick-actions", h.Dashboard.QuickActions).Methods("GET")

	// Protected API routes - Shipments
	// Static paths are registered before /{tracking} so they win the match.
	shipmentsAPI := api.PathPrefix("/shipments").Subrouter()
	shipmentsAPI.Use(authMiddleware.Authenticate)
	shipmentsAPI.HandleFunc("", h.Shipments.List).Methods("GET")
	shipmentsAPI.HandleFunc("", h.Shipments.Create).Methods("POST")
	shipmentsAPI.HandleFunc("/filters", h.Shipments.Filters).Methods("GET")
	shipmentsAPI.HandleFunc("/export", h.Shipments.Export).Methods("GET")
	shipmentsAPI.HandleFunc("/{tracking}", h.Shipments.Detail).Methods("GET")
	shipmentsAPI.HandleFunc("/{tracking}", h.Shipments.Delete).Methods("DELETE")
	shipmentsAPI.HandleFunc("/{tracking}/status", h.Shipments.UpdateStatus).Methods("PUT")
	shipmentsAPI.HandleFunc("/{tracking}/available-statuses", h.Shipments.AvailableStatuses).Methods("GET")
	shipmentsAPI.HandleFunc("/{tracking}/interventions/{type}", h.Shipments.ToggleIntervention).Methods("POST")
	shipmentsAPI.HandleFunc("/{tracking}/images/{side}", h.Shipments.Image).Methods("GET")
	shipmentsAPI.HandleFunc("/{tracking}/payment", h.Shipments.RecordPayment).Methods("PATCH")
	shipmentsAPI.HandleFunc("/{tracking}/payment/order", h.Razorpay.CreateOrder).Methods("POST")
	shipmentsAPI.HandleFunc("/{tracking}/email-history", h.Shipments.EmailHistory).Methods("GET")
	shipmentsAPI.HandleFunc("/{tracking}/message", h.Communication.SendMessage).Methods("POST")
	shipmentsAPI.HandleFunc("/{tracking}/email/resend", h.Communication.Resend).Methods("POST")

	// Protected API routes - Bulk email
	bulkAPI := api.PathPrefix("/bulk").Subrouter()
	bulkAPI.Use(authMiddleware.Authenticate)
	bulkAPI.HandleFunc("/email", h.Communication.CreateCampaign).Methods("POST")
	bulkAPI.HandleFunc("/campaigns", h.Communication.ListCampaigns).Methods("GET")

	// Protected API routes - System
	systemAPI := api.PathPrefix("/system").Subrouter()
	systemAPI.Use(authMiddleware.Authenticate)
	systemAPI.HandleFunc("/stats", h.Monitoring.SystemStats).Methods("GET")

	wsAPI := api.PathPrefix("/ws").Subrouter()
	wsAPI.Use(authMiddleware.Authenticate)
	wsAPI.Handle("/activity", h.Activity).Methods("GET")

	return cors(r)
}
