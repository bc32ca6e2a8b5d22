// Package router assembles the HTTP surface of the clinic platform.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cliniccore/clinic-ops-platform/internal/booking"
	"github.com/cliniccore/clinic-ops-platform/internal/chat"
	"github.com/cliniccore/clinic-ops-platform/internal/clinic"
	"github.com/cliniccore/clinic-ops-platform/internal/content"
	"github.com/cliniccore/clinic-ops-platform/internal/display"
	httpmiddleware "github.com/cliniccore/clinic-ops-platform/internal/http/middleware"
	"github.com/cliniccore/clinic-ops-platform/internal/queue"
	"github.com/cliniccore/clinic-ops-platform/internal/realtime"
	"github.com/cliniccore/clinic-ops-platform/internal/whatsapp"
	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	BookingHandler  *booking.Handler
	QueueHandler    *queue.Handler
	DisplayHandler  *display.Handler
	SettingsHandler *clinic.Handler
	ContentHandler  *content.Handler
	ChatHandler     *chat.Handler
	WhatsAppWebhook *whatsapp.WebhookHandler
	Hub             *realtime.Hub
	MetricsHandler  http.Handler

	StaffJWTSecret     string
	CORSAllowedOrigins []string
}

// New creates the chi router with all routes configured. Public surfaces
// (booking, display, content reads, webhooks) need no auth; dashboard
// command surfaces sit behind the staff JWT.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public surfaces.
	r.Group(func(public chi.Router) {
		public.With(httpmiddleware.RateLimit(2, 5)).
			Post("/api/bookings", cfg.BookingHandler.Submit)
		public.Get("/api/display", cfg.DisplayHandler.Get)
		public.Get("/api/content/articles", cfg.ContentHandler.ListArticles)
		public.Get("/api/content/faqs", cfg.ContentHandler.ListFAQs)

		public.Get("/api/webhook/whatsapp", cfg.WhatsAppWebhook.HandleVerification)
		public.Post("/api/webhook/whatsapp", cfg.WhatsAppWebhook.HandleInbound)

		public.Get("/ws", cfg.Hub.ServeWS)
	})

	// Staff dashboards.
	r.Group(func(staff chi.Router) {
		staff.Use(httpmiddleware.StaffJWT(cfg.StaffJWTSecret,
			httpmiddleware.RoleSecretary, httpmiddleware.RoleDoctor))

		staff.Route("/api/queue", cfg.QueueHandler.Routes)
		staff.Get("/api/settings", cfg.SettingsHandler.Get)
		staff.Put("/api/settings", cfg.SettingsHandler.Put)

		staff.Post("/api/content/articles", cfg.ContentHandler.CreateArticle)
		staff.Delete("/api/content/articles/{id}", cfg.ContentHandler.DeleteArticle)
		staff.Post("/api/content/faqs", cfg.ContentHandler.CreateFAQ)
		staff.Delete("/api/content/faqs/{id}", cfg.ContentHandler.DeleteFAQ)
		staff.Post("/api/ai/generate", cfg.ContentHandler.Generate)

		staff.Get("/api/chat", cfg.ChatHandler.List)
		staff.Post("/api/chat", cfg.ChatHandler.Send)
	})

	return r
}
