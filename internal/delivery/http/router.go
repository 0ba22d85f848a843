package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"staffcalendar/internal/delivery/http/controllers"
	"staffcalendar/internal/delivery/http/middleware"
	"staffcalendar/internal/domain"
)

// RouterDeps are the collaborators the router wires into routes.
type RouterDeps struct {
	Logger      *slog.Logger
	Calendar    *controllers.CalendarController
	Health      *controllers.HealthController
	Verifier    domain.TokenVerifier
	RateLimiter *middleware.RateLimiter
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(d RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()

	optional := middleware.OptionalAuth(d.Verifier, d.Logger)
	required := middleware.RequireAuth(d.Verifier, d.Logger)
	limited := middleware.RateLimit(d.RateLimiter, d.Logger)
	mutating := func(next http.HandlerFunc) http.HandlerFunc { return required(limited(next)) }

	// Calendar reads; anonymous callers get an empty timeline
	mux.HandleFunc("GET /calendar/grid", d.Calendar.GetGrid)
	mux.HandleFunc("GET /calendar/events", optional(d.Calendar.ListEvents))
	mux.HandleFunc("GET /calendar/events/range", optional(d.Calendar.ListEventsInRange))
	mux.HandleFunc("GET /calendar/events/{eventID}", optional(d.Calendar.GetEvent))
	mux.HandleFunc("GET /calendar/feed.ics", required(d.Calendar.GetFeed))

	// Calendar writes
	mux.HandleFunc("POST /calendar/events", mutating(d.Calendar.CreateEvent))
	mux.HandleFunc("PATCH /calendar/events/{eventID}", mutating(d.Calendar.UpdateEvent))
	mux.HandleFunc("DELETE /calendar/events/{eventID}", mutating(d.Calendar.DeleteEvent))

	mux.HandleFunc("GET /health", d.Health.Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
