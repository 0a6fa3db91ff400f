package api

import (
	"mail-route-tracker/internal/api/handlers"
	"mail-route-tracker/internal/ports"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/language"
)

// Deps are the adapters the HTTP layer needs.
type Deps struct {
	Repo ports.StreetRepository
	// Source serves reads; normally the snapshot hub. Falls back to Repo when nil.
	Source       ports.StreetSource
	WalkOrders   ports.WalkOrderSource
	Collation    language.Tag
	RateLimitRPS float64
	Now          func() time.Time
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	source := deps.Source
	if source == nil {
		source = deps.Repo
	}

	health := &handlers.HealthHandler{}
	if v, ok := source.(handlers.Versioned); ok {
		health.Feed = v
	}
	streets := &handlers.StreetHandler{Repo: deps.Repo, Source: source, Now: deps.Now}
	areas := &handlers.AreaHandler{
		Source:     source,
		Repo:       deps.Repo,
		WalkOrders: deps.WalkOrders,
		Collation:  deps.Collation,
		Now:        deps.Now,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(rateLimitMiddleware(deps.RateLimitRPS))

	r.Get("/health", health.Health)

	r.Route("/streets", func(r chi.Router) {
		r.Get("/", streets.List)
		r.Post("/", streets.Create)
		r.Get("/{id}", streets.Get)
		r.Delete("/{id}", streets.Delete)
		r.Post("/{id}/deliveries", streets.MarkDelivered)
		r.Delete("/{id}/deliveries", streets.UndoDelivery)
	})

	r.Route("/areas/{area}", func(r chi.Router) {
		r.Get("/worklist", areas.Worklist)
		r.Get("/groups", areas.Groups)
		r.Get("/forecast", areas.Forecast)
		r.Post("/cycle", areas.StartCycle)
	})

	r.Get("/insights", areas.Insights)

	return r
}
