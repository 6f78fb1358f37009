package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/carelink/benefitlimits/internal/ingestion"
	"github.com/carelink/benefitlimits/internal/repository"
	"github.com/carelink/benefitlimits/internal/utilization"
)

// NewRouter creates the Chi router with all API routes mounted. A nil
// metricsHandler leaves /metrics unmounted.
func NewRouter(
	planRepo *repository.PlanRepo,
	findingRepo *repository.FindingRepo,
	importSvc *ingestion.Service,
	utilSvc *utilization.Service,
	metricsHandler http.Handler,
	logger zerolog.Logger,
) http.Handler {
	h := &Handlers{
		planRepo:    planRepo,
		findingRepo: findingRepo,
		importSvc:   importSvc,
		utilSvc:     utilSvc,
		log:         logger.With().Str("component", "api").Logger(),
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		// Imports.
		r.Post("/imports", h.ImportFile)

		// Plans.
		r.Get("/plans", h.ListPlans)
		r.Route("/plans/{id}", func(r chi.Router) {
			r.Get("/", h.GetPlan)
			r.Get("/limits", h.GetLimits)
			r.Get("/summary", h.GetSummary)
			r.Get("/claims", h.GetClaimHistory)
			r.Post("/impact", h.ResolveImpact)
			r.Post("/review", h.RunReview)
		})

		// Findings.
		r.Get("/findings", h.ListFindings)
		r.Get("/findings/summary", h.GetFindingSummary)
	})

	return r
}
