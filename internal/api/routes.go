package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries what SetupRoutes needs besides the handlers.
type RouterConfig struct {
	AllowedOrigins []string
	Health         *HealthChecker
	Orgs           *OrgContextProvider
}

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, rc RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	origins := rc.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Organization-ID", "X-User-Email"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no org required)
	health := rc.Health
	if health == nil {
		health = NewHealthChecker(nil, nil, nil, "")
	}
	r.Get("/health", health.HandleHealth)
	r.Get("/health/live", health.HandleLiveness)
	r.Get("/health/ready", health.HandleReadiness)

	orgs := rc.Orgs
	if orgs == nil {
		orgs = NewOrgContextProvider("")
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(orgs.RequireOrgMiddleware)

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", h.HandleListLists)
			r.Post("/", h.HandleCreateList)
			r.Post("/search", h.HandleSearchLists)

			r.Route("/{listId}", func(r chi.Router) {
				r.Get("/", h.HandleGetList)
				r.Put("/", h.HandleUpdateList)
				r.Delete("/", h.HandleDeleteList)
				r.Put("/tags", h.HandleSetListTags)

				r.Get("/records", h.HandleListRecords)
				r.Post("/records", h.HandleAddRecords)
				r.Post("/records/upload", h.HandleUploadRecords)
				r.Delete("/records/{recordId}", h.HandleDeleteRecord)

				r.Post("/import", h.HandleImport)
				r.Post("/export", h.HandleExport)

				if h.Campaigns != nil {
					r.Get("/campaigns", h.HandleListCampaigns)
					r.Post("/campaigns", h.HandleCreateCampaign)
				}
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.HandleListTags)
			r.Post("/", h.HandleCreateTag)
			r.Delete("/{tagId}", h.HandleDeleteTag)
		})

		if h.Campaigns != nil {
			r.Route("/campaigns/{campaignId}", func(r chi.Router) {
				r.Get("/", h.HandleGetCampaign)
				r.Delete("/", h.HandleDeleteCampaign)
				r.Post("/mailed", h.HandleMarkMailed)
				r.Post("/complete", h.HandleMarkCompleted)
				r.Post("/cancel", h.HandleCancelCampaign)
			})
		}

		if h.Suppressions != nil {
			r.Route("/suppressions", func(r chi.Router) {
				r.Get("/", h.HandleListSuppressions)
				r.Post("/", h.HandleCreateSuppression)
				r.Get("/stats", h.HandleSuppressionStats)
				r.Post("/upload", h.HandleUploadSuppressions)
				r.Delete("/{suppressionId}", h.HandleDeleteSuppression)
			})
		}

		r.Post("/provider/count", h.HandleProviderCount)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})

	return r
}
