/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. RealIP:         Client address behind a proxy (rate limit key)
  3. RequestLogger:  logrus entry per request
  4. Recoverer:      Panic recovery (500 instead of crash)
  5. Secure headers: unrolled/secure
  6. CORS:           Cross-origin requests for the dashboard frontend
  7. Rate limit:     httprate, per client IP, /api only

ROUTE GROUPS:
  /health               Liveness and data source check
  /api/employees/*      Employee management and monthly stats
  /api/licenses/*       Leave records
  /api/reports/*        Grouped reports (JSON and CSV)
  /api/dashboard        Month summary

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

type RouterOptions struct {
	AllowedOrigins     []string
	RateLimitPerMinute int // 0 disables
	Production         bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      !opts.Production,
	})

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(secureMiddleware.Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(opts.RateLimitPerMinute, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
				}),
			))
		}

		r.Get("/meta", h.Meta)
		r.Get("/dashboard", h.Dashboard)

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Post("/import", h.ImportEmployees)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
			r.Get("/{id}/stats", h.GetEmployeeStats)
		})

		// Leave record routes
		r.Get("/licenses.csv", h.LicensesCSV)
		r.Route("/licenses", func(r chi.Router) {
			r.Get("/", h.ListLicenses)
			r.Post("/", h.SubmitLicense)
			r.Post("/validate", h.ValidateLicense)
			r.Get("/{id}", h.GetLicense)
			r.Put("/{id}", h.UpdateLicense)
			r.Delete("/{id}", h.DeleteLicense)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/employees", h.EmployeeReport)
			r.Get("/employees.csv", h.EmployeeReportCSV)
		})

		r.Get("/export/fixture", h.ExportFixture)
	})

	return r
}
