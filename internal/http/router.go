package http

import (
	"net/http"

	"jam/internal/alerts"
	"jam/internal/auth"
	"jam/internal/cache"
	"jam/internal/config"
	"jam/internal/crud"
	"jam/internal/dashboard"
	"jam/internal/export"
	"jam/internal/http/handler"
	mw "jam/internal/http/middleware"
	"jam/internal/models"
	"jam/internal/tasks"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewRouter wires every route. c may be nil, which disables dashboard caching.
func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, log *zap.Logger, c *cache.Cache) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.AccessLog(log))
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc, Log: log}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	dash := &dashboard.Service{
		DB:    db,
		Log:   log,
		Opts:  dashboard.Options{ChaseAfter: cfg.ChaseAfter, FeedLimit: cfg.FeedLimit},
		Cache: c,
		TTL:   cfg.DashboardCacheTTL,
	}
	admin := auth.RequireAdmin(db)
	deps := crud.Deps{DB: db, Log: log, Admin: admin, OnChange: dash.Invalidate}

	me := &handler.MeHandler{DB: db}
	files := &handler.FileHandler{DB: db}
	dashH := &handler.DashboardHandler{Svc: dash}
	exportH := &handler.ExportHandler{Svc: &export.Service{DB: db}, Log: log}
	alertH := &handler.AlertHandler{Svc: &alerts.Service{DB: db, Log: log}}
	scrapeH := &handler.ScrapeHandler{Repo: &tasks.Repo{DB: db}, Log: log}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc, db))

		r.Get("/me", me.Me)
		r.Patch("/me/theme", me.UpdateTheme)

		r.Get("/dashboard", dashH.Get)
		r.Get("/export", exportH.CSV)
		r.With(admin).Post("/scrapes", scrapeH.Enqueue)

		crud.Mount[models.User](r, deps, handler.Users)
		crud.Mount[models.Company](r, deps, handler.Companies)
		crud.Mount[models.Location](r, deps, handler.Locations)
		crud.Mount[models.Aggregator](r, deps, handler.Aggregators)
		crud.Mount[models.Keyword](r, deps, handler.Keywords)
		crud.Mount[models.Person](r, deps, handler.People)
		crud.Mount[models.File](r, deps, handler.Files, func(r chi.Router) {
			r.Get("/{id}/download", files.Download)
		})
		crud.Mount[models.Job](r, deps, handler.Jobs)
		crud.Mount[models.JobApplication](r, deps, handler.JobApplications)
		crud.Mount[models.JobApplicationUpdate](r, deps, handler.JobApplicationUpdates)
		crud.Mount[models.Interview](r, deps, handler.Interviews)
		crud.Mount[models.JobAlertEmail](r, deps, handler.JobAlertEmails, func(r chi.Router) {
			r.Post("/{id}/ingest", alertH.Ingest)
		})
		crud.Mount[models.ScrapedJob](r, deps, handler.ScrapedJobs)
		crud.Mount[models.ServiceLog](r, deps, handler.ServiceLogs)
	})

	return r
}
