package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"prod-dashboard/http-server/alerts/check"
	getalerts "prod-dashboard/http-server/alerts/get"
	getdashboard "prod-dashboard/http-server/dashboard/get"
	generate_csv "prod-dashboard/http-server/generate-report/generate-csv"
	generate_excel "prod-dashboard/http-server/generate-report/generate-excel"
	generate_text "prod-dashboard/http-server/generate-report/generate-text"
	gethealth "prod-dashboard/http-server/health/get"
	getorder "prod-dashboard/http-server/orders/get"
	getcharge "prod-dashboard/http-server/sectors/get"
	getWorkers "prod-dashboard/http-server/workers/get"
	"prod-dashboard/internal/middleware/auth"
)

func routes(a *app) *chi.Mux {
	cfg, log, svc, loc := a.cfg, a.log, a.dashboard, a.loc

	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	//ip пользователя
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(a.metrics.Middleware)

	router.Handle("/metrics", a.metrics.Handler())

	router.Route("/api", func(api chi.Router) {
		api.Get("/health", gethealth.Health(log, svc))

		api.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.RequestTimeout))

			r.Get("/dashboard", getdashboard.Dashboard(log, svc, loc))
			r.Get("/kpis", getdashboard.KPIs(log, svc, loc))
			r.Get("/summary", getdashboard.Summary(log, svc, loc))
			r.Get("/backlog", getdashboard.Backlog(log, svc, loc))
			r.Get("/filters/options", getdashboard.FilterOptions(log, svc))

			r.Get("/orders", getorder.GetOrdersFilter(log, svc, loc))
			r.Get("/orders/{id}", getorder.GetOrderDetails(log, svc))

			r.Get("/sectors/charge", getcharge.GetCharge(log, svc, loc))
			r.Get("/workers", getWorkers.GetWorkers(log, svc))
			r.Get("/alerts", getalerts.GetAlerts(log, svc, loc))
		})

		// Выгрузки дольше обычных запросов
		api.Route("/export", func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.ExportTimeout))

			r.Get("/csv", generate_csv.GenerateReportCSV(log, svc, loc))
			r.Get("/excel", generate_excel.GenerateReportExcel(log, svc, loc))
			r.Get("/report", generate_text.GenerateReportText(log, svc, loc))
		})

		api.Route("/admin", func(r chi.Router) {
			r.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))
			r.Use(middleware.Timeout(cfg.ExportTimeout))

			r.Post("/alerts/check", check.RunCheck(log, a.notifier))
			r.Post("/alerts/summary", check.SendSummary(log, a.notifier))
		})
	})

	mountFrontend(router, log, cfg.FrontendDir)

	return router
}

// mountFrontend serves the built SPA when a directory is configured.
func mountFrontend(router chi.Router, log *slog.Logger, frontendDir string) {
	if frontendDir == "" {
		return
	}
	if _, err := os.Stat(frontendDir); err != nil {
		log.Warn("frontend directory not found, serving API only", slog.String("path", frontendDir))
		return
	}

	fileServer := http.FileServer(http.Dir(frontendDir))
	router.Handle("/assets/*", fileServer)

	//SPA fallback: любой другой путь → index.html
	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(frontendDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, filepath.Join(frontendDir, "index.html"))
	})
}
