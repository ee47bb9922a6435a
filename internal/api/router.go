package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/davidmns/finsync/internal/api/handlers"
	custommiddleware "github.com/davidmns/finsync/internal/api/middleware"
	"github.com/davidmns/finsync/internal/config"
	"github.com/davidmns/finsync/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	fetchService *service.FetchService,
	loginService *service.LoginService,
	virtualService *service.VirtualService,
	dataService *service.DataService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		fetchHandler := handlers.NewFetchHandler(fetchService)
		r.Post("/fetch", fetchHandler.Fetch)
		r.Post("/fetch/all", fetchHandler.FetchAll)

		loginHandler := handlers.NewLoginHandler(loginService)
		r.Post("/login", loginHandler.Login)

		virtualHandler := handlers.NewVirtualHandler(virtualService)
		r.Post("/virtual/import", virtualHandler.Import)

		r.Route("/entities", func(r chi.Router) {
			entityHandler := handlers.NewEntityHandler(dataService)
			r.Get("/", entityHandler.Entities)
			r.Route("/{entityID}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateEntityID)
				r.Get("/position", entityHandler.Position)
				r.Get("/transactions", entityHandler.Transactions)
				r.Get("/contributions", entityHandler.Contributions)
				r.Get("/historic", entityHandler.Historic)
				r.Get("/fetch-records", entityHandler.FetchRecords)
				r.Delete("/login", loginHandler.Disconnect)
			})
		})
	})

	return r
}
