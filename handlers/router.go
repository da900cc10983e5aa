package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(app App) *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(NewStructuredLogger(app.Logger()))
	mux.Use(middleware.Recoverer)
	mux.Use(MetricsMiddleware)

	mux.Handle("/static/*", staticHandler())
	mux.Get("/healthz", MakeHandler(app, HandleHealth))
	mux.With(RequireLAN).Handle("/metrics", promhttp.Handler())
	mux.Get("/api/post/{postID}", MakeHandler(app, HandlePostPreview))

	mux.Get("/", MakeHandler(app, HandleHome))
	mux.Route("/{board}", func(r chi.Router) {
		r.Get("/", MakeHandler(app, HandleBoard))
		r.Post("/thread", MakeHandler(app, HandleCreateThread))
		r.Get("/thread/{threadID}", MakeHandler(app, HandleThread))
		r.Post("/thread/{threadID}/reply", MakeHandler(app, HandleReply))
	})

	mux.NotFound(MakeHandler(app, HandleNotFound))
	return mux
}
