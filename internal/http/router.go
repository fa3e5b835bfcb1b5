package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"futuresend/internal/http/handler"
)

// NewRouter wires HTTP routes.
func NewRouter(control *handler.ControlHandler, message *handler.MessageHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/messages", func(r chi.Router) {
		r.Post("/", message.Create)
		r.Get("/pending", message.PendingCount)
		r.Get("/sent", message.ListSent)
		r.Get("/{id}", message.Get)
	})

	r.Post("/dispatch/run", message.RunDispatch)

	r.Route("/control", func(r chi.Router) {
		r.Post("/start", control.Start)
		r.Post("/stop", control.Stop)
	})

	return r
}
