package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	custommiddleware "github.com/mmeshcher/impact-tracker/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware трекера.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/donations", h.ListDonations)
		r.Post("/donations", h.AddDonation)
		r.Delete("/donations/{id}", h.RemoveDonation)

		r.Get("/impact/preview", h.Preview)
		r.Get("/export.csv", h.ExportCSV)

		r.Get("/share", h.Share)
		r.Get("/shared", h.ViewShared)
		r.Post("/shared/import", h.ImportShared)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
