package webhook

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ignite/ses-bounce-handler/internal/pkg/httputil"
)

// Routes builds the service router. The webhook accepts POST only; chi
// answers other methods on the route with 405, matching the handler's own
// method guard.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/webhooks/ses", h.HandleSES)
	r.Get("/health", h.HandleHealth)

	return r
}

// HandleHealth reports process liveness for the load balancer.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
