package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthProbe reports whether a dependency is reachable.
type HealthProbe interface {
	Ping(ctx context.Context) error
}

// NewRouter wires the HTTP routes. Static segments are registered before their
// {id} siblings so /transactions/stats is not read as an id.
func NewRouter(logger *slog.Logger, h *Handler, health HealthProbe) http.Handler {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(logger), instrumentMiddleware)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", healthHandler(logger, health)).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/listings", requireUser(h.CreateListing)).Methods(http.MethodPost)
	v1.HandleFunc("/listings/search", h.SearchListings).Methods(http.MethodGet)
	v1.HandleFunc("/listings/{id}", h.GetListing).Methods(http.MethodGet)
	v1.HandleFunc("/listings/{id}/like", requireUser(h.ToggleListingLike)).Methods(http.MethodPost)
	v1.HandleFunc("/listings/{id}/status", requireUser(h.SetListingStatus)).Methods(http.MethodPatch)

	v1.HandleFunc("/transactions", requireUser(h.CreateTransaction)).Methods(http.MethodPost)
	v1.HandleFunc("/transactions", requireUser(h.ListTransactions)).Methods(http.MethodGet)
	v1.HandleFunc("/transactions/stats", requireUser(h.GetTransactionStats)).Methods(http.MethodGet)
	v1.HandleFunc("/transactions/{id}", requireUser(h.GetTransaction)).Methods(http.MethodGet)
	v1.HandleFunc("/transactions/{id}", requireUser(h.UpdateTransaction)).Methods(http.MethodPatch)
	v1.HandleFunc("/transactions/{id}/timeline", requireUser(h.GetTimeline)).Methods(http.MethodGet)
	v1.HandleFunc("/transactions/{id}/payment", requireUser(h.ProcessPayment)).Methods(http.MethodPost)
	v1.HandleFunc("/transactions/{id}/confirm-delivery", requireUser(h.ConfirmDelivery)).Methods(http.MethodPost)
	v1.HandleFunc("/transactions/{id}/cancel", requireUser(h.CancelTransaction)).Methods(http.MethodPost)
	v1.HandleFunc("/transactions/{id}/resolve", requireUser(h.ResolveDispute)).Methods(http.MethodPost)

	v1.HandleFunc("/users/{id}/follow", requireUser(h.Follow)).Methods(http.MethodPost)
	v1.HandleFunc("/users/{id}/follow", requireUser(h.Unfollow)).Methods(http.MethodDelete)
	v1.HandleFunc("/users/{id}/followers", h.Followers).Methods(http.MethodGet)
	v1.HandleFunc("/users/{id}/following", h.Following).Methods(http.MethodGet)

	v1.HandleFunc("/posts", requireUser(h.CreatePost)).Methods(http.MethodPost)
	v1.HandleFunc("/posts/{id}", requireUser(h.DeletePost)).Methods(http.MethodDelete)
	v1.HandleFunc("/posts/{id}/like", requireUser(h.TogglePostLike)).Methods(http.MethodPost)
	v1.HandleFunc("/posts/{id}/comments", requireUser(h.AddComment)).Methods(http.MethodPost)
	v1.HandleFunc("/posts/{id}/comments", h.ListComments).Methods(http.MethodGet)
	v1.HandleFunc("/comments/{id}", requireUser(h.DeleteComment)).Methods(http.MethodDelete)
	v1.HandleFunc("/feed/{kind}", h.Feed).Methods(http.MethodGet)

	return r
}

func healthHandler(logger *slog.Logger, probe HealthProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if probe != nil {
			if err := probe.Ping(ctx); err != nil {
				logger.Error("health probe failed", "error", err)
				respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}

		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
