package api

import (
	"context"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	apperrors "reservationsystem/internal/errors"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	AllowedOrigins []string
	Store          Pinger
}

// NewRouter wires the reservation routes with request ids, access logging, panic recovery and CORS.
func NewRouter(h *ReservationHandler, logger *zap.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, apperrors.ErrNotFound("No route for "+r.Method+" "+r.URL.Path))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, apperrors.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed",
			"Method "+r.Method+" is not allowed on "+r.URL.Path))
	})

	r.HandleFunc("/healthz", healthHandler(cfg.Store)).Methods(http.MethodGet)

	r.HandleFunc("/reservations", h.ListReservations).Methods(http.MethodGet)
	r.HandleFunc("/reservations", h.CreateReservation).Methods(http.MethodPost)
	r.HandleFunc("/reservations/{id}", h.GetReservation).Methods(http.MethodGet)
	r.HandleFunc("/reservations/{id}", h.HeadReservation).Methods(http.MethodHead)
	r.HandleFunc("/reservations/{id}", h.UpdateReservation).Methods(http.MethodPut)
	r.HandleFunc("/reservations/{id}/cancel", h.CancelReservation).Methods(http.MethodPost)
	r.HandleFunc("/reservations/{id}/approve", h.ApproveReservation).Methods(http.MethodPost)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger)),
		handlers.PrintRecoveryStack(false),
	)
	// Applied outside mux so unmatched routes are tagged and logged too.
	return recovery(cors(requestIDMiddleware(accessLogMiddleware(logger)(r))))
}

func healthHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
