package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"reservationsystem/internal/entities"
	apperrors "reservationsystem/internal/errors"
)

// now is swapped in tests.
var now = time.Now

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps err to a status code and writes the error body.
func (h *ReservationHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := apperrors.ToHTTPError(err)
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", httpErr.Code),
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Error(err),
	}
	if httpErr.Code >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Info("request rejected", fields...)
	}
	writeErrorResponse(w, httpErr)
}

func writeErrorResponse(w http.ResponseWriter, httpErr *apperrors.HTTPError) {
	writeJSON(w, httpErr.Code, entities.ErrorResponse{
		Message:         httpErr.Message,
		DetailedMessage: httpErr.Detail,
		ErrorTime:       now(),
	})
}
