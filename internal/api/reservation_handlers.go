package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"reservationsystem/internal/entities"
	apperrors "reservationsystem/internal/errors"
)

// ReservationService is the reservation engine as seen by the HTTP layer.
type ReservationService interface {
	GetReservationByID(ctx context.Context, id int64) (entities.Reservation, error)
	GetAllReservations(ctx context.Context) ([]entities.Reservation, error)
	Exists(ctx context.Context, id int64) (bool, error)
	CreateReservation(ctx context.Context, req entities.ReservationRequest) (entities.Reservation, error)
	UpdateReservation(ctx context.Context, id int64, req entities.ReservationRequest) (entities.Reservation, error)
	CancelReservation(ctx context.Context, id int64) error
	ApproveReservation(ctx context.Context, id int64) (entities.Reservation, error)
}

type ReservationHandler struct {
	Service ReservationService
	logger  *zap.Logger
}

func NewReservationHandler(svc ReservationService, logger *zap.Logger) *ReservationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationHandler{Service: svc, logger: logger}
}

func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := reservationID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.Service.GetReservationByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationHandler) HeadReservation(w http.ResponseWriter, r *http.Request) {
	id, err := reservationID(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	ok, err := h.Service.Exists(r.Context(), id)
	if err != nil {
		h.logger.Error("error checking reservation", zap.Int64("reservation_id", id), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.Service.GetAllReservations(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservations)
}

func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest("Invalid request body: "+err.Error()))
		return
	}
	res, err := h.Service.CreateReservation(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ReservationHandler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, err := reservationID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req entities.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.ErrBadRequest("Invalid request body: "+err.Error()))
		return
	}
	res, err := h.Service.UpdateReservation(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := reservationID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Service.CancelReservation(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *ReservationHandler) ApproveReservation(w http.ResponseWriter, r *http.Request) {
	id, err := reservationID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.Service.ApproveReservation(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func reservationID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ErrBadRequest("Invalid reservation id: " + strconv.Quote(raw))
	}
	return id, nil
}
