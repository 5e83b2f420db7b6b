package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservationsystem/internal/entities"
	"reservationsystem/internal/repository"
	"reservationsystem/internal/service"
)

var fixedNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (http.Handler, *repository.MemoryReservationRepository) {
	t.Helper()
	prev := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = prev })

	store := repository.NewMemoryReservationRepository()
	svc := service.NewReservationService(store, nil, service.Options{})
	return NewRouter(NewReservationHandler(svc, nil), nil, RouterConfig{Store: store}), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeReservation(t *testing.T, rec *httptest.ResponseRecorder) entities.Reservation {
	t.Helper()
	var res entities.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) entities.ErrorResponse {
	t.Helper()
	var body entities.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func create(t *testing.T, h http.Handler, roomID int64, start, end string) entities.Reservation {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/reservations",
		`{"userId":7,"roomId":`+jsonInt(roomID)+`,"start":"`+start+`","end":"`+end+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeReservation(t, rec)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestCreateReservation(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/reservations",
		`{"userId":7,"roomId":3,"start":"2024-01-01","end":"2024-01-10"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	res := decodeReservation(t, rec)
	assert.NotZero(t, res.ID)
	assert.Equal(t, entities.StatusPending, res.Status)
	assert.Equal(t, "2024-01-01", res.Start.String())
	assert.Equal(t, "2024-01-10", res.End.String())
}

func TestCreateReservation_WithStatusIsBadRequest(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/reservations",
		`{"userId":7,"roomId":3,"start":"2024-01-01","end":"2024-01-10","status":"APPROVED"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Bad Request", body.Message)
	assert.Equal(t, "Reservation status must be null.", body.DetailedMessage)
	assert.True(t, body.ErrorTime.Equal(fixedNow))
}

func TestCreateReservation_MalformedBody(t *testing.T) {
	h, _ := newTestRouter(t)

	for name, body := range map[string]string{
		"syntax":   `{"userId":`,
		"bad date": `{"userId":7,"roomId":3,"start":"01/01/2024","end":"2024-01-10"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/reservations", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec).DetailedMessage, "Invalid request body")
		})
	}
}

func TestGetReservation(t *testing.T) {
	h, _ := newTestRouter(t)
	created := create(t, h, 1, "2024-01-01", "2024-01-05")

	rec := do(t, h, http.MethodGet, "/reservations/"+jsonInt(created.ID), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decodeReservation(t, rec))
}

func TestGetReservation_NotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/reservations/42", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "No Such Element", body.Message)
	assert.Equal(t, "Reservation with id 42 not found.", body.DetailedMessage)
}

func TestGetReservation_InvalidID(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, id := range []string{"abc", "0", "-3"} {
		t.Run(id, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/reservations/"+id, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Bad Request", decodeError(t, rec).Message)
		})
	}
}

func TestHeadReservation(t *testing.T) {
	h, _ := newTestRouter(t)
	created := create(t, h, 1, "2024-01-01", "2024-01-05")

	rec := do(t, h, http.MethodHead, "/reservations/"+jsonInt(created.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodHead, "/reservations/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodHead, "/reservations/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReservations(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/reservations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	a := create(t, h, 1, "2024-01-01", "2024-01-05")
	b := create(t, h, 2, "2024-02-01", "2024-02-05")

	rec = do(t, h, http.MethodGet, "/reservations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []entities.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []entities.Reservation{a, b}, list)
}

func TestUpdateReservation(t *testing.T) {
	h, _ := newTestRouter(t)
	created := create(t, h, 1, "2024-01-01", "2024-01-05")

	rec := do(t, h, http.MethodPut, "/reservations/"+jsonInt(created.ID),
		`{"userId":8,"roomId":2,"start":"2024-01-03","end":"2024-01-09","status":"APPROVED"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeReservation(t, rec)
	assert.Equal(t, created.ID, res.ID)
	assert.Equal(t, int64(8), res.UserID)
	assert.Equal(t, int64(2), res.RoomID)
	assert.Equal(t, entities.StatusPending, res.Status)
}

func TestUpdateReservation_NotPending(t *testing.T) {
	h, _ := newTestRouter(t)
	created := create(t, h, 1, "2024-01-01", "2024-01-05")
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/reservations/"+jsonInt(created.ID)+"/cancel", "").Code)

	rec := do(t, h, http.MethodPut, "/reservations/"+jsonInt(created.ID),
		`{"userId":7,"roomId":1,"start":"2024-01-01","end":"2024-01-05"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Reservation cannot be modified. Status must be PENDING, but found CANCELLED",
		decodeError(t, rec).DetailedMessage)
}

func TestCancelReservation(t *testing.T) {
	h, store := newTestRouter(t)
	created := create(t, h, 1, "2024-01-01", "2024-01-05")

	rec := do(t, h, http.MethodPost, "/reservations/"+jsonInt(created.ID)+"/cancel", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	stored, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCancelled, stored.Status)

	rec = do(t, h, http.MethodPost, "/reservations/"+jsonInt(created.ID)+"/cancel", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/reservations/999/cancel", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveReservation(t *testing.T) {
	h, _ := newTestRouter(t)
	created := create(t, h, 1, "2024-01-01", "2024-01-05")

	rec := do(t, h, http.MethodPost, "/reservations/"+jsonInt(created.ID)+"/approve", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, entities.StatusApproved, decodeReservation(t, rec).Status)
}

func TestApproveReservation_Conflict(t *testing.T) {
	h, _ := newTestRouter(t)
	a := create(t, h, 1, "2024-01-01", "2024-01-10")
	create(t, h, 1, "2024-01-05", "2024-01-15")

	rec := do(t, h, http.MethodPost, "/reservations/"+jsonInt(a.ID)+"/approve", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Bad Request", body.Message)
	assert.Equal(t, "Reservation cannot be approved. It has conflicts with other reservations.", body.DetailedMessage)
}

type failingService struct {
	ReservationService
	err error
}

func (f failingService) GetReservationByID(context.Context, int64) (entities.Reservation, error) {
	return entities.Reservation{}, f.err
}

func (f failingService) Exists(context.Context, int64) (bool, error) {
	return false, f.err
}

func TestUnexpectedErrorIsInternal(t *testing.T) {
	h := NewRouter(NewReservationHandler(failingService{err: errors.New("connection refused")}, nil), nil, RouterConfig{})

	rec := do(t, h, http.MethodGet, "/reservations/1", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "General error", body.Message)
	assert.Equal(t, "connection refused", body.DetailedMessage)

	rec = do(t, h, http.MethodHead, "/reservations/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPanicIsRecovered(t *testing.T) {
	h := NewRouter(NewReservationHandler(failingService{}, nil), nil, RouterConfig{})

	// failingService leaves ListReservations unimplemented, so the embedded nil interface panics.
	rec := do(t, h, http.MethodGet, "/reservations", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/rooms", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No Such Element", decodeError(t, rec).Message)
}

func TestUnmatchedRoutesCarryRequestID(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/rooms", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = do(t, h, http.MethodDelete, "/reservations/1", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	body := decodeError(t, rec)
	assert.Equal(t, "Method Not Allowed", body.Message)
	assert.Equal(t, "Method DELETE is not allowed on /reservations/1", body.DetailedMessage)
}

func TestRequestID(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/reservations", "")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthz(t *testing.T) {
	h := NewRouter(NewReservationHandler(failingService{}, nil), nil, RouterConfig{Store: pinger{}})
	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	h = NewRouter(NewReservationHandler(failingService{}, nil), nil, RouterConfig{Store: pinger{err: errors.New("db down")}})
	rec = do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","error":"db down"}`, rec.Body.String())
}
