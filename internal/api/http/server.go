package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/idempotency"
	"hotel-pms-backend/internal/security"
	"hotel-pms-backend/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// Services are the operations the admin API exposes.
type Services struct {
	RoomTypes     service.RoomTypeService
	Rates         service.RateService
	Rooms         service.RoomService
	Reservations  service.ReservationService
	Payments      service.PaymentService
	Notifications service.NotificationService
}

type Options struct {
	Tokens security.TokenManager
	// Idempotency enables Idempotency-Key replay on reservation creation.
	Idempotency idempotency.Store
	// Ready reports whether dependencies (database, redis) are reachable.
	Ready func(ctx context.Context) error
}

type Handler struct {
	svc      Services
	idem     idempotency.Store
	ready    func(ctx context.Context) error
	validate *validator.Validate
}

// NewRouter wires every route behind recovery, logging and auth middleware.
func NewRouter(svc Services, opts Options) *mux.Router {
	h := &Handler{
		svc:      svc,
		idem:     opts.Idempotency,
		ready:    opts.Ready,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	auth := &authMiddleware{tokenManager: opts.Tokens}

	router := mux.NewRouter()
	router.Use(requestIDMiddleware, recoveryMiddleware, loggingMiddleware, auth.handle)

	router.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	router.HandleFunc("/readyz", h.readyz).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Room types
	api.HandleFunc("/business-units/{business_unit_id:[0-9]+}/room-types", h.createRoomType).Methods(http.MethodPost)
	api.HandleFunc("/business-units/{business_unit_id:[0-9]+}/room-types", h.listRoomTypes).Methods(http.MethodGet)
	api.HandleFunc("/room-types/{room_type_id:[0-9]+}", h.getRoomType).Methods(http.MethodGet)
	api.HandleFunc("/room-types/{room_type_id:[0-9]+}", h.updateRoomType).Methods(http.MethodPut)
	api.HandleFunc("/room-types/{room_type_id:[0-9]+}", h.deleteRoomType).Methods(http.MethodDelete)
	api.HandleFunc("/room-types/{room_type_id:[0-9]+}/deactivate", h.deactivateRoomType).Methods(http.MethodPost)

	// Rates
	api.HandleFunc("/room-types/{room_type_id:[0-9]+}/rates", h.createRate).Methods(http.MethodPost)
	api.HandleFunc("/room-types/{room_type_id:[0-9]+}/rates", h.listRates).Methods(http.MethodGet)
	api.HandleFunc("/room-types/{room_type_id:[0-9]+}/quote", h.quoteStay).Methods(http.MethodPost)
	api.HandleFunc("/rates/{rate_id:[0-9]+}", h.getRate).Methods(http.MethodGet)
	api.HandleFunc("/rates/{rate_id:[0-9]+}", h.updateRate).Methods(http.MethodPut)
	api.HandleFunc("/rates/{rate_id:[0-9]+}", h.deleteRate).Methods(http.MethodDelete)
	api.HandleFunc("/rates/{rate_id:[0-9]+}/activate", h.setRateActive(true)).Methods(http.MethodPost)
	api.HandleFunc("/rates/{rate_id:[0-9]+}/deactivate", h.setRateActive(false)).Methods(http.MethodPost)
	api.HandleFunc("/rates/{rate_id:[0-9]+}/default", h.setDefaultRate).Methods(http.MethodPost)

	// Rooms
	api.HandleFunc("/business-units/{business_unit_id:[0-9]+}/rooms", h.createRoom).Methods(http.MethodPost)
	api.HandleFunc("/business-units/{business_unit_id:[0-9]+}/rooms", h.listRooms).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id:[0-9]+}", h.getRoom).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id:[0-9]+}/status", h.overrideRoomStatus).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{room_id:[0-9]+}/housekeeping", h.setHousekeeping).Methods(http.MethodPost)

	// Reservations
	api.HandleFunc("/business-units/{business_unit_id:[0-9]+}/reservations", h.createReservation).Methods(http.MethodPost)
	api.HandleFunc("/business-units/{business_unit_id:[0-9]+}/reservations", h.listReservations).Methods(http.MethodGet)
	api.HandleFunc("/reservations/by-confirmation/{confirmation_number}", h.getByConfirmation).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{reservation_id:[0-9]+}", h.getReservation).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{reservation_id:[0-9]+}/events", h.listEvents).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{reservation_id:[0-9]+}/confirm", h.transition(h.svc.Reservations.Confirm)).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{reservation_id:[0-9]+}/check-in", h.transition(h.svc.Reservations.CheckIn)).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{reservation_id:[0-9]+}/check-out", h.transition(h.svc.Reservations.CheckOut)).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{reservation_id:[0-9]+}/no-show", h.transition(h.svc.Reservations.MarkNoShow)).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{reservation_id:[0-9]+}/cancel", h.cancelReservation).Methods(http.MethodPost)

	// Payments
	api.HandleFunc("/reservations/{reservation_id:[0-9]+}/payments", h.recordPayment).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{reservation_id:[0-9]+}/payments", h.listPayments).Methods(http.MethodGet)
	api.HandleFunc("/payments/{payment_id:[0-9]+}", h.getPayment).Methods(http.MethodGet)
	api.HandleFunc("/payments/{payment_id:[0-9]+}/refunds", h.refundPayment).Methods(http.MethodPost)

	// Notifications
	api.HandleFunc("/notifications", h.listNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{notification_id:[0-9]+}/read", h.markNotificationRead).Methods(http.MethodPost)

	return router
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func pathVars(r *http.Request) map[string]string {
	return mux.Vars(r)
}

func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s %q", domain.ErrInvalidInput, name, raw)
	}
	return int32(id), nil
}

func queryInt32(r *http.Request, name string) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s %q", domain.ErrInvalidInput, name, raw)
	}
	return int32(v), nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: bad %s %q", domain.ErrInvalidInput, name, raw)
	}
	return v, nil
}

func queryDate(r *http.Request, name string) (domain.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return domain.Date{}, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return d, nil
}

// decode reads a JSON body into dst and runs its validate tags.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
	}
	return h.validate.Struct(dst)
}

// principal is only missing when a route was mistakenly marked public.
func principal(w http.ResponseWriter, r *http.Request) (*domain.Principal, bool) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, domain.ErrForbidden)
	}
	return p, ok
}

type listResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int32 `json:"total_count"`
}
