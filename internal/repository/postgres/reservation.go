package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/lifecycle"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/repository"

	"github.com/lib/pq"
)

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `id, confirmation_number, business_unit_id, COALESCE(guest_id, 0), guest_name, guest_email,
	check_in_date, check_out_date, adults, children, status, payment_status, total_amount, currency,
	special_requests, internal_notes, source, COALESCE(cancellation_reason, ''), created_at, updated_at`

type querier interface {
	queryRower
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanReservation(row interface{ Scan(...any) error }, res *domain.Reservation) error {
	return row.Scan(&res.ID, &res.ConfirmationNumber, &res.BusinessUnitID, &res.GuestID, &res.GuestName, &res.GuestEmail,
		&res.CheckInDate, &res.CheckOutDate, &res.Adults, &res.Children, &res.Status, &res.PaymentStatus,
		&res.TotalAmount, &res.Currency, &res.SpecialRequests, &res.InternalNotes, &res.Source,
		&res.CancellationReason, &res.CreatedAt, &res.UpdatedAt)
}

func loadStays(ctx context.Context, q querier, reservationIDs []int32) (map[int32][]domain.RoomStay, error) {
	out := make(map[int32][]domain.RoomStay, len(reservationIDs))
	if len(reservationIDs) == 0 {
		return out, nil
	}
	query := `SELECT id, reservation_id, room_id, room_type_id, nightly_rates, nightly_rate, total
	          FROM room_stays WHERE reservation_id = ANY($1) ORDER BY reservation_id, room_id, id`
	rows, err := q.QueryContext(ctx, query, pq.Array(reservationIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.RoomStay
		var nightly []byte
		if err := rows.Scan(&s.ID, &s.ReservationID, &s.RoomID, &s.RoomTypeID, &nightly, &s.NightlyRate, &s.Total); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(nightly, &s.NightlyRates); err != nil {
			return nil, fmt.Errorf("decode nightly rates of stay %d: %w", s.ID, err)
		}
		out[s.ReservationID] = append(out[s.ReservationID], s)
	}
	return out, rows.Err()
}

// findOverlap returns the id of an active reservation other than excludeID
// holding roomID on any night of [checkIn, checkOut), or 0.
func findOverlap(ctx context.Context, q queryRower, roomID, excludeID int32, checkIn, checkOut domain.Date) (int32, error) {
	query := `SELECT r.id FROM reservations r
	          JOIN room_stays s ON s.reservation_id = r.id
	          WHERE s.room_id = $1 AND r.id <> $2 AND r.status = ANY($3)
	            AND r.check_in_date < $5 AND r.check_out_date > $4
	          ORDER BY r.id LIMIT 1`
	var id int32
	err := q.QueryRowContext(ctx, query, roomID, excludeID, activeStatuses(), checkIn, checkOut).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func distinctRoomIDs(stays []domain.RoomStay) []int32 {
	ids := make([]int32, 0, len(stays))
	for _, s := range stays {
		ids = append(ids, s.RoomID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func insertEvent(ctx context.Context, tx *sql.Tx, ev *domain.ReservationEvent) error {
	query := `INSERT INTO reservation_events (reservation_id, from_status, to_status, actor_id, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	ev.CreatedAt = time.Now()
	return tx.QueryRowContext(ctx, query, ev.ReservationID, ev.FromStatus, ev.ToStatus, ev.ActorID, ev.Reason, ev.CreatedAt).Scan(&ev.ID)
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation, roomEffect lifecycle.RoomEffect, actorID int32) error {
	logger.EnterMethod("reservationRepository.Create", "businessUnitID", res.BusinessUnitID, "status", res.Status,
		"checkIn", res.CheckInDate, "checkOut", res.CheckOutDate)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Rooms are always locked in id order.
	for _, roomID := range distinctRoomIDs(res.Stays) {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			logger.ExitMethodWithError("reservationRepository.Create", err, "roomID", roomID)
			return err
		}
		if !room.IsActive {
			return domain.ErrRoomInactive
		}
		conflictID, err := findOverlap(ctx, tx, roomID, 0, res.CheckInDate, res.CheckOutDate)
		if err != nil {
			return conflictOrErr(err, roomID)
		}
		if conflictID != 0 {
			err := &domain.InventoryConflictError{RoomID: roomID, ConflictingReservationID: conflictID}
			logger.ExitMethodWithError("reservationRepository.Create", err, "roomID", roomID)
			return err
		}
		if roomEffect == lifecycle.EffectNone {
			continue
		}
		change, changed, err := lifecycle.ApplyRoomEffect(roomEffect, room, 0)
		if err != nil {
			return err
		}
		if changed {
			if err := writeRoomChange(ctx, tx, roomID, change); err != nil {
				return err
			}
		}
	}

	now := time.Now()
	query := `INSERT INTO reservations (confirmation_number, business_unit_id, guest_id, guest_name, guest_email,
	              check_in_date, check_out_date, adults, children, status, payment_status, total_amount, currency,
	              special_requests, internal_notes, source, created_at, updated_at)
	          VALUES ($1, $2, NULLIF($3, 0), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
	          RETURNING id, created_at, updated_at`
	logger.DatabaseCall("INSERT", "reservations", "confirmationNumber", res.ConfirmationNumber)
	err = tx.QueryRowContext(ctx, query, res.ConfirmationNumber, res.BusinessUnitID, res.GuestID, res.GuestName, res.GuestEmail,
		res.CheckInDate, res.CheckOutDate, res.Adults, res.Children, res.Status, res.PaymentStatus, res.TotalAmount, res.Currency,
		res.SpecialRequests, res.InternalNotes, res.Source, now).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "reservationID", res.ID)
	if err != nil {
		logger.ExitMethodWithError("reservationRepository.Create", err)
		return err
	}

	stayQuery := `INSERT INTO room_stays (reservation_id, room_id, room_type_id, nightly_rates, nightly_rate, total)
	              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	for i := range res.Stays {
		s := &res.Stays[i]
		s.ReservationID = res.ID
		nightly, err := json.Marshal(s.NightlyRates)
		if err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, stayQuery, s.ReservationID, s.RoomID, s.RoomTypeID, nightly, s.NightlyRate, s.Total).Scan(&s.ID); err != nil {
			return err
		}
	}

	ev := &domain.ReservationEvent{ReservationID: res.ID, ToStatus: res.Status, ActorID: actorID, Reason: "created"}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return conflictOrErr(err, 0)
	}
	logger.ExitMethod("reservationRepository.Create", "reservationID", res.ID)
	return nil
}

func (r *reservationRepository) get(ctx context.Context, where string, arg any) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE ` + where
	if err := scanReservation(r.db.QueryRowContext(ctx, query, arg), res); err != nil {
		return nil, notFound(err, "reservation", arg)
	}
	stays, err := loadStays(ctx, r.db, []int32{res.ID})
	if err != nil {
		return nil, err
	}
	res.Stays = stays[res.ID]
	return res, nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *reservationRepository) GetByConfirmationNumber(ctx context.Context, number string) (*domain.Reservation, error) {
	return r.get(ctx, "confirmation_number = $1", number)
}

func (r *reservationRepository) List(ctx context.Context, filter repository.ReservationFilter) ([]domain.Reservation, int32, error) {
	logger.EnterMethod("reservationRepository.List", "businessUnitID", filter.BusinessUnitID)

	where := " WHERE business_unit_id = $1"
	args := []interface{}{filter.BusinessUnitID}
	argIndex := 2

	if len(filter.Statuses) > 0 {
		where += fmt.Sprintf(" AND status = ANY($%d)", argIndex)
		args = append(args, pq.Array(statusStrings(filter.Statuses)))
		argIndex++
	}
	if !filter.From.IsZero() && !filter.To.IsZero() {
		where += fmt.Sprintf(" AND check_in_date < $%d AND check_out_date > $%d", argIndex+1, argIndex)
		args = append(args, filter.From, filter.To)
		argIndex += 2
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`+where, args...).Scan(&count); err != nil {
		logger.ExitMethodWithError("reservationRepository.List", err)
		return nil, 0, err
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations` + where +
		fmt.Sprintf(" ORDER BY check_in_date, id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("reservationRepository.List", err)
		return nil, 0, err
	}
	defer rows.Close()

	var list []domain.Reservation
	var ids []int32
	for rows.Next() {
		var res domain.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, 0, err
		}
		list = append(list, res)
		ids = append(ids, res.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	stays, err := loadStays(ctx, r.db, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].Stays = stays[list[i].ID]
	}

	logger.ExitMethod("reservationRepository.List", "count", len(list), "total", count)
	return list, count, nil
}

func (r *reservationRepository) Transition(ctx context.Context, req repository.TransitionRequest) (*repository.TransitionResult, error) {
	logger.EnterMethod("reservationRepository.Transition", "reservationID", req.ReservationID, "action", req.Action)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res := &domain.Reservation{}
	lockQuery := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	if err := scanReservation(tx.QueryRowContext(ctx, lockQuery, req.ReservationID), res); err != nil {
		err = notFound(err, "reservation", req.ReservationID)
		logger.ExitMethodWithError("reservationRepository.Transition", err, "reservationID", req.ReservationID)
		return nil, err
	}
	stays, err := loadStays(ctx, tx, []int32{res.ID})
	if err != nil {
		return nil, err
	}
	res.Stays = stays[res.ID]

	tr, noop, err := lifecycle.Plan(res.Status, req.Action)
	if err != nil {
		logger.ExitMethodWithError("reservationRepository.Transition", err, "reservationID", res.ID)
		return nil, err
	}
	if noop {
		logger.ExitMethod("reservationRepository.Transition", "reservationID", res.ID, "noop", true)
		return &repository.TransitionResult{Reservation: res, NoOp: true}, nil
	}

	changes := make(map[int32]domain.RoomStatus)
	for _, roomID := range distinctRoomIDs(res.Stays) {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			return nil, err
		}
		if tr.AssignsRoom {
			conflictID, err := findOverlap(ctx, tx, roomID, res.ID, res.CheckInDate, res.CheckOutDate)
			if err != nil {
				return nil, conflictOrErr(err, roomID)
			}
			if conflictID != 0 {
				err := &domain.InventoryConflictError{RoomID: roomID, ConflictingReservationID: conflictID}
				logger.ExitMethodWithError("reservationRepository.Transition", err, "reservationID", res.ID)
				return nil, err
			}
		}
		holders := 0
		if tr.Effect == lifecycle.EffectRelease {
			if holders, err = countActiveHolders(ctx, tx, roomID, res.ID); err != nil {
				return nil, conflictOrErr(err, roomID)
			}
		}
		change, changed, err := lifecycle.ApplyRoomEffect(tr.Effect, room, holders)
		if err != nil {
			return nil, err
		}
		if changed {
			if err := writeRoomChange(ctx, tx, roomID, change); err != nil {
				return nil, err
			}
			changes[roomID] = change.Status
		}
	}

	cancellationReason := ""
	if tr.To == domain.ReservationCancelled {
		cancellationReason = req.Reason
	}
	update := `UPDATE reservations SET status = $1, cancellation_reason = COALESCE(NULLIF($2, ''), cancellation_reason), updated_at = $3
	           WHERE id = $4 AND status = $5 RETURNING updated_at`
	logger.DatabaseCall("UPDATE", "reservations", "reservationID", res.ID, "from", tr.From, "to", tr.To)
	err = tx.QueryRowContext(ctx, update, tr.To, cancellationReason, time.Now(), res.ID, tr.From).Scan(&res.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = &domain.InvalidTransitionError{From: tr.From, To: tr.To}
	}
	if err != nil {
		logger.ExitMethodWithError("reservationRepository.Transition", err, "reservationID", res.ID)
		return nil, err
	}

	ev := &domain.ReservationEvent{ReservationID: res.ID, FromStatus: tr.From, ToStatus: tr.To, ActorID: req.ActorID, Reason: req.Reason}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, conflictOrErr(err, 0)
	}

	res.Status = tr.To
	if cancellationReason != "" {
		res.CancellationReason = cancellationReason
	}
	logger.ExitMethod("reservationRepository.Transition", "reservationID", res.ID, "from", tr.From, "to", tr.To)
	return &repository.TransitionResult{Reservation: res, Transition: tr, RoomChanges: changes}, nil
}

func (r *reservationRepository) ListNoShowCandidates(ctx context.Context, before domain.Date) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE status = 'CONFIRMED' AND check_in_date < $1 ORDER BY check_in_date, id`
	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

func (r *reservationRepository) ListEvents(ctx context.Context, reservationID int32) ([]domain.ReservationEvent, error) {
	query := `SELECT id, reservation_id, from_status, to_status, actor_id, reason, created_at
	          FROM reservation_events WHERE reservation_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.ReservationEvent
	for rows.Next() {
		var ev domain.ReservationEvent
		if err := rows.Scan(&ev.ID, &ev.ReservationID, &ev.FromStatus, &ev.ToStatus, &ev.ActorID, &ev.Reason, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
