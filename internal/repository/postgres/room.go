package postgres

import (
	"context"
	"database/sql"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/repository"
)

type roomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) repository.RoomRepository {
	return &roomRepository{db: db}
}

const roomColumns = `id, business_unit_id, room_type_id, room_number, floor, status, housekeeping_status,
	out_of_order_until, is_active, created_at, updated_at`

func scanRoom(row interface{ Scan(...any) error }, room *domain.Room) error {
	return row.Scan(&room.ID, &room.BusinessUnitID, &room.RoomTypeID, &room.RoomNumber, &room.Floor,
		&room.Status, &room.HousekeepingStatus, &room.OutOfOrderUntil, &room.IsActive, &room.CreatedAt, &room.UpdatedAt)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// lockRoom reads a room with a row lock held until tx ends.
func lockRoom(ctx context.Context, tx queryRower, id int32) (*domain.Room, error) {
	room := &domain.Room{}
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1 FOR UPDATE`
	if err := scanRoom(tx.QueryRowContext(ctx, query, id), room); err != nil {
		return nil, conflictOrErr(notFound(err, "room", id), id)
	}
	return room, nil
}

// countActiveHolders counts active reservations other than excludeID that
// hold the room on any night.
func countActiveHolders(ctx context.Context, tx queryRower, roomID, excludeID int32) (int, error) {
	query := `SELECT COUNT(DISTINCT r.id) FROM reservations r
	          JOIN room_stays s ON s.reservation_id = r.id
	          WHERE s.room_id = $1 AND r.id <> $2 AND r.status = ANY($3)`
	var n int
	err := tx.QueryRowContext(ctx, query, roomID, excludeID, activeStatuses()).Scan(&n)
	return n, err
}

func writeRoomChange(ctx context.Context, tx *sql.Tx, id int32, change domain.RoomStatusChange) error {
	query := `UPDATE rooms SET status = $1, housekeeping_status = $2, out_of_order_until = $3, updated_at = $4 WHERE id = $5`
	logger.DatabaseCall("UPDATE", "rooms", "roomID", id, "status", change.Status)
	result, err := tx.ExecContext(ctx, query, change.Status, change.HousekeepingStatus, change.OutOfOrderUntil, time.Now(), id)
	var rows int64
	if err == nil {
		rows, _ = result.RowsAffected()
	}
	logger.DatabaseResult("UPDATE", rows, err, "roomID", id)
	return conflictOrErr(err, id)
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	logger.EnterMethod("roomRepository.Create", "businessUnitID", room.BusinessUnitID, "roomNumber", room.RoomNumber)

	query := `INSERT INTO rooms (business_unit_id, room_type_id, room_number, floor, status, housekeeping_status,
	              out_of_order_until, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, room.BusinessUnitID, room.RoomTypeID, room.RoomNumber, room.Floor,
		room.Status, room.HousekeepingStatus, room.OutOfOrderUntil, room.IsActive, time.Now()).
		Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("roomRepository.Create", err, "roomNumber", room.RoomNumber)
		return err
	}

	logger.ExitMethod("roomRepository.Create", "roomID", room.ID)
	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id int32) (*domain.Room, error) {
	room := &domain.Room{}
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	if err := scanRoom(r.db.QueryRowContext(ctx, query, id), room); err != nil {
		return nil, notFound(err, "room", id)
	}
	return room, nil
}

func (r *roomRepository) ListByBusinessUnit(ctx context.Context, businessUnitID int32, status domain.RoomStatus) ([]domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms
	          WHERE business_unit_id = $1 AND ($2 = '' OR status = $2) ORDER BY room_number`
	rows, err := r.db.QueryContext(ctx, query, businessUnitID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var room domain.Room
		if err := scanRoom(rows, &room); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *roomRepository) UpdateStatus(ctx context.Context, id int32, fn repository.RoomChangeFunc) (*domain.Room, error) {
	logger.EnterMethod("roomRepository.UpdateStatus", "roomID", id)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	room, err := lockRoom(ctx, tx, id)
	if err != nil {
		logger.ExitMethodWithError("roomRepository.UpdateStatus", err, "roomID", id)
		return nil, err
	}
	holders, err := countActiveHolders(ctx, tx, id, 0)
	if err != nil {
		return nil, err
	}
	change, err := fn(room, holders)
	if err != nil {
		logger.ExitMethodWithError("roomRepository.UpdateStatus", err, "roomID", id, "activeHolders", holders)
		return nil, err
	}
	if err := writeRoomChange(ctx, tx, id, change); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, conflictOrErr(err, id)
	}

	room.Status = change.Status
	room.HousekeepingStatus = change.HousekeepingStatus
	room.OutOfOrderUntil = change.OutOfOrderUntil
	logger.ExitMethod("roomRepository.UpdateStatus", "roomID", id, "status", room.Status)
	return room, nil
}

func (r *roomRepository) ReleaseExpiredOutOfOrder(ctx context.Context, now time.Time) ([]int32, error) {
	query := `UPDATE rooms SET status = 'AVAILABLE', out_of_order_until = NULL, updated_at = $1
	          WHERE status = 'OUT_OF_ORDER' AND out_of_order_until IS NOT NULL AND out_of_order_until < $1
	          RETURNING id`
	logger.DatabaseCall("UPDATE", "rooms", "operation", "release_expired_out_of_order")
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return nil, err
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	logger.DatabaseResult("UPDATE", int64(len(ids)), rows.Err())
	return ids, rows.Err()
}
