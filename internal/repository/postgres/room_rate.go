package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/repository"
)

type roomRateRepository struct {
	db *sql.DB
}

func NewRoomRateRepository(db *sql.DB) repository.RoomRateRepository {
	return &roomRateRepository{db: db}
}

const roomRateColumns = `id, room_type_id, name, base_rate, currency, valid_from, valid_to,
	monday, tuesday, wednesday, thursday, friday, saturday, sunday,
	is_default, is_active, min_stay, max_stay, min_advance, max_advance, created_at, updated_at`

func scanRoomRate(row interface{ Scan(...any) error }, rate *domain.RoomRate) error {
	return row.Scan(&rate.ID, &rate.RoomTypeID, &rate.Name, &rate.BaseRate, &rate.Currency, &rate.ValidFrom, &rate.ValidTo,
		&rate.Monday, &rate.Tuesday, &rate.Wednesday, &rate.Thursday, &rate.Friday, &rate.Saturday, &rate.Sunday,
		&rate.IsDefault, &rate.IsActive, &rate.MinStay, &rate.MaxStay, &rate.MinAdvance, &rate.MaxAdvance,
		&rate.CreatedAt, &rate.UpdatedAt)
}

// lockRoomType serializes default changes for one room type.
func lockRoomType(ctx context.Context, tx *sql.Tx, roomTypeID int32) error {
	var id int32
	err := tx.QueryRowContext(ctx, `SELECT id FROM room_types WHERE id = $1 FOR UPDATE`, roomTypeID).Scan(&id)
	return notFound(err, "room type", roomTypeID)
}

func clearDefaults(ctx context.Context, tx *sql.Tx, roomTypeID, exceptID int32) error {
	_, err := tx.ExecContext(ctx, `UPDATE room_rates SET is_default = FALSE, updated_at = $1
	                               WHERE room_type_id = $2 AND is_default AND id <> $3`, time.Now(), roomTypeID, exceptID)
	return err
}

func (r *roomRateRepository) Create(ctx context.Context, rate *domain.RoomRate) error {
	logger.EnterMethod("roomRateRepository.Create", "roomTypeID", rate.RoomTypeID, "name", rate.Name, "isDefault", rate.IsDefault)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if rate.IsDefault {
		if err := lockRoomType(ctx, tx, rate.RoomTypeID); err != nil {
			logger.ExitMethodWithError("roomRateRepository.Create", err, "roomTypeID", rate.RoomTypeID)
			return err
		}
		if err := clearDefaults(ctx, tx, rate.RoomTypeID, 0); err != nil {
			return err
		}
	}

	query := `INSERT INTO room_rates (room_type_id, name, base_rate, currency, valid_from, valid_to,
	              monday, tuesday, wednesday, thursday, friday, saturday, sunday,
	              is_default, is_active, min_stay, max_stay, min_advance, max_advance, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $20)
	          RETURNING id, created_at, updated_at`
	logger.DatabaseCall("INSERT", "room_rates", "roomTypeID", rate.RoomTypeID)
	err = tx.QueryRowContext(ctx, query, rate.RoomTypeID, rate.Name, rate.BaseRate, rate.Currency, rate.ValidFrom, rate.ValidTo,
		rate.Monday, rate.Tuesday, rate.Wednesday, rate.Thursday, rate.Friday, rate.Saturday, rate.Sunday,
		rate.IsDefault, rate.IsActive, rate.MinStay, rate.MaxStay, rate.MinAdvance, rate.MaxAdvance, time.Now()).
		Scan(&rate.ID, &rate.CreatedAt, &rate.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "rateID", rate.ID)
	if err != nil {
		logger.ExitMethodWithError("roomRateRepository.Create", err, "roomTypeID", rate.RoomTypeID)
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.ExitMethod("roomRateRepository.Create", "rateID", rate.ID)
	return nil
}

func (r *roomRateRepository) Update(ctx context.Context, rate *domain.RoomRate) error {
	logger.EnterMethod("roomRateRepository.Update", "rateID", rate.ID, "isDefault", rate.IsDefault)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if rate.IsDefault {
		if err := lockRoomType(ctx, tx, rate.RoomTypeID); err != nil {
			return err
		}
		if err := clearDefaults(ctx, tx, rate.RoomTypeID, rate.ID); err != nil {
			return err
		}
	}

	query := `UPDATE room_rates SET name = $1, base_rate = $2, currency = $3, valid_from = $4, valid_to = $5,
	              monday = $6, tuesday = $7, wednesday = $8, thursday = $9, friday = $10, saturday = $11, sunday = $12,
	              is_default = $13, is_active = $14, min_stay = $15, max_stay = $16, min_advance = $17, max_advance = $18,
	              updated_at = $19
	          WHERE id = $20 RETURNING updated_at`
	err = tx.QueryRowContext(ctx, query, rate.Name, rate.BaseRate, rate.Currency, rate.ValidFrom, rate.ValidTo,
		rate.Monday, rate.Tuesday, rate.Wednesday, rate.Thursday, rate.Friday, rate.Saturday, rate.Sunday,
		rate.IsDefault, rate.IsActive, rate.MinStay, rate.MaxStay, rate.MinAdvance, rate.MaxAdvance, time.Now(), rate.ID).
		Scan(&rate.UpdatedAt)
	if err != nil {
		err = notFound(err, "room rate", rate.ID)
		logger.ExitMethodWithError("roomRateRepository.Update", err, "rateID", rate.ID)
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.ExitMethod("roomRateRepository.Update", "rateID", rate.ID)
	return nil
}

func (r *roomRateRepository) GetByID(ctx context.Context, id int32) (*domain.RoomRate, error) {
	rate := &domain.RoomRate{}
	query := `SELECT ` + roomRateColumns + ` FROM room_rates WHERE id = $1`
	if err := scanRoomRate(r.db.QueryRowContext(ctx, query, id), rate); err != nil {
		return nil, notFound(err, "room rate", id)
	}
	return rate, nil
}

func (r *roomRateRepository) Delete(ctx context.Context, id int32) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM room_rates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("room rate %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *roomRateRepository) ListByRoomType(ctx context.Context, roomTypeID int32, activeOnly bool) ([]domain.RoomRate, error) {
	query := `SELECT ` + roomRateColumns + ` FROM room_rates
	          WHERE room_type_id = $1 AND (is_active OR NOT $2) ORDER BY id`
	logger.DatabaseCall("SELECT", "room_rates", "roomTypeID", roomTypeID, "activeOnly", activeOnly)
	rows, err := r.db.QueryContext(ctx, query, roomTypeID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []domain.RoomRate
	for rows.Next() {
		var rate domain.RoomRate
		if err := scanRoomRate(rows, &rate); err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}

// SetDefault swaps the default inside one transaction so readers never see
// zero or two defaults for the room type.
func (r *roomRateRepository) SetDefault(ctx context.Context, roomTypeID, rateID int32) error {
	logger.EnterMethod("roomRateRepository.SetDefault", "roomTypeID", roomTypeID, "rateID", rateID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockRoomType(ctx, tx, roomTypeID); err != nil {
		logger.ExitMethodWithError("roomRateRepository.SetDefault", err, "roomTypeID", roomTypeID)
		return err
	}
	if err := clearDefaults(ctx, tx, roomTypeID, rateID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `UPDATE room_rates SET is_default = TRUE, updated_at = $1
	                                    WHERE id = $2 AND room_type_id = $3`, time.Now(), rateID, roomTypeID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		err = fmt.Errorf("room rate %d of room type %d: %w", rateID, roomTypeID, domain.ErrNotFound)
		logger.ExitMethodWithError("roomRateRepository.SetDefault", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.ExitMethod("roomRateRepository.SetDefault", "roomTypeID", roomTypeID, "rateID", rateID)
	return nil
}

// SetActive also drops the default flag when deactivating.
func (r *roomRateRepository) SetActive(ctx context.Context, id int32, active bool) error {
	logger.DatabaseCall("UPDATE", "room_rates", "rateID", id, "active", active)
	result, err := r.db.ExecContext(ctx, `UPDATE room_rates SET is_active = $1, is_default = is_default AND $1, updated_at = $2 WHERE id = $3`,
		active, time.Now(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("room rate %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
