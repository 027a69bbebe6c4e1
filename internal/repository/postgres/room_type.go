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

type roomTypeRepository struct {
	db *sql.DB
}

func NewRoomTypeRepository(db *sql.DB) repository.RoomTypeRepository {
	return &roomTypeRepository{db: db}
}

const roomTypeColumns = `id, business_unit_id, name, max_adults, max_children, max_infants,
	base_rate, currency, is_active, created_at, updated_at`

func scanRoomType(row interface{ Scan(...any) error }, rt *domain.RoomType) error {
	return row.Scan(&rt.ID, &rt.BusinessUnitID, &rt.Name, &rt.MaxAdults, &rt.MaxChildren, &rt.MaxInfants,
		&rt.BaseRate, &rt.Currency, &rt.IsActive, &rt.CreatedAt, &rt.UpdatedAt)
}

func (r *roomTypeRepository) Create(ctx context.Context, rt *domain.RoomType) error {
	logger.EnterMethod("roomTypeRepository.Create", "businessUnitID", rt.BusinessUnitID, "name", rt.Name)

	query := `INSERT INTO room_types (business_unit_id, name, max_adults, max_children, max_infants,
	              base_rate, currency, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id, created_at, updated_at`
	logger.DatabaseCall("INSERT", "room_types", "name", rt.Name)
	err := r.db.QueryRowContext(ctx, query, rt.BusinessUnitID, rt.Name, rt.MaxAdults, rt.MaxChildren, rt.MaxInfants,
		rt.BaseRate, rt.Currency, rt.IsActive, time.Now()).Scan(&rt.ID, &rt.CreatedAt, &rt.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "roomTypeID", rt.ID)
	if err != nil {
		logger.ExitMethodWithError("roomTypeRepository.Create", err, "name", rt.Name)
		return err
	}

	logger.ExitMethod("roomTypeRepository.Create", "roomTypeID", rt.ID)
	return nil
}

func (r *roomTypeRepository) GetByID(ctx context.Context, id int32) (*domain.RoomType, error) {
	query := `SELECT ` + roomTypeColumns + ` FROM room_types WHERE id = $1`
	rt := &domain.RoomType{}
	if err := scanRoomType(r.db.QueryRowContext(ctx, query, id), rt); err != nil {
		return nil, notFound(err, "room type", id)
	}
	return rt, nil
}

func (r *roomTypeRepository) Update(ctx context.Context, rt *domain.RoomType) error {
	query := `UPDATE room_types SET name = $1, max_adults = $2, max_children = $3, max_infants = $4,
	              base_rate = $5, currency = $6, is_active = $7, updated_at = $8
	          WHERE id = $9 RETURNING updated_at`
	logger.DatabaseCall("UPDATE", "room_types", "roomTypeID", rt.ID)
	err := r.db.QueryRowContext(ctx, query, rt.Name, rt.MaxAdults, rt.MaxChildren, rt.MaxInfants,
		rt.BaseRate, rt.Currency, rt.IsActive, time.Now(), rt.ID).Scan(&rt.UpdatedAt)
	logger.DatabaseResult("UPDATE", 1, err, "roomTypeID", rt.ID)
	return notFound(err, "room type", rt.ID)
}

func (r *roomTypeRepository) Delete(ctx context.Context, id int32) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM room_types WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrRoomTypeInUse
		}
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("room type %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *roomTypeRepository) ListByBusinessUnit(ctx context.Context, businessUnitID int32, includeInactive bool) ([]domain.RoomType, error) {
	query := `SELECT ` + roomTypeColumns + ` FROM room_types
	          WHERE business_unit_id = $1 AND (is_active OR $2) ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query, businessUnitID, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []domain.RoomType
	for rows.Next() {
		var rt domain.RoomType
		if err := scanRoomType(rows, &rt); err != nil {
			return nil, err
		}
		types = append(types, rt)
	}
	return types, rows.Err()
}
