package postgres

import (
	"context"
	"database/sql"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/repository"
)

type businessUnitRepository struct {
	db *sql.DB
}

func NewBusinessUnitRepository(db *sql.DB) repository.BusinessUnitRepository {
	return &businessUnitRepository{db: db}
}

func (r *businessUnitRepository) Create(ctx context.Context, bu *domain.BusinessUnit) error {
	query := `INSERT INTO business_units (name, timezone, currency) VALUES ($1, $2, $3) RETURNING id, created_at`
	logger.DatabaseCall("INSERT", "business_units", "name", bu.Name)
	err := r.db.QueryRowContext(ctx, query, bu.Name, bu.Timezone, bu.Currency).Scan(&bu.ID, &bu.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "businessUnitID", bu.ID)
	return err
}

func (r *businessUnitRepository) GetByID(ctx context.Context, id int32) (*domain.BusinessUnit, error) {
	query := `SELECT id, name, timezone, currency, created_at FROM business_units WHERE id = $1`
	bu := &domain.BusinessUnit{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&bu.ID, &bu.Name, &bu.Timezone, &bu.Currency, &bu.CreatedAt)
	if err != nil {
		return nil, notFound(err, "business unit", id)
	}
	return bu, nil
}
