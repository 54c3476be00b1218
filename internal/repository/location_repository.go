package repository

import (
	"context"
	"errors"
	"fmt"

	"shop-admin/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type locationRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewLocationRepository creates a new PostgreSQL-backed store location repository.
func NewLocationRepository(pool *pgxpool.Pool, logger zerolog.Logger) LocationRepository {
	return &locationRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "location").Logger(),
	}
}

func (r *locationRepository) List(ctx context.Context) ([]model.StoreLocation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT location_id, latitude, longitude, address
		FROM store_locations
		ORDER BY location_id`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query store locations")
		return nil, fmt.Errorf("failed to query store locations: %w", err)
	}
	defer rows.Close()

	locations := []model.StoreLocation{}
	for rows.Next() {
		var l model.StoreLocation
		if err := rows.Scan(&l.LocationID, &l.Latitude, &l.Longitude, &l.Address); err != nil {
			return nil, fmt.Errorf("failed to scan store location: %w", err)
		}
		locations = append(locations, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating store locations: %w", err)
	}

	return locations, nil
}

func (r *locationRepository) GetByID(ctx context.Context, id int) (*model.StoreLocation, error) {
	var l model.StoreLocation
	err := r.pool.QueryRow(ctx, `
		SELECT location_id, latitude, longitude, address
		FROM store_locations
		WHERE location_id = $1`, id).
		Scan(&l.LocationID, &l.Latitude, &l.Longitude, &l.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int("location_id", id).Msg("failed to query store location")
		return nil, fmt.Errorf("failed to query store location: %w", err)
	}
	return &l, nil
}

func (r *locationRepository) Create(ctx context.Context, l *model.StoreLocation) error {
	var err error
	if l.LocationID != 0 {
		_, err = r.pool.Exec(ctx, `
			INSERT INTO store_locations (location_id, latitude, longitude, address)
			VALUES ($1, $2, $3, $4)`,
			l.LocationID, l.Latitude, l.Longitude, l.Address)
		if err == nil {
			err = syncSequence(ctx, r.pool, "store_locations", "location_id")
		}
	} else {
		err = r.pool.QueryRow(ctx, `
			INSERT INTO store_locations (latitude, longitude, address)
			VALUES ($1, $2, $3)
			RETURNING location_id`,
			l.Latitude, l.Longitude, l.Address).Scan(&l.LocationID)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("address", l.Address).Msg("failed to create store location")
		return fmt.Errorf("failed to create store location: %w", err)
	}
	return nil
}

func (r *locationRepository) Update(ctx context.Context, l *model.StoreLocation) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE store_locations SET latitude = $2, longitude = $3, address = $4
		WHERE location_id = $1`,
		l.LocationID, l.Latitude, l.Longitude, l.Address)
	if err != nil {
		r.logger.Error().Err(err).Int("location_id", l.LocationID).Msg("failed to update store location")
		return fmt.Errorf("failed to update store location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *locationRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM store_locations WHERE location_id = $1", id)
	if err != nil {
		r.logger.Error().Err(err).Int("location_id", id).Msg("failed to delete store location")
		return fmt.Errorf("failed to delete store location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
