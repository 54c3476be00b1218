package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shop-admin/internal/model"
	"shop-admin/internal/repository"

	"github.com/rs/zerolog"
)

type locationService struct {
	repo   repository.LocationRepository
	logger zerolog.Logger
}

// NewLocationService creates a new store location service.
func NewLocationService(repo repository.LocationRepository, logger zerolog.Logger) LocationService {
	return &locationService{
		repo:   repo,
		logger: logger.With().Str("service", "location").Logger(),
	}
}

func (s *locationService) List(ctx context.Context) ([]model.StoreLocation, error) {
	locations, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list store locations")
		return nil, fmt.Errorf("failed to list store locations: %w", err)
	}
	return locations, nil
}

func (s *locationService) Get(ctx context.Context, id int) (*model.StoreLocation, error) {
	location, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int("location_id", id).Msg("failed to get store location")
		return nil, fmt.Errorf("failed to get store location: %w", err)
	}
	if location == nil {
		return nil, model.ErrNotFound
	}
	return location, nil
}

func (s *locationService) Create(ctx context.Context, req model.StoreLocationRequest) (*model.StoreLocation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	location := locationFromRequest(0, req)
	if err := s.repo.Create(ctx, &location); err != nil {
		s.logger.Error().Err(err).Msg("failed to create store location")
		return nil, fmt.Errorf("failed to create store location: %w", err)
	}
	s.logger.Info().Int("location_id", location.LocationID).Msg("store location created")
	return &location, nil
}

func (s *locationService) Update(ctx context.Context, id int, req model.StoreLocationRequest) (*model.StoreLocation, error) {
	if req.LocationID != 0 && req.LocationID != id {
		return nil, model.NewValidationError("locationID", "location ID does not match the path")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	location := locationFromRequest(id, req)
	if err := s.repo.Update(ctx, &location); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int("location_id", id).Msg("failed to update store location")
		return nil, fmt.Errorf("failed to update store location: %w", err)
	}
	return &location, nil
}

func (s *locationService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		s.logger.Error().Err(err).Int("location_id", id).Msg("failed to delete store location")
		return fmt.Errorf("failed to delete store location: %w", err)
	}
	return nil
}

func locationFromRequest(id int, req model.StoreLocationRequest) model.StoreLocation {
	return model.StoreLocation{
		LocationID: id,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Address:    strings.TrimSpace(req.Address),
	}
}
