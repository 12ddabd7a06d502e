package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/retourly/backend/internal/domain"
	"github.com/retourly/backend/internal/repo"
)

// TripService implements business logic for Trip operations: the catalog
// of driver-published return trips.
type TripService struct {
	trips repo.TripRepo
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(trips repo.TripRepo) *TripService {
	return &TripService{trips: trips}
}

// Create validates and persists a new trip owned by driverID.
// New trips always start AVAILABLE regardless of the submitted status.
func (s *TripService) Create(ctx context.Context, driverID uuid.UUID, trip domain.Trip) (domain.Trip, error) {
	trip.DriverID = driverID
	trip.Status = domain.TripAvailable
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	result, err := s.trips.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	result, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return result, nil
}

// List returns trips matching the filter, soonest departure first.
// An unset status filter defaults to AVAILABLE — public searches only see
// trips that can still be reserved. Always returns a non-nil slice.
func (s *TripService) List(ctx context.Context, filter domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	if filter.Status == "" {
		filter.Status = domain.TripAvailable
	}
	if !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}

	trips, total, err := s.trips.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// ListByDriver returns all trips owned by driverID, any status.
// Always returns a non-nil slice.
func (s *TripService) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Trip, error) {
	trips, err := s.trips.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListByDriver: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, nil
}

// Update applies a partial update to a trip owned by requesterID.
// Returns domain.ErrNotFound if the trip does not exist and
// domain.ErrForbidden if requesterID is not its driver. A status in the
// patch is the driver's explicit override (manual cancellation or
// completion); booking-driven transitions never come through here.
func (s *TripService) Update(ctx context.Context, tripID, requesterID uuid.UUID, patch domain.TripPatch) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	if trip.DriverID != requesterID {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: not the trip's driver: %w", domain.ErrForbidden)
	}

	if patch.FromCity != nil {
		trip.FromCity = *patch.FromCity
	}
	if patch.ToCity != nil {
		trip.ToCity = *patch.ToCity
	}
	if patch.TripDate != nil {
		trip.TripDate = *patch.TripDate
	}
	if patch.VehicleType != nil {
		trip.VehicleType = *patch.VehicleType
	}
	if patch.Price != nil {
		trip.Price = patch.Price
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return domain.Trip{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *patch.Status)
		}
		trip.Status = *patch.Status
	}

	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	result, err := s.trips.Update(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return result, nil
}

// validateTrip enforces business rules common to both Create and Update.
//   - FromCity, ToCity, and VehicleType must be non-empty.
//   - TripDate must be set.
//   - Price, when present, must be positive.
func validateTrip(trip domain.Trip) error {
	if strings.TrimSpace(trip.FromCity) == "" {
		return fmt.Errorf("%w: from_city is required", domain.ErrValidation)
	}
	if strings.TrimSpace(trip.ToCity) == "" {
		return fmt.Errorf("%w: to_city is required", domain.ErrValidation)
	}
	if strings.TrimSpace(trip.VehicleType) == "" {
		return fmt.Errorf("%w: vehicle_type is required", domain.ErrValidation)
	}
	if trip.TripDate.IsZero() {
		return fmt.Errorf("%w: trip_date is required", domain.ErrValidation)
	}
	if trip.Price != nil && *trip.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", domain.ErrValidation)
	}
	return nil
}
