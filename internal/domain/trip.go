// Package domain contains the core data types for the Retourly API.
// This package has zero external dependencies beyond uuid and is imported
// by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus is the lifecycle state of a published trip.
type TripStatus string

const (
	// TripAvailable means the trip has no active booking and can be reserved.
	TripAvailable TripStatus = "AVAILABLE"
	// TripReserved means an active (pending or confirmed) booking holds the
	// trip's single slot.
	TripReserved TripStatus = "RESERVED"
	// TripCompleted is set administratively by the driver once the trip ran.
	TripCompleted TripStatus = "COMPLETED"
	// TripCancelled is set by the driver to withdraw the offer.
	TripCancelled TripStatus = "CANCELLED"
)

// Valid reports whether s is one of the four known trip statuses.
func (s TripStatus) Valid() bool {
	switch s {
	case TripAvailable, TripReserved, TripCompleted, TripCancelled:
		return true
	}
	return false
}

// Trip is a driver-published offer of transport capacity on a route and date.
// A trip has a single slot: its status is AVAILABLE exactly when no
// PENDING or CONFIRMED booking exists for it.
type Trip struct {
	ID          uuid.UUID  `json:"id"`
	DriverID    uuid.UUID  `json:"driver_id"`
	FromCity    string     `json:"from_city"`
	ToCity      string     `json:"to_city"`
	TripDate    time.Time  `json:"trip_date"` // calendar day, midnight UTC
	VehicleType string     `json:"vehicle_type"`
	Price       *float64   `json:"price,omitempty"` // nil when the driver left it open
	Status      TripStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TripFilter carries the optional search criteria for trip listings.
// City filters are case-insensitive substring matches; Date matches the
// full calendar day. A zero-value Status means "no status filter".
type TripFilter struct {
	FromCity string
	ToCity   string
	Date     *time.Time
	Status   TripStatus
}

// TripPatch holds the optional fields of a trip update. Nil pointers leave
// the current value untouched. Status is the driver's explicit override
// (manual cancellation or completion); booking-driven status changes go
// through the reservation engine, never through a patch.
type TripPatch struct {
	FromCity    *string
	ToCity      *string
	TripDate    *time.Time
	VehicleType *string
	Price       *float64
	Status      *TripStatus
}
