package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a booking request.
type BookingStatus string

const (
	// BookingPending means the booker has claimed the trip's slot and is
	// waiting for the driver's decision.
	BookingPending BookingStatus = "PENDING"
	// BookingConfirmed means the driver accepted; contact details are
	// considered exchanged from this point.
	BookingConfirmed BookingStatus = "CONFIRMED"
	// BookingCancelled is terminal: the driver rejected or either party
	// cancelled. The trip's slot is released if no other active booking
	// remains.
	BookingCancelled BookingStatus = "CANCELLED"
)

// Active reports whether the booking counts against the trip's single slot.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Booking is a request by a booker to claim a trip's capacity.
// At most one active booking may exist per (trip, booker) pair, and the
// booker is never the trip's driver.
type Booking struct {
	ID        uuid.UUID     `json:"id"`
	TripID    uuid.UUID     `json:"trip_id"`
	BookerID  uuid.UUID     `json:"booker_id"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
