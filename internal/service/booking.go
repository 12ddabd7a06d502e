package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/retourly/backend/internal/domain"
	"github.com/retourly/backend/internal/repo"
)

// Notifier is the fan-out dependency of the booking and conversation
// services. It is best-effort: implementations must never fail the
// triggering operation. *NotificationService satisfies it.
type Notifier interface {
	Notify(ctx context.Context, recipientID uuid.UUID, typ domain.NotificationType, title, message, link string)
}

// BookingService implements the reservation engine: the booking state
// machine, the trip's single-slot lock, and the notification fan-out for
// every transition.
//
// Booking state machine: PENDING → {CONFIRMED, CANCELLED},
// CONFIRMED → {CANCELLED}; CANCELLED is terminal. The coupled trip-status
// writes (lock on create, release on cancel) are transactional inside the
// repo — this service decides, the repo guarantees atomicity.
type BookingService struct {
	bookings repo.BookingRepo
	trips    repo.TripRepo
	notifier Notifier
}

// NewBookingService constructs a BookingService backed by the provided
// repos and notifier.
func NewBookingService(bookings repo.BookingRepo, trips repo.TripRepo, notifier Notifier) *BookingService {
	return &BookingService{bookings: bookings, trips: trips, notifier: notifier}
}

// Create places a PENDING booking on tripID for bookerID and locks the
// trip's slot.
//
// Failure modes, in order: domain.ErrNotFound (trip missing),
// domain.ErrConflict (trip not AVAILABLE), domain.ErrForbidden (driver
// booking own trip), domain.ErrConflict (duplicate active booking — from
// the repo's unique index). The trip check here is advisory; the
// authoritative decision is the repo's conditional update, so a racer that
// passes the check still gets domain.ErrConflict, never a double booking.
func (s *BookingService) Create(ctx context.Context, tripID, bookerID uuid.UUID) (domain.Booking, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", err)
	}
	if trip.Status != domain.TripAvailable {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: trip no longer available: %w", domain.ErrConflict)
	}
	if trip.DriverID == bookerID {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: cannot book own trip: %w", domain.ErrForbidden)
	}

	booking, err := s.bookings.CreateReservation(ctx, tripID, bookerID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", err)
	}

	s.notifier.Notify(ctx, trip.DriverID, domain.NotificationBookingRequest,
		"New booking request",
		fmt.Sprintf("Your trip %s → %s has a new booking request.", trip.FromCity, trip.ToCity),
		"/bookings/"+booking.ID.String(),
	)
	return booking, nil
}

// UpdateStatus is the driver's decision on a booking: CONFIRMED or
// CANCELLED (rejection). Only the trip's driver may call it.
//
// A confirmation keeps the trip RESERVED; a rejection cancels the booking
// and releases the trip back to AVAILABLE when no active booking remains.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID, requesterID uuid.UUID, newStatus domain.BookingStatus) (domain.Booking, error) {
	if newStatus != domain.BookingConfirmed && newStatus != domain.BookingCancelled {
		return domain.Booking{}, fmt.Errorf("%w: status must be CONFIRMED or CANCELLED", domain.ErrValidation)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.UpdateStatus: %w", err)
	}
	trip, err := s.trips.GetByID(ctx, booking.TripID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.UpdateStatus: %w", err)
	}
	if trip.DriverID != requesterID {
		return domain.Booking{}, fmt.Errorf("service.BookingService.UpdateStatus: not the trip's driver: %w", domain.ErrForbidden)
	}
	if err := checkTransition(booking.Status, newStatus); err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.UpdateStatus: %w", err)
	}

	updated, err := s.bookings.Transition(ctx, bookingID, booking.Status, newStatus)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.UpdateStatus: %w", err)
	}

	switch newStatus {
	case domain.BookingConfirmed:
		s.notifier.Notify(ctx, booking.BookerID, domain.NotificationBookingConfirmed,
			"Booking confirmed",
			fmt.Sprintf("The driver confirmed your booking for %s → %s.", trip.FromCity, trip.ToCity),
			"/bookings/"+booking.ID.String(),
		)
	case domain.BookingCancelled:
		s.notifier.Notify(ctx, booking.BookerID, domain.NotificationBookingRejected,
			"Booking declined",
			fmt.Sprintf("The driver declined your booking for %s → %s.", trip.FromCity, trip.ToCity),
			"/trips",
		)
	}
	return updated, nil
}

// Cancel withdraws a booking. Allowed for the booker and for the trip's
// driver; anyone else gets domain.ErrForbidden. Cancelling releases the
// trip's slot when no other active booking remains, and notifies the
// other party.
func (s *BookingService) Cancel(ctx context.Context, bookingID, requesterID uuid.UUID) (domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: %w", err)
	}
	trip, err := s.trips.GetByID(ctx, booking.TripID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: %w", err)
	}
	if requesterID != booking.BookerID && requesterID != trip.DriverID {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: not a party to this booking: %w", domain.ErrForbidden)
	}
	if err := checkTransition(booking.Status, domain.BookingCancelled); err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: %w", err)
	}

	updated, err := s.bookings.Transition(ctx, bookingID, booking.Status, domain.BookingCancelled)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: %w", err)
	}

	// Notify whichever party did not initiate the cancellation.
	recipient := trip.DriverID
	if requesterID == trip.DriverID {
		recipient = booking.BookerID
	}
	s.notifier.Notify(ctx, recipient, domain.NotificationBookingCancelled,
		"Booking cancelled",
		fmt.Sprintf("The booking for %s → %s was cancelled.", trip.FromCity, trip.ToCity),
		"/trips/"+trip.ID.String(),
	)
	return updated, nil
}

// ListByBooker returns all bookings created by bookerID, newest first.
// Always returns a non-nil slice.
func (s *BookingService) ListByBooker(ctx context.Context, bookerID uuid.UUID) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByBooker(ctx, bookerID)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.ListByBooker: %w", err)
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, nil
}

// ListByTrip returns all bookings on tripID. Only the trip's driver may
// see them. Always returns a non-nil slice.
func (s *BookingService) ListByTrip(ctx context.Context, tripID, requesterID uuid.UUID) ([]domain.Booking, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.ListByTrip: %w", err)
	}
	if trip.DriverID != requesterID {
		return nil, fmt.Errorf("service.BookingService.ListByTrip: not the trip's driver: %w", domain.ErrForbidden)
	}

	bookings, err := s.bookings.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.ListByTrip: %w", err)
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, nil
}

// checkTransition enforces the booking state machine.
func checkTransition(from, to domain.BookingStatus) error {
	switch from {
	case domain.BookingPending:
		// Both decisions are open.
		return nil
	case domain.BookingConfirmed:
		if to == domain.BookingCancelled {
			return nil
		}
	}
	return fmt.Errorf("booking is already %s: %w", from, domain.ErrConflict)
}
