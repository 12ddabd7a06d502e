package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/retourly/backend/internal/domain"
)

// BookingRepo defines the persistence operations for Bookings, including
// the transactional couplings between a booking mutation and its trip's
// status. Those couplings live here rather than in the service because
// they must execute as single database transactions.
type BookingRepo interface {
	// CreateReservation inserts a PENDING booking and flips the trip from
	// AVAILABLE to RESERVED in one transaction. The trip update is a
	// conditional write: if the trip is no longer AVAILABLE the whole
	// transaction rolls back and domain.ErrConflict is returned, so under
	// N concurrent calls exactly one succeeds. A duplicate active booking
	// for the same (trip, booker) pair also returns domain.ErrConflict,
	// via the partial unique index.
	CreateReservation(ctx context.Context, tripID, bookerID uuid.UUID) (domain.Booking, error)

	// GetByID retrieves a booking by primary key.
	// Returns domain.ErrNotFound if no booking with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Booking, error)

	// Transition moves a booking from fromStatus to newStatus and keeps the
	// trip's status consistent in the same transaction: a confirmation
	// pins the trip at RESERVED, a cancellation releases it back to
	// AVAILABLE when no active booking remains. The booking update is
	// conditional on fromStatus; if another request transitioned the
	// booking first, domain.ErrConflict is returned.
	Transition(ctx context.Context, id uuid.UUID, fromStatus, newStatus domain.BookingStatus) (domain.Booking, error)

	// ListByBooker returns all bookings created by bookerID, newest first.
	ListByBooker(ctx context.Context, bookerID uuid.UUID) ([]domain.Booking, error)

	// ListByTrip returns all bookings on tripID, newest first.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Booking, error)

	// HasConfirmedBooking reports whether bookerID holds a CONFIRMED
	// booking on tripID. Used for review eligibility.
	HasConfirmedBooking(ctx context.Context, tripID, bookerID uuid.UUID) (bool, error)
}

// pgBookingRepo is the Postgres implementation of BookingRepo.
type pgBookingRepo struct {
	db db
}

// NewBookingRepo constructs a BookingRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewBookingRepo(db db) BookingRepo {
	return &pgBookingRepo{db: db}
}

const bookingColumns = `id, trip_id, booker_id, status, created_at, updated_at`

// CreateReservation claims the trip's single slot for bookerID.
//
// The INSERT and the conditional trip UPDATE run in one transaction. The
// UPDATE's "status = 'AVAILABLE'" predicate is the reservation lock: two
// concurrent transactions both insert a booking, but only the first one's
// UPDATE matches a row — the second blocks on the row lock, then sees
// RESERVED, affects zero rows, and rolls back its insert.
func (r *pgBookingRepo) CreateReservation(ctx context.Context, tripID, bookerID uuid.UUID) (domain.Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.CreateReservation: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insert = `
		INSERT INTO bookings (trip_id, booker_id, status)
		VALUES (@trip_id, @booker_id, 'PENDING')
		RETURNING ` + bookingColumns

	row := tx.QueryRow(ctx, insert, pgx.NamedArgs{"trip_id": tripID, "booker_id": bookerID})
	booking, err := scanBooking(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Booking{}, fmt.Errorf("repo.BookingRepo.CreateReservation: active booking already exists: %w", domain.ErrConflict)
		}
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.CreateReservation: insert: %w", err)
	}

	const lock = `
		UPDATE trips
		SET status = 'RESERVED', updated_at = now()
		WHERE id = @trip_id AND status = 'AVAILABLE'`

	tag, err := tx.Exec(ctx, lock, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.CreateReservation: lock trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the race (or the trip left AVAILABLE since the caller's
		// check). Rolling back discards the booking insert.
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.CreateReservation: trip no longer available: %w", domain.ErrConflict)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.CreateReservation: commit: %w", err)
	}
	return booking, nil
}

// GetByID retrieves a booking by primary key.
func (r *pgBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	booking, err := scanBooking(row)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.GetByID: %w", err)
	}
	return booking, nil
}

// Transition applies a status change and the matching trip-side effect in
// one transaction.
func (r *pgBookingRepo) Transition(ctx context.Context, id uuid.UUID, fromStatus, newStatus domain.BookingStatus) (domain.Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Transition: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const update = `
		UPDATE bookings
		SET status = @new_status, updated_at = now()
		WHERE id = @id AND status = @from_status
		RETURNING ` + bookingColumns

	args := pgx.NamedArgs{"id": id, "from_status": fromStatus, "new_status": newStatus}
	booking, err := scanBooking(tx.QueryRow(ctx, update, args))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The booking exists (the service loaded it) but its status
			// changed since — a concurrent transition won.
			return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Transition: booking already transitioned: %w", domain.ErrConflict)
		}
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Transition: update booking: %w", err)
	}

	switch newStatus {
	case domain.BookingConfirmed:
		// Confirmation keeps the slot held. The trip is normally RESERVED
		// already; the write pins it in case of a manual status override.
		const pin = `
			UPDATE trips
			SET status = 'RESERVED', updated_at = now()
			WHERE id = @trip_id AND status IN ('AVAILABLE', 'RESERVED')`
		if _, err := tx.Exec(ctx, pin, pgx.NamedArgs{"trip_id": booking.TripID}); err != nil {
			return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Transition: pin trip: %w", err)
		}

	case domain.BookingCancelled:
		// Release the slot: back to AVAILABLE iff no active booking remains.
		const release = `
			UPDATE trips
			SET status = 'AVAILABLE', updated_at = now()
			WHERE id = @trip_id
			  AND status = 'RESERVED'
			  AND NOT EXISTS (
				SELECT 1 FROM bookings
				WHERE trip_id = @trip_id AND status IN ('PENDING', 'CONFIRMED')
			  )`
		if _, err := tx.Exec(ctx, release, pgx.NamedArgs{"trip_id": booking.TripID}); err != nil {
			return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Transition: release trip: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Transition: commit: %w", err)
	}
	return booking, nil
}

// ListByBooker returns all bookings created by bookerID, newest first.
func (r *pgBookingRepo) ListByBooker(ctx context.Context, bookerID uuid.UUID) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE booker_id = @booker_id ORDER BY created_at DESC`
	return r.list(ctx, q, pgx.NamedArgs{"booker_id": bookerID}, "ListByBooker")
}

// ListByTrip returns all bookings on tripID, newest first.
func (r *pgBookingRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE trip_id = @trip_id ORDER BY created_at DESC`
	return r.list(ctx, q, pgx.NamedArgs{"trip_id": tripID}, "ListByTrip")
}

// HasConfirmedBooking reports whether bookerID holds a CONFIRMED booking on tripID.
func (r *pgBookingRepo) HasConfirmedBooking(ctx context.Context, tripID, bookerID uuid.UUID) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE trip_id = @trip_id AND booker_id = @booker_id AND status = 'CONFIRMED'
		)`

	var exists bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "booker_id": bookerID}).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repo.BookingRepo.HasConfirmedBooking: %w", err)
	}
	return exists, nil
}

func (r *pgBookingRepo) list(ctx context.Context, q string, args pgx.NamedArgs, op string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.%s: %w", op, err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.BookingRepo.%s: scan: %w", op, err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.%s: rows: %w", op, err)
	}

	return bookings, nil
}

// scanBooking maps a single database row into a domain.Booking.
func scanBooking(s scanner) (domain.Booking, error) {
	var (
		b        domain.Booking
		id       pgtype.UUID
		tripID   pgtype.UUID
		bookerID pgtype.UUID
		status   string
	)

	err := s.Scan(&id, &tripID, &bookerID, &status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}

	b.ID = uuid.UUID(id.Bytes)
	b.TripID = uuid.UUID(tripID.Bytes)
	b.BookerID = uuid.UUID(bookerID.Bytes)
	b.Status = domain.BookingStatus(status)

	return b, nil
}
