// Package repo contains all database access logic for the Retourly API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/retourly/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
//
// Begin is part of the interface because the reservation lifecycle needs
// multi-statement transactions; on a pgx.Tx it opens a nested savepoint, so
// the test isolation trick keeps working.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scanX
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505). The reservation and review invariants are
// encoded as unique indexes, so this is how their conflicts surface.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// List returns trips matching the filter ordered by trip_date ascending,
	// plus the total match count for pagination.
	List(ctx context.Context, filter domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// ListByDriver returns all trips owned by driverID, newest date first.
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Trip, error)

	// Update overwrites the mutable fields of an existing trip and returns
	// the updated record. Returns domain.ErrNotFound if no trip with that
	// ID exists.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, driver_id, from_city, to_city, trip_date, vehicle_type, price, status, created_at, updated_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (driver_id, from_city, to_city, trip_date, vehicle_type, price, status)
		VALUES (@driver_id, @from_city, @to_city, @trip_date, @vehicle_type, @price, @status)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"driver_id":    trip.DriverID,
		"from_city":    trip.FromCity,
		"to_city":      trip.ToCity,
		"trip_date":    trip.TripDate,
		"vehicle_type": trip.VehicleType,
		"price":        trip.Price, // nil becomes NULL
		"status":       trip.Status,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// List returns trips matching the filter, ordered by trip_date ascending so
// the soonest departures come first, plus the total match count.
func (r *pgTripRepo) List(ctx context.Context, filter domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	where, args := buildTripFilter(filter)
	args["limit"] = p.Limit
	args["offset"] = p.Offset()

	q := `SELECT ` + tripColumns + `, count(*) OVER () AS total
		FROM trips` + where + `
		ORDER BY trip_date ASC, created_at ASC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	defer rows.Close()

	var (
		trips []domain.Trip
		total int64
	)
	for rows.Next() {
		t, n, err := scanTripWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.List: scan: %w", err)
		}
		trips = append(trips, t)
		total = n
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.List: rows: %w", err)
	}

	return trips, total, nil
}

// ListByDriver returns all trips owned by driverID, newest date first.
func (r *pgTripRepo) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE driver_id = @driver_id ORDER BY trip_date DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"driver_id": driverID})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByDriver: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.ListByDriver: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByDriver: rows: %w", err)
	}

	return trips, nil
}

// Update overwrites the mutable fields of a trip and returns the updated record.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET from_city    = @from_city,
		    to_city      = @to_city,
		    trip_date    = @trip_date,
		    vehicle_type = @vehicle_type,
		    price        = @price,
		    status       = @status,
		    updated_at   = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":           trip.ID,
		"from_city":    trip.FromCity,
		"to_city":      trip.ToCity,
		"trip_date":    trip.TripDate,
		"vehicle_type": trip.VehicleType,
		"price":        trip.Price,
		"status":       trip.Status,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

// buildTripFilter assembles the WHERE clause for List from the optional
// filter fields. City matches are case-insensitive substring matches; the
// date filter covers the full calendar day.
func buildTripFilter(filter domain.TripFilter) (string, pgx.NamedArgs) {
	var conds []string
	args := pgx.NamedArgs{}

	if filter.FromCity != "" {
		conds = append(conds, `from_city ILIKE '%' || @from_city || '%'`)
		args["from_city"] = filter.FromCity
	}
	if filter.ToCity != "" {
		conds = append(conds, `to_city ILIKE '%' || @to_city || '%'`)
		args["to_city"] = filter.ToCity
	}
	if filter.Date != nil {
		conds = append(conds, `trip_date = @trip_date`)
		args["trip_date"] = *filter.Date
	}
	if filter.Status != "" {
		conds = append(conds, `status = @status`)
		args["status"] = filter.Status
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID, date, and nullable price conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t        domain.Trip
		id       pgtype.UUID
		driverID pgtype.UUID
		date     pgtype.Date
		price    pgtype.Numeric
		status   string
	)

	err := s.Scan(&id, &driverID, &t.FromCity, &t.ToCity, &date, &t.VehicleType, &price, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.DriverID = uuid.UUID(driverID.Bytes)
	t.TripDate = date.Time
	t.Status = domain.TripStatus(status)
	if price.Valid {
		f, err := price.Float64Value()
		if err != nil {
			return domain.Trip{}, err
		}
		t.Price = &f.Float64
	}

	return t, nil
}

// scanTripWithTotal is scanTrip plus the window-function total column used
// by List for pagination.
func scanTripWithTotal(s scanner) (domain.Trip, int64, error) {
	var (
		t        domain.Trip
		id       pgtype.UUID
		driverID pgtype.UUID
		date     pgtype.Date
		price    pgtype.Numeric
		status   string
		total    int64
	)

	err := s.Scan(&id, &driverID, &t.FromCity, &t.ToCity, &date, &t.VehicleType, &price, &status, &t.CreatedAt, &t.UpdatedAt, &total)
	if err != nil {
		return domain.Trip{}, 0, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.DriverID = uuid.UUID(driverID.Bytes)
	t.TripDate = date.Time
	t.Status = domain.TripStatus(status)
	if price.Valid {
		f, err := price.Float64Value()
		if err != nil {
			return domain.Trip{}, 0, err
		}
		t.Price = &f.Float64
	}

	return t, total, nil
}
