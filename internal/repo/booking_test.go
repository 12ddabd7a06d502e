package repo_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retourly/backend/internal/domain"
	"github.com/retourly/backend/internal/repo"
	"github.com/retourly/backend/testutil"
)

func TestBookingRepo_CreateReservation(t *testing.T) {
	tx := newTestTx(t)
	trips := repo.NewTripRepo(tx)
	bookings := repo.NewBookingRepo(tx)
	ctx := context.Background()

	driverID := mustCreateUser(t, tx, "driver")
	bookerID := mustCreateUser(t, tx, "booker")
	trip := mustCreateTrip(t, trips, tripFixture(driverID))

	got, err := bookings.CreateReservation(ctx, trip.ID, bookerID)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.UUID{}, got.ID)
	assert.Equal(t, trip.ID, got.TripID)
	assert.Equal(t, bookerID, got.BookerID)
	assert.Equal(t, domain.BookingPending, got.Status)

	// The same transaction must also hold the trip's slot.
	reread, err := trips.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripReserved, reread.Status, "reservation should flip the trip to RESERVED")
}

func TestBookingRepo_CreateReservation_TripNotAvailable(t *testing.T) {
	tx := newTestTx(t)
	trips := repo.NewTripRepo(tx)
	bookings := repo.NewBookingRepo(tx)
	ctx := context.Background()

	driverID := mustCreateUser(t, tx, "driver")
	bookerID := mustCreateUser(t, tx, "booker")

	input := tripFixture(driverID)
	input.Status = domain.TripReserved
	trip := mustCreateTrip(t, trips, input)

	_, err := bookings.CreateReservation(ctx, trip.ID, bookerID)

	require.ErrorIs(t, err, domain.ErrConflict)

	// The losing insert must have been rolled back with the transaction.
	list, err := bookings.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Empty(t, list, "no booking row should survive a failed reservation")
}

func TestBookingRepo_CreateReservation_DuplicateActivePair(t *testing.T) {
	tx := newTestTx(t)
	trips := repo.NewTripRepo(tx)
	bookings := repo.NewBookingRepo(tx)
	ctx := context.Background()

	driverID := mustCreateUser(t, tx, "driver")
	bookerID := mustCreateUser(t, tx, "booker")
	trip := mustCreateTrip(t, trips, tripFixture(driverID))

	_, err := bookings.CreateReservation(ctx, trip.ID, bookerID)
	require.NoError(t, err)

	// Force the trip back to AVAILABLE so only the pair index can object.
	trip.Status = domain.TripAvailable
	_, err = trips.Update(ctx, trip)
	require.NoError(t, err)

	_, err = bookings.CreateReservation(ctx, trip.ID, bookerID)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBookingRepo_CreateReservation_RebookAfterCancel(t *testing.T) {
	tx := newTestTx(t)
	trips := repo.NewTripRepo(tx)
	bookings := repo.NewBookingRepo(tx)
	ctx := context.Background()

	driverID := mustCreateUser(t, tx, "driver")
	bookerID := mustCreateUser(t, tx, "booker")
	trip := mustCreateTrip(t, trips, tripFixture(driverID))

	first, err := bookings.CreateReservation(ctx, trip.ID, bookerID)
	require.NoError(t, err)

	_, err = bookings.Transition(ctx, first.ID, domain.BookingPending, domain.BookingCancelled)
	require.NoError(t, err)

	// Cancellation released the slot; the same booker may try again —
	// the partial index only covers active bookings.
	second, err := bookings.CreateReservation(ctx, trip.ID, bookerID)

	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, domain.BookingPending, second.Status)
}

func TestBookingRepo_Transition_Confirm(t *testing.T) {
	tx := newTestTx(t)
	trips := repo.NewTripRepo(tx)
	bookings := repo.NewBookingRepo(tx)
	ctx := context.Background()

	driverID := mustCreateUser(t, tx, "driver")
	bookerID := mustCreateUser(t, tx, "booker")
	trip := mustCreateTrip(t, trips, tripFixture(driverID))

	booking, err := bookings.CreateReservation(ctx, trip.ID, bookerID)
	require.NoError(t, err)

	got, err := bookings.Transition(ctx, booking.ID, domain.BookingPending, domain.BookingConfirmed)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)

	reread, err := trips.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripReserved, reread.Status, "confirmation keeps the slot held")
}

func TestBookingRepo_Transition_CancelReleasesTrip(t *testing.T) {
	tx := newTestTx(t)
	trips := repo.NewTripRepo(tx)
	bookings := repo.NewBookingRepo(tx)
	ctx := context.Background()

	driverID := mustCreateUser(t, tx, "driver")
	bookerID := mustCreateUser(t, tx, "booker")
	trip := mustCreateTrip(t, trips, tripFixture(driverID))

	booking, err := bookings.CreateReservation(ctx, trip.ID, bookerID)
	require.NoError(t, err)

	got, err := bookings.Transition(ctx, booking.ID, domain.BookingPending, domain.BookingCancelled)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)

	reread, err := trips.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripAvailable, reread.Status, "cancelling the only active booking frees the slot")
}

func TestBookingRepo_Transition_StaleFromStatus(t *testing.T) {
	tx := newTestTx(t)
	trips := repo.NewTripRepo(tx)
	bookings := repo.NewBookingRepo(tx)
	ctx := context.Background()

	driverID := mustCreateUser(t, tx, "driver")
	bookerID := mustCreateUser(t, tx, "booker")
	trip := mustCreateTrip(t, trips, tripFixture(driverID))

	booking, err := bookings.CreateReservation(ctx, trip.ID, bookerID)
	require.NoError(t, err)

	_, err = bookings.Transition(ctx, booking.ID, domain.BookingPending, domain.BookingCancelled)
	require.NoError(t, err)

	// A second transition from PENDING must fail: the status moved on.
	_, err = bookings.Transition(ctx, booking.ID, domain.BookingPending, domain.BookingConfirmed)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBookingRepo_HasConfirmedBooking(t *testing.T) {
	tx := newTestTx(t)
	trips := repo.NewTripRepo(tx)
	bookings := repo.NewBookingRepo(tx)
	ctx := context.Background()

	driverID := mustCreateUser(t, tx, "driver")
	bookerID := mustCreateUser(t, tx, "booker")
	trip := mustCreateTrip(t, trips, tripFixture(driverID))

	booking, err := bookings.CreateReservation(ctx, trip.ID, bookerID)
	require.NoError(t, err)

	confirmed, err := bookings.HasConfirmedBooking(ctx, trip.ID, bookerID)
	require.NoError(t, err)
	assert.False(t, confirmed, "a PENDING booking is not confirmed participation")

	_, err = bookings.Transition(ctx, booking.ID, domain.BookingPending, domain.BookingConfirmed)
	require.NoError(t, err)

	confirmed, err = bookings.HasConfirmedBooking(ctx, trip.ID, bookerID)
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestBookingRepo_ListByBooker(t *testing.T) {
	tx := newTestTx(t)
	trips := repo.NewTripRepo(tx)
	bookings := repo.NewBookingRepo(tx)
	ctx := context.Background()

	driverID := mustCreateUser(t, tx, "driver")
	bookerID := mustCreateUser(t, tx, "booker")

	tripA := mustCreateTrip(t, trips, tripFixture(driverID))
	tripB := mustCreateTrip(t, trips, tripFixture(driverID))

	_, err := bookings.CreateReservation(ctx, tripA.ID, bookerID)
	require.NoError(t, err)
	_, err = bookings.CreateReservation(ctx, tripB.ID, bookerID)
	require.NoError(t, err)

	list, err := bookings.ListByBooker(ctx, bookerID)

	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, b := range list {
		assert.Equal(t, bookerID, b.BookerID)
	}
}

// TestBookingRepo_CreateReservation_Concurrent exercises the reservation lock
// across real connections: N goroutines race for one slot and exactly one may
// win. This cannot run inside a rolled-back transaction — each goroutine needs
// its own connection — so it commits real rows and deletes them afterwards.
func TestBookingRepo_CreateReservation_Concurrent(t *testing.T) {
	pool := testutil.NewPool(t)
	trips := repo.NewTripRepo(pool)
	bookings := repo.NewBookingRepo(pool)
	ctx := context.Background()

	var driverID uuid.UUID
	err := pool.QueryRow(ctx, `INSERT INTO users (display_name) VALUES ('driver') RETURNING id`).Scan(&driverID)
	require.NoError(t, err)

	const racers = 8
	bookerIDs := make([]uuid.UUID, racers)
	for i := range bookerIDs {
		err := pool.QueryRow(ctx, `INSERT INTO users (display_name) VALUES ('booker') RETURNING id`).Scan(&bookerIDs[i])
		require.NoError(t, err)
	}

	trip := mustCreateTrip(t, trips, tripFixture(driverID))

	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM bookings WHERE trip_id = $1`, trip.ID)
		_, _ = pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, trip.ID)
		ids := append([]uuid.UUID{driverID}, bookerIDs...)
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = ANY($1)`, ids)
	})

	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = bookings.CreateReservation(ctx, trip.ID, bookerIDs[i])
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, domain.ErrConflict, "losers must see a conflict, got: %v", err)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins, "exactly one racer should win the slot")
	assert.Equal(t, racers-1, conflicts)

	reread, err := trips.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripReserved, reread.Status)

	surviving, err := bookings.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, surviving, 1, "losing inserts must have rolled back")
}
