package handler

import (
	"encoding/json"
	"net/http"

	"github.com/retourly/backend/internal/domain"
)

// updateBookingStatusRequest is the body of PUT /bookings/{id}/status.
type updateBookingStatusRequest struct {
	Status domain.BookingStatus `json:"status"`
}

// bookingResponse is the wire shape of a booking.
type bookingResponse struct {
	ID        string               `json:"id"`
	TripID    string               `json:"trip_id"`
	BookerID  string               `json:"booker_id"`
	Status    domain.BookingStatus `json:"status"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

// handleCreateBooking handles POST /trips/{id}/bookings.
// A 201 means the caller holds the trip's slot; a 409 means someone else
// already does (or the caller already has an active booking on it).
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	tripID, err := urlUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	booking, err := s.bookings.Create(r.Context(), tripID, callerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, bookingToResponse(booking))
}

// handleUpdateBookingStatus handles PUT /bookings/{id}/status: the driver's
// decision (CONFIRMED or CANCELLED).
func (s *Server) handleUpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := urlUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body updateBookingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		requestError(w, "invalid request body")
		return
	}

	booking, err := s.bookings.UpdateStatus(r.Context(), id, callerID, body.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bookingToResponse(booking))
}

// handleCancelBooking handles DELETE /bookings/{id}. Allowed for the booker
// and the trip's driver; returns the cancelled booking.
func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := urlUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	booking, err := s.bookings.Cancel(r.Context(), id, callerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bookingToResponse(booking))
}

// handleListMyBookings handles GET /bookings: the caller's own booking
// requests, newest first.
func (s *Server) handleListMyBookings(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	bookings, err := s.bookings.ListByBooker(r.Context(), callerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Data []bookingResponse `json:"data"`
	}{Data: bookingsToResponse(bookings)})
}

// handleListTripBookings handles GET /trips/{id}/bookings: the requests on
// one of the caller's trips. Driver only.
func (s *Server) handleListTripBookings(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	tripID, err := urlUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	bookings, err := s.bookings.ListByTrip(r.Context(), tripID, callerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Data []bookingResponse `json:"data"`
	}{Data: bookingsToResponse(bookings)})
}

// --- mapping helpers --------------------------------------------------------

func bookingToResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:        b.ID.String(),
		TripID:    b.TripID.String(),
		BookerID:  b.BookerID.String(),
		Status:    b.Status,
		CreatedAt: b.CreatedAt.Format(timeFormat),
		UpdatedAt: b.UpdatedAt.Format(timeFormat),
	}
}

func bookingsToResponse(bookings []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = bookingToResponse(b)
	}
	return out
}
