package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/retourly/backend/internal/domain"
)

// timeFormat is the encoding for every timestamp on the wire.
const timeFormat = time.RFC3339

// createTripRequest is the body of POST /trips. The trip date travels as a
// calendar day ("2006-01-02"), not a timestamp.
type createTripRequest struct {
	FromCity    string             `json:"from_city"`
	ToCity      string             `json:"to_city"`
	TripDate    openapi_types.Date `json:"trip_date"`
	VehicleType string             `json:"vehicle_type"`
	Price       *float64           `json:"price,omitempty"`
}

// updateTripRequest is the body of PUT /trips/{id}. All fields optional.
type updateTripRequest struct {
	FromCity    *string             `json:"from_city,omitempty"`
	ToCity      *string             `json:"to_city,omitempty"`
	TripDate    *openapi_types.Date `json:"trip_date,omitempty"`
	VehicleType *string             `json:"vehicle_type,omitempty"`
	Price       *float64            `json:"price,omitempty"`
	Status      *domain.TripStatus  `json:"status,omitempty"`
}

// tripResponse is the wire shape of a trip; it differs from domain.Trip
// only in the date encoding.
type tripResponse struct {
	ID          string             `json:"id"`
	DriverID    string             `json:"driver_id"`
	FromCity    string             `json:"from_city"`
	ToCity      string             `json:"to_city"`
	TripDate    openapi_types.Date `json:"trip_date"`
	VehicleType string             `json:"vehicle_type"`
	Price       *float64           `json:"price,omitempty"`
	Status      domain.TripStatus  `json:"status"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
}

// pagination echoes the applied page parameters plus the total match count.
type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// handleCreateTrip handles POST /trips.
func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		requestError(w, "invalid request body")
		return
	}

	trip := domain.Trip{
		FromCity:    body.FromCity,
		ToCity:      body.ToCity,
		TripDate:    body.TripDate.Time,
		VehicleType: body.VehicleType,
		Price:       body.Price,
	}
	created, err := s.trips.Create(r.Context(), callerID, trip)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// handleListTrips handles GET /trips.
// Query params: from_city, to_city, date (YYYY-MM-DD), status, page, limit.
// Without a status param only AVAILABLE trips are returned.
func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.TripFilter{
		FromCity: q.Get("from_city"),
		ToCity:   q.Get("to_city"),
		Status:   domain.TripStatus(q.Get("status")),
	}
	if raw := q.Get("date"); raw != "" {
		var d openapi_types.Date
		if err := d.UnmarshalText([]byte(raw)); err != nil {
			requestError(w, "date must be formatted as YYYY-MM-DD")
			return
		}
		filter.Date = &d.Time
	}

	params := domain.NewPaginationParams(queryInt(q.Get("page")), queryInt(q.Get("limit")))
	trips, total, err := s.trips.List(r.Context(), filter, params)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Data       []tripResponse `json:"data"`
		Pagination pagination     `json:"pagination"`
	}{
		Data:       tripsToResponse(trips),
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// handleGetTrip handles GET /trips/{id}.
func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// handleUpdateTrip handles PUT /trips/{id}.
func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
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

	var body updateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		requestError(w, "invalid request body")
		return
	}

	patch := domain.TripPatch{
		FromCity:    body.FromCity,
		ToCity:      body.ToCity,
		VehicleType: body.VehicleType,
		Price:       body.Price,
		Status:      body.Status,
	}
	if body.TripDate != nil {
		patch.TripDate = &body.TripDate.Time
	}

	updated, err := s.trips.Update(r.Context(), id, callerID, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// handleListMyTrips handles GET /my/trips: the caller's own trips in every
// status, newest date first.
func (s *Server) handleListMyTrips(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	trips, err := s.trips.ListByDriver(r.Context(), callerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Data []tripResponse `json:"data"`
	}{Data: tripsToResponse(trips)})
}

// --- mapping helpers --------------------------------------------------------

func tripToResponse(t domain.Trip) tripResponse {
	return tripResponse{
		ID:          t.ID.String(),
		DriverID:    t.DriverID.String(),
		FromCity:    t.FromCity,
		ToCity:      t.ToCity,
		TripDate:    openapi_types.Date{Time: t.TripDate},
		VehicleType: t.VehicleType,
		Price:       t.Price,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt.Format(timeFormat),
		UpdatedAt:   t.UpdatedAt.Format(timeFormat),
	}
}

func tripsToResponse(trips []domain.Trip) []tripResponse {
	out := make([]tripResponse, len(trips))
	for i, t := range trips {
		out[i] = tripToResponse(t)
	}
	return out
}

// queryInt parses an optional positive integer query parameter.
// Missing or malformed values yield nil, letting defaults apply.
func queryInt(raw string) *int {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
