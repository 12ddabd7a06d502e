package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/retourly/backend/internal/domain"
)

// submitReviewRequest is the body of POST /reviews.
type submitReviewRequest struct {
	TripID         uuid.UUID `json:"trip_id"`
	ReviewedUserID uuid.UUID `json:"reviewed_user_id"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment,omitempty"`
}

// handleSubmitReview handles POST /reviews.
func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body submitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		requestError(w, "invalid request body")
		return
	}
	if body.TripID == uuid.Nil || body.ReviewedUserID == uuid.Nil {
		requestError(w, "trip_id and reviewed_user_id are required")
		return
	}

	review, err := s.reviews.Submit(r.Context(), callerID, body.ReviewedUserID, body.TripID, body.Rating, body.Comment)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

// handleListUserReviews handles GET /users/{id}/reviews: the reviews a user
// has received plus their aggregate rating. Public — profile pages show it
// to anonymous visitors.
func (s *Server) handleListUserReviews(w http.ResponseWriter, r *http.Request) {
	userID, err := urlUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	reviews, stats, err := s.reviews.ListForUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Reviews []domain.Review    `json:"reviews"`
		Stats   domain.ReviewStats `json:"stats"`
	}{Reviews: reviews, Stats: stats})
}
