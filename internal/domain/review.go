package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review is a post-trip rating left by one trip participant for another.
// Write-once per (reviewer, trip); the reviewer must have taken part in
// the trip as its driver or as a booker with a confirmed booking.
type Review struct {
	ID             uuid.UUID `json:"id"`
	ReviewerID     uuid.UUID `json:"reviewer_id"`
	ReviewedUserID uuid.UUID `json:"reviewed_user_id"`
	TripID         uuid.UUID `json:"trip_id"`
	Rating         int       `json:"rating"` // 1..5
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReviewStats aggregates all reviews received by one user.
type ReviewStats struct {
	// AverageRating is rounded to one decimal place. Zero when no reviews exist.
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}
