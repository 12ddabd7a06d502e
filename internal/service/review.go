package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/retourly/backend/internal/domain"
	"github.com/retourly/backend/internal/repo"
)

// ReviewService implements the post-trip review ledger: write-once ratings
// gated by trip participation.
type ReviewService struct {
	reviews  repo.ReviewRepo
	trips    repo.TripRepo
	bookings repo.BookingRepo
}

// NewReviewService constructs a ReviewService backed by the provided repos.
func NewReviewService(reviews repo.ReviewRepo, trips repo.TripRepo, bookings repo.BookingRepo) *ReviewService {
	return &ReviewService{reviews: reviews, trips: trips, bookings: bookings}
}

// Submit records a review of reviewedUserID by reviewerID for tripID.
//
// The reviewer must have participated in the trip — as its driver, or as a
// booker with a CONFIRMED booking. Self-reviews and out-of-range ratings
// are validation errors; a second review for the same (reviewer, trip)
// pair is a conflict, enforced by the repo's unique index.
func (s *ReviewService) Submit(ctx context.Context, reviewerID, reviewedUserID, tripID uuid.UUID, rating int, comment string) (domain.Review, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Review{}, fmt.Errorf("service.ReviewService.Submit: %w", err)
	}

	if reviewerID != trip.DriverID {
		confirmed, err := s.bookings.HasConfirmedBooking(ctx, tripID, reviewerID)
		if err != nil {
			return domain.Review{}, fmt.Errorf("service.ReviewService.Submit: %w", err)
		}
		if !confirmed {
			return domain.Review{}, fmt.Errorf("service.ReviewService.Submit: reviewer did not participate in this trip: %w", domain.ErrForbidden)
		}
	}
	if reviewerID == reviewedUserID {
		return domain.Review{}, fmt.Errorf("%w: cannot review yourself", domain.ErrValidation)
	}
	if rating < 1 || rating > 5 {
		return domain.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrValidation)
	}

	review, err := s.reviews.Create(ctx, domain.Review{
		ReviewerID:     reviewerID,
		ReviewedUserID: reviewedUserID,
		TripID:         tripID,
		Rating:         rating,
		Comment:        comment,
	})
	if err != nil {
		return domain.Review{}, fmt.Errorf("service.ReviewService.Submit: %w", err)
	}
	return review, nil
}

// ListForUser returns all reviews received by userID, newest first, plus
// the aggregate stats. Always returns a non-nil slice.
func (s *ReviewService) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Review, domain.ReviewStats, error) {
	reviews, err := s.reviews.ListForUser(ctx, userID)
	if err != nil {
		return nil, domain.ReviewStats{}, fmt.Errorf("service.ReviewService.ListForUser: %w", err)
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}

	stats, err := s.reviews.Stats(ctx, userID)
	if err != nil {
		return nil, domain.ReviewStats{}, fmt.Errorf("service.ReviewService.ListForUser: %w", err)
	}

	return reviews, stats, nil
}
