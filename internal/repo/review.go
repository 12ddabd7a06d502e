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

// ReviewRepo defines the persistence operations for Reviews.
type ReviewRepo interface {
	// Create inserts a review and returns the persisted record. A second
	// review for the same (reviewer, trip) pair returns domain.ErrConflict
	// via the unique index.
	Create(ctx context.Context, review domain.Review) (domain.Review, error)

	// ListForUser returns all reviews received by userID, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Review, error)

	// Stats aggregates the reviews received by userID. The average is
	// rounded to one decimal place in SQL; both values are zero when the
	// user has no reviews.
	Stats(ctx context.Context, userID uuid.UUID) (domain.ReviewStats, error)
}

// pgReviewRepo is the Postgres implementation of ReviewRepo.
type pgReviewRepo struct {
	db db
}

// NewReviewRepo constructs a ReviewRepo backed by the provided db connection.
func NewReviewRepo(db db) ReviewRepo {
	return &pgReviewRepo{db: db}
}

const reviewColumns = `id, reviewer_id, reviewed_user_id, trip_id, rating, comment, created_at`

// Create inserts a review row and returns the full persisted record.
func (r *pgReviewRepo) Create(ctx context.Context, review domain.Review) (domain.Review, error) {
	const q = `
		INSERT INTO reviews (reviewer_id, reviewed_user_id, trip_id, rating, comment)
		VALUES (@reviewer_id, @reviewed_user_id, @trip_id, @rating, @comment)
		RETURNING ` + reviewColumns

	var comment *string
	if review.Comment != "" {
		comment = &review.Comment
	}
	args := pgx.NamedArgs{
		"reviewer_id":      review.ReviewerID,
		"reviewed_user_id": review.ReviewedUserID,
		"trip_id":          review.TripID,
		"rating":           review.Rating,
		"comment":          comment,
	}

	result, err := scanReview(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Review{}, fmt.Errorf("repo.ReviewRepo.Create: review already submitted: %w", domain.ErrConflict)
		}
		return domain.Review{}, fmt.Errorf("repo.ReviewRepo.Create: %w", err)
	}
	return result, nil
}

// ListForUser returns all reviews received by userID, newest first.
func (r *pgReviewRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Review, error) {
	const q = `SELECT ` + reviewColumns + ` FROM reviews WHERE reviewed_user_id = @user_id ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReviewRepo.ListForUser: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ReviewRepo.ListForUser: scan: %w", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReviewRepo.ListForUser: rows: %w", err)
	}

	return reviews, nil
}

// Stats aggregates the reviews received by userID.
func (r *pgReviewRepo) Stats(ctx context.Context, userID uuid.UUID) (domain.ReviewStats, error) {
	const q = `
		SELECT COALESCE(round(avg(rating), 1), 0), count(*)
		FROM reviews
		WHERE reviewed_user_id = @user_id`

	var stats domain.ReviewStats
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}).Scan(&stats.AverageRating, &stats.ReviewCount)
	if err != nil {
		return domain.ReviewStats{}, fmt.Errorf("repo.ReviewRepo.Stats: %w", err)
	}
	return stats, nil
}

// scanReview maps a single database row into a domain.Review.
func scanReview(s scanner) (domain.Review, error) {
	var (
		rev            domain.Review
		id             pgtype.UUID
		reviewerID     pgtype.UUID
		reviewedUserID pgtype.UUID
		tripID         pgtype.UUID
		comment        pgtype.Text
	)

	err := s.Scan(&id, &reviewerID, &reviewedUserID, &tripID, &rev.Rating, &comment, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, domain.ErrNotFound
		}
		return domain.Review{}, err
	}

	rev.ID = uuid.UUID(id.Bytes)
	rev.ReviewerID = uuid.UUID(reviewerID.Bytes)
	rev.ReviewedUserID = uuid.UUID(reviewedUserID.Bytes)
	rev.TripID = uuid.UUID(tripID.Bytes)
	if comment.Valid {
		rev.Comment = comment.String
	}

	return rev, nil
}
