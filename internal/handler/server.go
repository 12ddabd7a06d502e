// Package handler implements the HTTP handlers for the Retourly API.
// All handlers are methods on Server. Methods are split into
// domain-specific files (trip.go, booking.go, etc.) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/retourly/backend/internal/domain"
	"github.com/retourly/backend/internal/middleware"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, driverID uuid.UUID, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, filter domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Trip, error)
	Update(ctx context.Context, tripID, requesterID uuid.UUID, patch domain.TripPatch) (domain.Trip, error)
}

// BookingServicer defines the reservation operations the booking handlers
// depend on.
type BookingServicer interface {
	Create(ctx context.Context, tripID, bookerID uuid.UUID) (domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID, requesterID uuid.UUID, newStatus domain.BookingStatus) (domain.Booking, error)
	Cancel(ctx context.Context, bookingID, requesterID uuid.UUID) (domain.Booking, error)
	ListByBooker(ctx context.Context, bookerID uuid.UUID) ([]domain.Booking, error)
	ListByTrip(ctx context.Context, tripID, requesterID uuid.UUID) ([]domain.Booking, error)
}

// NotificationServicer defines the inbox operations the notification
// handlers depend on.
type NotificationServicer interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool) (domain.NotificationList, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// ConversationServicer defines the messaging operations the conversation
// handlers depend on.
type ConversationServicer interface {
	GetOrCreate(ctx context.Context, callerID, otherID uuid.UUID) (domain.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error)
	SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (domain.Message, error)
	ListMessages(ctx context.Context, conversationID, callerID uuid.UUID) ([]domain.Message, error)
}

// ReviewServicer defines the review operations the review handlers depend on.
type ReviewServicer interface {
	Submit(ctx context.Context, reviewerID, reviewedUserID, tripID uuid.UUID, rating int, comment string) (domain.Review, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Review, domain.ReviewStats, error)
}

// Server holds the handlers for all API endpoints.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	trips         TripServicer
	bookings      BookingServicer
	notifications NotificationServicer
	conversations ConversationServicer
	reviews       ReviewServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, bookings BookingServicer, notifications NotificationServicer, conversations ConversationServicer, reviews ReviewServicer) *Server {
	return &Server{
		trips:         trips,
		bookings:      bookings,
		notifications: notifications,
		conversations: conversations,
		reviews:       reviews,
	}
}

// Routes builds the API router. Public reads (search, trip detail, user
// reviews, health) skip the authenticator; everything else requires a
// caller identity, supplied by the authn middleware.
func (s *Server) Routes(authn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/trips", s.handleListTrips)
	r.Get("/trips/{id}", s.handleGetTrip)
	r.Get("/users/{id}/reviews", s.handleListUserReviews)

	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Post("/trips", s.handleCreateTrip)
		r.Put("/trips/{id}", s.handleUpdateTrip)
		r.Get("/my/trips", s.handleListMyTrips)

		r.Post("/trips/{id}/bookings", s.handleCreateBooking)
		r.Get("/trips/{id}/bookings", s.handleListTripBookings)
		r.Get("/bookings", s.handleListMyBookings)
		r.Put("/bookings/{id}/status", s.handleUpdateBookingStatus)
		r.Delete("/bookings/{id}", s.handleCancelBooking)

		r.Get("/notifications", s.handleListNotifications)
		r.Put("/notifications/read-all", s.handleMarkAllNotificationsRead)
		r.Put("/notifications/{id}/read", s.handleMarkNotificationRead)
		r.Delete("/notifications/{id}", s.handleDeleteNotification)

		r.Get("/conversations", s.handleListConversations)
		r.Post("/conversations", s.handleGetOrCreateConversation)
		r.Get("/conversations/{id}/messages", s.handleListMessages)
		r.Post("/conversations/{id}/messages", s.handleSendMessage)

		r.Post("/reviews", s.handleSubmitReview)
	})

	return r
}

// caller returns the authenticated caller's ID from the request context.
// Requests on protected routes always carry one; a missing ID means the
// route was mounted without the authenticator, which respondError surfaces
// as 401.
func caller(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.CallerID(r.Context())
	if !ok {
		return uuid.Nil, domain.ErrUnauthenticated
	}
	return id, nil
}

// urlUUID parses the named chi URL parameter as a UUID.
// Returns domain.ErrNotFound on a malformed ID: a path with an invalid
// UUID can never name an existing resource.
func urlUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, nil
}
