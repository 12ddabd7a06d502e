package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/retourly/backend/internal/domain"
)

// errorResponse is the JSON error envelope for every non-2xx response.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON serializes v with the given status. Encoding failures are
// logged; at that point the status line is already written.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

// respondError maps a service error onto the HTTP error contract.
//
// The domain sentinels map to stable codes; anything else is an unexpected
// storage or programming error, logged server-side and reported
// generically so internals never leak. Conflicts in particular must stay
// distinguishable from transient failures — a losing booking racer needs
// to know to refresh listings, not retry.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not_found", err))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", err))
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody("forbidden", err))
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("conflict", err))
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthenticated", err))
	default:
		slog.ErrorContext(r.Context(), "internal error", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: errorDetail{Code: "internal_error", Message: "internal server error"},
		})
	}
}

// requestError builds a 422 response for a request rejected before reaching
// the service layer (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error: errorDetail{Code: "validation_error", Message: message},
	})
}

func errorBody(code string, err error) errorResponse {
	return errorResponse{Error: errorDetail{Code: code, Message: clientMessage(err)}}
}

// clientMessage extracts the human-readable part from a wrapped sentinel
// error. Service errors look like
// "service.BookingService.Create: trip no longer available: conflict";
// the client should see "trip no longer available".
func clientMessage(err error) string {
	msg := err.Error()

	// Strip "layer.Type.Method: " call-chain prefixes.
	for {
		i := strings.Index(msg, ": ")
		if i < 0 {
			break
		}
		head := msg[:i]
		if strings.HasPrefix(head, "service.") || strings.HasPrefix(head, "repo.") {
			msg = msg[i+2:]
			continue
		}
		break
	}

	// Sentinels appear as a prefix ("validation error: rating ...") or a
	// suffix ("trip no longer available: conflict") depending on how the
	// error was wrapped.
	for _, sentinel := range []string{
		domain.ErrNotFound.Error(),
		domain.ErrValidation.Error(),
		domain.ErrForbidden.Error(),
		domain.ErrConflict.Error(),
		domain.ErrUnauthenticated.Error(),
	} {
		msg = strings.TrimPrefix(msg, sentinel+": ")
		msg = strings.TrimSuffix(msg, ": "+sentinel)
	}
	return msg
}
