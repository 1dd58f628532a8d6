package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voltride/voltride-backend/bike"
	"github.com/voltride/voltride-backend/internal/middleware"
	"github.com/voltride/voltride-backend/payment"
	"github.com/voltride/voltride-backend/penalty"
	"github.com/voltride/voltride-backend/ride"
	"github.com/voltride/voltride-backend/user"
)

// handleError maps domain errors onto HTTP status codes. Anything
// unrecognized is logged and reported as a 500 without leaking detail.
func handleError(c *gin.Context, err error) {
	var stateErr *ride.StateError

	switch {
	case errors.Is(err, bike.ErrNotFound),
		errors.Is(err, ride.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, payment.ErrNotFound),
		errors.Is(err, penalty.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, ride.ErrNotOwner),
		errors.Is(err, user.ErrBadPassword):
		respondError(c, http.StatusUnauthorized, err.Error())

	case errors.Is(err, ride.ErrUserNotVerified):
		respondError(c, http.StatusForbidden, err.Error())

	case errors.As(err, &stateErr),
		errors.Is(err, bike.ErrNotAvailable),
		errors.Is(err, bike.ErrInvalidStatus),
		errors.Is(err, ride.ErrMissingRating),
		errors.Is(err, ride.ErrInvalidRating),
		errors.Is(err, penalty.ErrNotPending),
		errors.Is(err, user.ErrEmailTaken):
		respondError(c, http.StatusBadRequest, err.Error())

	default:
		middleware.GetLogger(c).Error("request failed", "error", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
