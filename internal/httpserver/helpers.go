package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/freshmart/storefront/internal/payment"
	"github.com/freshmart/storefront/internal/repo"
	"github.com/freshmart/storefront/internal/reserve"
	"github.com/freshmart/storefront/internal/service"
)

func buyerID(c echo.Context) (uuid.UUID, error) {
	v := c.Get("user_id")
	s, ok := v.(string)
	if !ok || s == "" {
		return uuid.Nil, errors.New("unauthorized")
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.New("unauthorized")
	}
	return id, nil
}

// orderHTTPError maps the commit/payment error taxonomy onto statuses; every
// distinguishable cause keeps its own message.
func orderHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, service.ErrMissingParameter):
		return echo.NewHTTPError(http.StatusBadRequest, "missing parameter")
	case errors.Is(err, service.ErrInvalidPayMethod):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment method")
	case errors.Is(err, service.ErrInvalidAddress):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid address")
	case errors.Is(err, reserve.ErrSKUNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "sku not found")
	case errors.Is(err, reserve.ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusConflict, "insufficient stock")
	case errors.Is(err, reserve.ErrRaceExhausted):
		return echo.NewHTTPError(http.StatusConflict, "commit lost the race, try again")
	case errors.Is(err, repo.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrOrderNotPayable):
		return echo.NewHTTPError(http.StatusConflict, "order not payable")
	case errors.Is(err, payment.ErrPaymentFailed):
		return echo.NewHTTPError(http.StatusPaymentRequired, "payment failed")
	case errors.Is(err, payment.ErrPollExhausted):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "payment confirmation timed out")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
