package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"square-payment-gateway/internal/repository"
	"square-payment-gateway/internal/service"

	"github.com/labstack/echo/v4"
)

const storeIDHeader = "X-Store-Id"

func storeIDFromHeader(c echo.Context) (int, error) {
	raw := c.Request().Header.Get(storeIDHeader)
	if raw == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "missing X-Store-Id header")
	}
	storeID, err := strconv.Atoi(raw)
	if err != nil || storeID < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid X-Store-Id header")
	}
	return storeID, nil
}

// toHTTPError maps service errors onto HTTP statuses. Unknown errors are
// returned as is and become a 500.
func toHTTPError(err error) error {
	var (
		httpErr *echo.HTTPError
		procErr *service.ProcessorError
	)
	switch {
	case errors.As(err, &httpErr):
		return err
	case service.IsValidation(err), service.IsStateError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	case errors.Is(err, service.ErrMissingCredentials):
		return echo.NewHTTPError(http.StatusConflict, err.Error()).SetInternal(err)
	case errors.Is(err, repository.ErrCustomerNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "customer not found").SetInternal(err)
	case errors.As(err, &procErr) && errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "square "+procErr.Op+" timed out").SetInternal(err)
	case service.IsProcessorError(err):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error()).SetInternal(err)
	}
	return err
}
