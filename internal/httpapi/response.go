package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nikolayk812/ecart-demo/internal/domain"
)

// retryAfterSeconds is advertised on 503 responses while the database is unavailable.
const retryAfterSeconds = "5"

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type partialFailureDetails struct {
	OrderID      string `json:"orderId"`
	ClearOutcome string `json:"cartClear"`
	Guidance     string `json:"guidance"`
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

func fail(c echo.Context, status int, code, message string, details any) error {
	return c.JSON(status, errorBody{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// failErr maps a domain error kind to its HTTP status and error code.
func failErr(c echo.Context, err error) error {
	var pf *domain.PartialFailureError
	switch {
	case errors.As(err, &pf):
		return fail(c, http.StatusInternalServerError, "PARTIAL_FAILURE", "checkout outcome is unknown", partialFailureDetails{
			OrderID:      pf.OrderID.String(),
			ClearOutcome: string(pf.ClearOutcome),
			Guidance:     pf.Guidance,
		})
	case errors.Is(err, domain.ErrInvalidArgument):
		return fail(c, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidState):
		return fail(c, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
	case errors.Is(err, domain.ErrDataUnavailable):
		c.Response().Header().Set("Retry-After", retryAfterSeconds)
		return fail(c, http.StatusServiceUnavailable, "DATA_UNAVAILABLE", "database is unavailable, try again later", nil)
	}

	return fail(c, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
