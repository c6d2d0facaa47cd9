package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/middleware"
)

// errInvalidDate is reported for dates that are not YYYY-MM-DD.  It is kept
// apart from business errors so clients can tell a typo from a refusal.
const errInvalidDate = "invalid date format"

// statusFor maps a booking error kind to an HTTP status.
func statusFor(kind error) int {
    switch kind {
    case booking.ErrNotFound:
        return http.StatusNotFound
    case booking.ErrInvalidRange, booking.ErrPastDate, booking.ErrValidation:
        return http.StatusBadRequest
    case booking.ErrConflict:
        return http.StatusConflict
    case booking.ErrForbidden:
        return http.StatusForbidden
    }
    return http.StatusInternalServerError
}

// writeError renders err as {"error": ..., "field": ...}.  Errors that do
// not carry a booking kind are logged and hidden behind a 500.
func writeError(c echo.Context, log *zap.Logger, err error) error {
    kind := booking.Kind(err)
    status := statusFor(kind)
    if status == http.StatusInternalServerError {
        log.Error("request failed",
            zap.String("request_id", middleware.RequestID(c)),
            zap.String("route", c.Path()),
            zap.Error(err))
        return c.JSON(status, echo.Map{"error": "internal error"})
    }

    msg := kind.Error()
    var be *booking.Error
    if errors.As(err, &be) && be.Detail != "" {
        msg = be.Detail
    }
    if kind == booking.ErrNotFound {
        msg = "not found"
    }
    body := echo.Map{"error": msg}
    if f := booking.Field(err); f != "" {
        body["field"] = f
    }
    return c.JSON(status, body)
}

func invalidDate(c echo.Context, field string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": errInvalidDate, "field": field})
}
