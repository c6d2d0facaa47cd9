package handler // handler defines http handlers

import (
    "errors"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/model"
)

// getUserID extracts the user_id stored by JWTAuth and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// actorFrom builds the booking actor for the authenticated request.
func actorFrom(c echo.Context) (booking.Actor, error) {
    uid, err := getUserID(c)
    if err != nil || uid == 0 {
        return booking.Actor{}, errors.New("unauthenticated")
    }
    role, _ := c.Get("role").(string)
    return booking.Actor{UserID: uid, Privileged: role == model.RoleAdmin}, nil
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c echo.Context, name string) (uint64, bool) {
    n, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
    if err != nil || n == 0 {
        return 0, false
    }
    return n, true
}

// parseRoomNumber reads the :number path parameter.
func parseRoomNumber(c echo.Context) (int, bool) {
    n, err := strconv.Atoi(strings.TrimSpace(c.Param("number")))
    if err != nil || n <= 0 {
        return 0, false
    }
    return n, true
}
