package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/queue"
)

// EventPublisher sends booking events to the broker.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.BookingEvent) error
}

// BookingHandler exposes the booking lifecycle over HTTP.  All routes sit
// behind JWTAuth; ownership is enforced by the manager, not here.
type BookingHandler struct {
    Manager *booking.Manager
    Events  EventPublisher
    Log     *zap.Logger
}

func NewBookingHandler(m *booking.Manager, events EventPublisher, log *zap.Logger) *BookingHandler {
    if m == nil {
        panic("nil manager passed to NewBookingHandler")
    }
    return &BookingHandler{Manager: m, Events: events, Log: log}
}

type createBookingReq struct {
    RoomNumber int     `json:"room_number" validate:"required,gt=0"`
    CheckIn    string  `json:"check_in" validate:"required"`
    CheckOut   string  `json:"check_out" validate:"required"`
    UserID     *uint64 `json:"user_id"` // admins only
}

// publish sends ev without failing the request; the booking is already
// committed when this runs.
func (h *BookingHandler) publish(c echo.Context, typ string, b *model.Booking) {
    if h.Events == nil {
        return
    }
    ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 5*time.Second)
    defer cancel()
    if err := h.Events.Publish(ctx, queue.NewBookingEvent(typ, b, time.Now())); err != nil {
        h.Log.Warn("publish booking event failed",
            zap.String("type", typ),
            zap.Uint64("booking_id", b.ID),
            zap.Error(err))
    }
}

// Create handles POST /v1/bookings.  The requester is the caller; an
// admin may book on behalf of another user with user_id.
func (h *BookingHandler) Create(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createBookingReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    checkIn, err := booking.ParseDate(req.CheckIn)
    if err != nil {
        return invalidDate(c, "check_in")
    }
    checkOut, err := booking.ParseDate(req.CheckOut)
    if err != nil {
        return invalidDate(c, "check_out")
    }

    requester := actor.UserID
    if actor.Privileged && req.UserID != nil {
        requester = *req.UserID
    }

    b, err := h.Manager.CreateBooking(c.Request().Context(), requester, req.RoomNumber, checkIn, checkOut)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    h.publish(c, queue.TypeBookingCreated, b)
    return c.JSON(http.StatusCreated, toBookingResp(*b))
}

// ListMine handles GET /v1/bookings: the caller's active bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Manager.ListActiveBookings(c.Request().Context(), actor.UserID)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"data": toBookingList(items)})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Manager.GetBooking(c.Request().Context(), actor, id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toBookingResp(*b))
}

// Cancel handles PATCH /v1/bookings/:id/cancel and, for admins,
// DELETE /v1/admin/bookings/:id.  Rows are never deleted.
func (h *BookingHandler) Cancel(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx := c.Request().Context()
    before, err := h.Manager.GetBooking(ctx, actor, id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    b, err := h.Manager.CancelBooking(ctx, actor, id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    if before.Status == model.StatusBooked && b.Status == model.StatusCanceled {
        h.publish(c, queue.TypeBookingCanceled, b)
    }
    return c.JSON(http.StatusOK, toBookingResp(*b))
}

// AdminList handles GET /v1/admin/bookings.
func (h *BookingHandler) AdminList(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Manager.ListAllBookings(c.Request().Context(), actor)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"data": toBookingList(items), "total": len(items)})
}
