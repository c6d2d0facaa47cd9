// Package queue defines the booking event payloads and the consumer that
// turns them into an audit log.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/model"
)

// BookingQueue is the durable queue carrying booking events.
const BookingQueue = "booking.events"

// Event types.
const (
    TypeBookingCreated  = "booking.created"
    TypeBookingCanceled = "booking.canceled"
)

// BookingEvent is published after a booking is created or canceled.  It
// carries enough for consumers to log or notify without reading the
// database.
type BookingEvent struct {
    EventID    string `json:"event_id"`
    Type       string `json:"type"`
    BookingID  uint64 `json:"booking_id"`
    UserID     uint64 `json:"user_id"`
    RoomNumber int    `json:"room_number"`
    CheckIn    string `json:"check_in"`
    CheckOut   string `json:"check_out"`
    Status     string `json:"status"`
    Price      string `json:"price"`
    OccurredAt string `json:"occurred_at"`
}

// NewBookingEvent describes b as an event of type typ.
func NewBookingEvent(typ string, b *model.Booking, at time.Time) BookingEvent {
    return BookingEvent{
        EventID:    uuid.NewString(),
        Type:       typ,
        BookingID:  b.ID,
        UserID:     b.UserID,
        RoomNumber: b.RoomNumber,
        CheckIn:    b.CheckIn.Format(booking.DateLayout),
        CheckOut:   b.CheckOut.Format(booking.DateLayout),
        Status:     b.Status.String(),
        Price:      booking.FormatMoney(b.Price),
        OccurredAt: at.UTC().Format(time.RFC3339),
    }
}
