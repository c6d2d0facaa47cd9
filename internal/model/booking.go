package model

import (
    "fmt"
    "strings"
    "time"

    "github.com/shopspring/decimal"
)

// MaxBookingPrice is the largest total a booking may carry; it is the
// range of the bookings.price column.
var MaxBookingPrice = decimal.RequireFromString("9999999999.99")

// BookingStatus is the lifecycle state of a booking.  A booking starts
// as StatusBooked and may move once to a terminal state.
type BookingStatus uint8

const (
    // StatusBooked holds the room for the booked dates.
    StatusBooked BookingStatus = iota + 1
    // StatusCanceled is set by the requester (or an admin).  Terminal.
    StatusCanceled
    // StatusExpired is reserved for a time based sweep that does not
    // exist yet; nothing in the service moves a booking here.  Terminal.
    StatusExpired
)

// String returns the label used in the database and on the wire.
func (s BookingStatus) String() string {
    switch s {
    case StatusBooked:
        return "BOOKED"
    case StatusCanceled:
        return "CANCELED"
    case StatusExpired:
        return "EXPIRED"
    }
    return fmt.Sprintf("BookingStatus(%d)", uint8(s))
}

// HoldsRoom reports whether a booking in this state blocks its room for
// its dates.  Unknown values block the room so that a status added later
// can never let an overlapping booking through unnoticed.
func (s BookingStatus) HoldsRoom() bool {
    switch s {
    case StatusBooked:
        return true
    case StatusCanceled, StatusExpired:
        return false
    }
    return true
}

// Terminal reports whether no further transition is allowed.
func (s BookingStatus) Terminal() bool {
    switch s {
    case StatusCanceled, StatusExpired:
        return true
    case StatusBooked:
        return false
    }
    return true
}

// MarshalText renders the status label for JSON encoding.
func (s BookingStatus) MarshalText() ([]byte, error) {
    return []byte(s.String()), nil
}

// ParseBookingStatus converts a stored label back into a BookingStatus.
func ParseBookingStatus(label string) (BookingStatus, error) {
    switch strings.ToUpper(strings.TrimSpace(label)) {
    case "BOOKED":
        return StatusBooked, nil
    case "CANCELED", "CANCELLED":
        return StatusCanceled, nil
    case "EXPIRED":
        return StatusExpired, nil
    }
    return 0, fmt.Errorf("unknown booking status %q", label)
}

// Booking reserves one room for a contiguous range of nights.  Bookings
// are never deleted; canceled and expired rows stay as an audit trail.
//
// Fields:
//  ID         – primary key identifier.
//  RoomID     – internal id of the booked room.
//  RoomNumber – number of the booked room (denormalised for callers).
//  UserID     – requester who owns the booking.
//  CheckIn    – first night, UTC midnight.
//  CheckOut   – departure day, UTC midnight; always after CheckIn.
//  Status     – lifecycle state.
//  Price      – nightly rate times nights, computed at creation.
//  CreatedAt  – server time of creation.
type Booking struct {
    ID         uint64          // bookings.id
    RoomID     uint64          // bookings.room_id
    RoomNumber int             // rooms.number
    UserID     uint64          // bookings.user_id
    CheckIn    time.Time       // bookings.check_in
    CheckOut   time.Time       // bookings.check_out
    Status     BookingStatus   // bookings.status
    Price      decimal.Decimal // bookings.price
    CreatedAt  time.Time       // bookings.created_at
}
