package booking

import (
	"context"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// Store is what the booking rules need from persistence.  Lookups that
// miss return an error wrapping ErrNotFound.
type Store interface {
	FindRoomByNumber(ctx context.Context, number int) (*model.Room, error)
	ListRooms(ctx context.Context) ([]model.Room, error)

	FindBooking(ctx context.Context, id uint64) (*model.Booking, error)
	ListBookingsForRoom(ctx context.Context, roomNumber int) ([]model.Booking, error)
	// ListBookingsByRequester returns the user's bookings in creation order.
	ListBookingsByRequester(ctx context.Context, userID uint64) ([]model.Booking, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)

	// UpdateBookingStatus moves a booking from one status to another in a
	// single step.  It reports false when the booking was not in from.
	UpdateBookingStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error)

	// InRoomTx runs fn while holding the room exclusively.  No other
	// InRoomTx for the same room runs until fn returns; writes made through
	// the RoomTx are discarded when fn fails.
	InRoomTx(ctx context.Context, roomNumber int, fn func(RoomTx) error) error
}

// RoomTx is the view of one locked room handed to InRoomTx callbacks.
type RoomTx interface {
	Room() model.Room
	ListBookingsForRoom(ctx context.Context) ([]model.Booking, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
}

// Clock supplies the current time so "today" can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
