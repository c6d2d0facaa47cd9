package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/room-reservation/internal/model"
)

// Actor is whoever asks for an operation on an existing booking.
// Privileged actors (admins) may act on bookings they do not own.
type Actor struct {
	UserID     uint64
	Privileged bool
}

// Manager runs the booking lifecycle: create, cancel and listing.
type Manager struct {
	store Store
	clock Clock
	log   *zap.Logger
}

func NewManager(store Store, clock Clock, log *zap.Logger) *Manager {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, clock: clock, log: log}
}

func (m *Manager) today() time.Time { return Date(m.clock.Now().UTC()) }

// CreateBooking books roomNumber for requester from checkIn to checkOut.
// Checks run in a fixed order: room exists, range is valid, range is not
// in the past, room is free.  The availability check and the insert
// happen while the room is held, so of several overlapping requests for
// the same room at most one succeeds.
func (m *Manager) CreateBooking(ctx context.Context, requester uint64, roomNumber int, checkIn, checkOut time.Time) (*model.Booking, error) {
	if requester == 0 {
		return nil, newError(ErrValidation, "user_id", "requester is required")
	}
	room, err := m.store.FindRoomByNumber(ctx, roomNumber)
	if err != nil {
		return nil, err
	}
	rng, err := NewDateRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if err := checkNotPast(rng, m.today()); err != nil {
		return nil, err
	}

	var created *model.Booking
	err = m.store.InRoomTx(ctx, room.Number, func(tx RoomTx) error {
		locked := tx.Room()
		existing, err := tx.ListBookingsForRoom(ctx)
		if err != nil {
			return fmt.Errorf("list bookings for room %d: %w", locked.Number, err)
		}
		if !IsAvailable(locked, rng, existing) {
			return newError(ErrConflict, "", "")
		}
		price := Price(locked.NightlyRate, rng.Start(), rng.End())
		if price.GreaterThan(model.MaxBookingPrice) {
			return newError(ErrValidation, "check_out", "total price exceeds the maximum")
		}
		b := &model.Booking{
			RoomID:     locked.ID,
			RoomNumber: locked.Number,
			UserID:     requester,
			CheckIn:    rng.Start(),
			CheckOut:   rng.End(),
			Status:     model.StatusBooked,
			Price:      price,
			CreatedAt:  m.clock.Now().UTC(),
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		created = b
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			m.log.Info("booking conflict",
				zap.Int("room", roomNumber),
				zap.Stringer("range", rng),
				zap.Uint64("user_id", requester))
		}
		return nil, err
	}
	m.log.Info("booking created",
		zap.Uint64("booking_id", created.ID),
		zap.Int("room", created.RoomNumber),
		zap.Stringer("range", rng),
		zap.String("price", FormatMoney(created.Price)))
	return created, nil
}

// checkNotPast rejects ranges whose check-in or check-out lies before today.
func checkNotPast(rng DateRange, today time.Time) error {
	if rng.Start().Before(today) {
		return newError(ErrPastDate, "check_in", "")
	}
	if rng.End().Before(today) {
		return newError(ErrPastDate, "check_out", "")
	}
	return nil
}

// GetBooking returns a booking visible to actor.
func (m *Manager) GetBooking(ctx context.Context, actor Actor, id uint64) (*model.Booking, error) {
	b, err := m.store.FindBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.UserID && !actor.Privileged {
		return nil, newError(ErrForbidden, "", "")
	}
	return b, nil
}

// CancelBooking moves a BOOKED booking to CANCELED.  Bookings that are
// already terminal are returned unchanged.
func (m *Manager) CancelBooking(ctx context.Context, actor Actor, id uint64) (*model.Booking, error) {
	b, err := m.GetBooking(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return b, nil
	}
	ok, err := m.store.UpdateBookingStatus(ctx, id, model.StatusBooked, model.StatusCanceled)
	if err != nil {
		return nil, fmt.Errorf("cancel booking %d: %w", id, err)
	}
	if !ok {
		// Someone else finished it first; report what is stored now.
		return m.store.FindBooking(ctx, id)
	}
	b.Status = model.StatusCanceled
	m.log.Info("booking canceled",
		zap.Uint64("booking_id", id),
		zap.Uint64("actor", actor.UserID),
		zap.Bool("privileged", actor.Privileged))
	return b, nil
}

// ListActiveBookings returns the requester's BOOKED bookings in creation order.
func (m *Manager) ListActiveBookings(ctx context.Context, requester uint64) ([]model.Booking, error) {
	all, err := m.store.ListBookingsByRequester(ctx, requester)
	if err != nil {
		return nil, err
	}
	active := make([]model.Booking, 0, len(all))
	for _, b := range all {
		if b.Status == model.StatusBooked {
			active = append(active, b)
		}
	}
	return active, nil
}

// ListAllBookings returns every booking in the system.  Admin only.
func (m *Manager) ListAllBookings(ctx context.Context, actor Actor) ([]model.Booking, error) {
	if !actor.Privileged {
		return nil, newError(ErrForbidden, "", "")
	}
	return m.store.ListBookings(ctx)
}
