package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/room-reservation/internal/booking"
	"github.com/iliyamo/room-reservation/internal/model"
)

// Store is the MySQL booking.Store.
type Store struct {
	*RoomRepo
	*BookingRepo
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{RoomRepo: NewRoomRepo(db), BookingRepo: NewBookingRepo(db), db: db}
}

var _ booking.Store = (*Store)(nil)

// InRoomTx locks the room row with SELECT ... FOR UPDATE and runs fn in
// the same transaction.  Concurrent callers for the same room queue on
// the row lock until this transaction commits or rolls back.
func (s *Store) InRoomTx(ctx context.Context, roomNumber int, fn func(booking.RoomTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	room, err := scanRoom(tx.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE number = ? FOR UPDATE", roomNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("room %d: %w", roomNumber, booking.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock room %d: %w", roomNumber, err)
	}

	if err := fn(&roomTx{tx: tx, room: *room}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

type roomTx struct {
	tx   *sql.Tx
	room model.Room
}

func (t *roomTx) Room() model.Room { return t.room }

func (t *roomTx) ListBookingsForRoom(ctx context.Context) ([]model.Booking, error) {
	return queryBookings(ctx, t.tx, "WHERE b.room_id = ?", t.room.ID)
}

func (t *roomTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO bookings (room_id, user_id, check_in, check_out, status, price, created_at) VALUES (?,?,?,?,?,?,?)",
		b.RoomID, b.UserID,
		b.CheckIn.Format(booking.DateLayout), b.CheckOut.Format(booking.DateLayout),
		b.Status.String(), b.Price.StringFixed(2), b.CreatedAt)
	if err != nil {
		if isMissingReference(err) {
			return booking.ErrUnknownRequester
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}
