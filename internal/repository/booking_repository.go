package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/room-reservation/internal/booking"
	"github.com/iliyamo/room-reservation/internal/model"
)

// BookingRepo reads bookings and applies status transitions.  Inserts
// only happen through Store.InRoomTx.
type BookingRepo struct{ db *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const selectBookings = `SELECT b.id, b.room_id, r.number, b.user_id, b.check_in, b.check_out, b.status, b.price, b.created_at
FROM bookings b JOIN rooms r ON r.id = b.room_id`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b      model.Booking
		status string
	)
	if err := row.Scan(&b.ID, &b.RoomID, &b.RoomNumber, &b.UserID, &b.CheckIn, &b.CheckOut, &status, &b.Price, &b.CreatedAt); err != nil {
		return nil, err
	}
	st, err := model.ParseBookingStatus(status)
	if err != nil {
		return nil, err
	}
	b.Status = st
	b.CheckIn = booking.Date(b.CheckIn)
	b.CheckOut = booking.Date(b.CheckOut)
	return &b, nil
}

func queryBookings(ctx context.Context, q queryer, where string, args ...any) ([]model.Booking, error) {
	rows, err := q.QueryContext(ctx, selectBookings+" "+where+" ORDER BY b.id", args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *BookingRepo) FindBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, selectBookings+" WHERE b.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, booking.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find booking %d: %w", id, err)
	}
	return b, nil
}

func (r *BookingRepo) ListBookingsForRoom(ctx context.Context, roomNumber int) ([]model.Booking, error) {
	return queryBookings(ctx, r.db, "WHERE r.number = ?", roomNumber)
}

// ListBookingsByRequester returns the user's bookings oldest first.
func (r *BookingRepo) ListBookingsByRequester(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return queryBookings(ctx, r.db, "WHERE b.user_id = ?", userID)
}

func (r *BookingRepo) ListBookings(ctx context.Context) ([]model.Booking, error) {
	return queryBookings(ctx, r.db, "")
}

// UpdateBookingStatus is a single conditional UPDATE, so concurrent
// cancels of the same booking apply at most once.
func (r *BookingRepo) UpdateBookingStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status = ? WHERE id = ? AND status = ?",
		to.String(), id, from.String())
	if err != nil {
		return false, fmt.Errorf("update booking %d status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	// Distinguish a missing booking from one in another state.
	if _, err := r.FindBooking(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
