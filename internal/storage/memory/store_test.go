package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/room-reservation/internal/booking"
	"github.com/iliyamo/room-reservation/internal/model"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := New()
	if _, err := s.AddRoom(context.Background(), model.Room{Number: 7, NightlyRate: decimal.NewFromInt(10), Capacity: 1}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAddRoomRejectsDuplicateNumber(t *testing.T) {
	s := seed(t)
	_, err := s.AddRoom(context.Background(), model.Room{Number: 7})
	if !errors.Is(err, ErrDuplicateRoom) {
		t.Fatalf("want ErrDuplicateRoom, got %v", err)
	}
}

func TestInRoomTxDiscardsStagedInsertsOnError(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.InRoomTx(ctx, 7, func(tx booking.RoomTx) error {
		b := &model.Booking{RoomNumber: 7, UserID: 1, CheckIn: time.Now(), CheckOut: time.Now(), Status: model.StatusBooked}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		seen, _ := tx.ListBookingsForRoom(ctx)
		if len(seen) != 1 {
			t.Errorf("staged booking not visible inside tx: %d", len(seen))
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	all, _ := s.ListBookings(ctx)
	if len(all) != 0 {
		t.Fatalf("rolled back insert persisted: %+v", all)
	}
}

func TestInRoomTxUnknownRoom(t *testing.T) {
	s := seed(t)
	err := s.InRoomTx(context.Background(), 8, func(booking.RoomTx) error { return nil })
	if !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateBookingStatusIsConditional(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	var id uint64
	_ = s.InRoomTx(ctx, 7, func(tx booking.RoomTx) error {
		b := &model.Booking{RoomNumber: 7, UserID: 1, Status: model.StatusBooked}
		err := tx.InsertBooking(ctx, b)
		id = b.ID
		return err
	})
	ok, err := s.UpdateBookingStatus(ctx, id, model.StatusBooked, model.StatusCanceled)
	if err != nil || !ok {
		t.Fatalf("first update: %v %v", ok, err)
	}
	ok, err = s.UpdateBookingStatus(ctx, id, model.StatusBooked, model.StatusCanceled)
	if err != nil || ok {
		t.Fatalf("second update should not apply: %v %v", ok, err)
	}
}
