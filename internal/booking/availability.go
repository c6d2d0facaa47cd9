package booking

import "github.com/iliyamo/room-reservation/internal/model"

// IsAvailable reports whether room is free for every night of want,
// given the room's existing bookings.  Bookings of other rooms and
// bookings that no longer hold the room are ignored.
func IsAvailable(room model.Room, want DateRange, existing []model.Booking) bool {
	for _, b := range existing {
		if b.RoomNumber != room.Number {
			continue
		}
		if !b.Status.HoldsRoom() {
			continue
		}
		if Overlaps(want, rangeOf(b.CheckIn, b.CheckOut)) {
			return false
		}
	}
	return true
}
