// Package memory is an in-process booking.Store used by the tests of the
// booking rules, the HTTP handlers and the chat bot.  Each room has its
// own mutex; InRoomTx holds it for the whole callback and stages inserts
// until the callback succeeds.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iliyamo/room-reservation/internal/booking"
	"github.com/iliyamo/room-reservation/internal/model"
)

// ErrDuplicateRoom is returned by AddRoom for a number already in use.
var ErrDuplicateRoom = booking.ErrRoomExists

type Store struct {
	mu            sync.RWMutex
	rooms         map[int]*model.Room
	bookings      map[uint64]*model.Booking
	order         []uint64
	roomLocks     map[int]*sync.Mutex
	nextRoomID    uint64
	nextBookingID uint64
}

func New() *Store {
	return &Store{
		rooms:     make(map[int]*model.Room),
		bookings:  make(map[uint64]*model.Booking),
		roomLocks: make(map[int]*sync.Mutex),
	}
}

// AddRoom stores a new room and returns it with its assigned ID.
func (s *Store) AddRoom(_ context.Context, room model.Room) (model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Number]; ok {
		return model.Room{}, fmt.Errorf("room %d: %w", room.Number, ErrDuplicateRoom)
	}
	s.nextRoomID++
	room.ID = s.nextRoomID
	stored := room
	s.rooms[room.Number] = &stored
	return room, nil
}

// CreateRoom is AddRoom with the signature of the MySQL room repository.
func (s *Store) CreateRoom(ctx context.Context, room *model.Room) error {
	stored, err := s.AddRoom(ctx, *room)
	if err != nil {
		return err
	}
	*room = stored
	return nil
}

// UpdateRoom replaces the mutable fields of the room with room.Number and
// writes the stored result back into room.
func (s *Store) UpdateRoom(_ context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rooms[room.Number]
	if !ok {
		return fmt.Errorf("room %d: %w", room.Number, booking.ErrNotFound)
	}
	cur.RoomType = room.RoomType
	cur.NightlyRate = room.NightlyRate
	cur.Capacity = room.Capacity
	cur.Description = room.Description
	cur.UpdatedAt = room.UpdatedAt
	*room = *cur
	return nil
}

func (s *Store) FindRoomByNumber(_ context.Context, number int) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[number]
	if !ok {
		return nil, fmt.Errorf("room %d: %w", number, booking.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListRooms(_ context.Context) ([]model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) FindBooking(_ context.Context, id uint64) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %d: %w", id, booking.ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (s *Store) ListBookingsForRoom(_ context.Context, roomNumber int) ([]model.Booking, error) {
	return s.collect(func(b *model.Booking) bool { return b.RoomNumber == roomNumber }), nil
}

func (s *Store) ListBookingsByRequester(_ context.Context, userID uint64) ([]model.Booking, error) {
	return s.collect(func(b *model.Booking) bool { return b.UserID == userID }), nil
}

func (s *Store) ListBookings(_ context.Context) ([]model.Booking, error) {
	return s.collect(func(*model.Booking) bool { return true }), nil
}

// collect returns copies of matching bookings in insertion order.
func (s *Store) collect(keep func(*model.Booking) bool) []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Booking, 0)
	for _, id := range s.order {
		if b := s.bookings[id]; keep(b) {
			out = append(out, *b)
		}
	}
	return out
}

func (s *Store) UpdateBookingStatus(_ context.Context, id uint64, from, to model.BookingStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return false, fmt.Errorf("booking %d: %w", id, booking.ErrNotFound)
	}
	if b.Status != from {
		return false, nil
	}
	b.Status = to
	return true, nil
}

func (s *Store) roomLock(number int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.roomLocks[number]
	if !ok {
		l = &sync.Mutex{}
		s.roomLocks[number] = l
	}
	return l
}

func (s *Store) InRoomTx(ctx context.Context, roomNumber int, fn func(booking.RoomTx) error) error {
	lock := s.roomLock(roomNumber)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	room, err := s.FindRoomByNumber(ctx, roomNumber)
	if err != nil {
		return err
	}
	tx := &roomTx{store: s, room: *room}
	if err := fn(tx); err != nil {
		return err
	}
	s.commit(tx.staged)
	return nil
}

func (s *Store) commit(staged []*model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range staged {
		cp := *b
		s.bookings[b.ID] = &cp
		s.order = append(s.order, b.ID)
	}
}

type roomTx struct {
	store  *Store
	room   model.Room
	staged []*model.Booking
}

func (t *roomTx) Room() model.Room { return t.room }

func (t *roomTx) ListBookingsForRoom(ctx context.Context) ([]model.Booking, error) {
	out, err := t.store.ListBookingsForRoom(ctx, t.room.Number)
	if err != nil {
		return nil, err
	}
	for _, b := range t.staged {
		out = append(out, *b)
	}
	return out, nil
}

// InsertBooking assigns the booking an ID and stages it for commit.
func (t *roomTx) InsertBooking(_ context.Context, b *model.Booking) error {
	t.store.mu.Lock()
	t.store.nextBookingID++
	b.ID = t.store.nextBookingID
	t.store.mu.Unlock()
	t.staged = append(t.staged, b)
	return nil
}
