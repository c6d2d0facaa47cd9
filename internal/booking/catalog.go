package booking

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/room-reservation/internal/model"
)

// SortKey orders catalog results.
type SortKey string

const (
	SortNone         SortKey = "none"
	SortPriceAsc     SortKey = "price_asc"
	SortPriceDesc    SortKey = "price_desc"
	SortCapacityAsc  SortKey = "capacity_asc"
	SortCapacityDesc SortKey = "capacity_desc"
)

// ParseSortKey accepts the wire names above; "" means SortNone.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "", SortNone:
		return SortNone, nil
	case SortPriceAsc, SortPriceDesc, SortCapacityAsc, SortCapacityDesc:
		return k, nil
	}
	return "", newError(ErrValidation, "sort_by", fmt.Sprintf("unknown sort key %q", s))
}

// SearchQuery filters the catalog.  Nil fields are not applied.  The
// dates only take effect when both are set.
type SearchQuery struct {
	CheckIn     *time.Time
	CheckOut    *time.Time
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	MinCapacity *int
	Sort        SortKey
}

// RoomOffer is one search hit.  Nights and TotalPrice are only set when
// the query carried both dates.
type RoomOffer struct {
	Room       model.Room
	Nights     int
	TotalPrice *decimal.Decimal
}

// Catalog answers read-only questions about rooms.
type Catalog struct {
	store Store
	clock Clock
}

func NewCatalog(store Store, clock Clock) *Catalog {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Catalog{store: store, clock: clock}
}

// Room looks up a single room by number.
func (c *Catalog) Room(ctx context.Context, number int) (*model.Room, error) {
	return c.store.FindRoomByNumber(ctx, number)
}

// Search validates q, then filters rooms by price and capacity, then by
// availability when a date range is given, then sorts.  Equal sort keys
// keep room number order.
func (c *Catalog) Search(ctx context.Context, q SearchQuery) ([]RoomOffer, error) {
	rng, hasRange, err := c.validate(q)
	if err != nil {
		return nil, err
	}
	rooms, err := c.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	offers := make([]RoomOffer, 0, len(rooms))
	for _, room := range rooms {
		if !matches(room, q) {
			continue
		}
		offer := RoomOffer{Room: room}
		if hasRange {
			existing, err := c.store.ListBookingsForRoom(ctx, room.Number)
			if err != nil {
				return nil, fmt.Errorf("list bookings for room %d: %w", room.Number, err)
			}
			if !IsAvailable(room, rng, existing) {
				continue
			}
			total := Price(room.NightlyRate, rng.Start(), rng.End())
			offer.Nights = rng.Nights()
			offer.TotalPrice = &total
		}
		offers = append(offers, offer)
	}
	sortOffers(offers, q.Sort)
	return offers, nil
}

func (c *Catalog) validate(q SearchQuery) (DateRange, bool, error) {
	if q.MinPrice != nil && q.MinPrice.IsNegative() {
		return DateRange{}, false, newError(ErrValidation, "min_price", "must not be negative")
	}
	if q.MaxPrice != nil && q.MaxPrice.IsNegative() {
		return DateRange{}, false, newError(ErrValidation, "max_price", "must not be negative")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MaxPrice.LessThan(*q.MinPrice) {
		return DateRange{}, false, newError(ErrValidation, "max_price", "must not be below min_price")
	}
	if q.MinCapacity != nil && *q.MinCapacity < 1 {
		return DateRange{}, false, newError(ErrValidation, "capacity", "must be at least 1")
	}
	if _, err := ParseSortKey(string(q.Sort)); err != nil {
		return DateRange{}, false, err
	}
	if q.CheckIn == nil || q.CheckOut == nil {
		return DateRange{}, false, nil
	}
	rng, err := NewDateRange(*q.CheckIn, *q.CheckOut)
	if err != nil {
		return DateRange{}, false, err
	}
	if err := checkNotPast(rng, Date(c.clock.Now().UTC())); err != nil {
		return DateRange{}, false, err
	}
	return rng, true, nil
}

func matches(room model.Room, q SearchQuery) bool {
	if q.MinPrice != nil && room.NightlyRate.LessThan(*q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && room.NightlyRate.GreaterThan(*q.MaxPrice) {
		return false
	}
	if q.MinCapacity != nil && room.Capacity < *q.MinCapacity {
		return false
	}
	return true
}

func sortOffers(offers []RoomOffer, key SortKey) {
	byNumber := func(a, b RoomOffer) int { return cmp.Compare(a.Room.Number, b.Room.Number) }
	var primary func(a, b RoomOffer) int
	switch key {
	case SortPriceAsc:
		primary = func(a, b RoomOffer) int { return a.Room.NightlyRate.Cmp(b.Room.NightlyRate) }
	case SortPriceDesc:
		primary = func(a, b RoomOffer) int { return b.Room.NightlyRate.Cmp(a.Room.NightlyRate) }
	case SortCapacityAsc:
		primary = func(a, b RoomOffer) int { return cmp.Compare(a.Room.Capacity, b.Room.Capacity) }
	case SortCapacityDesc:
		primary = func(a, b RoomOffer) int { return cmp.Compare(b.Room.Capacity, a.Room.Capacity) }
	default:
		primary = func(RoomOffer, RoomOffer) int { return 0 }
	}
	slices.SortStableFunc(offers, func(a, b RoomOffer) int {
		if c := primary(a, b); c != 0 {
			return c
		}
		return byNumber(a, b)
	})
}
