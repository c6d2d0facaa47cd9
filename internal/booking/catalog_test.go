package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/room-reservation/internal/booking"
)

func ptrTime(t time.Time) *time.Time    { return &t }
func ptrDec(s string) *decimal.Decimal { v := decimal.RequireFromString(s); return &v }
func ptrInt(i int) *int                { return &i }

func numbers(offers []booking.RoomOffer) []int {
	out := make([]int, len(offers))
	for i, o := range offers {
		out[i] = o.Room.Number
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func catalogFixture(t *testing.T) fixture {
	return newFixture(t,
		room(103, "100.00", 4),
		room(101, "100.00", 2),
		room(102, "60.00", 3),
		room(104, "150.00", 1),
	)
}

func TestSearchSortsWithRoomNumberTieBreak(t *testing.T) {
	f := catalogFixture(t)
	cases := []struct {
		sort booking.SortKey
		want []int
	}{
		{"", []int{101, 102, 103, 104}},
		{booking.SortNone, []int{101, 102, 103, 104}},
		{booking.SortPriceAsc, []int{102, 101, 103, 104}},
		{booking.SortPriceDesc, []int{104, 101, 103, 102}},
		{booking.SortCapacityAsc, []int{104, 101, 102, 103}},
		{booking.SortCapacityDesc, []int{103, 102, 101, 104}},
	}
	for _, c := range cases {
		got, err := f.catalog.Search(context.Background(), booking.SearchQuery{Sort: c.sort})
		if err != nil {
			t.Fatalf("%q: %v", c.sort, err)
		}
		if !equalInts(numbers(got), c.want) {
			t.Errorf("%q: got %v, want %v", c.sort, numbers(got), c.want)
		}
		for _, o := range got {
			if o.TotalPrice != nil {
				t.Errorf("%q: browse result carries a total price", c.sort)
			}
		}
	}
}

func TestSearchFilters(t *testing.T) {
	f := catalogFixture(t)
	got, err := f.catalog.Search(context.Background(), booking.SearchQuery{
		MinPrice:    ptrDec("60"),
		MaxPrice:    ptrDec("100"),
		MinCapacity: ptrInt(3),
		Sort:        booking.SortPriceAsc,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !equalInts(numbers(got), []int{102, 103}) {
		t.Fatalf("got %v", numbers(got))
	}
}

func TestSearchExcludesBookedRoomsAndPricesStay(t *testing.T) {
	f := catalogFixture(t)
	ctx := context.Background()
	if _, err := f.manager.CreateBooking(ctx, 1, 101, date("2025-06-10"), date("2025-06-12")); err != nil {
		t.Fatal(err)
	}
	got, err := f.catalog.Search(ctx, booking.SearchQuery{
		CheckIn:  ptrTime(date("2025-06-11")),
		CheckOut: ptrTime(date("2025-06-14")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !equalInts(numbers(got), []int{102, 103, 104}) {
		t.Fatalf("got %v", numbers(got))
	}
	if got[0].Nights != 3 || got[0].TotalPrice == nil || booking.FormatMoney(*got[0].TotalPrice) != "180.00" {
		t.Fatalf("offer = %+v", got[0])
	}

	// Back-to-back with the existing stay: room 101 is offered again.
	got, err = f.catalog.Search(ctx, booking.SearchQuery{
		CheckIn:  ptrTime(date("2025-06-12")),
		CheckOut: ptrTime(date("2025-06-13")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !equalInts(numbers(got), []int{101, 102, 103, 104}) {
		t.Fatalf("got %v", numbers(got))
	}
}

func TestSearchValidation(t *testing.T) {
	f := catalogFixture(t)
	cases := []struct {
		name string
		q    booking.SearchQuery
		want error
	}{
		{"max below min", booking.SearchQuery{MinPrice: ptrDec("100"), MaxPrice: ptrDec("50")}, booking.ErrValidation},
		{"negative min", booking.SearchQuery{MinPrice: ptrDec("-1")}, booking.ErrValidation},
		{"zero capacity", booking.SearchQuery{MinCapacity: ptrInt(0)}, booking.ErrValidation},
		{"unknown sort", booking.SearchQuery{Sort: "cheapest"}, booking.ErrValidation},
		{"inverted range", booking.SearchQuery{CheckIn: ptrTime(date("2025-06-10")), CheckOut: ptrTime(date("2025-06-09"))}, booking.ErrInvalidRange},
		{"past range", booking.SearchQuery{CheckIn: ptrTime(date("2025-05-10")), CheckOut: ptrTime(date("2025-05-12"))}, booking.ErrPastDate},
	}
	for _, c := range cases {
		_, err := f.catalog.Search(context.Background(), c.q)
		if !errors.Is(err, c.want) {
			t.Errorf("%s: got %v, want %v", c.name, err, c.want)
		}
	}
}

func TestSearchIgnoresHalfRange(t *testing.T) {
	f := catalogFixture(t)
	got, err := f.catalog.Search(context.Background(), booking.SearchQuery{CheckIn: ptrTime(date("2025-06-10"))})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 || got[0].TotalPrice != nil {
		t.Fatalf("got %+v", got)
	}
}

func TestParseSortKey(t *testing.T) {
	k, err := booking.ParseSortKey("PRICE_DESC")
	if err != nil || k != booking.SortPriceDesc {
		t.Fatalf("got %q %v", k, err)
	}
	if _, err := booking.ParseSortKey("rating"); booking.Field(err) != "sort_by" {
		t.Fatalf("field = %q", booking.Field(err))
	}
}
