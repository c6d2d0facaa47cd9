package handler

import (
    "time"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/model"
)

// ----- responses -----

// RoomResp is a room as exposed over the API.  Money is a fixed-point
// string so clients never see float rounding.
type RoomResp struct {
    Number      int     `json:"number"`
    RoomType    string  `json:"room_type"`
    NightlyRate string  `json:"nightly_rate"`
    Capacity    int     `json:"capacity"`
    Description *string `json:"description,omitempty"`
}

// OfferResp is a search hit.  Nights and TotalPrice appear only when the
// search carried both dates.
type OfferResp struct {
    RoomResp
    Nights     int     `json:"nights,omitempty"`
    TotalPrice *string `json:"total_price,omitempty"`
}

type BookingResp struct {
    ID         uint64    `json:"id"`
    RoomNumber int       `json:"room_number"`
    UserID     uint64    `json:"user_id"`
    CheckIn    string    `json:"check_in"`
    CheckOut   string    `json:"check_out"`
    Status     string    `json:"status"`
    Price      string    `json:"price"`
    CreatedAt  time.Time `json:"created_at"`
}

func toRoomResp(r model.Room) RoomResp {
    return RoomResp{
        Number:      r.Number,
        RoomType:    r.RoomType,
        NightlyRate: booking.FormatMoney(r.NightlyRate),
        Capacity:    r.Capacity,
        Description: r.Description,
    }
}

func toOfferResp(o booking.RoomOffer) OfferResp {
    out := OfferResp{RoomResp: toRoomResp(o.Room), Nights: o.Nights}
    if o.TotalPrice != nil {
        s := booking.FormatMoney(*o.TotalPrice)
        out.TotalPrice = &s
    }
    return out
}

func toBookingResp(b model.Booking) BookingResp {
    return BookingResp{
        ID:         b.ID,
        RoomNumber: b.RoomNumber,
        UserID:     b.UserID,
        CheckIn:    b.CheckIn.Format(booking.DateLayout),
        CheckOut:   b.CheckOut.Format(booking.DateLayout),
        Status:     b.Status.String(),
        Price:      booking.FormatMoney(b.Price),
        CreatedAt:  b.CreatedAt,
    }
}

func toBookingList(bs []model.Booking) []BookingResp {
    out := make([]BookingResp, 0, len(bs))
    for _, b := range bs {
        out = append(out, toBookingResp(b))
    }
    return out
}
