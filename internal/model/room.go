package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Room is a bookable unit as stored in the `rooms` table.  Rooms are
// addressed by their Number everywhere outside the repository layer;
// ID is the internal primary key used by foreign keys.
//
// Fields:
//  ID          – primary key identifier.
//  Number      – unique, positive room number.
//  RoomType    – name of the room type (e.g. "Standard", "Suite").
//  NightlyRate – price for one night, at least 0.01.
//  Capacity    – number of guests the room accommodates, at least 1.
//  Description – optional free text.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Room struct {
    ID          uint64          // rooms.id
    Number      int             // rooms.number
    RoomType    string          // rooms.room_type
    NightlyRate decimal.Decimal // rooms.nightly_rate
    Capacity    int             // rooms.capacity
    Description *string         // rooms.description (nullable)
    CreatedAt   time.Time       // rooms.created_at
    UpdatedAt   time.Time       // rooms.updated_at
}

// MinNightlyRate is the lowest rate a room may carry.
var MinNightlyRate = decimal.New(1, -2)
