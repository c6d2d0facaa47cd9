package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"
    "go.uber.org/zap"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/model"
)

// RoomWriter is implemented by both the MySQL room repository and the
// in-memory store.
type RoomWriter interface {
    CreateRoom(ctx context.Context, room *model.Room) error
    UpdateRoom(ctx context.Context, room *model.Room) error
}

// RoomHandler serves the public catalog and the admin room endpoints.
type RoomHandler struct {
    Catalog *booking.Catalog
    Rooms   RoomWriter
    Log     *zap.Logger
}

func NewRoomHandler(catalog *booking.Catalog, rooms RoomWriter, log *zap.Logger) *RoomHandler {
    if catalog == nil || rooms == nil {
        panic("nil dependency passed to NewRoomHandler")
    }
    return &RoomHandler{Catalog: catalog, Rooms: rooms, Log: log}
}

// SearchRooms handles GET /v1/rooms.  Query parameters: checkin, checkout
// (YYYY-MM-DD, both needed to filter by availability), min_price,
// max_price, capacity and sort_by (price_asc, price_desc, capacity_asc,
// capacity_desc).
func (h *RoomHandler) SearchRooms(c echo.Context) error {
    var q booking.SearchQuery

    for _, p := range []struct {
        name string
        dst  **time.Time
    }{{"checkin", &q.CheckIn}, {"checkout", &q.CheckOut}} {
        raw := strings.TrimSpace(c.QueryParam(p.name))
        if raw == "" {
            continue
        }
        d, err := booking.ParseDate(raw)
        if err != nil {
            return invalidDate(c, p.name)
        }
        *p.dst = &d
    }

    for _, p := range []struct {
        name string
        dst  **decimal.Decimal
    }{{"min_price", &q.MinPrice}, {"max_price", &q.MaxPrice}} {
        raw := strings.TrimSpace(c.QueryParam(p.name))
        if raw == "" {
            continue
        }
        d, err := decimal.NewFromString(raw)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid number", "field": p.name})
        }
        *p.dst = &d
    }

    if raw := strings.TrimSpace(c.QueryParam("capacity")); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid number", "field": "capacity"})
        }
        q.MinCapacity = &n
    }

    key, err := booking.ParseSortKey(c.QueryParam("sort_by"))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    q.Sort = key

    offers, err := h.Catalog.Search(c.Request().Context(), q)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    data := make([]OfferResp, 0, len(offers))
    for _, o := range offers {
        data = append(data, toOfferResp(o))
    }
    return c.JSON(http.StatusOK, echo.Map{"data": data, "total": len(data)})
}

// GetRoom handles GET /v1/rooms/:number.
func (h *RoomHandler) GetRoom(c echo.Context) error {
    number, ok := parseRoomNumber(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room number"})
    }
    room, err := h.Catalog.Room(c.Request().Context(), number)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toRoomResp(*room))
}

type roomReq struct {
    Number      int     `json:"number" validate:"required,gt=0"`
    RoomType    string  `json:"room_type" validate:"required,max=64"`
    NightlyRate string  `json:"nightly_rate" validate:"required,numeric"`
    Capacity    int     `json:"capacity" validate:"required,gte=1"`
    Description *string `json:"description" validate:"omitempty,max=1000"`
}

// toRoom converts the request, enforcing the minimum nightly rate.
func (r roomReq) toRoom() (model.Room, bool) {
    rate, err := decimal.NewFromString(r.NightlyRate)
    if err != nil || rate.LessThan(model.MinNightlyRate) {
        return model.Room{}, false
    }
    return model.Room{
        Number:      r.Number,
        RoomType:    strings.TrimSpace(r.RoomType),
        NightlyRate: rate.Round(2),
        Capacity:    r.Capacity,
        Description: r.Description,
    }, true
}

// CreateRoom handles POST /v1/admin/rooms.
func (h *RoomHandler) CreateRoom(c echo.Context) error {
    var req roomReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    room, ok := req.toRoom()
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "nightly_rate must be at least 0.01", "field": "nightly_rate"})
    }
    now := time.Now().UTC()
    room.CreatedAt, room.UpdatedAt = now, now
    if err := h.Rooms.CreateRoom(c.Request().Context(), &room); err != nil {
        return writeError(c, h.Log, err)
    }
    h.Log.Info("room created", zap.Int("room", room.Number))
    return c.JSON(http.StatusCreated, toRoomResp(room))
}

// UpdateRoom handles PUT /v1/admin/rooms/:number.  The number in the path
// wins over any number in the body; existing bookings keep their price.
func (h *RoomHandler) UpdateRoom(c echo.Context) error {
    number, ok := parseRoomNumber(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room number"})
    }
    var req roomReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Number = number
    if err := c.Validate(&req); err != nil {
        return validationFailed(c, err)
    }
    room, ok := req.toRoom()
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "nightly_rate must be at least 0.01", "field": "nightly_rate"})
    }
    room.UpdatedAt = time.Now().UTC()
    ctx := c.Request().Context()
    if err := h.Rooms.UpdateRoom(ctx, &room); err != nil {
        return writeError(c, h.Log, err)
    }
    stored, err := h.Catalog.Room(ctx, number)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    h.Log.Info("room updated", zap.Int("room", number))
    return c.JSON(http.StatusOK, toRoomResp(*stored))
}
