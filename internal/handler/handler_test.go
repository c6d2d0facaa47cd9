package handler_test

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strconv"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"
    "go.uber.org/zap"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/chatbot"
    "github.com/iliyamo/room-reservation/internal/config"
    "github.com/iliyamo/room-reservation/internal/handler"
    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/queue"
    "github.com/iliyamo/room-reservation/internal/repository"
    "github.com/iliyamo/room-reservation/internal/router"
    "github.com/iliyamo/room-reservation/internal/storage/memory"
    "github.com/iliyamo/room-reservation/internal/utils"
)

const secret = "test-secret"

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type events struct {
    mu  sync.Mutex
    got []queue.BookingEvent
}

func (p *events) Publish(_ context.Context, ev queue.BookingEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.got = append(p.got, ev)
    return nil
}

func (p *events) types() []string {
    p.mu.Lock()
    defer p.mu.Unlock()
    out := make([]string, 0, len(p.got))
    for _, ev := range p.got {
        out = append(out, ev.Type)
    }
    return out
}

// ----- auth fakes -----

type fakeUsers struct {
    mu     sync.Mutex
    byMail map[string]model.User
    pw     map[string]string
}

func (f *fakeUsers) Create(_ context.Context, email, password, role string, _ int) (uint64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.byMail[email]; ok {
        return 0, repository.ErrEmailExists
    }
    u := model.User{ID: uint64(len(f.byMail) + 100), Email: email, Role: role, IsActive: true}
    f.byMail[email] = u
    f.pw[email] = password
    return u.ID, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, u := range f.byMail {
        if u.ID == id {
            return u, nil
        }
    }
    return model.User{}, booking.ErrNotFound
}

func (f *fakeUsers) Authenticate(_ context.Context, email, password string) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.byMail[strings.ToLower(email)]
    if !ok || f.pw[u.Email] != password {
        return model.User{}, repository.ErrInvalidCredentials
    }
    return u, nil
}

type fakeTokens struct {
    mu     sync.Mutex
    active map[string]uint64
}

func (f *fakeTokens) StoreRefresh(_ context.Context, uid uint64, hash string, _ time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.active[hash] = uid
    return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    uid, ok := f.active[hash]
    if !ok {
        return 0, repository.ErrTokenInvalid
    }
    return uid, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    delete(f.active, hash)
    return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, uid uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for h, u := range f.active {
        if u == uid {
            delete(f.active, h)
        }
    }
    return nil
}

// ----- server -----

type server struct {
    e      *echo.Echo
    store  *memory.Store
    events *events
}

func newServer(t *testing.T) server {
    t.Helper()
    log := zap.NewNop()
    store := memory.New()
    for _, r := range []model.Room{
        {Number: 101, RoomType: "Standard", NightlyRate: decimal.RequireFromString("80.00"), Capacity: 2},
        {Number: 102, RoomType: "Standard", NightlyRate: decimal.RequireFromString("80.00"), Capacity: 3},
        {Number: 301, RoomType: "Suite", NightlyRate: decimal.RequireFromString("210.50"), Capacity: 4},
    } {
        if _, err := store.AddRoom(context.Background(), r); err != nil {
            t.Fatal(err)
        }
    }
    clock := booking.ClockFunc(func() time.Time { return now })
    mgr := booking.NewManager(store, clock, log)
    catalog := booking.NewCatalog(store, clock)
    ev := &events{}

    cfg := config.Config{JWTSecret: secret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}
    users := &fakeUsers{byMail: map[string]model.User{}, pw: map[string]string{}}
    tokens := &fakeTokens{active: map[string]uint64{}}
    bot := chatbot.New(mgr, catalog, nil, nil, chatbot.NewMemorySessionStore(time.Minute), ev, log)

    e := echo.New()
    e.Validator = handler.NewValidator()
    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, log), secret)
    router.RegisterRooms(e, handler.NewRoomHandler(catalog, store, log), secret)
    router.RegisterBookings(e, handler.NewBookingHandler(mgr, ev, log), secret)
    router.RegisterChat(e, handler.NewChatHandler(bot, log), "gw-token")
    return server{e: e, store: store, events: ev}
}

func bearer(t *testing.T, uid uint64, role string) string {
    t.Helper()
    tok, err := utils.NewAccessToken(secret, uid, role, 5)
    if err != nil {
        t.Fatal(err)
    }
    return "Bearer " + tok.Token
}

func (s server) do(t *testing.T, method, path, auth, body string) (*httptest.ResponseRecorder, map[string]any) {
    t.Helper()
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    if auth != "" {
        req.Header.Set("Authorization", auth)
    }
    rec := httptest.NewRecorder()
    s.e.ServeHTTP(rec, req)
    var out map[string]any
    _ = json.Unmarshal(rec.Body.Bytes(), &out)
    return rec, out
}

func TestHealth(t *testing.T) {
    s := newServer(t)
    rec, _ := s.do(t, http.MethodGet, "/healthz", "", "")
    if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
        t.Fatalf("got %d %q", rec.Code, rec.Body.String())
    }
}

func TestSearchRooms(t *testing.T) {
    s := newServer(t)

    rec, body := s.do(t, http.MethodGet, "/v1/rooms?checkin=2025-07-01&checkout=2025-07-03&sort_by=price_desc", "", "")
    if rec.Code != http.StatusOK {
        t.Fatalf("status %d: %s", rec.Code, rec.Body)
    }
    data := body["data"].([]any)
    first := data[0].(map[string]any)
    if len(data) != 3 || first["number"].(float64) != 301 || first["total_price"] != "421.00" || first["nightly_rate"] != "210.50" {
        t.Fatalf("data = %v", data)
    }

    rec, body = s.do(t, http.MethodGet, "/v1/rooms?capacity=3&max_price=100", "", "")
    if data := body["data"].([]any); rec.Code != http.StatusOK || len(data) != 1 {
        t.Fatalf("filtered = %s", rec.Body)
    }

    cases := []struct {
        query, wantErr, wantField string
    }{
        {"checkin=07/01/2025&checkout=2025-07-03", "invalid date format", "checkin"},
        {"sort_by=random", "", "sort_by"},
        {"min_price=-1", "", "min_price"},
        {"min_price=abc", "invalid number", "min_price"},
        {"checkin=2025-07-03&checkout=2025-07-03", "", "check_out"},
        {"checkin=2025-05-01&checkout=2025-05-03", "", "check_in"},
    }
    for _, tc := range cases {
        rec, body := s.do(t, http.MethodGet, "/v1/rooms?"+tc.query, "", "")
        if rec.Code != http.StatusBadRequest {
            t.Fatalf("%s: status %d", tc.query, rec.Code)
        }
        if tc.wantErr != "" && body["error"] != tc.wantErr {
            t.Fatalf("%s: error %v", tc.query, body["error"])
        }
        if body["field"] != tc.wantField {
            t.Fatalf("%s: field %v", tc.query, body["field"])
        }
    }
}

func TestGetRoom(t *testing.T) {
    s := newServer(t)
    rec, body := s.do(t, http.MethodGet, "/v1/rooms/301", "", "")
    if rec.Code != http.StatusOK || body["room_type"] != "Suite" {
        t.Fatalf("got %d %v", rec.Code, body)
    }
    rec, _ = s.do(t, http.MethodGet, "/v1/rooms/999", "", "")
    if rec.Code != http.StatusNotFound {
        t.Fatalf("missing room: %d", rec.Code)
    }
    rec, _ = s.do(t, http.MethodGet, "/v1/rooms/abc", "", "")
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("bad number: %d", rec.Code)
    }
}

func TestCreateBooking(t *testing.T) {
    s := newServer(t)
    alice := bearer(t, 7, model.RoleCustomer)

    rec, body := s.do(t, http.MethodPost, "/v1/bookings", alice,
        `{"room_number":101,"check_in":"2025-07-01","check_out":"2025-07-04"}`)
    if rec.Code != http.StatusCreated {
        t.Fatalf("status %d: %s", rec.Code, rec.Body)
    }
    if body["price"] != "240.00" || body["status"] != "BOOKED" || body["user_id"].(float64) != 7 {
        t.Fatalf("body = %v", body)
    }

    // turnover day is free, overlap is not
    rec, _ = s.do(t, http.MethodPost, "/v1/bookings", alice,
        `{"room_number":101,"check_in":"2025-07-04","check_out":"2025-07-05"}`)
    if rec.Code != http.StatusCreated {
        t.Fatalf("turnover: %d %s", rec.Code, rec.Body)
    }
    rec, body = s.do(t, http.MethodPost, "/v1/bookings", bearer(t, 8, model.RoleCustomer),
        `{"room_number":101,"check_in":"2025-07-03","check_out":"2025-07-06"}`)
    if rec.Code != http.StatusConflict {
        t.Fatalf("overlap: %d %v", rec.Code, body)
    }

    for _, tc := range []struct {
        body string
        want int
        msg  string
    }{
        {`{"room_number":101,"check_in":"2025/07/10","check_out":"2025-07-12"}`, http.StatusBadRequest, "invalid date format"},
        {`{"room_number":101,"check_in":"2025-05-10","check_out":"2025-05-12"}`, http.StatusBadRequest, ""},
        {`{"room_number":101,"check_in":"2025-07-12","check_out":"2025-07-12"}`, http.StatusBadRequest, ""},
        {`{"room_number":999,"check_in":"2025-07-10","check_out":"2025-07-12"}`, http.StatusNotFound, ""},
        {`{"check_in":"2025-07-10","check_out":"2025-07-12"}`, http.StatusBadRequest, ""},
    } {
        rec, body := s.do(t, http.MethodPost, "/v1/bookings", alice, tc.body)
        if rec.Code != tc.want {
            t.Fatalf("%s: status %d", tc.body, rec.Code)
        }
        if tc.msg != "" && body["error"] != tc.msg {
            t.Fatalf("%s: error %v", tc.body, body["error"])
        }
    }

    if got := s.events.types(); len(got) != 2 || got[0] != queue.TypeBookingCreated {
        t.Fatalf("events = %v", got)
    }
}

func TestBookingsRequireAuth(t *testing.T) {
    s := newServer(t)
    rec, _ := s.do(t, http.MethodGet, "/v1/bookings", "", "")
    if rec.Code != http.StatusUnauthorized {
        t.Fatalf("status %d", rec.Code)
    }
    rec, _ = s.do(t, http.MethodGet, "/v1/bookings", "Bearer nonsense", "")
    if rec.Code != http.StatusUnauthorized {
        t.Fatalf("status %d", rec.Code)
    }
}

func TestCancelBooking(t *testing.T) {
    s := newServer(t)
    alice := bearer(t, 7, model.RoleCustomer)
    bob := bearer(t, 8, model.RoleCustomer)

    _, created := s.do(t, http.MethodPost, "/v1/bookings", alice,
        `{"room_number":102,"check_in":"2025-07-01","check_out":"2025-07-02"}`)
    path := "/v1/bookings/" + jsonID(created)

    if rec, _ := s.do(t, http.MethodGet, path, bob, ""); rec.Code != http.StatusForbidden {
        t.Fatalf("bob read: %d", rec.Code)
    }
    if rec, _ := s.do(t, http.MethodPatch, path+"/cancel", bob, ""); rec.Code != http.StatusForbidden {
        t.Fatalf("bob cancel: %d", rec.Code)
    }

    rec, body := s.do(t, http.MethodPatch, path+"/cancel", alice, "")
    if rec.Code != http.StatusOK || body["status"] != "CANCELED" {
        t.Fatalf("cancel: %d %v", rec.Code, body)
    }
    rec, body = s.do(t, http.MethodPatch, path+"/cancel", alice, "")
    if rec.Code != http.StatusOK || body["status"] != "CANCELED" {
        t.Fatalf("second cancel: %d %v", rec.Code, body)
    }
    if got := s.events.types(); len(got) != 2 || got[1] != queue.TypeBookingCanceled {
        t.Fatalf("events = %v", got)
    }

    _, list := s.do(t, http.MethodGet, "/v1/bookings", alice, "")
    if data := list["data"].([]any); len(data) != 0 {
        t.Fatalf("active after cancel = %v", data)
    }

    // the room is free again
    rec, _ = s.do(t, http.MethodPost, "/v1/bookings", bob,
        `{"room_number":102,"check_in":"2025-07-01","check_out":"2025-07-02"}`)
    if rec.Code != http.StatusCreated {
        t.Fatalf("rebook: %d", rec.Code)
    }

    if rec, _ := s.do(t, http.MethodGet, "/v1/bookings/12345", alice, ""); rec.Code != http.StatusNotFound {
        t.Fatalf("missing booking: %d", rec.Code)
    }
}

func TestAdminEndpoints(t *testing.T) {
    s := newServer(t)
    alice := bearer(t, 7, model.RoleCustomer)
    admin := bearer(t, 1, model.RoleAdmin)

    if rec, _ := s.do(t, http.MethodGet, "/v1/admin/bookings", alice, ""); rec.Code != http.StatusForbidden {
        t.Fatalf("customer admin list: %d", rec.Code)
    }
    if rec, _ := s.do(t, http.MethodPost, "/v1/admin/rooms", alice, `{}`); rec.Code != http.StatusForbidden {
        t.Fatalf("customer create room: %d", rec.Code)
    }

    rec, body := s.do(t, http.MethodPost, "/v1/admin/rooms", admin,
        `{"number":401,"room_type":"Loft","nightly_rate":"99.5","capacity":2}`)
    if rec.Code != http.StatusCreated || body["nightly_rate"] != "99.50" {
        t.Fatalf("create room: %d %v", rec.Code, body)
    }
    rec, body = s.do(t, http.MethodPost, "/v1/admin/rooms", admin,
        `{"number":401,"room_type":"Loft","nightly_rate":"99.5","capacity":2}`)
    if rec.Code != http.StatusConflict || body["field"] != "number" {
        t.Fatalf("duplicate room: %d %v", rec.Code, body)
    }
    rec, _ = s.do(t, http.MethodPost, "/v1/admin/rooms", admin,
        `{"number":402,"room_type":"Loft","nightly_rate":"0","capacity":2}`)
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("zero rate: %d", rec.Code)
    }
    rec, body = s.do(t, http.MethodPut, "/v1/admin/rooms/401", admin,
        `{"room_type":"Loft","nightly_rate":"120","capacity":3}`)
    if rec.Code != http.StatusOK || body["nightly_rate"] != "120.00" || body["capacity"].(float64) != 3 {
        t.Fatalf("update room: %d %v", rec.Code, body)
    }
    if rec, _ := s.do(t, http.MethodPut, "/v1/admin/rooms/999", admin,
        `{"room_type":"Loft","nightly_rate":"120","capacity":3}`); rec.Code != http.StatusNotFound {
        t.Fatalf("update missing room: %d", rec.Code)
    }

    // admins book on behalf of a user; customers cannot
    rec, body = s.do(t, http.MethodPost, "/v1/bookings", admin,
        `{"room_number":401,"check_in":"2025-07-01","check_out":"2025-07-03","user_id":7}`)
    if rec.Code != http.StatusCreated || body["user_id"].(float64) != 7 || body["price"] != "240.00" {
        t.Fatalf("admin booking: %d %v", rec.Code, body)
    }
    rec, body = s.do(t, http.MethodPost, "/v1/bookings", alice,
        `{"room_number":301,"check_in":"2025-07-01","check_out":"2025-07-03","user_id":99}`)
    if rec.Code != http.StatusCreated || body["user_id"].(float64) != 7 {
        t.Fatalf("customer user_id must be ignored: %d %v", rec.Code, body)
    }
    id := jsonID(body)

    rec, body = s.do(t, http.MethodGet, "/v1/admin/bookings", admin, "")
    if rec.Code != http.StatusOK || body["total"].(float64) != 2 {
        t.Fatalf("admin list: %d %v", rec.Code, body)
    }
    rec, body = s.do(t, http.MethodDelete, "/v1/admin/bookings/"+id, admin, "")
    if rec.Code != http.StatusOK || body["status"] != "CANCELED" {
        t.Fatalf("admin cancel: %d %v", rec.Code, body)
    }
    // the row is kept
    if _, err := s.store.FindBooking(context.Background(), 2); err != nil {
        t.Fatalf("booking row gone: %v", err)
    }
}

func TestAuthFlow(t *testing.T) {
    s := newServer(t)

    rec, body := s.do(t, http.MethodPost, "/v1/auth/register", "",
        `{"email":"Ann@Example.com","password":"longenough"}`)
    if rec.Code != http.StatusCreated {
        t.Fatalf("register: %d %s", rec.Code, rec.Body)
    }
    user := body["user"].(map[string]any)
    if user["role"] != model.RoleCustomer || user["email"] != "ann@example.com" {
        t.Fatalf("user = %v", user)
    }
    if rec, _ := s.do(t, http.MethodPost, "/v1/auth/register", "",
        `{"email":"ann@example.com","password":"longenough"}`); rec.Code != http.StatusConflict {
        t.Fatalf("duplicate: %d", rec.Code)
    }
    if rec, body := s.do(t, http.MethodPost, "/v1/auth/register", "",
        `{"email":"not-an-email","password":"longenough"}`); rec.Code != http.StatusBadRequest || body["field"] != "email" {
        t.Fatalf("bad email: %d %v", rec.Code, body)
    }

    if rec, _ := s.do(t, http.MethodPost, "/v1/auth/login", "",
        `{"email":"ann@example.com","password":"wrong"}`); rec.Code != http.StatusUnauthorized {
        t.Fatalf("wrong password: %d", rec.Code)
    }
    rec, body = s.do(t, http.MethodPost, "/v1/auth/login", "",
        `{"email":"ann@example.com","password":"longenough"}`)
    if rec.Code != http.StatusOK {
        t.Fatalf("login: %d", rec.Code)
    }
    access := body["access"].(map[string]any)["token"].(string)
    refresh := body["refresh"].(map[string]any)["token"].(string)

    rec, body = s.do(t, http.MethodGet, "/v1/me", "Bearer "+access, "")
    if rec.Code != http.StatusOK || body["role"] != model.RoleCustomer {
        t.Fatalf("me: %d %v", rec.Code, body)
    }

    rec, body = s.do(t, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+refresh+`"}`)
    if rec.Code != http.StatusOK {
        t.Fatalf("refresh: %d", rec.Code)
    }
    if rec, _ := s.do(t, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+refresh+`"}`); rec.Code != http.StatusUnauthorized {
        t.Fatalf("reused refresh: %d", rec.Code)
    }
    rotated := body["refresh"].(map[string]any)["token"].(string)
    if rec, _ := s.do(t, http.MethodPost, "/v1/auth/logout", "", `{"refresh_token":"`+rotated+`"}`); rec.Code != http.StatusNoContent {
        t.Fatalf("logout: %d", rec.Code)
    }
    if rec, _ := s.do(t, http.MethodPost, "/v1/auth/logout", "", `{}`); rec.Code != http.StatusBadRequest {
        t.Fatalf("empty logout: %d", rec.Code)
    }
}

func TestChatEndpointNeedsGatewayToken(t *testing.T) {
    s := newServer(t)
    req := httptest.NewRequest(http.MethodPost, "/v1/chat/messages", strings.NewReader(`{"external_id":"42","text":"/help"}`))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    s.e.ServeHTTP(rec, req)
    if rec.Code != http.StatusUnauthorized {
        t.Fatalf("no token: %d", rec.Code)
    }

    req = httptest.NewRequest(http.MethodPost, "/v1/chat/messages", strings.NewReader(`{"external_id":"42","text":"/help"}`))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    req.Header.Set(router.ChatTokenHeader, "gw-token")
    rec = httptest.NewRecorder()
    s.e.ServeHTTP(rec, req)
    var reply chatbot.Reply
    if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil || rec.Code != http.StatusOK {
        t.Fatalf("help: %d %s", rec.Code, rec.Body)
    }
    if !strings.Contains(reply.Text, "/book_room") {
        t.Fatalf("reply = %q", reply.Text)
    }
}

func jsonID(body map[string]any) string {
    return strconv.FormatUint(uint64(body["id"].(float64)), 10)
}
