package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/room-reservation/internal/booking"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/queue"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/utils"
)

// Booker is the booking lifecycle as seen by the bot.
type Booker interface {
	CreateBooking(ctx context.Context, requester uint64, roomNumber int, checkIn, checkOut time.Time) (*model.Booking, error)
	CancelBooking(ctx context.Context, actor booking.Actor, id uint64) (*model.Booking, error)
	ListActiveBookings(ctx context.Context, requester uint64) ([]model.Booking, error)
}

// RoomFinder searches the room catalog.
type RoomFinder interface {
	Search(ctx context.Context, q booking.SearchQuery) ([]booking.RoomOffer, error)
}

// IdentityLinker maps chat accounts to users.
type IdentityLinker interface {
	IsAuthorized(ctx context.Context, externalID string) (bool, error)
	ResolveIdentity(ctx context.Context, externalID string) (uint64, error)
	Link(ctx context.Context, externalID, email, password string) (uint64, error)
	Unlink(ctx context.Context, externalID string) error
}

// Registrar creates an account and links the chat to it in one go.
type Registrar interface {
	Register(ctx context.Context, externalID, email, password string) (uint64, error)
}

// EventPublisher receives booking events.  Optional.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Bot answers chat messages.
type Bot struct {
	booker   Booker
	rooms    RoomFinder
	ids      IdentityLinker
	reg      Registrar
	sessions SessionStore
	events   EventPublisher
	log      *zap.Logger
}

// New wires a bot.  reg and events may be nil: /register is then refused
// and no booking events are sent.
func New(booker Booker, rooms RoomFinder, ids IdentityLinker, reg Registrar, sessions SessionStore, events EventPublisher, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{booker: booker, rooms: rooms, ids: ids, reg: reg, sessions: sessions, events: events, log: log}
}

// sessionHashCost is the bcrypt cost of the hash held in a registration
// session.  The account itself is hashed with the configured cost.
const sessionHashCost = bcrypt.MinCost

var validate = validator.New()

const helpText = `Commands:
/rooms [checkin checkout] [min_price=N] [max_price=N] [capacity=N] [sort] - list rooms,
  e.g. /rooms 2025-07-01 2025-07-04 capacity=2 price_asc
/book_room - book a room
/my_bookings - your active bookings
/cancel_booking - cancel one of your bookings
/register - create an account and link this chat to it
/login - link this chat to your account
/logout - unlink this chat
/cancel - stop the current dialogue`

const (
	msgLoginFirst  = "You have to /login to use this command."
	msgDateFormat  = "Wrong date format. Please enter the date as YYYY-MM-DD."
	msgUnavailable = "Something went wrong. Please try again later."
	msgUnknownSort = "Unknown sort. Use price_asc, price_desc, capacity_asc or capacity_desc."
)

// Handle processes one incoming message from externalID.  Commands always
// start over; other text is fed to the dialogue in progress.
func (b *Bot) Handle(ctx context.Context, externalID, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if externalID == "" {
		return Reply{}, errors.New("chatbot: empty external id")
	}

	var (
		next  Session
		reply Reply
		err   error
	)
	if strings.HasPrefix(text, "/") {
		next, reply, err = b.command(ctx, externalID, text)
	} else {
		cur, ok, lerr := b.sessions.Load(ctx, externalID)
		if lerr != nil {
			return Reply{}, lerr
		}
		if !ok || !cur.Active() {
			return Reply{Text: "Send /help to see what I can do."}, nil
		}
		next, reply, err = b.advance(ctx, externalID, cur, text)
	}
	if err != nil {
		b.log.Error("chat step failed", zap.String("external_id", externalID), zap.Error(err))
		next, reply = Session{}, Reply{Text: msgUnavailable}
	}

	if next.Active() {
		if serr := b.sessions.Save(ctx, externalID, next); serr != nil {
			return Reply{}, serr
		}
	} else if cerr := b.sessions.Clear(ctx, externalID); cerr != nil {
		return Reply{}, cerr
	}
	return reply, nil
}

// authorized resolves the user linked to externalID.  ok is false when the
// chat is not linked.
func (b *Bot) authorized(ctx context.Context, externalID string) (uint64, bool, error) {
	linked, err := b.ids.IsAuthorized(ctx, externalID)
	if err != nil || !linked {
		return 0, false, err
	}
	uid, err := b.ids.ResolveIdentity(ctx, externalID)
	if errors.Is(err, repository.ErrNotLinked) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uid, true, nil
}

func (b *Bot) command(ctx context.Context, externalID, text string) (Session, Reply, error) {
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i] // "/help@SomeBot" in group chats
	}
	args := fields[1:]

	switch cmd {
	case "/start", "/help":
		return Session{}, Reply{Text: helpText}, nil
	case "/cancel":
		return Session{}, Reply{Text: "Canceled."}, nil
	case "/rooms":
		reply, err := b.listRooms(ctx, args)
		return Session{}, reply, err
	case "/login":
		_, ok, err := b.authorized(ctx, externalID)
		if err != nil {
			return Session{}, Reply{}, err
		}
		if ok {
			return Session{}, Reply{Text: "You are already logged in."}, nil
		}
		return Session{Flow: FlowLogin, Step: StepEmail}, Reply{Text: "Please enter your email:"}, nil
	case "/register":
		if b.reg == nil {
			return Session{}, Reply{Text: "Registration is not available here."}, nil
		}
		_, ok, err := b.authorized(ctx, externalID)
		if err != nil {
			return Session{}, Reply{}, err
		}
		if ok {
			return Session{}, Reply{Text: "You are already logged in."}, nil
		}
		return Session{Flow: FlowRegister, Step: StepEmail}, Reply{Text: "Please enter your email:"}, nil
	case "/logout":
		err := b.ids.Unlink(ctx, externalID)
		if errors.Is(err, repository.ErrNotLinked) {
			return Session{}, Reply{Text: "You are not logged in."}, nil
		}
		if err != nil {
			return Session{}, Reply{}, err
		}
		return Session{}, Reply{Text: "Logged out."}, nil
	}

	uid, ok, err := b.authorized(ctx, externalID)
	if err != nil {
		return Session{}, Reply{}, err
	}
	switch cmd {
	case "/book_room", "/my_bookings", "/cancel_booking":
		if !ok {
			return Session{}, Reply{Text: msgLoginFirst}, nil
		}
	default:
		return Session{}, Reply{Text: "Unknown command. Send /help for the list."}, nil
	}

	switch cmd {
	case "/book_room":
		return Session{Flow: FlowBook, Step: StepRoom}, Reply{Text: "Which room number?"}, nil
	case "/my_bookings":
		items, err := b.booker.ListActiveBookings(ctx, uid)
		if err != nil {
			return Session{}, Reply{}, err
		}
		if len(items) == 0 {
			return Session{}, Reply{Text: "You have no active bookings."}, nil
		}
		return Session{}, Reply{Text: formatBookings(items)}, nil
	default: // "/cancel_booking"
		items, err := b.booker.ListActiveBookings(ctx, uid)
		if err != nil {
			return Session{}, Reply{}, err
		}
		if len(items) == 0 {
			return Session{}, Reply{Text: "You have no active bookings."}, nil
		}
		sess := Session{Flow: FlowCancel, Step: StepChoose}
		opts := make([]string, 0, len(items))
		for _, it := range items {
			sess.Choices = append(sess.Choices, it.ID)
			opts = append(opts, "#"+strconv.FormatUint(it.ID, 10))
		}
		return sess, Reply{Text: "Which booking?\n" + formatBookings(items), Options: opts}, nil
	}
}

// advance feeds text to the dialogue in cur.
func (b *Bot) advance(ctx context.Context, externalID string, cur Session, text string) (Session, Reply, error) {
	switch cur.Flow {
	case FlowLogin:
		return b.advanceLogin(ctx, externalID, cur, text)
	case FlowRegister:
		return b.advanceRegister(ctx, externalID, cur, text)
	case FlowBook:
		return b.advanceBook(ctx, externalID, cur, text)
	case FlowCancel:
		return b.advanceCancel(ctx, externalID, cur, text)
	}
	return Session{}, Reply{Text: "Send /help to see what I can do."}, nil
}

func (b *Bot) advanceLogin(ctx context.Context, externalID string, cur Session, text string) (Session, Reply, error) {
	switch cur.Step {
	case StepEmail:
		next := cur.at(StepPassword)
		next.Email = strings.ToLower(text)
		return next, Reply{Text: "Please enter your password:"}, nil
	case StepPassword:
		_, err := b.ids.Link(ctx, externalID, cur.Email, text)
		switch {
		case errors.Is(err, repository.ErrInvalidCredentials):
			return Session{}, Reply{Text: "Wrong email or password. Send /login to try again."}, nil
		case errors.Is(err, repository.ErrAlreadyLinked):
			return Session{}, Reply{Text: "This chat is already linked to an account."}, nil
		case err != nil:
			return Session{}, Reply{}, err
		}
		return Session{}, Reply{Text: "You are logged in."}, nil
	}
	return Session{}, Reply{}, fmt.Errorf("login flow at unknown step %q", cur.Step)
}

func (b *Bot) advanceRegister(ctx context.Context, externalID string, cur Session, text string) (Session, Reply, error) {
	switch cur.Step {
	case StepEmail:
		email := strings.ToLower(text)
		if err := validate.Var(email, "required,email,max=191"); err != nil {
			return cur, Reply{Text: "That does not look like an email address. Please enter your email:"}, nil
		}
		next := cur.at(StepPassword)
		next.Email = email
		return next, Reply{Text: "Choose a password (8 to 72 characters):"}, nil
	case StepPassword:
		if err := validate.Var(text, "min=8,max=72"); err != nil {
			return cur, Reply{Text: "The password must be 8 to 72 characters. Choose a password:"}, nil
		}
		hash, err := utils.HashPassword(text, sessionHashCost)
		if err != nil {
			return Session{}, Reply{}, err
		}
		next := cur.at(StepConfirmPassword)
		next.PasswordHash = hash
		return next, Reply{Text: "Please repeat the password:"}, nil
	case StepConfirmPassword:
		if !utils.VerifyPassword(cur.PasswordHash, text) {
			next := cur.at(StepPassword)
			next.PasswordHash = ""
			return next, Reply{Text: "The passwords do not match. Choose a password:"}, nil
		}
		_, err := b.reg.Register(ctx, externalID, cur.Email, text)
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return Session{}, Reply{Text: "An account with this email already exists. Send /login to sign in."}, nil
		case errors.Is(err, repository.ErrAlreadyLinked):
			return Session{}, Reply{Text: "This chat is already linked to an account."}, nil
		case err != nil:
			return Session{}, Reply{}, err
		}
		return Session{}, Reply{Text: "Your account is ready and you are logged in."}, nil
	}
	return Session{}, Reply{}, fmt.Errorf("register flow at unknown step %q", cur.Step)
}

func (b *Bot) advanceBook(ctx context.Context, externalID string, cur Session, text string) (Session, Reply, error) {
	uid, ok, err := b.authorized(ctx, externalID)
	if err != nil {
		return Session{}, Reply{}, err
	}
	if !ok {
		return Session{}, Reply{Text: msgLoginFirst}, nil
	}

	switch cur.Step {
	case StepRoom:
		n, err := strconv.Atoi(strings.TrimPrefix(text, "#"))
		if err != nil || n <= 0 {
			return cur, Reply{Text: "Room number must be a positive number."}, nil
		}
		next := cur.at(StepCheckIn)
		next.RoomNumber = n
		return next, Reply{Text: "Please enter the check-in date (YYYY-MM-DD):"}, nil
	case StepCheckIn:
		d, err := booking.ParseDate(text)
		if err != nil {
			return cur, Reply{Text: msgDateFormat}, nil
		}
		next := cur.at(StepCheckOut)
		next.CheckIn = d.Format(booking.DateLayout)
		return next, Reply{Text: "Please enter the check-out date (YYYY-MM-DD):"}, nil
	case StepCheckOut:
		d, err := booking.ParseDate(text)
		if err != nil {
			return cur, Reply{Text: msgDateFormat}, nil
		}
		next := cur.at(StepConfirm)
		next.CheckOut = d.Format(booking.DateLayout)
		return next, Reply{
			Text:    fmt.Sprintf("Book room %d from %s to %s?", next.RoomNumber, next.CheckIn, next.CheckOut),
			Options: []string{"yes", "no"},
		}, nil
	case StepConfirm:
		switch strings.ToLower(text) {
		case "no", "n":
			return Session{}, Reply{Text: "Booking process canceled."}, nil
		case "yes", "y":
		default:
			return cur, Reply{Text: "Please answer yes or no.", Options: []string{"yes", "no"}}, nil
		}
		in, err1 := booking.ParseDate(cur.CheckIn)
		out, err2 := booking.ParseDate(cur.CheckOut)
		if err1 != nil || err2 != nil {
			return Session{}, Reply{}, errors.New("stored session dates unreadable")
		}
		created, err := b.booker.CreateBooking(ctx, uid, cur.RoomNumber, in, out)
		if err != nil {
			return b.businessFailure(cur, err)
		}
		b.publish(ctx, queue.TypeBookingCreated, created)
		return Session{}, Reply{Text: fmt.Sprintf("Room %d booked from %s to %s. Total %s. Booking #%d.",
			created.RoomNumber, cur.CheckIn, cur.CheckOut, booking.FormatMoney(created.Price), created.ID)}, nil
	}
	return Session{}, Reply{}, fmt.Errorf("book flow at unknown step %q", cur.Step)
}

func (b *Bot) advanceCancel(ctx context.Context, externalID string, cur Session, text string) (Session, Reply, error) {
	uid, ok, err := b.authorized(ctx, externalID)
	if err != nil {
		return Session{}, Reply{}, err
	}
	if !ok {
		return Session{}, Reply{Text: msgLoginFirst}, nil
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(text, "#"), 10, 64)
	if err != nil || !containsID(cur.Choices, id) {
		return cur, Reply{Text: "Please pick one of the listed bookings."}, nil
	}
	canceled, err := b.booker.CancelBooking(ctx, booking.Actor{UserID: uid}, id)
	if err != nil {
		return b.businessFailure(cur, err)
	}
	b.publish(ctx, queue.TypeBookingCanceled, canceled)
	return Session{}, Reply{Text: fmt.Sprintf("Booking #%d canceled.", id)}, nil
}

// businessFailure ends the flow with a reply for a booking error kind.
// Errors without a kind are passed up.
func (b *Bot) businessFailure(cur Session, err error) (Session, Reply, error) {
	var text string
	switch booking.Kind(err) {
	case booking.ErrConflict:
		text = fmt.Sprintf("Room %d is not available for those dates.", cur.RoomNumber)
	case booking.ErrPastDate:
		text = "Those dates are in the past."
	case booking.ErrInvalidRange:
		text = "Check-out must be at least one day after check-in."
	case booking.ErrNotFound:
		if cur.Flow == FlowBook {
			text = fmt.Sprintf("Room %d does not exist.", cur.RoomNumber)
		} else {
			text = "That booking no longer exists."
		}
	case booking.ErrForbidden:
		text = "That booking is not yours."
	case booking.ErrValidation:
		text = "That request is not valid."
	default:
		return Session{}, Reply{}, err
	}
	return Session{}, Reply{Text: text}, nil
}

func (b *Bot) publish(ctx context.Context, typ string, bk *model.Booking) {
	if b.events == nil {
		return
	}
	if err := b.events.Publish(ctx, queue.NewBookingEvent(typ, bk, time.Now())); err != nil {
		b.log.Warn("publish booking event failed", zap.String("type", typ), zap.Uint64("booking_id", bk.ID), zap.Error(err))
	}
}

// listRooms runs a one-shot search:
//
//	/rooms [checkin checkout] [min_price=N] [max_price=N] [capacity=N] [sort]
func (b *Bot) listRooms(ctx context.Context, args []string) (Reply, error) {
	var (
		q     booking.SearchQuery
		dates []string
		sorts []string
	)
	for _, arg := range args {
		if key, val, ok := strings.Cut(arg, "="); ok {
			if text := applyFilter(&q, strings.ToLower(key), val); text != "" {
				return Reply{Text: text}, nil
			}
			continue
		}
		if looksLikeDate(arg) {
			dates = append(dates, arg)
		} else {
			sorts = append(sorts, arg)
		}
	}
	switch len(dates) {
	case 0:
	case 2:
		in, err1 := booking.ParseDate(dates[0])
		out, err2 := booking.ParseDate(dates[1])
		if err1 != nil || err2 != nil {
			return Reply{Text: msgDateFormat}, nil
		}
		q.CheckIn, q.CheckOut = &in, &out
	default:
		return Reply{Text: "Give both check-in and check-out dates, or none."}, nil
	}
	if len(sorts) > 1 {
		return Reply{Text: msgUnknownSort}, nil
	}
	if len(sorts) == 1 {
		key, err := booking.ParseSortKey(sorts[0])
		if err != nil {
			return Reply{Text: msgUnknownSort}, nil
		}
		q.Sort = key
	}

	offers, err := b.rooms.Search(ctx, q)
	if err != nil {
		switch booking.Kind(err) {
		case booking.ErrPastDate:
			return Reply{Text: "Those dates are in the past."}, nil
		case booking.ErrInvalidRange:
			return Reply{Text: "Check-out must be at least one day after check-in."}, nil
		case booking.ErrValidation:
			var be *booking.Error
			if errors.As(err, &be) && be.Field != "" && be.Detail != "" {
				return Reply{Text: fmt.Sprintf("%s %s.", be.Field, be.Detail)}, nil
			}
			return Reply{Text: "That search is not valid."}, nil
		}
		return Reply{}, err
	}
	if len(offers) == 0 {
		return Reply{Text: "No rooms match."}, nil
	}
	var sb strings.Builder
	for i, o := range offers {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "Room %d - %s - %d guests - %s/night",
			o.Room.Number, o.Room.RoomType, o.Room.Capacity, booking.FormatMoney(o.Room.NightlyRate))
		if o.TotalPrice != nil {
			fmt.Fprintf(&sb, " - total %s for %d nights", booking.FormatMoney(*o.TotalPrice), o.Nights)
		}
	}
	return Reply{Text: sb.String()}, nil
}

// applyFilter sets one key=value filter on q.  It returns the reply to
// send when the filter is unusable, or "".
func applyFilter(q *booking.SearchQuery, key, val string) string {
	switch key {
	case "min_price", "max_price":
		d, err := decimal.NewFromString(val)
		if err != nil {
			return key + " must be a number."
		}
		if key == "min_price" {
			q.MinPrice = &d
		} else {
			q.MaxPrice = &d
		}
	case "capacity":
		n, err := strconv.Atoi(val)
		if err != nil {
			return "capacity must be a whole number."
		}
		q.MinCapacity = &n
	default:
		return fmt.Sprintf("Unknown filter %q. Use min_price, max_price or capacity.", key)
	}
	return ""
}

// looksLikeDate separates date arguments from a sort key.
func looksLikeDate(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func formatBookings(items []model.Booking) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("#%d room %d %s - %s (%s)",
			it.ID, it.RoomNumber,
			it.CheckIn.Format(booking.DateLayout), it.CheckOut.Format(booking.DateLayout),
			booking.FormatMoney(it.Price)))
	}
	return strings.Join(lines, "\n")
}
