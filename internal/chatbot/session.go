// Package chatbot is the conversational front end.  Each chat account has
// at most one Session; Bot.Handle reads it, computes the next one from the
// incoming text and stores (or clears) the result.
package chatbot

// Flow is the multi-step dialogue a session is in.
type Flow string

const (
	FlowNone     Flow = ""
	FlowBook     Flow = "book"
	FlowCancel   Flow = "cancel"
	FlowLogin    Flow = "login"
	FlowRegister Flow = "register"
)

// Step is the question the bot is waiting for an answer to.
type Step string

const (
	StepRoom            Step = "room"
	StepCheckIn         Step = "check_in"
	StepCheckOut        Step = "check_out"
	StepConfirm         Step = "confirm"
	StepChoose          Step = "choose"
	StepEmail           Step = "email"
	StepPassword        Step = "password"
	StepConfirmPassword Step = "confirm_password"
)

// Session is the dialogue state for one chat account.  Values are
// treated as immutable: transitions return a new Session.
type Session struct {
	Flow       Flow     `json:"flow"`
	Step       Step     `json:"step"`
	RoomNumber int      `json:"room_number,omitempty"`
	CheckIn    string   `json:"check_in,omitempty"`
	CheckOut   string   `json:"check_out,omitempty"`
	Email      string   `json:"email,omitempty"`
	Choices    []uint64 `json:"choices,omitempty"`

	// PasswordHash is the bcrypt hash of the first password entry during
	// registration.  The plain password is never stored.
	PasswordHash string `json:"password_hash,omitempty"`
}

// Active reports whether a flow is in progress.
func (s Session) Active() bool { return s.Flow != FlowNone }

// at returns a copy of s moved to step.
func (s Session) at(step Step) Session {
	s.Step = step
	if s.Choices != nil {
		s.Choices = append([]uint64(nil), s.Choices...)
	}
	return s
}

// Reply is what the bot sends back.  Options are suggested answers a
// gateway may render as buttons.
type Reply struct {
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
}
