package state

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the chat.
	StateIdle State = "idle"
)

// Session stores the current conversation step and its typed payload for
// a single chat. A chat with no session is equivalent to StateIdle.
type Session[P any] struct {
	State   State
	Payload P
}
