package dialog

import (
	"github.com/m3rciful/photobot/core/telegram/state"
	"github.com/m3rciful/photobot/internal/config"
)

// Conversation steps. Every flow starts from the inline menu and walks
// through at most three of these before the session is removed.
const (
	// StateAwaitingPhoto waits for the photograph to archive.
	StateAwaitingPhoto state.State = "awaiting_photo"
	// StateAwaitingName waits for the file name to store it under.
	StateAwaitingName state.State = "awaiting_name"
	// StateAwaitingQuery waits for the search text.
	StateAwaitingQuery state.State = "awaiting_query"
)

// Payload is the per-conversation data carried between steps. It is a
// sealed sum: exactly one variant is live at any step.
type Payload interface {
	payload()
}

// SaveTarget is held while waiting for a photo.
type SaveTarget struct {
	Category config.Category
}

// PendingPhoto is held while waiting for a name; the photo itself stays
// on Telegram's servers until the name arrives.
type PendingPhoto struct {
	Category config.Category
	FileID   string
}

// SearchScope is held while waiting for a search query.
type SearchScope struct {
	Category config.Category
}

func (SaveTarget) payload()   {}
func (PendingPhoto) payload() {}
func (SearchScope) payload()  {}
