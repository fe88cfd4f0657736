package state

import (
	"log/slog"
	"sync"

	"github.com/m3rciful/photobot/core/logger"
	tghelpers "github.com/m3rciful/photobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Manager keeps in-memory sessions keyed by chat id and dispatches
// updates to the handler registered for the chat's current state.
// Sessions are removed outright when a conversation completes; there is
// no persistence across process restarts.
type Manager[P any] struct {
	mu       sync.RWMutex
	sessions map[int64]Session[P]
	handlers map[State]tele.HandlerFunc
}

// NewManager constructs an empty in-memory Manager.
func NewManager[P any]() *Manager[P] {
	return &Manager[P]{
		sessions: make(map[int64]Session[P]),
		handlers: make(map[State]tele.HandlerFunc),
	}
}

// Get returns the session for a chat and whether one exists.
func (m *Manager[P]) Get(chatID int64) (Session[P], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chatID]
	return s, ok
}

// Put replaces the session for a chat. A session in StateIdle is
// equivalent to no session and is removed instead.
func (m *Manager[P]) Put(chatID int64, s Session[P]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.State == StateIdle || s.State == "" {
		delete(m.sessions, chatID)
		return
	}
	m.sessions[chatID] = s
}

// Clear removes the session for a chat entirely.
func (m *Manager[P]) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

// Current returns the chat's state, or StateIdle when no session exists.
func (m *Manager[P]) Current(chatID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[chatID]; ok {
		return s.State
	}
	return StateIdle
}

// StateOf exposes the current state as a plain string for middleware
// that must not depend on this package's types.
func (m *Manager[P]) StateOf(chatID int64) string {
	return string(m.Current(chatID))
}

// InProgress reports whether the chat currently has an active session.
func (m *Manager[P]) InProgress(chatID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chatID]
	return ok && s.State != StateIdle
}

// RegisterHandler associates a state with its handler.
func (m *Manager[P]) RegisterHandler(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

// ManagerHandler executes the handler registered for the chat's current
// state, if any.
func (m *Manager[P]) ManagerHandler(c tele.Context) error {
	chatID := ChatID(c)
	current := m.Current(chatID)
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.Int64("chat_id", chatID),
		slog.String("state", string(current)),
	)

	m.mu.RLock()
	handler, ok := m.handlers[current]
	m.mu.RUnlock()
	if ok {
		return handler(c)
	}
	return nil
}

// ChatID resolves the chat identity of an update, falling back to the
// sender for updates without a chat attached.
func ChatID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if sender := c.Sender(); sender != nil {
		return sender.ID
	}
	return 0
}
