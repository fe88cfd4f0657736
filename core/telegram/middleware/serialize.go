package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// ChatSerializer hands out one mutex per chat id so that updates for the
// same chat are handled strictly one at a time while different chats
// proceed concurrently. Locks are reference counted and dropped once the
// last holder releases them, so the map does not grow with chat churn.
type ChatSerializer struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// NewChatSerializer constructs an empty ChatSerializer.
func NewChatSerializer() *ChatSerializer {
	return &ChatSerializer{locks: make(map[int64]*chatLock)}
}

// Acquire blocks until the chat's lock is held and returns the release
// function. The release function must be called exactly once.
func (s *ChatSerializer) Acquire(chatID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &chatLock{}
		s.locks[chatID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs <= 0 {
			delete(s.locks, chatID)
		}
		s.mu.Unlock()
	}
}

// SerializeByChat wraps handlers so every update is processed under its
// chat's lock. Session state behind the handlers is read-modify-write,
// so two updates for one chat must never interleave.
func SerializeByChat(s *ChatSerializer) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return next(c)
			}
			release := s.Acquire(chat.ID)
			defer release()
			return next(c)
		}
	}
}
