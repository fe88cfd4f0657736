// Package state provides a lightweight FSM/session manager for Telegram bots.
// The payload type parameter lets each bot declare its own tagged session
// payloads instead of an untyped bag of values.
package state
