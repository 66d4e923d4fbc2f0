package session

import "errors"

var (
	ErrAlreadyRunning = errors.New("session already running")
	ErrNotRunning     = errors.New("session not running")
	ErrModeLocked     = errors.New("mode cannot change while a session is running")
	ErrInvalidMode    = errors.New("invalid game mode")
	ErrInvalidConfig  = errors.New("invalid session config")
)
