package game

import "errors"

// Code classifies a game error. Every code is recoverable by the caller and
// the accompanying message is safe to show to players.
type Code string

const (
	CodeNotFound            Code = "not_found"
	CodeInvalidState        Code = "invalid_state"
	CodeCapacity            Code = "capacity"
	CodeInsufficientPlayers Code = "insufficient_players"
	CodeAlreadyGuessed      Code = "already_guessed"
	CodeTimeExceeded        Code = "time_exceeded"
	CodeCatalogUnavailable  Code = "catalog_unavailable"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotFound)
// holds regardless of the message.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

var (
	ErrNotFound            = &Error{Code: CodeNotFound}
	ErrInvalidState        = &Error{Code: CodeInvalidState}
	ErrCapacity            = &Error{Code: CodeCapacity}
	ErrInsufficientPlayers = &Error{Code: CodeInsufficientPlayers}
	ErrAlreadyGuessed      = &Error{Code: CodeAlreadyGuessed}
	ErrTimeExceeded        = &Error{Code: CodeTimeExceeded}
	ErrCatalogUnavailable  = &Error{Code: CodeCatalogUnavailable}
)

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CatalogError reports a track provider failure.
func CatalogError(message string) *Error {
	return newError(CodeCatalogUnavailable, message)
}

// CodeOf returns the code carried by err, or "" when err is not a game error.
func CodeOf(err error) Code {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.Code
	}
	return ""
}
