package editor

import "errors"

var (
	ErrClosed           = errors.New("editor is closed")
	ErrLineNotFound     = errors.New("line not found")
	ErrNotEditable      = errors.New("line is not editable")
	ErrNoExchange       = errors.New("line has no resolvable ai exchange")
	ErrMenuClosed       = errors.New("insertion menu is closed")
	ErrOptionOutOfRange = errors.New("insertion option out of range")
	ErrEmptyResponse    = errors.New("gateway returned an empty response")
)
