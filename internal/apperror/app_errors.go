package apperror

import "errors"

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrGameNotFound     = errors.New("game not found")
	ErrNotParticipant   = errors.New("player is not part of this game")
	ErrMalformedRequest = errors.New("malformed request line")
)
