package models

import (
	"errors"
	"fmt"
)

// Shared failure taxonomy. Services return these (possibly wrapped); the
// socket and HTTP layers map them to acks and status codes.
var (
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrNotJoined        = errors.New("workspace not joined")
	ErrValidationFailed = errors.New("validation failed")
)

// Message payload violations. All wrap ErrValidationFailed so callers can
// match the whole class with errors.Is.
var (
	ErrEmptyContent      = fmt.Errorf("%w: text message requires non-empty content", ErrValidationFailed)
	ErrMissingAttachment = fmt.Errorf("%w: %s and %s messages require an attachment url", ErrValidationFailed, MessageTypeImage, MessageTypeAudio)
	ErrAttachmentOnText  = fmt.Errorf("%w: text messages cannot carry an attachment", ErrValidationFailed)
	ErrUnknownType       = fmt.Errorf("%w: unknown message type", ErrValidationFailed)
)
