package frame

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// The video container could not be opened or probed at all.
	VideoOpenError ErrorKind = iota

	// The container opened, but no first frame could be decoded.
	ReadFirstFrameError

	// Any other failure while producing a still from a video.
	FirstFrameError

	// The image could not be decoded, converted or re-encoded.
	ImageProcessError
)

func (kind ErrorKind) String() string {
	switch kind {
	case VideoOpenError:
		return "video_open_error"
	case ReadFirstFrameError:
		return "read_first_frame_error"
	case FirstFrameError:
		return "first_frame_error"
	case ImageProcessError:
		return "image_process_error"
	default:
		return fmt.Sprintf("unknown_frame_error[%d]", kind)
	}
}

// Error is a tagged extraction failure. The tag (kind) is the
// caller-facing reason string; the cause, when present, is appended
// as detail.
type Error struct {
	kind  ErrorKind
	cause error
}

func NewError(kind ErrorKind, cause error) *Error {
	return &Error{kind: kind, cause: cause}
}

func (e *Error) Kind() ErrorKind {
	return e.kind
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.kind.String()
	}

	return fmt.Sprintf("%s: %s", e.kind, e.cause.Error())
}

func (e *Error) Unwrap() error {
	return e.cause
}

// AsError extracts the tagged extraction error from err, if any.
func AsError(err error) (*Error, bool) {
	var extractionErr *Error
	if errors.As(err, &extractionErr) {
		return extractionErr, true
	}

	return nil, false
}
