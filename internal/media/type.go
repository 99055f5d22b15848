package media

import (
	"fmt"
	"strings"
)

// Type partitions every source the pipeline handles in to one of two
// shapes: a still image which can be embedded directly, or a video
// from which a single representative frame must first be extracted.
type Type int

const (
	Image Type = iota
	Video
)

func (t Type) String() string {
	switch t {
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return fmt.Sprintf("UNKNOWN[%d]", t)
	}
}

// ParseType is the inverse of String, used when re-reading a
// persisted media_type artifact.
func ParseType(raw string) (Type, error) {
	switch strings.TrimSpace(raw) {
	case "image":
		return Image, nil
	case "video":
		return Video, nil
	default:
		return Video, fmt.Errorf("unrecognized media type '%s'", raw)
	}
}

// TypeFromContentType inspects a MIME content type (e.g. from a
// Content-Type header, or from sniffing the payload bytes) for an
// image/video token. The boolean return indicates whether the
// content type was conclusive; callers must fall back to their own
// heuristics when it is not.
func TypeFromContentType(contentType string) (Type, bool) {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "image") {
		return Image, true
	}
	if strings.Contains(ct, "video") {
		return Video, true
	}

	return Video, false
}
