package frame

import (
	"context"

	"github.com/hbomb79/Glimpse/internal/media"
	"github.com/hbomb79/Glimpse/pkg/logger"
)

var log = logger.Get("Frame")

// Config allows the ffmpeg/ffprobe binaries used for video frame
// extraction to be overridden; when empty, the binaries are resolved
// from the PATH.
type Config struct {
	FfmpegBinaryPath  string `yaml:"ffmpeg_binary" env:"FFMPEG_BINARY_PATH"`
	FfprobeBinaryPath string `yaml:"ffprobe_binary" env:"FFPROBE_BINARY_PATH"`
}

// Extractor derives exactly one still frame from a downloaded media
// file: a colour-normalized pass-through for images, and a
// first-decodable-frame extraction for videos.
type Extractor struct {
	config Config
}

func New(config Config) *Extractor {
	return &Extractor{config: config}
}

// ExtractFrame produces a single lossless PNG still at dest from the
// media file at src. All failures are *Error values carrying one of
// the tagged extraction kinds.
func (extractor *Extractor) ExtractFrame(ctx context.Context, src string, mediaType media.Type, dest string) error {
	if mediaType == media.Image {
		return extractor.extractImageStill(src, dest)
	}

	return extractor.extractVideoStill(ctx, src, dest)
}
