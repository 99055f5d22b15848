package frame

import (
	"context"
	"os"

	"github.com/floostack/transcoder"
	"github.com/floostack/transcoder/ffmpeg"
	"github.com/hbomb79/Glimpse/pkg/logger"
)

// extractVideoStill extracts the first decodable frame of the video
// at src as a PNG at dest. The container is probed first so that a
// file which isn't an openable video at all is distinguished from one
// which opens but yields no frame.
func (extractor *Extractor) extractVideoStill(ctx context.Context, src string, dest string) error {
	ffmpegCfg := &ffmpeg.Config{
		FfmpegBinPath:  extractor.config.FfmpegBinaryPath,
		FfprobeBinPath: extractor.config.FfprobeBinaryPath,
	}

	metadata, err := ffmpeg.New(ffmpegCfg).Input(src).GetMetadata()
	if err != nil {
		log.Emit(logger.DEBUG, "ffprobe failed to open %s: %s\n", src, err.Error())
		return NewError(VideoOpenError, nil)
	}
	if !hasVideoStream(metadata) {
		log.Emit(logger.DEBUG, "No video stream present in %s\n", src)
		return NewError(VideoOpenError, nil)
	}

	cmdContext, cancel := context.WithCancel(ctx)
	defer cancel()

	seekTime := "0"
	frameCount := 1
	outputFormat := "image2"
	progressChannel, err := ffmpeg.
		New(ffmpegCfg).
		Input(src).
		Output(dest).
		WithContext(&cmdContext).
		Start(ffmpeg.Options{
			SeekTime:     &seekTime,
			Vframes:      &frameCount,
			OutputFormat: &outputFormat,
		})
	if err != nil {
		return NewError(FirstFrameError, err)
	}

	// Drain progress until ffmpeg finishes; a one-frame extraction
	// rarely reports any.
	for range progressChannel {
	}

	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		return NewError(ReadFirstFrameError, nil)
	}

	return nil
}

// hasVideoStream reports whether any stream in the probed metadata is
// a video stream.
func hasVideoStream(metadata transcoder.Metadata) bool {
	if metadata == nil {
		return false
	}

	for _, stream := range metadata.GetStreams() {
		if stream.GetCodecType() == "video" {
			return true
		}
	}

	return false
}
