package frame

import (
	"image"
	"image/draw"
	"image/png"
	"os"

	// Register the decoders for every still format the extension
	// heuristics admit.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/hbomb79/Glimpse/pkg/logger"
)

// extractImageStill decodes the image at src and re-encodes it as a
// lossless PNG at dest. Images which are neither single-channel gray
// nor standard RGB(A) are normalized on to an RGB-like canvas first
// so that the embedding provider always sees a predictable colour
// model.
func (extractor *Extractor) extractImageStill(src string, dest string) error {
	file, err := os.Open(src)
	if err != nil {
		return NewError(ImageProcessError, err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return NewError(ImageProcessError, err)
	}
	log.Emit(logger.DEBUG, "Decoded %s still from %s\n", format, src)

	out, err := os.Create(dest)
	if err != nil {
		return NewError(ImageProcessError, err)
	}
	defer out.Close()

	if err := png.Encode(out, normalizeColorModel(img)); err != nil {
		return NewError(ImageProcessError, err)
	}

	return nil
}

// normalizeColorModel leaves grayscale and RGB(A) images untouched and
// redraws everything else (paletted GIFs, YCbCr JPEGs, CMYK TIFFs...)
// on to an NRGBA canvas.
func normalizeColorModel(img image.Image) image.Image {
	switch img.(type) {
	case *image.Gray, *image.Gray16, *image.RGBA, *image.NRGBA:
		return img
	}

	bounds := img.Bounds()
	converted := image.NewNRGBA(bounds)
	draw.Draw(converted, bounds, img, bounds.Min, draw.Src)

	return converted
}
