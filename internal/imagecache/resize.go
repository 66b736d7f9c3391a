package imagecache

import (
	"bytes"
	"fmt"
	"math"

	"github.com/disintegration/imaging"
)

const jpegQuality = 85

// Normalize produces the variant to cache for a requested width. The
// target height always follows the source aspect ratio:
// height = round(width * nativeHeight / nativeWidth). Upscaling is
// never performed: when the requested width is at or above the native
// width the source bytes pass through unresized, but the reported
// dimensions still use the requested width so the variant files under
// its requested key.
func Normalize(data []byte, width int) ([]byte, int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}
	nativeWidth := img.Bounds().Dx()
	nativeHeight := img.Bounds().Dy()
	if nativeWidth <= 0 || nativeHeight <= 0 {
		return nil, 0, 0, fmt.Errorf("image has no pixels")
	}

	height := int(math.Round(float64(width) * float64(nativeHeight) / float64(nativeWidth)))
	if width >= nativeWidth {
		return data, width, height, nil
	}

	resized := imaging.Resize(img, width, height, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, 0, 0, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), width, height, nil
}
