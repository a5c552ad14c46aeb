package field

import (
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
)

// withinDimensions checks the decoded image size against the limits.
// Formats without a registered decoder (svg, webp) pass.
func withinDimensions(path string, maxWidth, maxHeight *int) bool {
	f, err := os.Open(path) //nolint:gosec // path is the value under validation
	if err != nil {
		return true
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return true
	}
	if maxWidth != nil && cfg.Width > *maxWidth {
		return false
	}
	if maxHeight != nil && cfg.Height > *maxHeight {
		return false
	}
	return true
}
