// Package ocr defines the content-extraction collaborator boundary. The bot
// only depends on receiving well-formed caption text before publishing; the
// extraction backend itself is external.
package ocr

import (
	"context"
	"errors"
)

// ErrExtractionFailed signals that no usable text could be produced for the
// submitted image.
var ErrExtractionFailed = errors.New("text extraction failed")

// Extractor produces raw listing text from a Telegram photo file id.
type Extractor interface {
	ExtractText(ctx context.Context, fileID string) (string, error)
}

// Unconfigured is the default Extractor when no backend is wired: every
// submission must carry its own caption.
type Unconfigured struct{}

// ExtractText always reports ErrExtractionFailed.
func (Unconfigured) ExtractText(ctx context.Context, fileID string) (string, error) {
	return "", ErrExtractionFailed
}
