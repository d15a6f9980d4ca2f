// Package intake decides whether a candidate file may join an upload queue.
package intake

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rcm-webdev/insight-lens/internal/models"
)

// DefaultMaxFileSize is 10MB.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// DefaultMaxFiles is the default queue capacity.
const DefaultMaxFiles = 20

// ErrInvalidPolicy is returned for an UploadConfig that cannot be enforced.
var ErrInvalidPolicy = errors.New("invalid upload policy")

// DefaultUploadConfig returns the built-in admission policy.
func DefaultUploadConfig() models.UploadConfig {
	return models.UploadConfig{
		MaxFileSize:        DefaultMaxFileSize,
		MaxFiles:           DefaultMaxFiles,
		AcceptedTypes:      []string{"image/jpeg", "image/png", "image/bmp", "image/tiff"},
		AcceptedExtensions: []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff"},
	}
}

// Normalize returns a copy of cfg with MIME types lower-cased and extensions
// lower-cased with a leading dot. Blank and duplicate entries are dropped.
func Normalize(cfg models.UploadConfig) models.UploadConfig {
	out := cfg
	out.AcceptedTypes = normalizeList(cfg.AcceptedTypes, normalizeType)
	out.AcceptedExtensions = normalizeList(cfg.AcceptedExtensions, normalizeExtension)
	return out
}

// CheckPolicy reports whether cfg is enforceable.
func CheckPolicy(cfg models.UploadConfig) error {
	if cfg.MaxFileSize <= 0 {
		return fmt.Errorf("%w: maxFileSize must be positive", ErrInvalidPolicy)
	}
	if cfg.MaxFiles <= 0 {
		return fmt.Errorf("%w: maxFiles must be positive", ErrInvalidPolicy)
	}
	return nil
}

func normalizeList(in []string, norm func(string) string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		n := norm(v)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// normalizeType lower-cases a MIME type and strips any parameters.
func normalizeType(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.TrimSpace(t))
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
