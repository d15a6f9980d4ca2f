package upload

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/rcm-webdev/insight-lens/internal/models"
)

const sniffLen = 512

// extension fallbacks for types http.DetectContentType cannot recognise.
var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// ExtractMetadata computes intake metadata for a file of the given size.
// r is read from offset 0 only; it may be nil when no content is available,
// in which case the type comes from the declared type or the extension.
func ExtractMetadata(name, declaredType string, r io.ReaderAt, size int64, lastModified time.Time) models.FileMetadata {
	meta := models.FileMetadata{
		Name:         name,
		Size:         size,
		LastModified: lastModified.UnixMilli(),
	}

	var head []byte
	if r != nil && size > 0 {
		n := size
		if n > sniffLen {
			n = sniffLen
		}
		head = make([]byte, n)
		read, _ := r.ReadAt(head, 0)
		head = head[:read]
	}

	meta.Type = DetectType(name, declaredType, head)

	if r != nil && size > 0 {
		if cfg, _, err := image.DecodeConfig(io.NewSectionReader(r, 0, size)); err == nil {
			meta.Dimensions = &models.Dimensions{Width: cfg.Width, Height: cfg.Height}
		}
	}

	return meta
}

// DetectType picks a MIME type for a file. A specific image type sniffed from
// the content wins, then the declared type, then the extension.
func DetectType(name, declaredType string, head []byte) string {
	if len(head) > 0 {
		sniffed := http.DetectContentType(head)
		if strings.HasPrefix(sniffed, "image/") {
			return sniffed
		}
	}

	if declaredType != "" && !strings.HasPrefix(declaredType, "application/octet-stream") {
		return declaredType
	}

	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return declaredType
}
