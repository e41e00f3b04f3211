package produce

import (
	"strings"
)

// Format is the canonical source classification driving rasterization.
type Format string

const (
	// FormatImage sources rasterize as-is, one page per file.
	FormatImage Format = "image"
	// FormatPDF sources rasterize each page separately.
	FormatPDF Format = "pdf"
	// FormatPlaceholder covers everything litigation production cannot
	// convert; such documents still yield one Bates-numbered page.
	FormatPlaceholder Format = "placeholder"
)

// Classify maps a declared content type and filename onto a Format. Unknown
// or unclassifiable input degrades to FormatPlaceholder, never to an error.
func Classify(contentType, filename string) Format {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))

	switch {
	case strings.HasPrefix(ct, "image/"):
		return FormatImage
	case ct == "application/pdf":
		return FormatPDF
	}

	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return FormatPDF
	case strings.HasSuffix(name, ".png"), strings.HasSuffix(name, ".jpg"),
		strings.HasSuffix(name, ".jpeg"), strings.HasSuffix(name, ".gif"),
		strings.HasSuffix(name, ".tif"), strings.HasSuffix(name, ".tiff"),
		strings.HasSuffix(name, ".bmp"):
		return FormatImage
	}

	return FormatPlaceholder
}
