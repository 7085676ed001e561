// Package pdfinfo inspects uploaded files before they are sent for
// extraction: magic-byte type detection and PDF page counting.
package pdfinfo

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

const mimePDF = "application/pdf"

// Info describes an uploaded file.
type Info struct {
	MIMEType    string
	Extension   string
	Pages       int
	Supported   bool
	Description string
}

// Inspector detects file types from content, never from the file name.
type Inspector struct{}

func New() *Inspector { return &Inspector{} }

// Inspect reports the detected type of path and, for PDFs, its page count.
// A PDF whose page tree pdfcpu cannot read is still reported as supported
// with Pages set to 0; the extraction service has the final word on it.
func (i *Inspector) Inspect(path string) (*Info, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	info := &Info{MIMEType: mt.String(), Extension: mt.Extension()}
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Str("file", filepath.Base(path)).Msg("detected file type")

	if !mt.Is(mimePDF) {
		info.Description = describe(info.MIMEType)
		return info, nil
	}

	info.MIMEType = mimePDF
	info.Supported = true
	n, err := pageCount(path)
	if err != nil {
		log.Warn().Err(err).Str("file", filepath.Base(path)).Msg("pdf page count failed")
		info.Description = "PDF document (page tree unreadable)"
		return info, nil
	}
	info.Pages = n
	info.Description = fmt.Sprintf("PDF document, %d page(s)", n)
	return info, nil
}

func describe(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "Image file, not a PDF"
	case strings.HasPrefix(mimeType, "text/"):
		return "Text file, not a PDF"
	case mimeType == "application/zip":
		return "ZIP archive, not a PDF"
	default:
		return fmt.Sprintf("Unsupported file type: %s", mimeType)
	}
}

// pageCount guards against pdfcpu panicking on malformed input.
func pageCount(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu: %v", r)
		}
	}()
	return api.PageCountFile(path)
}
