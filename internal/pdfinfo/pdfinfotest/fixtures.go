// Package pdfinfotest builds small PDF documents for tests.
package pdfinfotest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MinimalPDF returns a structurally valid PDF with the given number of
// blank letter-size pages.
func MinimalPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] /Resources << >> >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// WritePDF stores MinimalPDF(pages) in a temp dir and returns its path.
func WritePDF(t testing.TB, pages int) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sample.pdf")
	if err := os.WriteFile(p, MinimalPDF(pages), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}
