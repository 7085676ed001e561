package pdfinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfextract/internal/pdfinfo/pdfinfotest"
)

func TestInspectPDF(t *testing.T) {
	path := pdfinfotest.WritePDF(t, 3)

	info, err := New().Inspect(path)
	require.NoError(t, err)
	assert.True(t, info.Supported)
	assert.Equal(t, "application/pdf", info.MIMEType)
	assert.Equal(t, 3, info.Pages)
}

func TestInspectIgnoresFileName(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(fake, []byte("just some notes\n"), 0o644))

	info, err := New().Inspect(fake)
	require.NoError(t, err)
	assert.False(t, info.Supported)
	assert.Equal(t, "Text file, not a PDF", info.Description)

	renamed := filepath.Join(dir, "upload.bin")
	require.NoError(t, os.WriteFile(renamed, pdfinfotest.MinimalPDF(1), 0o644))
	info, err = New().Inspect(renamed)
	require.NoError(t, err)
	assert.True(t, info.Supported)
}

func TestInspectBrokenPDFStillSupported(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.7\ngarbage without xref\n"), 0o644))

	info, err := New().Inspect(p)
	require.NoError(t, err)
	assert.True(t, info.Supported)
	assert.Zero(t, info.Pages)
}

func TestInspectMissingFile(t *testing.T) {
	_, err := New().Inspect(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
}
