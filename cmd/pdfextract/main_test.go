package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfextract/internal/pdfinfo/pdfinfotest"
)

func TestExtractWithoutCredentials(t *testing.T) {
	t.Setenv("PDF_SERVICES_CLIENT_ID", "")
	t.Setenv("PDF_SERVICES_CLIENT_SECRET", "")
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "logs", "test.log"))
	out := filepath.Join(t.TempDir(), "Processed")
	t.Setenv("OUTPUT_DIR", out)

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"extract", pdfinfotest.WritePDF(t, 1)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, stdout.String(), "Configuration error")
	assert.Contains(t, stdout.String(), "PDF_SERVICES_CLIENT_ID, PDF_SERVICES_CLIENT_SECRET")
	assert.NoDirExists(t, out)
}

func TestExplicitMissingEnvFileFails(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "extract", "x.pdf"})
	assert.Error(t, cmd.Execute())
}
