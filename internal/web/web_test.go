package web

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfextract/internal/logger"
	"github.com/local/pdfextract/internal/pdfinfo"
	"github.com/local/pdfextract/internal/pdfinfo/pdfinfotest"
)

type fakeProcessor struct {
	calls    int
	sawFile  bool
	lastPath string
	reply    string
}

func (f *fakeProcessor) ProcessUpload(ctx context.Context, path string) string {
	f.calls++
	f.lastPath = path
	_, err := os.Stat(path)
	f.sawFile = err == nil
	return f.reply
}

func newTestWeb(t *testing.T, opts Options) (*fakeProcessor, http.Handler) {
	t.Helper()
	if opts.UploadDir == "" {
		opts.UploadDir = t.TempDir()
	}
	proc := &fakeProcessor{reply: "Processing complete. The result is saved in the 'Processed' folder."}
	return proc, New(proc, pdfinfo.New(), opts).Routes()
}

func uploadRequest(t *testing.T, target string, field string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "doc.pdf")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFormRenders(t *testing.T) {
	_, h := newTestWeb(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>PDF Processor</title>")
	assert.Contains(t, rec.Body.String(), `name="file"`)
}

func TestFormUploadProcessesPDF(t *testing.T) {
	proc, h := newTestWeb(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "/", "file", pdfinfotest.MinimalPDF(2)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, proc.calls)
	assert.True(t, proc.sawFile, "upload must exist while processing")
	assert.Contains(t, rec.Body.String(), "Processing complete. The result is saved in the &#39;Processed&#39; folder.")

	_, err := os.Stat(proc.lastPath)
	assert.True(t, os.IsNotExist(err), "upload must be removed afterwards")
}

func TestAPIUploadReturnsPlainText(t *testing.T) {
	proc, h := newTestWeb(t, Options{})
	proc.reply = "PDF Services usage limit reached: quota"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "/api/process", "file", pdfinfotest.MinimalPDF(1)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	b, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "PDF Services usage limit reached: quota", string(b))
}

func TestUploadRejectsNonPDF(t *testing.T) {
	proc, h := newTestWeb(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "/api/process", "file", []byte("plain text pretending to be a pdf\n")))

	assert.Zero(t, proc.calls)
	assert.Contains(t, rec.Body.String(), "The uploaded file is not a PDF")
}

func TestUploadWithoutFile(t *testing.T) {
	proc, h := newTestWeb(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "/api/process", "", nil))

	assert.Zero(t, proc.calls)
	assert.Equal(t, "Please choose a PDF file to upload.", rec.Body.String())
}

func TestBasicAuth(t *testing.T) {
	_, h := newTestWeb(t, Options{Username: "admin", Password: "pw"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("admin", "pw")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestUploadLogsCarryWebComponent(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	var buf bytes.Buffer
	require.NoError(t, logger.Init(logger.Options{Level: "info", Stdout: &buf}))

	_, h := newTestWeb(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "/api/process", "file", pdfinfotest.MinimalPDF(1)))
	require.Equal(t, http.StatusOK, rec.Code)

	var accepted string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "upload accepted") {
			accepted = line
		}
	}
	require.NotEmpty(t, accepted, buf.String())
	assert.Contains(t, accepted, `"component":"web"`)
	assert.Contains(t, accepted, `"upload":"doc.pdf"`)
}
