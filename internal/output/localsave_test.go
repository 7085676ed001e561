package output

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfextract/internal/extract"
)

func result(s string) *extract.Result {
	return extract.NewResult("a1", "application/zip", io.NopCloser(strings.NewReader(s)))
}

type failingReader struct{ after string }

func (f *failingReader) Read(p []byte) (int, error) {
	if f.after != "" {
		n := copy(p, f.after)
		f.after = f.after[n:]
		return n, nil
	}
	return 0, extract.Wrap(extract.KindSDK, "download", errors.New("connection reset"))
}

type failingFile struct{}

func (failingFile) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestPersistCreatesDirAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Processed")

	path, err := Persister{}.Persist(context.Background(), result("PK-archive"), dir, "out.zip")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.zip"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK-archive", string(b))
}

func TestPersistKeepsUnrelatedFilesAndReplacesArchive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0o644))

	_, err := Persister{}.Persist(context.Background(), result("first archive, longer body"), dir, "out.zip")
	require.NoError(t, err)
	_, err = Persister{}.Persist(context.Background(), result("second"), dir, "out.zip")
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "out.zip"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	keep, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(keep))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPersistFailedWriteLeavesPreviousArchive(t *testing.T) {
	dir := t.TempDir()
	_, err := Persister{}.Persist(context.Background(), result("old complete archive"), dir, "out.zip")
	require.NoError(t, err)

	broken := extract.NewResult("a2", "application/zip", io.NopCloser(&failingReader{after: "partial"}))
	_, err = Persister{}.Persist(context.Background(), broken, dir, "out.zip")
	require.Error(t, err)
	assert.Equal(t, extract.KindSDK, extract.KindOf(err), "download errors keep their kind")
	assert.Contains(t, err.Error(), "connection reset")

	b, err := os.ReadFile(filepath.Join(dir, "out.zip"))
	require.NoError(t, err)
	assert.Equal(t, "old complete archive", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestPersistUntaggedReadErrorIsStorage(t *testing.T) {
	res := extract.NewResult("a3", "application/zip", io.NopCloser(failingFile{}))
	_, err := Persister{}.Persist(context.Background(), res, t.TempDir(), "out.zip")
	require.Error(t, err)
	assert.Equal(t, extract.KindStorage, extract.KindOf(err))
}

func TestPersistRejectsEmptyArchive(t *testing.T) {
	_, err := Persister{}.Persist(context.Background(), result(""), t.TempDir(), "out.zip")
	assert.Equal(t, extract.KindStorage, extract.KindOf(err))
}

func TestPersistDirIsAFile(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "Processed")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Persister{}.Persist(context.Background(), result("data"), blocker, "out.zip")
	require.Error(t, err)
	assert.Equal(t, extract.KindStorage, extract.KindOf(err))
}

func TestPersistCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Persister{}.Persist(ctx, result("data"), t.TempDir(), "out.zip")
	assert.Equal(t, extract.KindStorage, extract.KindOf(err))
}

func TestPersistRejectsPathInName(t *testing.T) {
	_, err := Persister{}.Persist(context.Background(), result("data"), t.TempDir(), "../escape.zip")
	assert.Equal(t, extract.KindStorage, extract.KindOf(err))
}
