package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfextract/internal/extract"
	"github.com/local/pdfextract/internal/metrics"
)

// Persister writes result archives to the local filesystem.
type Persister struct {
	// DirPerm and FilePerm default to 0o755 and 0o644.
	DirPerm  os.FileMode
	FilePerm os.FileMode
}

// Persist stores the archive as dir/name and returns that path. The archive
// is staged in a temp file in dir and renamed into place, so dir/name always
// holds a complete archive. Other files in dir are left alone.
func (p Persister) Persist(ctx context.Context, res *extract.Result, dir, name string) (string, error) {
	dirPerm, filePerm := p.DirPerm, p.FilePerm
	if dirPerm == 0 {
		dirPerm = 0o755
	}
	if filePerm == 0 {
		filePerm = 0o644
	}
	if res == nil {
		return "", extract.Errorf(extract.KindStorage, "persist", "no result to save")
	}
	if name == "" || filepath.Base(name) != name {
		return "", extract.Errorf(extract.KindStorage, "persist", "invalid file name %q", name)
	}

	body, err := res.Open()
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", extract.Wrap(extract.KindStorage, "create output dir", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", extract.Wrap(extract.KindStorage, "create temp file", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, ctxReader{ctx: ctx, r: body})
	if err != nil {
		return "", extract.Wrap(extract.KindStorage, "write archive", err)
	}
	if n == 0 {
		return "", extract.Errorf(extract.KindStorage, "write archive", "result archive is empty")
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return "", extract.Wrap(extract.KindStorage, "write archive", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", extract.Wrap(extract.KindStorage, "sync archive", err)
	}
	if err := tmp.Close(); err != nil {
		return "", extract.Wrap(extract.KindStorage, "close archive", err)
	}

	dst := filepath.Join(dir, name)
	if err := os.Rename(tmpName, dst); err != nil {
		return "", extract.Wrap(extract.KindStorage, "replace archive", err)
	}
	committed = true
	syncDir(dir)

	metrics.ObserveArchiveBytes(n)
	log.Info().Str("path", dst).Int64("bytes", n).Msg("extraction archive saved")
	return dst, nil
}

// syncDir flushes the rename to disk where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, fmt.Errorf("copy interrupted: %w", err)
	}
	return c.r.Read(p)
}
