package extract

import (
	"io"
	"sync"
)

// Result is the archive produced by a finished job. Its body can be opened
// once; Close releases it if it was never opened.
type Result struct {
	AssetID     string
	ContentType string

	mu       sync.Mutex
	body     io.ReadCloser
	consumed bool
}

// NewResult wraps an archive stream.
func NewResult(assetID, contentType string, body io.ReadCloser) *Result {
	return &Result{AssetID: assetID, ContentType: contentType, body: body}
}

// WithCleanup arranges for fn to run once the body is closed.
func (r *Result) WithCleanup(fn func()) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.body = &cleanupCloser{ReadCloser: r.body, fn: fn}
	return r
}

// Open hands out the archive stream. Calling it a second time fails.
func (r *Result) Open() (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumed || r.body == nil {
		return nil, Errorf(KindSDK, "result", "result archive already consumed")
	}
	r.consumed = true
	return r.body, nil
}

// Close discards an unopened body. It is a no-op after Open.
func (r *Result) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumed || r.body == nil {
		return nil
	}
	r.consumed = true
	return r.body.Close()
}

type cleanupCloser struct {
	io.ReadCloser
	fn   func()
	once sync.Once
}

func (c *cleanupCloser) Close() error {
	err := c.ReadCloser.Close()
	c.once.Do(c.fn)
	return err
}
