package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfextract/internal/logger"
	"github.com/local/pdfextract/internal/metrics"
	"github.com/local/pdfextract/internal/pdfinfo"
)

//go:embed templates/*.html
var templateFS embed.FS

// Processor turns an uploaded file into a user-facing message.
type Processor interface {
	ProcessUpload(ctx context.Context, filePath string) string
}

// Inspector checks what was uploaded before it is processed.
type Inspector interface {
	Inspect(path string) (*pdfinfo.Info, error)
}

type Options struct {
	Title    string
	Username string
	Password string
	// MaxUploadMB caps the request body; defaults to 100.
	MaxUploadMB int
	// UploadDir holds uploads while they are processed; defaults to os.TempDir().
	UploadDir string
}

type Web struct {
	tpl     *template.Template
	proc    Processor
	inspect Inspector
	opts    Options
}

func New(proc Processor, inspect Inspector, opts Options) *Web {
	if opts.Title == "" {
		opts.Title = "PDF Processor"
	}
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 100
	}
	if opts.UploadDir == "" {
		opts.UploadDir = os.TempDir()
	}
	return &Web{
		tpl:     template.Must(template.ParseFS(templateFS, "templates/*.html")),
		proc:    proc,
		inspect: inspect,
		opts:    opts,
	}
}

// Routes builds the HTTP handler: the upload form, a plain-text API twin,
// health and metrics.
func (w *Web) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(wr http.ResponseWriter, _ *http.Request) {
		wr.WriteHeader(http.StatusOK)
		_, _ = wr.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(w.requireAuth)
		r.Get("/", w.handleForm)
		r.Post("/", w.handleFormUpload)
		r.Post("/api/process", w.handleAPIUpload)
	})
	return r
}

func (w *Web) render(wr http.ResponseWriter, output string) {
	wr.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := w.tpl.ExecuteTemplate(wr, "index.html", map[string]any{"Title": w.opts.Title, "Output": output}); err != nil {
		log.Error().Err(err).Msg("render form")
	}
}

// requireAuth enforces basic auth when both credentials are configured.
func (w *Web) requireAuth(next http.Handler) http.Handler {
	if w.opts.Username == "" || w.opts.Password == "" {
		return next
	}
	return http.HandlerFunc(func(wr http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), []byte(w.opts.Username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), []byte(w.opts.Password)) != 1 {
			wr.Header().Set("WWW-Authenticate", `Basic realm="`+w.opts.Title+`"`)
			http.Error(wr, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(wr, r)
	})
}

func (w *Web) handleForm(wr http.ResponseWriter, _ *http.Request) {
	w.render(wr, "")
}

func (w *Web) handleFormUpload(wr http.ResponseWriter, r *http.Request) {
	w.render(wr, w.process(wr, r))
}

func (w *Web) handleAPIUpload(wr http.ResponseWriter, r *http.Request) {
	msg := w.process(wr, r)
	wr.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(wr, msg)
}

// process stores the uploaded file, checks that it is a PDF and hands it to
// the processor. Every outcome is a message.
func (w *Web) process(wr http.ResponseWriter, r *http.Request) string {
	r.Body = http.MaxBytesReader(wr, r.Body, int64(w.opts.MaxUploadMB)<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return fmt.Sprintf("The uploaded file is larger than %d MB.", w.opts.MaxUploadMB)
		}
		return "Please choose a PDF file to upload."
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		return "Please choose a PDF file to upload."
	}
	defer file.Close()

	l := logger.Component("web").With().Str("request_id", middleware.GetReqID(r.Context())).Str("upload", hdr.Filename).Logger()

	localPath, err := w.saveUpload(file)
	if err != nil {
		l.Error().Err(err).Msg("save upload")
		return fmt.Sprintf("Could not store the uploaded file: %v", err)
	}
	defer os.Remove(localPath)

	info, err := w.inspect.Inspect(localPath)
	if err != nil {
		l.Error().Err(err).Msg("inspect upload")
		return fmt.Sprintf("Could not read the uploaded file: %v", err)
	}
	if !info.Supported {
		l.Warn().Str("mime", info.MIMEType).Msg("rejected non-pdf upload")
		return fmt.Sprintf("The uploaded file is not a PDF (%s).", info.Description)
	}
	if info.Pages > 0 {
		metrics.ObservePages(info.Pages)
	}
	l.Info().Int("pages", info.Pages).Int64("bytes", hdr.Size).Msg("upload accepted")

	return w.proc.ProcessUpload(r.Context(), localPath)
}

func (w *Web) saveUpload(src io.Reader) (string, error) {
	if err := os.MkdirAll(w.opts.UploadDir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(w.opts.UploadDir, "upload-"+uuid.NewString()+".pdf")
	out, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(p)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(p)
		return "", err
	}
	return p, nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(wr http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(wr, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}
