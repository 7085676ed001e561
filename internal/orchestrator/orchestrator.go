package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfextract/internal/config"
	"github.com/local/pdfextract/internal/extract"
	"github.com/local/pdfextract/internal/metrics"
)

// State is a step of a single extraction run.
type State int

const (
	StateStart State = iota
	StateCredentialsResolved
	StateRequestBuilt
	StateInvoked
	StatePersisted
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateCredentialsResolved:
		return "credentials_resolved"
	case StateRequestBuilt:
		return "request_built"
	case StateInvoked:
		return "invoked"
	case StatePersisted:
		return "persisted"
	case StateDone:
		return "done"
	default:
		return "failed"
	}
}

type CredentialResolver interface {
	Resolve() (extract.Credentials, error)
}

type ResultPersister interface {
	Persist(ctx context.Context, res *extract.Result, dir, name string) (string, error)
}

type Dependencies struct {
	Credentials CredentialResolver
	Invoker     extract.Invoker
	Persister   ResultPersister
	// OutputDir and FileName default to config.DefaultOutputDir and
	// config.DefaultOutputFileName.
	OutputDir string
	FileName  string
}

// Orchestrator runs one upload through resolve, build, invoke and persist.
// It keeps no state between runs.
type Orchestrator struct {
	deps Dependencies
}

func New(deps Dependencies) *Orchestrator {
	if deps.OutputDir == "" {
		deps.OutputDir = config.DefaultOutputDir
	}
	if deps.FileName == "" {
		deps.FileName = config.DefaultOutputFileName
	}
	return &Orchestrator{deps: deps}
}

// OutputDir is the folder archives are written to.
func (o *Orchestrator) OutputDir() string { return o.deps.OutputDir }

// ProcessUpload runs the pipeline for filePath and reports the outcome as
// text. It never panics; every failure becomes a message.
func (o *Orchestrator) ProcessUpload(ctx context.Context, filePath string) string {
	_, err := o.Run(ctx, filePath)
	return Message(err, o.deps.OutputDir)
}

// Run is ProcessUpload without the message translation. Errors that carry
// no kind come back as KindUnclassified.
func (o *Orchestrator) Run(ctx context.Context, filePath string) (path string, err error) {
	runID := uuid.NewString()
	l := log.With().Str("run_id", runID).Str("file", filePath).Logger()
	start := time.Now()
	state := StateStart

	defer func() {
		if r := recover(); r != nil {
			err = extract.Errorf(extract.KindUnclassified, "process upload", "panic: %v", r)
		}
		if err != nil {
			err = extract.Wrap(extract.KindUnclassified, "process upload", err)
			kind := extract.KindOf(err)
			failedAfter := state
			advance(l, state, StateFailed)
			l.Error().Err(err).Str("kind", kind.String()).Str("failed_after", failedAfter.String()).Msg("pdf processing failed")
			metrics.ObserveRun(kind.String(), time.Since(start))
			path = ""
			return
		}
		l.Info().Str("output", path).Dur("took", time.Since(start)).Msg("pdf processing complete")
		metrics.ObserveRun("success", time.Since(start))
	}()

	l.Info().Msg("Processing PDF...")

	creds, err := o.deps.Credentials.Resolve()
	if err != nil {
		return "", err
	}
	state = advance(l, state, StateCredentialsResolved)

	req := extract.BuildRequest(filePath, creds)
	state = advance(l, state, StateRequestBuilt)

	res, err := o.deps.Invoker.Invoke(ctx, req)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", extract.Errorf(extract.KindSDK, "invoke", "service returned no result")
	}
	defer res.Close()
	state = advance(l, state, StateInvoked)

	path, err = o.deps.Persister.Persist(ctx, res, o.deps.OutputDir, o.deps.FileName)
	if err != nil {
		return "", err
	}
	state = advance(l, state, StatePersisted)
	state = advance(l, state, StateDone)
	return path, nil
}

func advance(l zerolog.Logger, from, to State) State {
	l.Debug().Str("from", from.String()).Str("to", to.String()).Msg("state transition")
	return to
}

// Message maps the outcome of a run to the text shown to the user.
func Message(err error, outputDir string) string {
	if err == nil {
		if outputDir == "" {
			outputDir = config.DefaultOutputDir
		}
		return fmt.Sprintf("Processing complete. The result is saved in the '%s' folder.", outputDir)
	}
	switch extract.KindOf(err) {
	case extract.KindConfiguration:
		return fmt.Sprintf("Configuration error: %v", err)
	case extract.KindServiceAPI:
		return fmt.Sprintf("An error occurred while processing the PDF: %v", err)
	case extract.KindServiceUsage:
		return fmt.Sprintf("PDF Services usage limit reached: %v", err)
	case extract.KindSDK:
		return fmt.Sprintf("PDF Services client error: %v", err)
	case extract.KindStorage:
		return fmt.Sprintf("Could not save the extraction result: %v", err)
	default:
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
}
