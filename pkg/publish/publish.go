// Package publish merges freshly built corpus files into a hub destination.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zorse-project/zorse/pkg/dataset"
	"github.com/zorse-project/zorse/pkg/hub"
	"github.com/zorse-project/zorse/pkg/telemetry"
)

// DefaultNamespace prefixes every destination name.
const DefaultNamespace = "zorse"

var (
	ErrNoInputs     = errors.New("no input files")
	ErrFileNotFound = errors.New("file does not exist")
	ErrNotJSONL     = errors.New("file must have a .jsonl extension")
	ErrMissingToken = errors.New("no hub token provided; set HF_TOKEN")
)

// PreconditionError reports an input problem detected before any hub call.
type PreconditionError struct {
	Path string
	Err  error
}

func (e *PreconditionError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// Result describes a completed publish.
type Result struct {
	RepoID    string
	URL       string
	PriorRows int
	NewRows   int
}

// Total is the number of rows now stored at the destination.
func (r Result) Total() int { return r.PriorRows + r.NewRows }

// Publisher appends corpus files to a destination by replacing it with the
// prior rows followed by the new ones.
type Publisher struct {
	Repo      hub.Repository
	Namespace string
	Token     string
	Private   bool
	Logger    *slog.Logger
	Tracer    trace.Tracer
}

func New(repo hub.Repository, token string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		Repo:      repo,
		Namespace: DefaultNamespace,
		Token:     token,
		Private:   true,
		Logger:    logger,
		Tracer:    telemetry.Tracer("zorse/publish"),
	}
}

// Check validates the inputs without touching the hub. Paths are checked in
// order, existence before extension; the token is checked last.
func (p *Publisher) Check(paths []string) error {
	if len(paths) == 0 {
		return &PreconditionError{Err: ErrNoInputs}
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return &PreconditionError{Path: path, Err: ErrFileNotFound}
		}
		if err != nil {
			return &PreconditionError{Path: path, Err: err}
		}
		if info.IsDir() {
			return &PreconditionError{Path: path, Err: ErrNotJSONL}
		}
		if filepath.Ext(path) != dataset.Ext {
			return &PreconditionError{Path: path, Err: ErrNotJSONL}
		}
	}
	if p.Token == "" {
		return &PreconditionError{Err: ErrMissingToken}
	}
	return nil
}

// Publish merges paths into the destination name. A destination without a
// stored corpus receives just the new rows.
func (p *Publisher) Publish(ctx context.Context, paths []string, name string) (Result, error) {
	if err := p.Check(paths); err != nil {
		return Result{}, err
	}

	tracer := p.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer("zorse/publish")
	}
	ctx, span := tracer.Start(ctx, "Publisher.Publish")
	defer span.End()

	id := hub.RepoID(p.Namespace, name)
	span.SetAttributes(attribute.String("zorse.repo", id))
	res := Result{RepoID: id, URL: p.Repo.URL(id)}

	fail := func(err error) (Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}

	if err := p.Repo.EnsureRepo(ctx, id, p.Private); err != nil {
		return fail(err)
	}

	prior, err := p.Repo.Load(ctx, id)
	switch {
	case errors.Is(err, hub.ErrNotFound):
		p.Logger.Info("no existing dataset found; a new one will be created", "repo", id)
		prior = nil
	case err != nil:
		return fail(err)
	default:
		p.Logger.Info("existing dataset found; new rows will be appended", "repo", id, "rows", len(prior))
	}

	fresh, err := dataset.ReadFiles(paths...)
	if err != nil {
		return fail(err)
	}

	combined := append(prior[:len(prior):len(prior)], fresh...)
	if err := p.Repo.Replace(ctx, id, combined); err != nil {
		return fail(err)
	}

	res.PriorRows = len(prior)
	res.NewRows = len(fresh)
	span.SetAttributes(attribute.Int("zorse.rows", res.Total()))
	p.Logger.Info("dataset uploaded", "repo", id, "url", res.URL, "prior_rows", res.PriorRows, "new_rows", res.NewRows)
	return res, nil
}
