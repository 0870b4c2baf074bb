// Package app wires configuration into engine sources and publishers.
package app

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/zorse-project/zorse/pkg/config"
	"github.com/zorse-project/zorse/pkg/engine"
	zaws "github.com/zorse-project/zorse/pkg/engine/aws"
	"github.com/zorse-project/zorse/pkg/engine/filter"
	"github.com/zorse-project/zorse/pkg/engine/normalize"
	"github.com/zorse-project/zorse/pkg/engine/tokenizer"
	"github.com/zorse-project/zorse/pkg/hub"
	"github.com/zorse-project/zorse/pkg/language"
	"github.com/zorse-project/zorse/pkg/publish"
	"github.com/zorse-project/zorse/pkg/sources/bigquery"
	"github.com/zorse-project/zorse/pkg/sources/stack"
	"github.com/zorse-project/zorse/pkg/storage"
	"github.com/zorse-project/zorse/pkg/version"
)

// BuildOptions selects the sources of one build.
type BuildOptions struct {
	Output          string
	Languages       []string
	IncludeBigQuery bool
	RunID           string
}

// App holds the process-wide clients. Each is created on first use.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Verbose bool

	tokenizer *tokenizer.BPE

	awsOnce   sync.Once
	awsClient *zaws.Client
	awsErr    error
}

func New(cfg config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		Config:    cfg,
		Logger:    logger,
		tokenizer: tokenizer.New(cfg.Tokenizer.Encoding),
	}
}

func (a *App) aws(ctx context.Context) (*zaws.Client, error) {
	a.awsOnce.Do(func() {
		a.awsClient, a.awsErr = zaws.NewClient(ctx, zaws.Options{
			Region:    a.Config.AWS.Region,
			Profile:   a.Config.AWS.Profile,
			Anonymous: a.Config.AWS.Anonymous,
			Verbose:   a.Verbose,
			UserAgent: version.UserAgent(),
			Logger:    a.Logger,
		})
	})
	return a.awsClient, a.awsErr
}

// Build drains the blob-store languages first, then the bulk query, and
// writes the combined corpus.
func (a *App) Build(ctx context.Context, opts BuildOptions) (engine.Summary, error) {
	f := filter.New(a.tokenizer, a.Config.Filter)

	var sources []engine.Source
	for _, lang := range opts.Languages {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		sources = append(sources, a.stackSource(f, lang))
	}

	if opts.IncludeBigQuery {
		client, err := bigquery.NewClient(ctx, a.Config.BigQuery.Project)
		if err != nil {
			return engine.Summary{}, err
		}
		defer client.Close()
		client.MaxBytes = a.Config.BigQuery.MaxContentBytes
		sources = append(sources, a.bigquerySource(f, client))
	}

	eng, err := engine.New(ctx,
		engine.WithLogger(a.Logger),
		engine.WithSources(sources...),
		engine.WithOutput(opts.Output),
		engine.WithRunID(opts.RunID),
	)
	if err != nil {
		return engine.Summary{}, err
	}
	return eng.Run(ctx)
}

func (a *App) stackSource(f *filter.Filter, lang string) engine.Source {
	sc := a.Config.Stack
	rows := stack.NewRowsClient(a.Config.Hub.Token)
	rows.Endpoint = sc.RowsEndpoint
	rows.Dataset = sc.Dataset
	rows.Split = sc.Split
	rows.PageSize = sc.PageSize

	return &normalize.Pipeline[stack.Row]{
		Label: "stack:" + lang,
		Rows: func(ctx context.Context) iter.Seq2[stack.Row, error] {
			return rows.Rows(ctx, lang)
		},
		Normalizer: &normalize.Stack{
			Filter:   f,
			Fetcher:  &lazyFetcher{app: a, bucket: sc.BlobBucket, prefix: sc.BlobPrefix},
			Registry: language.BlobStore,
			Language: lang,
			Logger:   a.Logger,
		},
	}
}

func (a *App) bigquerySource(f *filter.Filter, client *bigquery.Client) engine.Source {
	return &normalize.Pipeline[bigquery.Row]{
		Label: "bigquery",
		Rows: func(ctx context.Context) iter.Seq2[bigquery.Row, error] {
			return client.Rows(ctx, language.BulkQuery.AllExtensions())
		},
		Normalizer: &normalize.BigQuery{
			Filter:   f,
			Registry: language.BulkQuery,
			Logger:   a.Logger,
		},
	}
}

// lazyFetcher defers the S3 client until the first blob is needed, so a
// build whose rows are all rejected by extension never resolves credentials.
type lazyFetcher struct {
	app            *App
	bucket, prefix string
	fetcher        *stack.BlobFetcher
}

func (l *lazyFetcher) Fetch(ctx context.Context, id, encoding string) (string, error) {
	if l.fetcher == nil {
		client, err := l.app.aws(ctx)
		if err != nil {
			return "", err
		}
		l.fetcher = stack.NewBlobFetcher(client.S3, l.bucket, l.prefix)
	}
	return l.fetcher.Fetch(ctx, id, encoding)
}

// lazyS3 resolves AWS configuration on the first object call, so publish
// preconditions are reported before any credential or profile error.
type lazyS3 struct {
	app *App
}

func (l lazyS3) client(ctx context.Context) (*s3.Client, error) {
	c, err := l.app.aws(ctx)
	if err != nil {
		return nil, err
	}
	return c.S3, nil
}

func (l lazyS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	c, err := l.client(ctx)
	if err != nil {
		return nil, err
	}
	return c.PutObject(ctx, in, optFns...)
}

func (l lazyS3) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	c, err := l.client(ctx)
	if err != nil {
		return nil, err
	}
	return c.GetObject(ctx, in, optFns...)
}

// Publisher returns a publisher for the configured hub backend.
func (a *App) Publisher(ctx context.Context) (*publish.Publisher, error) {
	repo, err := a.Repository(ctx)
	if err != nil {
		return nil, err
	}
	p := publish.New(repo, a.Config.Hub.Token, a.Logger)
	p.Namespace = a.Config.Hub.Namespace
	p.Private = a.Config.Hub.Private
	return p, nil
}

// Repository builds the destination for hub.kind.
func (a *App) Repository(ctx context.Context) (hub.Repository, error) {
	hc := a.Config.Hub
	switch hc.Kind {
	case config.HubHuggingFace, "":
		h := hub.NewHuggingFace(hc.Token)
		if hc.Endpoint != "" {
			h.Endpoint = hc.Endpoint
		}
		h.UserAgent = version.UserAgent()
		h.Logger = a.Logger
		return h, nil
	case config.HubS3:
		store := storage.NewS3Store(lazyS3{app: a}, hc.Bucket, hc.Prefix)
		base := "s3://" + hc.Bucket
		if p := strings.Trim(hc.Prefix, "/"); p != "" {
			base += "/" + p
		}
		return hub.NewStoreRepository(store, base), nil
	case config.HubLocal:
		return hub.NewStoreRepository(storage.NewLocalStore(hc.Root), hc.Root), nil
	default:
		return nil, fmt.Errorf("unknown hub.kind %q", hc.Kind)
	}
}
