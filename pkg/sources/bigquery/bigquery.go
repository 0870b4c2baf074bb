// Package bigquery runs the bulk file query against the public GitHub
// snapshot hosted in BigQuery.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// DefaultMaxContentBytes excludes files at or above 2MB.
const DefaultMaxContentBytes = 2000000

// Row is one candidate file. Content is base64 text; License is "" when the
// repository has no license entry.
type Row struct {
	RepoName string
	Path     string
	Content  string
	License  string
}

type queryRow struct {
	RepoName bq.NullString `bigquery:"repo_name"`
	Path     bq.NullString `bigquery:"path"`
	Content  bq.NullString `bigquery:"content"`
	License  bq.NullString `bigquery:"license"`
}

// RowIterator is satisfied by *bigquery.RowIterator.
type RowIterator interface {
	Next(dst interface{}) error
}

// Runner executes a query and returns its row iterator.
type Runner func(ctx context.Context, sql string) (RowIterator, error)

// Client issues the bulk query.
type Client struct {
	run      Runner
	close    func() error
	MaxBytes int
}

// NewClient connects to BigQuery, billing queries to project.
func NewClient(ctx context.Context, project string, opts ...option.ClientOption) (*Client, error) {
	if project == "" {
		project = bq.DetectProjectID
	}
	c, err := bq.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	run := func(ctx context.Context, sql string) (RowIterator, error) {
		return c.Query(sql).Read(ctx)
	}
	return &Client{run: run, close: c.Close, MaxBytes: DefaultMaxContentBytes}, nil
}

// NewClientWithRunner builds a client around an arbitrary query runner.
func NewClientWithRunner(run Runner) *Client {
	return &Client{run: run, MaxBytes: DefaultMaxContentBytes}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// Query renders the deduplicating file query for the given extensions. Files
// are deduplicated by content id, binary content is excluded, and only paths
// ending in one of the extensions are selected.
func Query(extensions []string, maxBytes int) string {
	exts := append([]string(nil), extensions...)
	sort.Strings(exts)

	patterns := make([]string, 0, len(exts))
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimLeft(ext, "."))
		if _, dup := seen[ext]; dup || ext == "" {
			continue
		}
		seen[ext] = struct{}{}
		patterns = append(patterns, fmt.Sprintf("f.path LIKE '%%.%s'", strings.ReplaceAll(ext, "'", "")))
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxContentBytes
	}

	return fmt.Sprintf(`SELECT
  f.repo_name,
  f.path,
  c.content,
  l.license
FROM (
  SELECT f.*, ROW_NUMBER() OVER (PARTITION BY id ORDER BY path DESC) AS seqnum
  FROM `+"`bigquery-public-data.github_repos.files`"+` AS f
) f
JOIN `+"`bigquery-public-data.github_repos.contents`"+` AS c
  ON f.id = c.id AND seqnum = 1
LEFT JOIN `+"`bigquery-public-data.github_repos.licenses`"+` AS l
  ON f.repo_name = l.repo_name
WHERE
  NOT c.binary
  AND (%s)
  AND c.size < %d
`, strings.Join(patterns, " OR "), maxBytes)
}

// Rows runs the query and yields its rows. The sequence stops after the
// first error.
func (c *Client) Rows(ctx context.Context, extensions []string) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		it, err := c.run(ctx, Query(extensions, c.MaxBytes))
		if err != nil {
			yield(Row{}, fmt.Errorf("run query: %w", err))
			return
		}
		for {
			var r queryRow
			err := it.Next(&r)
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				yield(Row{}, fmt.Errorf("read row: %w", err))
				return
			}
			if !yield(Row{
				RepoName: r.RepoName.StringVal,
				Path:     r.Path.StringVal,
				Content:  r.Content.StringVal,
				License:  r.License.StringVal,
			}, nil) {
				return
			}
		}
	}
}
