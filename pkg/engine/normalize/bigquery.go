package normalize

import (
	"context"
	"encoding/base64"
	"log/slog"

	"golang.org/x/text/encoding/charmap"

	"github.com/zorse-project/zorse/pkg/engine/license"
	"github.com/zorse-project/zorse/pkg/language"
	"github.com/zorse-project/zorse/pkg/record"
	"github.com/zorse-project/zorse/pkg/sources/bigquery"
)

// BigQuery normalizes rows of the bulk file query. License classification is
// computed locally and provenance fields stay empty.
type BigQuery struct {
	Filter   Admitter
	Registry *language.Registry
	Logger   *slog.Logger
}

func (n *BigQuery) Normalize(ctx context.Context, row bigquery.Row) (Result, error) {
	ext := language.ExtensionFromPath(row.Path)
	lang := n.Registry.Infer(ext)
	// The stored extension must be a registered key verbatim, so "x.jcl " or
	// "x. jcl" are dropped rather than normalized.
	if ext != language.NormalizeExtension(ext) || !n.Registry.Allowed(ext) {
		return Result{Outcome: InvalidExtension}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(row.Content)
	if err != nil {
		n.logger().Warn("failed to decode content",
			"repo_name", row.RepoName, "path", row.Path, "error", err)
		return Result{Outcome: DecodeFailure}, nil
	}
	// Latin-1 maps every byte, so this never fails on valid base64 output.
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		n.logger().Warn("failed to decode content",
			"repo_name", row.RepoName, "path", row.Path, "error", err)
		return Result{Outcome: DecodeFailure}, nil
	}
	content := string(text)

	adm, outcome, err := admit(n.Filter, content)
	if err != nil || outcome != Admitted {
		return Result{Outcome: outcome}, err
	}

	licenses := []string{}
	if row.License != "" {
		licenses = []string{row.License}
	}

	return Result{
		Outcome: Admitted,
		Record: record.Record{
			Content:     content,
			RepoName:    row.RepoName,
			FilePath:    row.Path,
			Language:    string(lang),
			Extension:   ext,
			LicenseType: license.Classify(row.License),
			Licenses:    licenses,
			HostURL:     record.HostGitHub,
			Source:      record.SourceBigQuery,
			NumTokens:   adm.Tokens(),
		},
	}, nil
}

func (n *BigQuery) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}
