package normalize

import (
	"context"
	"log/slog"

	"github.com/zorse-project/zorse/pkg/engine/license"
	"github.com/zorse-project/zorse/pkg/language"
	"github.com/zorse-project/zorse/pkg/record"
	"github.com/zorse-project/zorse/pkg/sources/stack"
)

// Stack normalizes dataset rows for one language partition. The upstream
// license_type is kept as provided.
type Stack struct {
	Filter   Admitter
	Fetcher  Fetcher
	Registry *language.Registry
	Language string
	Logger   *slog.Logger
}

func (n *Stack) Normalize(ctx context.Context, row stack.Row) (Result, error) {
	ext := language.NormalizeExtension(row.Extension)
	if allowed, ok := n.Registry.Extensions(n.Language); ok {
		if _, member := allowed[ext]; !member {
			return Result{Outcome: InvalidExtension}, nil
		}
	}

	content, err := n.Fetcher.Fetch(ctx, row.BlobID, row.SrcEncoding)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		n.logger().Warn("failed to fetch blob",
			"blob_id", row.BlobID, "repo_name", row.RepoName, "path", row.Path, "error", err)
		return Result{Outcome: FetchFailure}, nil
	}

	adm, outcome, err := admit(n.Filter, content)
	if err != nil || outcome != Admitted {
		return Result{Outcome: outcome}, err
	}

	upstream := record.LicenseType(row.LicenseType)
	return Result{
		Outcome:         Admitted,
		LicenseMismatch: upstream != localLicenseType(row.DetectedLicenses),
		Record: record.Record{
			Content:     content,
			RepoName:    row.RepoName,
			FilePath:    row.Path,
			Language:    row.Language,
			Extension:   ext,
			LicenseType: upstream,
			Licenses:    record.CopyLicenses(row.DetectedLicenses),
			HostURL:     record.HostGitHub,
			Source:      record.SourceStack,
			NumTokens:   adm.Tokens(),
			RevisionID:  row.RevisionID,
			CommitDate:  row.CommitterDate.ISO(),
			Branch:      row.BranchName,
		},
	}, nil
}

// localLicenseType is permissive when any detected identifier classifies as
// permissive.
func localLicenseType(ids []string) record.LicenseType {
	for _, id := range ids {
		if license.Classify(id) == record.Permissive {
			return record.Permissive
		}
	}
	return record.NoLicense
}

func (n *Stack) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}
