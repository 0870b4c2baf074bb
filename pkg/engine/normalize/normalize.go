// Package normalize turns source-specific candidate rows into unified
// records, applying the extension allowlist and the content filter.
package normalize

import (
	"context"
	"errors"
	"fmt"

	"github.com/zorse-project/zorse/pkg/engine/filter"
	"github.com/zorse-project/zorse/pkg/record"
)

// Outcome classifies what happened to one candidate.
type Outcome string

const (
	Admitted         Outcome = "admitted"
	FilterRejected   Outcome = "filter_failure"
	InvalidExtension Outcome = "invalid_extension"
	DecodeFailure    Outcome = "decode_failure"
	FetchFailure     Outcome = "fetch_failure"
)

// Result is the normalization of one candidate. Record is set only when
// Outcome is Admitted.
type Result struct {
	Record  record.Record
	Outcome Outcome
	// LicenseMismatch is set when a passed-through license_type disagrees
	// with the local classifier.
	LicenseMismatch bool
}

// Normalizer converts one raw candidate. A returned error is fatal for the
// run; per-row problems are reported through Result.Outcome.
type Normalizer[T any] interface {
	Normalize(ctx context.Context, raw T) (Result, error)
}

// Admitter is the content filter as seen by the normalizers.
type Admitter interface {
	Admit(content string) (filter.Admission, error)
}

// Fetcher resolves blob content by id and encoding.
type Fetcher interface {
	Fetch(ctx context.Context, id, encoding string) (string, error)
}

// Tally counts outcomes for one source.
type Tally struct {
	Admitted            int
	FilterRejected      int
	InvalidExtension    int
	DecodeFailure       int
	FetchFailure        int
	LicenseDisagreement int
}

// Rejected is the number of candidates that did not produce a record.
func (t Tally) Rejected() int {
	return t.FilterRejected + t.InvalidExtension + t.DecodeFailure + t.FetchFailure
}

// Seen is the number of candidates processed.
func (t Tally) Seen() int {
	return t.Admitted + t.Rejected()
}

func (t *Tally) add(res Result) {
	switch res.Outcome {
	case Admitted:
		t.Admitted++
	case FilterRejected:
		t.FilterRejected++
	case InvalidExtension:
		t.InvalidExtension++
	case DecodeFailure:
		t.DecodeFailure++
	case FetchFailure:
		t.FetchFailure++
	}
	if res.LicenseMismatch {
		t.LicenseDisagreement++
	}
}

// admit runs the filter and maps a rejection to FilterRejected. Only
// counter failures are returned as errors.
func admit(f Admitter, content string) (filter.Admission, Outcome, error) {
	adm, err := f.Admit(content)
	if err == nil {
		return adm, Admitted, nil
	}
	if errors.Is(err, filter.ErrRejected) {
		return filter.Admission{}, FilterRejected, nil
	}
	return filter.Admission{}, "", fmt.Errorf("admit: %w", err)
}
