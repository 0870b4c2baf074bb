package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/zorse-project/zorse/pkg/engine/normalize"
	"github.com/zorse-project/zorse/pkg/record"
)

type staticSource struct {
	name    string
	records []record.Record
	tally   normalize.Tally
	err     error
	ran     bool
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Run(ctx context.Context, emit func(record.Record)) (normalize.Tally, error) {
	s.ran = true
	for _, r := range s.records {
		emit(r)
	}
	return s.tally, s.err
}

func stackSource() *staticSource {
	return &staticSource{
		name: "stack:COBOL",
		records: []record.Record{{
			Content:     "       IDENTIFICATION DIVISION.\n",
			RepoName:    "acme/payroll",
			FilePath:    "src/PAY.cbl",
			Language:    "COBOL",
			Extension:   "cbl",
			LicenseType: record.Permissive,
			Licenses:    []string{"Apache-2.0"},
			HostURL:     record.HostGitHub,
			Source:      record.SourceStack,
			NumTokens:   4,
			RevisionID:  "deadbeef",
			CommitDate:  "2019-03-04T05:06:07",
			Branch:      "refs/heads/main",
		}},
		tally: normalize.Tally{Admitted: 1, InvalidExtension: 2},
	}
}

func bigquerySource() *staticSource {
	return &staticSource{
		name: "bigquery",
		records: []record.Record{{
			Content:     "//JOB1 JOB (ACCT)\n",
			RepoName:    "acme/jobs",
			FilePath:    "jcl/JOB1.jcl",
			Language:    "JCL",
			Extension:   "jcl",
			LicenseType: record.NoLicense,
			HostURL:     record.HostGitHub,
			Source:      record.SourceBigQuery,
			NumTokens:   5,
		}},
		tally: normalize.Tally{Admitted: 1, FilterRejected: 3},
	}
}

func TestEngine_Run(t *testing.T) {
	out := filepath.Join(t.TempDir(), "corpus.jsonl")
	eng, err := New(context.Background(),
		WithSources(stackSource(), bigquerySource()),
		WithOutput(out),
		WithRunID("test-run"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Records != 2 || len(summary.Sources) != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got := summary.Sources[1].Tally.Rejected(); got != 3 {
		t.Errorf("bigquery rejected = %d, want 3", got)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	g := goldie.New(t)
	g.Assert(t, t.Name(), data)
}

func TestEngine_EmptyRunCreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.jsonl")
	eng, err := New(context.Background(), WithOutput(out), WithSources(&staticSource{name: "stack:REXX"}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Records != 0 {
		t.Errorf("records = %d", summary.Records)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("output not created: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("output size = %d, want 0", info.Size())
	}
}

func TestEngine_SourceErrorAbortsBeforeWrite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "corpus.jsonl")
	failing := &staticSource{name: "bigquery", err: errors.New("quota exceeded")}
	after := stackSource()

	eng, _ := New(context.Background(), WithOutput(out), WithSources(failing, after))
	_, err := eng.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if after.ran {
		t.Error("later source ran after failure")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("output written despite failure: %v", statErr)
	}
}

func TestEngine_RequiresOutput(t *testing.T) {
	eng, _ := New(context.Background())
	if _, err := eng.Run(context.Background()); !errors.Is(err, ErrNoOutput) {
		t.Errorf("err = %v, want ErrNoOutput", err)
	}
}

type panickingSource struct{}

func (panickingSource) Name() string { return "boom" }
func (panickingSource) Run(context.Context, func(record.Record)) (normalize.Tally, error) {
	panic("tokenizer exploded")
}

func TestEngine_PanicBecomesError(t *testing.T) {
	eng, _ := New(context.Background(), WithOutput(filepath.Join(t.TempDir(), "x.jsonl")), WithSources(panickingSource{}))
	_, err := eng.Run(context.Background())
	if err == nil {
		t.Fatal("expected error from panic")
	}
}
