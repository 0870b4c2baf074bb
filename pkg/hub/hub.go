// Package hub stores published corpora. A destination is a named dataset
// repository holding one JSONL data file.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Load when the destination holds no corpus yet.
var ErrNotFound = errors.New("corpus not found")

// ErrUnknownLayout is returned by Load when the destination has no DataPath
// but does hold other data files. Replacing it would hide those rows.
var ErrUnknownLayout = errors.New("destination holds data in an unrecognized layout")

// LayoutError lists the data files found where DataPath was expected.
type LayoutError struct {
	Repo  string
	Files []string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Repo, ErrUnknownLayout, strings.Join(e.Files, ", "))
}

func (e *LayoutError) Unwrap() error { return ErrUnknownLayout }

var dataExts = map[string]bool{".parquet": true, ".jsonl": true, ".json": true, ".csv": true, ".tsv": true, ".arrow": true}

// isDataFile reports whether a repository file holds dataset rows.
func isDataFile(p string) bool {
	return strings.HasPrefix(p, "data/") || dataExts[strings.ToLower(path.Ext(p))]
}

// DataPath is the location of the corpus file inside a repository.
const DataPath = "data/train.jsonl"

// Repository is a dataset destination.
type Repository interface {
	// EnsureRepo creates the repository if it is absent. It is a no-op when
	// the repository already exists.
	EnsureRepo(ctx context.Context, id string, private bool) error
	// Load returns the stored rows in order, or ErrNotFound.
	Load(ctx context.Context, id string) ([]json.RawMessage, error)
	// Replace overwrites the stored corpus with rows.
	Replace(ctx context.Context, id string, rows []json.RawMessage) error
	// URL is where a human can browse the repository.
	URL(id string) string
}

// RepoID joins namespace and name, leaving an already qualified name as is.
func RepoID(namespace, name string) string {
	name = strings.Trim(name, "/")
	if namespace == "" || strings.Contains(name, "/") {
		return name
	}
	return namespace + "/" + name
}

type cardHeader struct {
	PrettyName string       `yaml:"pretty_name"`
	Tags       []string     `yaml:"tags"`
	Configs    []cardConfig `yaml:"configs"`
}

type cardConfig struct {
	ConfigName string         `yaml:"config_name"`
	DataFiles  []cardDataFile `yaml:"data_files"`
}

type cardDataFile struct {
	Split string `yaml:"split"`
	Path  string `yaml:"path"`
}

// DatasetCard renders the README that declares the data file layout.
func DatasetCard(id string, rows int) ([]byte, error) {
	header, err := yaml.Marshal(cardHeader{
		PrettyName: id,
		Tags:       []string{"code", "mainframe"},
		Configs: []cardConfig{{
			ConfigName: "default",
			DataFiles:  []cardDataFile{{Split: "train", Path: DataPath}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("render dataset card: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\nSource files collected by zorse. %d rows.\n", id, rows)
	return []byte(b.String()), nil
}
