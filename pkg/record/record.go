// Package record defines the unified corpus row shared by every source.
package record

import (
	"bytes"
	"encoding/json"
)

// LicenseType is the two-valued permissiveness category.
type LicenseType string

const (
	Permissive LicenseType = "permissive"
	NoLicense  LicenseType = "no_license"
)

// Source names the adapter a record came from.
type Source string

const (
	SourceBigQuery Source = "bigquery"
	SourceStack    Source = "stack"
)

// HostGitHub is the host_url recorded for both current sources.
const HostGitHub = "https://github.com"

// Record is one admitted file. Records are built by the normalizers only after
// the content filter admitted them and are never modified afterwards.
type Record struct {
	Content     string      `json:"content"`
	RepoName    string      `json:"repo_name"`
	FilePath    string      `json:"file_path"`
	Language    string      `json:"language"`
	Extension   string      `json:"extension"`
	LicenseType LicenseType `json:"license_type"`
	Licenses    []string    `json:"licenses"`
	HostURL     string      `json:"host_url"`
	Source      Source      `json:"source"`
	NumTokens   int         `json:"num_tokens"`
	RevisionID  string      `json:"revision_id"`
	CommitDate  string      `json:"commit_date"`
	Branch      string      `json:"branch"`
}

// MarshalJSON keeps every field present; licenses is always an array.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	p := plain(r)
	if p.Licenses == nil {
		p.Licenses = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// CopyLicenses returns an owned, non-nil copy of the given identifiers.
func CopyLicenses(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
