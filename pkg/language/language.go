// Package language holds the closed set of legacy-language tags and the
// extension tables each source accepts.
package language

import (
	"sort"
	"strings"
)

// Language is a legacy-language tag.
type Language string

const (
	JCL     Language = "JCL"
	PLI     Language = "PL/I"
	HLASM   Language = "HLASM"
	BMS     Language = "BMS"
	COBOL   Language = "COBOL"
	REXX    Language = "REXX"
	RPGLE   Language = "RPGLE"
	Unknown Language = "UNKNOWN"
)

// Registry maps languages to their valid extensions (lower-case, no dot).
type Registry struct {
	order []Language
	exts  map[Language]map[string]struct{}
	byExt map[string]Language
}

// NewRegistry builds a registry. Languages are consulted in the given order
// when an extension is registered for more than one.
func NewRegistry(order []Language, table map[Language][]string) *Registry {
	r := &Registry{
		order: append([]Language(nil), order...),
		exts:  make(map[Language]map[string]struct{}, len(table)),
		byExt: make(map[string]Language),
	}
	for _, lang := range r.order {
		set := make(map[string]struct{}, len(table[lang]))
		for _, ext := range table[lang] {
			ext = NormalizeExtension(ext)
			set[ext] = struct{}{}
			if _, taken := r.byExt[ext]; !taken {
				r.byExt[ext] = lang
			}
		}
		r.exts[lang] = set
	}
	return r
}

// BulkQuery is the table used by the BigQuery source.
var BulkQuery = NewRegistry(
	[]Language{JCL, PLI, HLASM, BMS},
	map[Language][]string{
		JCL:   {"jcl", "job", "proc", "prc", "cntl"},
		PLI:   {"pli", "pl1", "plinc"},
		HLASM: {"hla", "hlasm", "assemble"},
		BMS:   {"bms", "bmc"},
	},
)

// BlobStore is the table used by the Stack v2 source.
var BlobStore = NewRegistry(
	[]Language{COBOL, REXX, RPGLE},
	map[Language][]string{
		COBOL: {"cbl", "cob", "cobol", "cpy", "ccp", "wks", "pco"},
		REXX:  {"rexx", "rex", "rx", "rxj", "pprx", "orx", "rexg", "exec"},
		RPGLE: {"rpgle", "sqlrpgle", "rpg", "dds"},
	},
)

// DefaultStackLanguages are built when no language is requested.
var DefaultStackLanguages = []string{string(COBOL), string(REXX), string(RPGLE)}

// Infer returns the language registered for ext, or Unknown.
func (r *Registry) Infer(ext string) Language {
	if lang, ok := r.byExt[NormalizeExtension(ext)]; ok {
		return lang
	}
	return Unknown
}

// Allowed reports whether ext is registered for any language.
func (r *Registry) Allowed(ext string) bool {
	_, ok := r.byExt[NormalizeExtension(ext)]
	return ok
}

// Extensions returns the set registered for lang. The lookup is
// case-insensitive; ok is false when the language has no table.
func (r *Registry) Extensions(lang string) (map[string]struct{}, bool) {
	set, ok := r.exts[Language(strings.ToUpper(strings.TrimSpace(lang)))]
	if !ok || len(set) == 0 {
		return nil, false
	}
	return set, true
}

// Languages returns the registered languages in registry order.
func (r *Registry) Languages() []Language {
	return append([]Language(nil), r.order...)
}

// AllExtensions returns every registered extension, sorted.
func (r *Registry) AllExtensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// SortedExtensions returns the extensions of lang, sorted.
func (r *Registry) SortedExtensions(lang Language) []string {
	out := make([]string, 0, len(r.exts[lang]))
	for ext := range r.exts[lang] {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// ExtensionFromPath returns the lower-cased text after the last dot in path,
// or "" when there is none.
func ExtensionFromPath(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(path[i+1:])
}

// NormalizeExtension lower-cases ext and strips leading dots.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(ext), "."))
}
