// Package license maps raw license identifiers to a permissiveness category.
package license

import (
	"strings"

	"github.com/zorse-project/zorse/pkg/record"
)

// Rule is one step of the classification cascade. Match receives the trimmed
// identifier and its lower-cased form.
type Rule struct {
	Name  string
	Match func(id, lower string) bool
}

// brandGate lists the substrings that send an identifier to the brand
// heuristic. The heuristic itself only accepts mit, apache and a bsd prefix,
// so "isc-style" or "OpenBSD" pass the gate and still classify as no_license.
var brandGate = []string{"mit", "apache", "bsd", "isc", "unlicense", "wtfpl"}

var spdxFolded = foldKeys(spdxPermissive)

// Cascade is evaluated in order; the first matching rule wins.
var Cascade = []Rule{
	{
		Name: "spdx-exact",
		Match: func(id, _ string) bool {
			_, ok := spdxPermissive[id]
			return ok
		},
	},
	{
		Name: "common-name",
		Match: func(_, lower string) bool {
			_, ok := commonPermissive[lower]
			return ok
		},
	},
	{
		Name: "spdx-folded",
		Match: func(_, lower string) bool {
			_, ok := spdxFolded[lower]
			return ok
		},
	},
	{
		Name: "brand-heuristic",
		Match: func(_, lower string) bool {
			if !containsAny(lower, brandGate) {
				return false
			}
			if strings.Contains(lower, "mit") || strings.Contains(lower, "apache") {
				return true
			}
			return strings.HasPrefix(lower, "bsd")
		},
	},
}

// Classify returns Permissive when any cascade rule accepts raw, NoLicense
// otherwise. An empty or blank identifier is NoLicense.
func Classify(raw string) record.LicenseType {
	rule, ok := Explain(raw)
	if !ok || rule == "" {
		return record.NoLicense
	}
	return record.Permissive
}

// Explain returns the name of the rule that accepted raw. ok is false for an
// absent identifier.
func Explain(raw string) (rule string, ok bool) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", false
	}
	lower := strings.ToLower(id)
	for _, r := range Cascade {
		if r.Match(id, lower) {
			return r.Name, true
		}
	}
	return "", true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func foldKeys(set map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for k := range set {
		out[strings.ToLower(k)] = struct{}{}
	}
	return out
}
