package license

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zorse-project/zorse/pkg/record"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		want record.LicenseType
		rule string
	}{
		{"", record.NoLicense, ""},
		{"   ", record.NoLicense, ""},
		{"MIT", record.Permissive, "spdx-exact"},
		{"Apache-2.0", record.Permissive, "spdx-exact"},
		{"  BSD-3-Clause  ", record.Permissive, "spdx-exact"},
		{"Proprietary", record.NoLicense, ""},
		{"GPL-3.0", record.NoLicense, ""},
		{"Public Domain", record.Permissive, "common-name"},
		{"ISC", record.Permissive, "spdx-exact"},
		{"isc", record.Permissive, "common-name"},
		{"APACHE-1.1", record.Permissive, "spdx-folded"},
		{"zpl-2.1", record.Permissive, "spdx-folded"},
		{"Modified MIT License", record.Permissive, "brand-heuristic"},
		{"apache software license", record.Permissive, "brand-heuristic"},
		{"BSD-like", record.Permissive, "brand-heuristic"},
		// Gate matches but the narrower check does not.
		{"OpenBSD", record.NoLicense, ""},
		{"ISC-style", record.NoLicense, ""},
		{"unlicensed-internal", record.NoLicense, ""},
		// "mit" as a substring is enough.
		{"Commitment-License", record.Permissive, "brand-heuristic"},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.in))
			rule, _ := Explain(tc.in)
			assert.Equal(t, tc.rule, rule)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for _, in := range []string{"MIT", "Apache-2.0", "Proprietary", "bsd", ""} {
		first := Classify(in)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Classify(in))
		}
	}
}

func TestCascade_Order(t *testing.T) {
	names := make([]string, len(Cascade))
	for i, r := range Cascade {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"spdx-exact", "common-name", "spdx-folded", "brand-heuristic"}, names)
}
