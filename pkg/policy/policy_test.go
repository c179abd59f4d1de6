package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashDeterministicUnderMapKeyOrder(t *testing.T) {
	p1 := Default()
	p1.Mixing.SliceWeights = map[string]float64{"a": 0.5, "b": 0.5}

	p2 := Default()
	p2.Mixing.SliceWeights = map[string]float64{"b": 0.5, "a": 0.5}

	h1, err := Hash(p1)
	require.NoError(t, err)
	h2, err := Hash(p2)
	require.NoError(t, err)

	require.Equal(t, h1, h2)
	require.Len(t, h1, 16)
}

func TestHashChangesOnSemanticDifference(t *testing.T) {
	p1 := Default()
	p2 := Default()
	p2.Seed = 42

	h1, err := Hash(p1)
	require.NoError(t, err)
	h2, err := Hash(p2)
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	p := Default()
	p.Language.MinScore = 2
	require.Error(t, Validate(p))

	p = Default()
	p.Dedup.Method = "bogus"
	require.Error(t, Validate(p))

	p = Default()
	p.BatchSize = 0
	require.Error(t, Validate(p))
}

func TestLoadBytesAppliesDefaultsAndOverrides(t *testing.T) {
	yamlDoc := []byte(`
seed: 7
dedup:
  method: minhash
  scope: per_dump
`)
	p, err := LoadBytes(yamlDoc)
	require.NoError(t, err)
	require.Equal(t, int64(7), p.Seed)
	require.Equal(t, DedupMinHash, p.Dedup.Method)
	require.Equal(t, ScopePerDump, p.Dedup.Scope)
	// Defaults still filled in for untouched fields.
	require.Equal(t, 14, p.Dedup.MinHash.NumBands)
	require.Equal(t, 8, p.Dedup.MinHash.RowsPerBand)
}

func TestDryRunReportsDedupAndDecontamStages(t *testing.T) {
	p := Default()
	p.Decontam.Enabled = true
	p.Decontam.Mode = ModeTag

	report, err := DryRun(p)
	require.NoError(t, err)
	require.Contains(t, report.EnabledStages, "dedup:exact")
	require.Contains(t, report.EnabledStages, "decontam:tag")
	require.True(t, report.DecontamActive)
}

func TestDiffReportsChangedFields(t *testing.T) {
	a := Default()
	b := Default()
	b.Seed = 99
	b.Dedup.Method = DedupMinHash

	diffs, err := Diff(a, b)
	require.NoError(t, err)

	paths := make(map[string]bool)
	for _, d := range diffs {
		paths[d.Path] = true
	}
	require.True(t, paths["seed"])
	require.True(t, paths["dedup.method"])
}
