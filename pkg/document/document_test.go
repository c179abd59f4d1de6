package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneIsIndependent(t *testing.T) {
	d := Document{
		ID:   "doc-1",
		Text: "hello",
		Metadata: Metadata{
			QualityScores: QualityScores{"length": 0.9},
			SliceTags:     []string{"dump=CC-MAIN-2024-10"},
			Extra:         map[string]any{"custom": 1},
		},
	}

	clone := d.Clone()
	clone.Metadata.QualityScores["length"] = 0.1
	clone.Metadata.SliceTags[0] = "mutated"
	clone.Metadata.Extra["custom"] = 2

	require.Equal(t, 0.9, d.Metadata.QualityScores["length"])
	require.Equal(t, "dump=CC-MAIN-2024-10", d.Metadata.SliceTags[0])
	require.Equal(t, 1, d.Metadata.Extra["custom"])
}

func TestAddSliceTagDedupAndSort(t *testing.T) {
	var d Document
	d.AddSliceTag("quality_bin=high")
	d.AddSliceTag("dump=CC-MAIN-2024-10")
	d.AddSliceTag("quality_bin=high")

	require.Equal(t, []string{"dump=CC-MAIN-2024-10", "quality_bin=high"}, d.Metadata.SliceTags)
}

func TestMeanQualityScore(t *testing.T) {
	m := Metadata{QualityScores: QualityScores{"a": 1, "b": 0.5}}
	require.InDelta(t, 0.75, m.MeanQualityScore(), 1e-9)

	var empty Metadata
	require.Equal(t, 0.0, empty.MeanQualityScore())
}

func TestMarkDropped(t *testing.T) {
	d := Document{ID: "x"}
	d.MarkDropped("dedup")
	require.Equal(t, "dedup", d.Metadata.DropReason)
}
