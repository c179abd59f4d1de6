package decontam

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/policy"
)

func TestGuardDropsContaminatedDocument(t *testing.T) {
	idx := NewIndex(5, 0.5)
	idx.AddEvalData([]string{"the answer is forty two"}, "bench-a")

	guard := NewGuard(policy.DecontamConfig{Mode: policy.ModeDrop}, idx)

	a := document.Document{ID: "A", Text: "the answer is forty two exactly"}
	b := document.Document{ID: "B", Text: "completely unrelated content here"}

	_, keepA := guard.Apply(a)
	_, keepB := guard.Apply(b)

	require.False(t, keepA)
	require.True(t, keepB)
	require.Len(t, guard.Audit(), 1)
	require.Equal(t, "A", guard.Audit()[0].DocID)
	require.Equal(t, "bench-a", guard.Audit()[0].Source)
}

func TestGuardTagModePassesThroughWithFlags(t *testing.T) {
	idx := NewIndex(3, 0.3)
	idx.AddEvalData([]string{"a well known benchmark phrase here"}, "bench-b")
	guard := NewGuard(policy.DecontamConfig{Mode: policy.ModeTag}, idx)

	out, keep := guard.Apply(document.Document{ID: "C", Text: "a well known benchmark phrase here too"})
	require.True(t, keep)
	require.NotNil(t, out.Metadata.ContaminationFlags)
	require.Equal(t, "bench-b", out.Metadata.ContaminationFlags.Source)
}

func TestGuardDownweightSetsSampleWeight(t *testing.T) {
	idx := NewIndex(3, 0.1)
	idx.AddEvalData([]string{"totally identical matching phrase text"}, "bench-c")
	guard := NewGuard(policy.DecontamConfig{Mode: policy.ModeDownweight}, idx)

	out, keep := guard.Apply(document.Document{ID: "D", Text: "totally identical matching phrase text"})
	require.True(t, keep)
	require.GreaterOrEqual(t, out.Metadata.SampleWeight, 0.1)
	require.Less(t, out.Metadata.SampleWeight, 1.0)
}

func TestGuardRedactReplacesMatchedNgrams(t *testing.T) {
	idx := NewIndex(3, 0.1)
	idx.AddEvalData([]string{"super secret benchmark content"}, "bench-d")
	guard := NewGuard(policy.DecontamConfig{Mode: policy.ModeRedact}, idx)

	out, keep := guard.Apply(document.Document{ID: "E", Text: "super secret benchmark content here"})
	require.True(t, keep)
	require.Contains(t, out.Text, "[REDACTED]")
	require.True(t, out.Metadata.TextRewritten)
}

func TestIndexUncontaminatedDocumentScoresZero(t *testing.T) {
	idx := NewIndex(13, 0.8)
	score := idx.Evaluate("nothing matches anything in this index at all")
	require.Equal(t, 0.0, score.OverlapScore)
	require.False(t, score.Contaminated)
}

func TestBuildReportTalliesByAction(t *testing.T) {
	entries := []AuditEntry{
		{DocID: "1", Action: "drop"},
		{DocID: "2", Action: "drop"},
		{DocID: "3", Action: "tag"},
	}
	report := BuildReport(entries)
	require.Equal(t, 3, report.Summary.TotalFlagged)
	require.Equal(t, 2, report.Summary.ByAction["drop"])
	require.Equal(t, 1, report.Summary.ByAction["tag"])
	require.Len(t, report.Entries, 3)
}
