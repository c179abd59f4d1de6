package slices

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/waycodes/curationgym/pkg/document"
)

func TestAssignProducesSortedDedupedTags(t *testing.T) {
	doc := document.Document{
		ID: "1",
		Metadata: document.Metadata{
			Dump:          "CC-MAIN-2024-10",
			URL:           "https://lab.stanford.edu/page",
			Language:      "en",
			LanguageScore: 0.9,
			TokenCount:    600,
			QualityScores: document.QualityScores{"max_word_repetition_ratio": 0.9},
		},
	}

	out := Assign(doc, DefaultRegistry())
	require.Contains(t, out.Metadata.SliceTags, "dump=CC-MAIN-2024-10")
	require.Contains(t, out.Metadata.SliceTags, "domain=lab.stanford.edu")
	require.Contains(t, out.Metadata.SliceTags, "domain_category=edu")
	require.Contains(t, out.Metadata.SliceTags, "language=en")
	require.Contains(t, out.Metadata.SliceTags, "token_length_bin=medium")
	require.Contains(t, out.Metadata.SliceTags, "language_score_bin=high")
	require.Equal(t, CodeVersion, out.Metadata.SliceCodeVersion)

	for i := 1; i < len(out.Metadata.SliceTags); i++ {
		require.LessOrEqual(t, out.Metadata.SliceTags[i-1], out.Metadata.SliceTags[i])
	}
}

func TestTokenLengthBinBoundaries(t *testing.T) {
	cases := map[int]string{
		1:    "tiny",
		128:  "small",
		512:  "medium",
		2048: "large",
		5000: "large",
	}
	for tokens, want := range cases {
		doc := document.Document{Metadata: document.Metadata{TokenCount: tokens}}
		tags := tokenLengthBinExtractor(doc)
		require.Equal(t, []string{"token_length_bin=" + want}, tags)
	}
}

func TestStatsConservationAcrossSliceFamily(t *testing.T) {
	s := NewStats()
	docs := []document.Document{
		{Metadata: document.Metadata{SliceTags: []string{"language=en"}, TokenCount: 10}},
		{Metadata: document.Metadata{SliceTags: []string{"language=en"}, TokenCount: 20}},
		{Metadata: document.Metadata{SliceTags: []string{"language=es"}, TokenCount: 5}},
	}
	for _, d := range docs {
		s.Record(d)
	}

	report := s.Snapshot()
	require.Equal(t, int64(3), report.Total.DocCount)
	sum := report.BySlice["language=en"].DocCount + report.BySlice["language=es"].DocCount
	require.Equal(t, report.Total.DocCount, sum)
}

func TestStatsAttributesDropsSeparately(t *testing.T) {
	s := NewStats()
	s.Record(document.Document{Metadata: document.Metadata{SliceTags: []string{"dump=x"}, DedupDropped: true}})
	s.Record(document.Document{Metadata: document.Metadata{SliceTags: []string{"dump=x"}, DecontamDropped: true}})
	s.Record(document.Document{Metadata: document.Metadata{SliceTags: []string{"dump=x"}}})

	report := s.Snapshot()
	slice := report.BySlice["dump=x"]
	require.Equal(t, int64(1), slice.DocCount)
	require.InDelta(t, 1.0/3.0, slice.DedupDropRate, 1e-9)
	require.InDelta(t, 1.0/3.0, slice.DecontamDropRate, 1e-9)
}

// TestMergeRawReportsMatchesSingleCollector checks that combining two
// shard tasks' RawReports produces the same rendered Report a single
// Stats collector would have produced over the union of their documents.
func TestMergeRawReportsMatchesSingleCollector(t *testing.T) {
	docs := []document.Document{
		{Metadata: document.Metadata{SliceTags: []string{"language=en"}, TokenCount: 10, QualityScores: document.QualityScores{"q": 0.8}}},
		{Metadata: document.Metadata{SliceTags: []string{"language=en"}, TokenCount: 20, QualityScores: document.QualityScores{"q": 0.6}}},
		{Metadata: document.Metadata{SliceTags: []string{"language=en"}, DedupDropped: true}},
		{Metadata: document.Metadata{SliceTags: []string{"language=es"}, TokenCount: 5, QualityScores: document.QualityScores{"q": 1.0}}},
	}

	whole := NewStats()
	for _, d := range docs {
		whole.Record(d)
	}
	wantReport := whole.Snapshot()

	taskA := NewStats()
	taskB := NewStats()
	taskA.Record(docs[0])
	taskA.Record(docs[1])
	taskB.Record(docs[2])
	taskB.Record(docs[3])

	merged := MergeRawReports([]RawReport{taskA.SnapshotRaw(), taskB.SnapshotRaw()})
	gotReport := merged.Render()

	require.Equal(t, wantReport.Total, gotReport.Total)
	require.Equal(t, wantReport.BySlice["language=en"], gotReport.BySlice["language=en"])
	require.Equal(t, wantReport.BySlice["language=es"], gotReport.BySlice["language=es"])
}
