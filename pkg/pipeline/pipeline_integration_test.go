package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/waycodes/curationgym/pkg/artifact"
	"github.com/waycodes/curationgym/pkg/decontam"
	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/policy"
	"github.com/waycodes/curationgym/pkg/readers"
)

// sliceReader adapts an in-memory slice of documents to readers.DocumentReader.
type sliceReader struct {
	docs []document.Document
	pos  int
}

func (r *sliceReader) Next() (document.Document, error) {
	if r.pos >= len(r.docs) {
		return document.Document{}, readers.ErrDone
	}
	d := r.docs[r.pos]
	r.pos++
	return d, nil
}

func (r *sliceReader) Close() error { return nil }

func enDoc(id, text string) document.Document {
	return document.Document{ID: id, Text: text}
}

func readShardLines(t *testing.T, path string) []document.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var docs []document.Document
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		var d document.Document
		require.NoError(t, json.Unmarshal([]byte(line), &d))
		docs = append(docs, d)
	}
	return docs
}

func longEnglishText(sentence string) string {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString(sentence)
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String())
}

func TestPipelineRemovesExactDuplicateAcrossDocuments(t *testing.T) {
	dir := t.TempDir()
	store, err := artifact.NewStore(dir)
	require.NoError(t, err)

	text := longEnglishText("the quick brown fox jumps over the lazy dog and runs to the river.")
	docs := []document.Document{
		enDoc("a", text),
		enDoc("b", text),
		enDoc("c", longEnglishText("a completely different sentence about something else entirely now.")),
	}

	cfg := Config{Policy: policy.Default()}
	cfg.Policy.Language.MinScore = 0
	cfg.Policy.Dedup.Method = policy.DedupExact
	p := New(cfg)

	result, err := p.Run(context.Background(), &sliceReader{docs: docs}, store, "hash1")
	require.NoError(t, err)
	require.EqualValues(t, 3, result.DocsRead)
	require.EqualValues(t, 2, result.DocsWritten)
	require.Len(t, result.Shards, 1)

	written := readShardLines(t, store.ShardPath("hash1", 0))
	ids := []string{written[0].ID, written[1].ID}
	require.ElementsMatch(t, []string{"a", "c"}, ids)
}

func TestPipelineMinHashRemovesNearDuplicate(t *testing.T) {
	dir := t.TempDir()
	store, err := artifact.NewStore(dir)
	require.NoError(t, err)

	base := "the quick brown fox jumps over the lazy dog near the old bridge."
	near := "the quick brown fox jumps over the lazy cat near the old bridge."
	distinct := "completely unrelated content about the annual rainfall patterns across coastal farming regions."

	docs := []document.Document{enDoc("a", base), enDoc("b", near), enDoc("c", distinct)}

	cfg := Config{Policy: policy.Default()}
	cfg.Policy.Language.MinScore = 0
	cfg.Policy.Dedup.Method = policy.DedupMinHash
	p := New(cfg)

	result, err := p.Run(context.Background(), &sliceReader{docs: docs}, store, "hash2")
	require.NoError(t, err)
	require.EqualValues(t, 2, result.DocsWritten)
}

func TestPipelineDecontamDropsContaminatedDocument(t *testing.T) {
	dir := t.TempDir()
	store, err := artifact.NewStore(dir)
	require.NoError(t, err)

	idx := decontam.NewIndex(4, 0.5)
	idx.AddEvalData([]string{"the answer to the ultimate question is forty two"}, "benchmark_x")

	docs := []document.Document{
		enDoc("clean", "a perfectly ordinary document about gardening techniques and soil composition."),
		enDoc("dirty", "the answer to the ultimate question is forty two according to the famous book."),
	}

	cfg := Config{Policy: policy.Default(), DecontamIndex: idx}
	cfg.Policy.Language.MinScore = 0
	cfg.Policy.Dedup.Method = policy.DedupNone
	cfg.Policy.Decontam.Enabled = true
	cfg.Policy.Decontam.Mode = policy.ModeDrop
	cfg.Policy.Decontam.NgramSize = 4
	cfg.Policy.Decontam.Threshold = 0.5
	p := New(cfg)

	result, err := p.Run(context.Background(), &sliceReader{docs: docs}, store, "hash3")
	require.NoError(t, err)
	require.EqualValues(t, 1, result.DocsWritten)
	written := readShardLines(t, store.ShardPath("hash3", 0))
	require.Equal(t, "clean", written[0].ID)
}

func TestPipelineStopsAtTokenBudget(t *testing.T) {
	dir := t.TempDir()
	store, err := artifact.NewStore(dir)
	require.NoError(t, err)

	sentence := func(n string) string {
		return "this is a plain english sentence number " + n + " with enough words to pass quality."
	}
	docs := []document.Document{
		enDoc("a", sentence("one")),
		enDoc("b", sentence("two")),
		enDoc("c", sentence("three")),
	}

	cfg := Config{Policy: policy.Default()}
	cfg.Policy.Language.MinScore = 0
	cfg.Policy.Dedup.Method = policy.DedupNone
	cfg.Policy.MaxTokens = 30
	p := New(cfg)

	result, err := p.Run(context.Background(), &sliceReader{docs: docs}, store, "hash4")
	require.NoError(t, err)
	require.True(t, result.BudgetExceeded)
	require.EqualValues(t, 2, result.DocsWritten)
}

func TestPipelineSamplerEnforcesPerSliceCap(t *testing.T) {
	dir := t.TempDir()
	store, err := artifact.NewStore(dir)
	require.NoError(t, err)

	var docs []document.Document
	for i := 0; i < 5; i++ {
		docs = append(docs, enDoc(
			"doc"+string(rune('a'+i)),
			longEnglishText("short english sentence number "+string(rune('a'+i))+" for capacity testing purposes."),
		))
	}

	cfg := Config{Policy: policy.Default()}
	cfg.Policy.Language.MinScore = 0
	cfg.Policy.Dedup.Method = policy.DedupNone
	cfg.Policy.Mixing.SliceWeights = map[string]float64{"language=en": 1.0}
	cfg.Policy.Mixing.MaxTokensPerSlice = map[string]int64{"language=en": 30}
	p := New(cfg)

	result, err := p.Run(context.Background(), &sliceReader{docs: docs}, store, "hash5")
	require.NoError(t, err)
	require.Less(t, result.DocsWritten, int64(5))
}

func TestPipelinePolicyHashStableAcrossKeyOrder(t *testing.T) {
	a := policy.Default()
	a.Mixing.SliceWeights = map[string]float64{"z": 1, "a": 2}
	b := policy.Default()
	b.Mixing.SliceWeights = map[string]float64{"a": 2, "z": 1}

	ha, err := policy.Hash(a)
	require.NoError(t, err)
	hb, err := policy.Hash(b)
	require.NoError(t, err)
	require.Equal(t, ha, hb)
}

func TestPipelineWritesShardsAcrossBatchBoundary(t *testing.T) {
	dir := t.TempDir()
	store, err := artifact.NewStore(dir)
	require.NoError(t, err)

	var docs []document.Document
	for i := 0; i < 5; i++ {
		docs = append(docs, enDoc("d"+string(rune('0'+i)), longEnglishText("plain english text for batching test number indexed here now.")))
	}

	cfg := Config{Policy: policy.Default()}
	cfg.Policy.Language.MinScore = 0
	cfg.Policy.Dedup.Method = policy.DedupNone
	cfg.Policy.BatchSize = 2
	p := New(cfg)

	result, err := p.Run(context.Background(), &sliceReader{docs: docs}, store, "hash6")
	require.NoError(t, err)
	require.EqualValues(t, 5, result.DocsWritten)
	require.Len(t, result.Shards, 3)
}
