package dedup

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/policy"
)

func TestExactDedupKeepsFirstOccurrence(t *testing.T) {
	cfg := policy.Default().Dedup
	cfg.Method = policy.DedupExact
	e := NewEngine(cfg)

	docs := []document.Document{
		{ID: "1", Text: "Hello world"},
		{ID: "2", Text: "hello   world"}, // normalizes equal to doc 1
		{ID: "3", Text: "Different"},
	}

	var kept []string
	for _, d := range docs {
		out, keep := e.Process(d)
		if keep {
			kept = append(kept, out.ID)
		} else {
			require.True(t, out.Metadata.DedupDropped)
			require.Equal(t, "dedup_duplicate", out.Metadata.DropReason)
		}
	}
	require.Equal(t, []string{"1", "3"}, kept)
}

func TestExactDedupScopedPerDump(t *testing.T) {
	cfg := policy.Default().Dedup
	cfg.Scope = policy.ScopePerDump
	e := NewEngine(cfg)

	_, keep1 := e.Process(document.Document{ID: "1", Text: "same text", Metadata: document.Metadata{Dump: "dumpA"}})
	_, keep2 := e.Process(document.Document{ID: "2", Text: "same text", Metadata: document.Metadata{Dump: "dumpB"}})
	require.True(t, keep1)
	require.True(t, keep2, "per_dump scope must not suppress cross-dump duplicates")
}

func TestMinHashDedupRemovesNearDuplicate(t *testing.T) {
	cfg := policy.Default().Dedup
	cfg.Method = policy.DedupMinHash
	cfg.MinHash = policy.MinHashConfig{NumBands: 14, RowsPerBand: 8, NgramSize: 5}
	e := NewEngine(cfg)

	a := "the quick brown fox jumps over the lazy dog"
	b := "the quick brown fox jumps over the lazy cat"

	_, keepA := e.Process(document.Document{ID: "a", Text: a})
	_, keepB := e.Process(document.Document{ID: "b", Text: b})

	require.True(t, keepA)
	require.False(t, keepB)
}

func TestMinHashDedupKeepsDissimilarDocuments(t *testing.T) {
	cfg := policy.Default().Dedup
	cfg.Method = policy.DedupMinHash
	cfg.MinHash = policy.MinHashConfig{NumBands: 14, RowsPerBand: 8, NgramSize: 5}
	e := NewEngine(cfg)

	_, keepA := e.Process(document.Document{ID: "a", Text: "the quick brown fox jumps over the lazy dog"})
	_, keepB := e.Process(document.Document{ID: "b", Text: "completely unrelated text about something else entirely"})

	require.True(t, keepA)
	require.True(t, keepB)
}

func TestFinalizeKeepsLongestInCluster(t *testing.T) {
	cfg := policy.Default().Dedup
	cfg.Method = policy.DedupExact
	cfg.Keep = policy.KeepLongest
	e := NewEngine(cfg)

	e.Process(document.Document{ID: "short", Text: "hello world"})
	e.Process(document.Document{ID: "long", Text: "hello   world"})

	verdicts := e.Finalize()
	require.False(t, verdicts["short"])
	require.True(t, verdicts["long"])
}

// TestEngineSharedAcrossConcurrentSources exercises a single global Engine
// the way two shard tasks share it under dedup.scope=global: one document
// per source, both duplicates of each other, processed concurrently from
// separate goroutines. Exactly one must be kept.
func TestEngineSharedAcrossConcurrentSources(t *testing.T) {
	cfg := policy.Default().Dedup
	cfg.Method = policy.DedupExact
	e := NewEngine(cfg)

	var wg sync.WaitGroup
	kept := make([]bool, 2)
	docs := []document.Document{
		{ID: "source-a-doc1", Text: "Duplicate across sources"},
		{ID: "source-b-doc1", Text: "duplicate   across sources"},
	}
	for i, d := range docs {
		i, d := i, d
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, keep := e.Process(d)
			kept[i] = keep
		}()
	}
	wg.Wait()

	require.NotEqual(t, kept[0], kept[1], "exactly one of the two cross-source duplicates must be kept")
}
