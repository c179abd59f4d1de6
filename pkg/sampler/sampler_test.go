package sampler

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/policy"
)

func docWithTokens(id, tag string, tokens int) document.Document {
	return document.Document{
		ID:       id,
		Metadata: document.Metadata{SliceTags: []string{tag}, TokenCount: tokens},
	}
}

func TestAdmitRejectsOverCapSlice(t *testing.T) {
	cfg := policy.MixingConfig{MaxTokensPerSlice: map[string]int64{"wiki": 100, "news": 50}}
	s := New(cfg, 1)

	wikiTokens := int64(0)
	for i := 0; i < 20; i++ {
		doc := docWithTokens("wiki-"+string(rune('a'+i)), "wiki", 10)
		if s.Admit(doc) {
			wikiTokens += 10
		}
	}
	require.LessOrEqual(t, s.TokensForSlice("wiki"), int64(100))

	newsTokens := int64(0)
	for i := 0; i < 20; i++ {
		doc := docWithTokens("news-"+string(rune('a'+i)), "news", 10)
		if s.Admit(doc) {
			newsTokens += 10
		}
	}
	require.LessOrEqual(t, s.TokensForSlice("news"), int64(50))
}

func TestAtCapacityReportsWhenAllSlicesFull(t *testing.T) {
	cfg := policy.MixingConfig{MaxTokensPerSlice: map[string]int64{"wiki": 10}}
	s := New(cfg, 1)
	require.False(t, s.AtCapacity())
	s.Admit(docWithTokens("1", "wiki", 10))
	require.True(t, s.AtCapacity())
}

func TestDrawIsDeterministicForFixedSeed(t *testing.T) {
	cfg := policy.MixingConfig{SliceWeights: map[string]float64{"wiki": 2.0, "news": 1.0}, Temperature: 1.0}

	build := func(seed int64) []string {
		s := New(cfg, seed)
		for i := 0; i < 10; i++ {
			s.Admit(docWithTokens("wiki-"+string(rune('a'+i)), "wiki", 5))
			s.Admit(docWithTokens("news-"+string(rune('a'+i)), "news", 5))
		}
		drawn := s.Draw(5)
		ids := make([]string, len(drawn))
		for i, d := range drawn {
			ids[i] = d.ID
		}
		return ids
	}

	require.Equal(t, build(42), build(42))
}

func TestDrawNeverExceedsPoolSize(t *testing.T) {
	cfg := policy.MixingConfig{Temperature: 1.0}
	s := New(cfg, 7)
	s.Admit(docWithTokens("1", "wiki", 1))
	s.Admit(docWithTokens("2", "wiki", 1))

	drawn := s.Draw(10)
	require.Len(t, drawn, 2)
}
