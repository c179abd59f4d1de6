package operators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/policy"
)

func TestExtractTextRejectsTooShort(t *testing.T) {
	op := ExtractText(200)
	result := op.Apply(document.Document{ID: "1", Text: "<html><body>hi</body></html>"})
	require.True(t, result.Rejected)
	require.Equal(t, "extracted_too_short", result.Reason)
}

func TestExtractTextStripsTags(t *testing.T) {
	op := ExtractText(1)
	long := strings.Repeat("word ", 50)
	result := op.Apply(document.Document{ID: "1", Text: "<html><body><p>" + long + "</p></body></html>"})
	require.False(t, result.Rejected)
	require.NotContains(t, result.Doc.Text, "<p>")
	require.Contains(t, result.Doc.Text, "word")
}

func TestIdentifyLanguageEnglish(t *testing.T) {
	lang, score := IdentifyLanguage("the quick brown fox jumps over the lazy dog and it is great for the team")
	require.Equal(t, "en", lang)
	require.Greater(t, score, 0.0)
}

func TestLanguageFilterRejectsWrongTarget(t *testing.T) {
	op := LanguageFilter("es", 0.1)
	result := op.Apply(document.Document{Text: "the quick brown fox jumps over the lazy dog"})
	require.True(t, result.Rejected)
}

func TestCountTokens(t *testing.T) {
	require.Equal(t, 4, CountTokens("one two three four"))
	require.Equal(t, 0, CountTokens(""))
}

func TestHeuristicQualityPassesVacuouslyOnEmpty(t *testing.T) {
	cfg := policy.Default().Quality
	op := HeuristicQuality(cfg)
	result := op.Apply(document.Document{Text: ""})
	require.False(t, result.Rejected)
}

func TestHeuristicQualityRejectsRepetition(t *testing.T) {
	cfg := policy.Default().Quality
	op := HeuristicQuality(cfg)
	repeated := strings.Repeat("spam ", 50)
	result := op.Apply(document.Document{Text: repeated})
	require.True(t, result.Rejected)
	require.Contains(t, result.Doc.Metadata.QualityScores, "max_word_repetition_ratio")
}

func TestMaskPIIMasksEmailAndPublicIP(t *testing.T) {
	op := MaskPII()
	doc := document.Document{Text: "contact me at person@example.com or via 8.8.8.8, not 192.168.1.1"}
	result := op.Apply(doc)
	require.Contains(t, result.Doc.Text, "[MASKED]")
	require.NotContains(t, result.Doc.Text, "person@example.com")
	require.NotContains(t, result.Doc.Text, "8.8.8.8")
	require.Contains(t, result.Doc.Text, "192.168.1.1")
	require.True(t, result.Doc.Metadata.TextRewritten)
}

func TestBlocklistBlocksParentDomain(t *testing.T) {
	bl, err := LoadBlocklist(strings.NewReader("# comment\nexample.com\n"), nil)
	require.NoError(t, err)
	require.True(t, bl.Blocked("https://sub.example.com/path"))
	require.False(t, bl.Blocked("https://other.org/path"))
}

func TestBlocklistMatchesDefaultPatterns(t *testing.T) {
	bl, err := LoadBlocklist(strings.NewReader(""), nil)
	require.NoError(t, err)
	require.True(t, bl.Blocked("https://mycasino.example/play"))
}

func TestURLFilterRejectsBlockedDomain(t *testing.T) {
	bl, err := LoadBlocklist(strings.NewReader("bad.example\n"), nil)
	require.NoError(t, err)
	op := URLFilter(bl)
	result := op.Apply(document.Document{Metadata: document.Metadata{URL: "https://bad.example/page"}})
	require.True(t, result.Rejected)
}

func TestScoreCacheEvictsLRU(t *testing.T) {
	c := NewScoreCache(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts "a"

	_, ok := c.Get("a")
	require.False(t, ok)
	v, ok := c.Get("b")
	require.True(t, ok)
	require.Equal(t, 2, v)
}
