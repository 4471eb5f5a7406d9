package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html>
<head><title>Guide</title><style>.hidden{display:none}</style></head>
<body>
<nav>Home | Docs | About</nav>
<header>Site header</header>
<main>
  <h1>Installation Guide</h1>
  <p>First   paragraph with
  odd    spacing.</p>
  <p>Second paragraph.[edit]</p>
</main>
<aside class="sidebar">Related links</aside>
<footer>Copyright 2024</footer>
<script>var tracker = 1;</script>
</body>
</html>`

func TestNormalizeStripsBoilerplate(t *testing.T) {
	n := New()
	text, err := n.Normalize(samplePage)
	require.NoError(t, err)

	assert.Contains(t, text, "Installation Guide")
	assert.Contains(t, text, "First paragraph with odd spacing.")
	assert.NotContains(t, text, "Home | Docs")
	assert.NotContains(t, text, "Site header")
	assert.NotContains(t, text, "Related links")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "tracker")
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	n := New()
	text, err := n.Normalize(samplePage)
	require.NoError(t, err)

	assert.NotContains(t, text, "  ")
	assert.NotContains(t, text, "\n")
	assert.NotContains(t, text, "\t")
	assert.NotContains(t, text, "<")
}

func TestNormalizeRemovesWikiArtifacts(t *testing.T) {
	n := New()
	html := `<html><body><main>History [ edit ] of the project.[1] More text.[23]</main></body></html>`

	text, err := n.Normalize(html)
	require.NoError(t, err)
	assert.Equal(t, "History of the project. More text.", text)
}

func TestNormalizeSelectorPriority(t *testing.T) {
	n := New()
	html := `<html><body>
<div id="content">Secondary area</div>
<main>Primary area</main>
</body></html>`

	text, err := n.Normalize(html)
	require.NoError(t, err)
	assert.Equal(t, "Primary area", text)
}

func TestNormalizeArticleSelector(t *testing.T) {
	n := New()
	html := `<html><body><div>chrome</div><article>The article body.</article></body></html>`

	text, err := n.Normalize(html)
	require.NoError(t, err)
	assert.Equal(t, "The article body.", text)
}

func TestNormalizeBodyFallback(t *testing.T) {
	n := New()
	html := `<html><body><div><p>Plain page without landmarks.</p></div></body></html>`

	text, err := n.Normalize(html)
	require.NoError(t, err)
	assert.Equal(t, "Plain page without landmarks.", text)
}

func TestNormalizeEmptyDocument(t *testing.T) {
	n := New()
	text, err := n.Normalize("<html><body></body></html>")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(text))
}
