package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_SelectorPriority(t *testing.T) {
	// Both "article h3" and ".product-title" match; the earlier selector
	// in the priority list wins outright.
	html := `<html><body><h1>Sneakers</h1>
		<article><h3>From article</h3></article>
		<div class="product-title">From class</div>
	</body></html>`

	data := Extract(html, nil)
	assert.Equal(t, "Sneakers", data.H1Title)
	assert.Equal(t, []string{"From article"}, data.ProductTitles)
	assert.Equal(t, 1, data.ProductCount)
}

func TestExtract_FallsThroughToLaterSelector(t *testing.T) {
	html := `<html><body>
		<div class="card__title">Card A</div>
		<div class="card__title">Card B</div>
	</body></html>`

	data := Extract(html, nil)
	assert.Equal(t, "No H1 found", data.H1Title)
	assert.Equal(t, []string{"Card A", "Card B"}, data.ProductTitles)
}

func TestExtract_CapsTitleCount(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "<article><h3>Product %d</h3></article>", i)
	}
	b.WriteString("</body></html>")

	data := Extract(b.String(), nil)
	assert.Len(t, data.ProductTitles, maxProductTitles)
	assert.Equal(t, maxProductTitles, data.ProductCount)
}

func TestExtract_NoMatches(t *testing.T) {
	data := Extract("<html><body><p>nothing here</p></body></html>", nil)
	assert.Equal(t, "No H1 found", data.H1Title)
	assert.Empty(t, data.ProductTitles)
	assert.Zero(t, data.ProductCount)
}

func TestExtract_CustomSelectors(t *testing.T) {
	html := `<html><body><span class="tile">Only tile</span></body></html>`

	data := Extract(html, []string{".tile"})
	assert.Equal(t, []string{"Only tile"}, data.ProductTitles)
}

func TestLoadSelectors_EmptyPathUsesDefaults(t *testing.T) {
	got, err := LoadSelectors("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSelectors, got)
}

func TestLoadSelectors_ReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("selectors:\n  - .tile\n  - article h2\n"), 0o644))

	got, err := LoadSelectors(path)
	require.NoError(t, err)
	assert.Equal(t, []string{".tile", "article h2"}, got)
}

func TestLoadSelectors_EmptyListFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("selectors: []\n"), 0o644))

	_, err := LoadSelectors(path)
	require.Error(t, err)
}

func TestScreenshotName(t *testing.T) {
	name := ScreenshotName(7, "variant_a", "https://shop.example/a?opt_seg=5")

	assert.True(t, strings.HasPrefix(name, "url_007_variant_a_"), name)
	assert.True(t, strings.HasSuffix(name, ".png"), name)

	// Deterministic per URL, distinct across URLs.
	assert.Equal(t, name, ScreenshotName(7, "variant_a", "https://shop.example/a?opt_seg=5"))
	assert.NotEqual(t, name, ScreenshotName(7, "variant_a", "https://shop.example/a?opt_seg=6"))
}
