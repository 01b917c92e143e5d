package clipboard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	return NewNormalizer(WithLogger(zaptest.NewLogger(t)))
}

func TestStandardize(t *testing.T) {
	n := newTestNormalizer(t)

	t.Run("removes scripts", func(t *testing.T) {
		result, err := n.Standardize(`<p onclick="x()">hi<script>alert(1)</script></p>`)
		require.NoError(t, err)
		assert.Equal(t, "<p>hi</p>", result)
	})

	t.Run("keeps code language", func(t *testing.T) {
		result, err := n.Standardize(`<pre><code class="language-go">x</code></pre>`)
		require.NoError(t, err)
		assert.Contains(t, result, `class="language-go"`)
	})

	t.Run("promotes header row", func(t *testing.T) {
		result, err := n.Standardize(`<table><tr><td><p>a</p></td><td>b</td></tr><tr><td>1</td><td>2</td></tr></table>`)
		require.NoError(t, err)
		assert.Contains(t, result, "<th><span>a</span></th><th>b</th>")
		assert.Contains(t, result, "<td>1</td><td>2</td>")
		assert.NotContains(t, result, "<p>")
	})

	t.Run("keeps header row", func(t *testing.T) {
		result, err := n.Standardize(`<table><tr><th>a</th></tr><tr><td>1</td></tr></table>`)
		require.NoError(t, err)
		assert.Contains(t, result, "<th>a</th>")
		assert.Contains(t, result, "<td>1</td>")
	})

	t.Run("empty", func(t *testing.T) {
		result, err := n.Standardize("  ")
		require.NoError(t, err)
		assert.Equal(t, "", result)
	})
}

func TestSoftBreaksToSpans(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"inner break", "<p>a\nb</p>", `<p>a<span class="ag-soft-line-break"></span>b</p>`},
		{"edge breaks", "<p>\na\n</p>", "<p>\na\n</p>"},
		{"code untouched", "<p><code>a\nb</code></p>", "<p><code>a\nb</code></p>"},
		{"no breaks", "<p>a b</p>", "<p>a b</p>"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := softBreaksToSpans(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestToMarkdown(t *testing.T) {
	n := newTestNormalizer(t)

	t.Run("heading and paragraph", func(t *testing.T) {
		markdown, err := n.ToMarkdown("<h1>Title</h1><p>text</p>")
		require.NoError(t, err)
		assert.Contains(t, markdown, "# Title")
		assert.Contains(t, markdown, "text")
	})

	t.Run("bullet marker", func(t *testing.T) {
		n := NewNormalizer(WithBulletListMarker("*"))
		markdown, err := n.ToMarkdown("<ul><li>a</li><li>b</li></ul>")
		require.NoError(t, err)
		assert.Contains(t, markdown, "* a")
		assert.Contains(t, markdown, "* b")
	})

	t.Run("fenced code", func(t *testing.T) {
		markdown, err := n.ToMarkdown(`<pre><code class="language-go">fmt.Println()</code></pre>`)
		require.NoError(t, err)
		assert.Contains(t, markdown, "```go")
		assert.Contains(t, markdown, "fmt.Println()")
	})

	t.Run("math", func(t *testing.T) {
		markdown, err := n.ToMarkdown(`<pre class="multiple-math">x^2</pre>`)
		require.NoError(t, err)
		assert.Contains(t, markdown, "$$\nx^2\n$$")
	})

	t.Run("soft break", func(t *testing.T) {
		markdown, err := n.ToMarkdown("<p>a\nb</p>")
		require.NoError(t, err)
		assert.Contains(t, markdown, "a\nb")
	})

	t.Run("nbsp span", func(t *testing.T) {
		markdown, err := n.ToMarkdown("<p>a<span>&nbsp;</span>b</p>")
		require.NoError(t, err)
		assert.Contains(t, markdown, "a b")
	})

	t.Run("table", func(t *testing.T) {
		markdown, err := n.ToMarkdown("<table><thead><tr><th>a</th></tr></thead><tbody><tr><td>1</td></tr></tbody></table>")
		require.NoError(t, err)
		assert.Contains(t, markdown, "| a")
		assert.Contains(t, markdown, "| 1")
	})
}

func TestToMarkdown_Spans(t *testing.T) {
	n := newTestNormalizer(t)

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain span", "<p>a <span>b</span> c</p>", "a b c"},
		{"nested span", "<p><span>a <span>b</span></span></p>", "a b"},
		{"inline rule span", `<p><span class="ag-inline-rule">**</span>b<span class="ag-inline-rule">**</span></p>`, "**b**"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			markdown, err := n.ToMarkdown(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, strings.TrimSpace(markdown))
		})
	}
}

func TestStandardize_SpreadsheetToMarkdown(t *testing.T) {
	n := newTestNormalizer(t)

	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "paragraph cells",
			input:    "<table><tr><td><p>c</p></td><td><p>d</p></td></tr><tr><td><p>1</p></td><td><p>2</p></td></tr></table>",
			expected: []string{"| c", "| d", "| 1", "| 2"},
		},
		{
			name:     "mixed cells",
			input:    "<table><tr><td><p>name</p></td><td>qty</td></tr><tr><td>apple</td><td><p><b>3</b></p></td></tr></table>",
			expected: []string{"| name", "| qty", "| apple", "| **3**"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			standard, err := n.Standardize(tc.input)
			require.NoError(t, err)
			markdown, err := n.ToMarkdown(standard)
			require.NoError(t, err)
			for _, cell := range tc.expected {
				assert.Contains(t, markdown, cell)
			}
		})
	}
}

func TestExportSelection_InlineRules(t *testing.T) {
	n := newTestNormalizer(t)

	testCases := []struct {
		name      string
		selection string
		expected  string
	}{
		{"code rule", `<p>x <code class="ag-inline-rule">y</code> z</p>`, "x y z"},
		{"strong rule", `<p><strong class="ag-inline-rule">**</strong>bold<strong class="ag-inline-rule">**</strong></p>`, "**bold**"},
		{"em rule", `<p><em class="ag-inline-rule">_</em>it<em class="ag-inline-rule">_</em></p>`, "_it_"},
		{"del rule", `<p><del class="ag-inline-rule">~~</del>gone<del class="ag-inline-rule">~~</del></p>`, "~~gone~~"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clip, err := n.ExportSelection(tc.selection, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, strings.TrimSpace(clip.Markdown))
		})
	}
}

func TestExportSelection(t *testing.T) {
	n := newTestNormalizer(t)

	selection := `<p data-head="true">Title <span class="ag-tool-bar">tools</span></p>` +
		`<p><strong class="ag-inline-rule">**</strong>bold</p>` +
		`<pre id="k1" data-role="code"><span class="ag-language-input">go</span>` +
		`<span class="ag-code-line">a := 1</span><span class="ag-code-line">b := 2</span></pre>` +
		`<figure class="ag-container-block"><pre data-role="multiplemath"><span class="ag-code-line">x^2</span></pre><div class="ag-math-preview">rendered</div></figure>` +
		`<div data-role="hr"></div>`

	clip, err := n.ExportSelection(selection, func(id string) string {
		if id == "k1" {
			return "go"
		}
		return ""
	})
	require.NoError(t, err)

	assert.NotContains(t, clip.HTML, "tools")
	assert.NotContains(t, clip.HTML, "rendered")
	assert.NotContains(t, clip.HTML, "<strong")
	assert.Contains(t, clip.HTML, "<p>Title </p>")
	assert.Contains(t, clip.HTML, `<code class="language-go">a := 1`+"\n"+`b := 2</code>`)
	assert.Contains(t, clip.HTML, `<pre class="multiple-math">x^2</pre>`)
	assert.Contains(t, clip.HTML, "<hr/>")

	assert.Contains(t, clip.Markdown, "```go\na := 1\nb := 2\n```")
	assert.Contains(t, clip.Markdown, "$$\nx^2\n$$")
}

func TestExportSelection_Diagram(t *testing.T) {
	n := newTestNormalizer(t)
	clip, err := n.ExportSelection(
		`<figure class="ag-container-block"><pre data-role="mermaid"><span class="ag-code-line">graph TD</span></pre></figure>`,
		nil,
	)
	require.NoError(t, err)
	assert.Contains(t, clip.HTML, `<pre><code class="language-mermaid">graph TD</code></pre>`)
}

func TestRenderHTML(t *testing.T) {
	n := newTestNormalizer(t)

	result, err := n.RenderHTML("# Hi\n\n<script>alert(1)</script>\n\n| a |\n|---|\n| 1 |\n")
	require.NoError(t, err)
	assert.Contains(t, result, "<h1")
	assert.Contains(t, result, "Hi</h1>")
	assert.Contains(t, result, "<table>")
	assert.NotContains(t, result, "<script>")
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		html     string
		text     string
		expected CopyType
	}{
		{"<p>a</p>", "a", CopyNormal},
		{"", "", CopyNormal},
		{"", "plain text", CopyAsMarkdown},
		{"", "<p>para</p>", CopyAsHTML},
		{"", "  <h2 class=\"x\">title</h2>\n", CopyAsHTML},
		{"", "<ul>\n<li>a</li>\n</ul>", CopyAsHTML},
		{"", "<div>x</div>", CopyAsMarkdown},
		{"", "<p>a</p> trailing", CopyAsMarkdown},
	}

	for _, tc := range testCases {
		t.Run(tc.expected.String()+"/"+tc.text, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.html, tc.text))
		})
	}
}
