package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFrontMatter(t *testing.T) {
	testCases := []struct {
		name    string
		source  string
		body    string
		lang    string
		content string
	}{
		{name: "none", source: "# Title\n", content: "# Title\n"},
		{name: "yaml", source: "---\na: 1\n---\ntext\n", body: "a: 1\n", lang: "yaml", content: "text\n"},
		{name: "toml", source: "+++\na = 1\n+++\n\ntext\n", body: "a = 1\n", lang: "toml", content: "\ntext\n"},
		{name: "crlf", source: "---\r\na: 1\r\n---\r\ntext", body: "a: 1\r\n", lang: "yaml", content: "text"},
		{name: "at eof", source: "---\na: 1\n---", body: "a: 1\n", lang: "yaml", content: ""},
		{name: "empty block", source: "---\n---\ntext\n", content: "---\n---\ntext\n"},
		{name: "not a fence", source: "---x\na\n---\n", content: "---x\na\n---\n"},
		{name: "longer closing line", source: "---\na\n----\nb\n---\n", body: "a\n----\nb\n", lang: "yaml", content: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fm, content, err := splitFrontMatter([]byte(tc.source))
			require.NoError(t, err)
			assert.Equal(t, tc.content, string(content))
			if tc.lang == "" {
				assert.Nil(t, fm)
				return
			}
			require.NotNil(t, fm)
			assert.Equal(t, tc.body, string(fm.Body))
			assert.Equal(t, tc.lang, fm.Lang)
		})
	}
}

func TestSplitFrontMatter_Unterminated(t *testing.T) {
	source := []byte("---\na: 1\nno end\n")
	fm, content, err := splitFrontMatter(source)
	assert.ErrorIs(t, err, errUnterminatedFrontMatter)
	assert.Nil(t, fm)
	assert.Equal(t, source, content)
}

func TestValidateFrontMatter(t *testing.T) {
	assert.NoError(t, validateFrontMatter([]byte("a: 1\nb: [x]\n"), "yaml"))
	assert.Error(t, validateFrontMatter([]byte("a: [\n"), "yaml"))
	assert.NoError(t, validateFrontMatter([]byte("a = 1\n"), "toml"))
	assert.Error(t, validateFrontMatter([]byte("a = \n"), "toml"))
}
