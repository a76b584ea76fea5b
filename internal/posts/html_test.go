package posts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgmirror/internal/models"
)

func TestIsSafeHref(t *testing.T) {
	safe := []string{
		"https://example.com/a",
		"http://example.com",
		"mailto:user@example.com",
		"tel:+123456",
		"tg://resolve?domain=foo",
		"/relative/path",
		"#fragment",
		"./here",
		"../up",
	}
	for _, href := range safe {
		assert.True(t, isSafeHref(href), href)
	}

	unsafe := []string{
		"",
		"javascript:alert(1)",
		"data:text/html;base64,xxx",
		"//protocol-relative.example.com",
		"ftp://example.com/file",
	}
	for _, href := range unsafe {
		assert.False(t, isSafeHref(href), href)
	}
}

func TestRenderHTMLPlainTextEscapes(t *testing.T) {
	out, err := renderHTML("a <b> & c", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "&lt;b&gt;")
	assert.Contains(t, out, "&amp;")
	assert.NotContains(t, out, "<b>")
}

func TestRenderHTMLBoldEntity(t *testing.T) {
	out, err := renderHTML("bold text", []models.Entity{
		{Type: models.EntityBold, Offset: 0, Length: 4},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestRenderHTMLNestedEntities(t *testing.T) {
	out, err := renderHTML("both", []models.Entity{
		{Type: models.EntityBold, Offset: 0, Length: 4},
		{Type: models.EntityItalic, Offset: 0, Length: 4},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "<strong><em>both</em></strong>")
}

func TestRenderHTMLNewlinesBecomeBreaks(t *testing.T) {
	out, err := renderHTML("one\ntwo", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "<br")
	assert.NotContains(t, out, "\n")
}

func TestRenderHTMLLinkCarriesRel(t *testing.T) {
	out, err := renderHTML("click", []models.Entity{
		{Type: models.EntityTextURL, Offset: 0, Length: 5, URL: "https://example.com/x"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `href="https://example.com/x"`)
	assert.Contains(t, out, "noopener")
	assert.Contains(t, out, "noreferrer")
	assert.Contains(t, out, "nofollow")
}

func TestRenderHTMLStripsUnsafeHref(t *testing.T) {
	out, err := renderHTML("click", []models.Entity{
		{Type: models.EntityTextURL, Offset: 0, Length: 5, URL: "javascript:alert(1)"},
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "click")
}

func TestRenderHTMLUTF16OffsetsWithEmoji(t *testing.T) {
	// The emoji occupies two UTF-16 units, so "tail" starts at offset 3.
	out, err := renderHTML("x\U0001F600tail", []models.Entity{
		{Type: models.EntityBold, Offset: 3, Length: 4},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>tail</strong>")
	assert.Contains(t, out, "\U0001F600")
}

func TestRenderHTMLEntityOutOfRangeErrors(t *testing.T) {
	_, err := renderHTML("short", []models.Entity{
		{Type: models.EntityBold, Offset: 2, Length: 10},
	})
	assert.Error(t, err)
}

func TestRenderHTMLEmptyText(t *testing.T) {
	out, err := renderHTML("", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRenderHTMLMentionAndEmail(t *testing.T) {
	out, err := renderHTML("@someone", []models.Entity{
		{Type: models.EntityMention, Offset: 0, Length: 8},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `href="https://t.me/someone"`)

	out, err = renderHTML("a@b.co", []models.Entity{
		{Type: models.EntityEmail, Offset: 0, Length: 6},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `href="mailto:a@b.co"`)
}
