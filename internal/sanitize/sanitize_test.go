package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_HTML(t *testing.T) {
	p := NewPolicy()

	testCases := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "allowed markup kept",
			raw:      `<p><strong>Hola</strong> <em>mundo</em></p>`,
			expected: `<p><strong>Hola</strong> <em>mundo</em></p>`,
		},
		{
			name:     "script removed with content",
			raw:      `<script>alert(1)</script><b>ok</b>`,
			expected: `<b>ok</b>`,
		},
		{
			name:     "unknown tags stripped, text kept",
			raw:      `<h1>Titulo</h1><table><tr><td>x</td></tr></table>`,
			expected: `Titulox`,
		},
		{
			name:     "event handler attributes dropped",
			raw:      `<div class="box" onclick="evil()">x</div>`,
			expected: `<div class="box">x</div>`,
		},
		{
			name:     "link kept",
			raw:      `<a href="https://kdblegal.pe" target="_blank" rel="noopener">web</a>`,
			expected: `<a href="https://kdblegal.pe" target="_blank" rel="noopener">web</a>`,
		},
		{
			name:     "mailto link kept",
			raw:      `<a href="mailto:contacto@kdblegal.pe">mail</a>`,
			expected: `<a href="mailto:contacto@kdblegal.pe">mail</a>`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, p.HTML(tc.raw))
		})
	}
}

func TestPolicy_HTML_UnsafeURLsAndStyles(t *testing.T) {
	p := NewPolicy()

	cleaned := p.HTML(`<a href="javascript:alert(1)">x</a>`)
	assert.NotContains(t, cleaned, "javascript")
	assert.Contains(t, cleaned, "x")

	cleaned = p.HTML(`<img src="data:image/png;base64,AAAA" alt="a">`)
	assert.NotContains(t, cleaned, "data:")

	cleaned = p.HTML(`<p style="color: red; text-align: center">Hi</p>`)
	assert.Contains(t, cleaned, "text-align")
	assert.NotContains(t, cleaned, "color")
	assert.Contains(t, cleaned, "Hi")

	cleaned = p.HTML(`<img src="https://cdn.example.com/a.png" style="width: 100%; position: fixed">`)
	assert.Contains(t, cleaned, `src="https://cdn.example.com/a.png"`)
	assert.Contains(t, cleaned, "width")
	assert.NotContains(t, cleaned, "position")
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "<p>a</p>", Unescape("&lt;p&gt;a&lt;/p&gt;"))
	assert.Equal(t, "<p>a</p>", Unescape("&amp;lt;p&amp;gt;a&amp;lt;/p&amp;gt;"))
	assert.Equal(t, "plain", Unescape("plain"))
	// four levels deep, only three are decoded
	assert.Equal(t, "&lt;b&gt;", Unescape("&amp;amp;amp;lt;b&amp;amp;amp;gt;"))
}

func TestPolicy_EditorHTML(t *testing.T) {
	p := NewPolicy()
	assert.Equal(t, "<p>ok</p>", p.EditorHTML("&lt;p&gt;ok&lt;/p&gt;&lt;script&gt;x&lt;/script&gt;"))
}
