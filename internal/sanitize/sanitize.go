package sanitize

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

const maxUnescapeRounds = 3

var allowedStyleProps = []string{
	"font-size",
	"width",
	"height",
	"max-width",
	"text-align",
	"margin",
	"margin-left",
	"margin-right",
	"margin-top",
	"margin-bottom",
	"float",
	"display",
}

// Policy cleans rich text coming from the admin editors. A Policy is safe
// for concurrent use once built.
type Policy struct {
	policy *bluemonday.Policy
}

func NewPolicy() *Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"b", "strong", "i", "em", "u",
		"a", "ul", "ol", "li",
		"p", "br", "span", "div", "img",
	)

	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "class").OnElements("img")
	p.AllowAttrs("class").OnElements("p", "span", "div")
	p.AllowStyles(allowedStyleProps...).OnElements("img", "p", "span", "div")

	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)

	return &Policy{policy: p}
}

// HTML strips disallowed tags, attributes, URL schemes and style properties.
// Text content of stripped tags is kept.
func (p *Policy) HTML(raw string) string {
	return p.policy.Sanitize(raw)
}

// EditorHTML unescapes content that went through the editor's entity
// encoding more than once, then sanitizes it.
func (p *Policy) EditorHTML(raw string) string {
	return p.HTML(Unescape(raw))
}

// Unescape decodes HTML entities repeatedly, at most maxUnescapeRounds
// times, stopping once the value is stable.
func Unescape(s string) string {
	for i := 0; i < maxUnescapeRounds; i++ {
		unescaped := html.UnescapeString(s)
		if unescaped == s {
			break
		}
		s = unescaped
	}
	return s
}
