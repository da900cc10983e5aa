package utils

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

var (
	postLinkRegex  = regexp.MustCompile(`&gt;&gt;(\d+)`)
	greentextRegex = regexp.MustCompile(`(<p>|<br>\n)(&gt;[^&<\n][^<\n]*)`)
)

// Markup turns raw post text into sanitized HTML for thread pages.
type Markup struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewMarkup() *Markup {
	// Blockquotes, headings and lists are left out so that ">" lines stay quotes
	// and ">>123" stays a post reference.
	p := parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewFencedCodeBlockParser(), 700),
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewCodeSpanParser(), 100),
			util.Prioritized(parser.NewEmphasisParser(), 500),
		),
	)
	md := goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithRendererOptions(html.WithHardWraps()),
		goldmark.WithExtensions(extension.Strikethrough),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^post-link$`)).OnElements("a")
	policy.AllowAttrs("data-post").Matching(regexp.MustCompile(`^\d+$`)).OnElements("a")
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^quote$`)).OnElements("span")
	policy.RequireNoFollowOnLinks(false)
	policy.AllowRelativeURLs(true)

	return &Markup{md: md, policy: policy}
}

// Render converts post content to HTML. Conversion errors fall back to escaped text.
func (m *Markup) Render(content string) template.HTML {
	var buf bytes.Buffer
	out := ""
	if err := m.md.Convert([]byte(content), &buf); err != nil {
		out = "<p>" + template.HTMLEscapeString(content) + "</p>"
	} else {
		out = strings.TrimSpace(buf.String())
	}
	out = greentextRegex.ReplaceAllString(out, `$1<span class="quote">$2</span>`)
	out = postLinkRegex.ReplaceAllString(out, `<a href="#p$1" class="post-link" data-post="$1">&gt;&gt;$1</a>`)
	return template.HTML(m.policy.Sanitize(out))
}
