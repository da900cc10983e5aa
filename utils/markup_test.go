package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkupRender(t *testing.T) {
	m := NewMarkup()

	t.Run("post reference becomes a link", func(t *testing.T) {
		out := string(m.Render(">>42 согласен"))
		assert.Contains(t, out, `href="#p42"`)
		assert.Contains(t, out, `class="post-link"`)
		assert.Contains(t, out, "согласен")
	})

	t.Run("quote line is wrapped", func(t *testing.T) {
		out := string(m.Render("first\n>quoted text"))
		assert.Contains(t, out, `<span class="quote">&gt;quoted text</span>`)
	})

	t.Run("raw html is not passed through", func(t *testing.T) {
		out := string(m.Render(`<script>alert(1)</script> hi`))
		assert.NotContains(t, out, "<script>")
		assert.Contains(t, out, "hi")
	})

	t.Run("emphasis", func(t *testing.T) {
		out := string(m.Render("*bold*"))
		assert.Contains(t, out, "<em>bold</em>")
	})
}
