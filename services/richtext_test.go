package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a\nb", NormalizeText("a\r\nb"))
	assert.Equal(t, "a\nb", NormalizeText("a\rb"))
	assert.Equal(t, "plain", NormalizeText("plain"))
}

func TestFlattenRichTextPlain(t *testing.T) {
	assert.Equal(t, "heat looks fine\nretest tomorrow", FlattenRichText("heat looks fine\r\nretest tomorrow"))
}

func TestFlattenRichTextHTML(t *testing.T) {
	got := FlattenRichText("<p>first remark</p><p>second remark</p>")
	assert.Contains(t, got, "first remark")
	assert.Contains(t, got, "second remark")
	assert.NotContains(t, got, "<p>")
}

func TestFlattenRichTextList(t *testing.T) {
	got := FlattenRichText("<ul><li>carbon high</li><li>sulfur ok</li></ul>")
	assert.Contains(t, got, "- carbon high")
	assert.Contains(t, got, "- sulfur ok")
}
