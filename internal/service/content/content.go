// Package content cleans question text pasted into an import. Questions
// copied from web pages arrive as HTML; they are sanitized and stored as
// markdown. Plain text passes through untouched.
package content

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

var htmlTag = regexp.MustCompile(`(?i)<(p|div|br|span|img|table|tr|td|ul|ol|li|h[1-6]|strong|em|b|i|u|sup|sub|code|pre|blockquote|a)\b[^>]*>`)

var spaces = regexp.MustCompile(`\s+`)

// Normalizer is safe for concurrent use.
type Normalizer struct {
	ugc       *bluemonday.Policy
	strict    *bluemonday.Policy
	converter *md.Converter
}

// NewNormalizer keeps common formatting, images included, and strips
// scripts, event handlers and javascript: URLs.
func NewNormalizer() *Normalizer {
	ugc := bluemonday.UGCPolicy()
	// Scanned figures are often pasted as data URIs.
	ugc.AllowDataURIImages()
	return &Normalizer{
		ugc:       ugc,
		strict:    bluemonday.StrictPolicy(),
		converter: md.NewConverter("", true, nil),
	}
}

// IsHTML reports whether s contains markup worth converting.
func IsHTML(s string) bool {
	return htmlTag.MatchString(s)
}

// Markdown returns s unchanged unless it is HTML, in which case it is
// sanitized and converted.
func (n *Normalizer) Markdown(s string) (string, error) {
	if !IsHTML(s) {
		return s, nil
	}
	out, err := n.converter.ConvertString(n.ugc.Sanitize(s))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// PlainText strips every tag and collapses whitespace. Used for titles.
func (n *Normalizer) PlainText(s string) string {
	if !IsHTML(s) {
		return s
	}
	text := html.UnescapeString(n.strict.Sanitize(s))
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}
