// Package richtext turns model output into HTML that is safe to place on the
// editing surface.
package richtext

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n(.*?)\\n?```$")
	tagPattern   = regexp.MustCompile(`^<[a-zA-Z!][^>]*>`)

	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = newPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("data-checked").OnElements("li")
	p.AllowAttrs("type", "checked", "disabled").OnElements("input")
	p.AllowElements("input")
	return p
}

// StripFences removes a single code fence wrapping the whole text, which
// models tend to add around HTML or JSON answers.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// IsHTML reports whether text already starts with a tag.
func IsHTML(text string) bool {
	return tagPattern.MatchString(strings.TrimSpace(text))
}

// ToHTML renders markdown, or passes HTML through, and sanitizes the result.
func ToHTML(text string) (string, error) {
	text = StripFences(text)
	if text == "" {
		return "", nil
	}
	if !IsHTML(text) {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(text), &buf); err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		text = buf.String()
	}
	return strings.TrimSpace(Sanitize(text)), nil
}

// Sanitize drops scripts, event handlers and anything else outside the
// user-content policy.
func Sanitize(markup string) string {
	return policy.Sanitize(markup)
}
