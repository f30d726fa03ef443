// Package render holds the template helpers of the dashboard pages.
package render

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	policy = bluemonday.UGCPolicy()
)

// Markdown renders a card description to sanitized HTML.
func Markdown(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// TypeStyle turns a label name into a CSS class suffix:
// "Design, UX & Research" becomes "design-uxresearch".
func TypeStyle(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " & ", "")
	s = strings.ReplaceAll(s, " ", "-")
	return strings.ToLower(s)
}

// DueDate formats a due date for display; nil renders as an empty string.
func DueDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("Mon 2 Jan 2006")
}

// RelTime renders a due date relative to now, e.g. "3 days from now".
func RelTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return humanize.Time(*t)
}

// FuncMap returns the functions available to every page template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"typeStyle":  TypeStyle,
		"markdown":   Markdown,
		"dueDate":    DueDate,
		"relTime":    RelTime,
		"join":       strings.Join,
		"pathEscape": url.PathEscape,
		"comma":      func(n int) string { return humanize.Comma(int64(n)) },
		"monthName":  func(m time.Month) string { return m.String() },
		"plural": func(n int, singular, plural string) string {
			if n == 1 {
				return singular
			}
			return plural
		},
	}
}
