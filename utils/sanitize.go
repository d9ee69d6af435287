package utils

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// RenderContent marks post content safe for templates after sanitizing it. Line breaks
// in the source become <br> tags.
func RenderContent(content string) template.HTML {
	clean := Sanitize(strings.ReplaceAll(content, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(clean, "\n", "<br>\n"))
}
