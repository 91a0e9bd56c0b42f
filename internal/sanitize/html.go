// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sanitize transforms untrusted editor submissions into
// representations that are safe to store and later render in a browser.
//
// HTML goes through allow-list policies (bluemonday); CSS and JS go
// through pattern-based denylists. The denylists are best-effort
// redaction, not a security boundary — rendering editor-supplied script
// safely ultimately requires not shipping arbitrary script at all.
// All passes are idempotent: sanitizing already-sanitized content yields
// identical output, so content survives repeated edit round-trips intact.
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// richTextTags is the structural/formatting allow-list for rich-text bodies.
var richTextTags = []string{
	"p", "br", "strong", "em", "u", "h1", "h2", "h3", "h4", "h5", "h6",
	"ul", "ol", "li", "blockquote", "a", "img", "code", "pre", "hr",
	"table", "thead", "tbody", "tr", "th", "td", "div", "span",
}

// customTags extends the rich-text allow-list with semantic layout tags
// for custom-template pages.
var customTags = append([]string{
	"i", "b", "section", "article", "header", "footer", "nav", "aside",
	"figure", "figcaption", "main",
}, richTextTags...)

// allowedAttrs is the attribute allow-list shared by both profiles.
var allowedAttrs = []string{
	"href", "src", "alt", "title", "class", "id", "target", "rel",
	"width", "height", "style",
}

// allowedSchemes constrains URI attributes. javascript:, vbscript: and
// friends are excluded by omission.
var allowedSchemes = []string{
	"http", "https", "ftp", "ftps", "mailto", "tel", "callto", "cid",
	"xmpp", "data",
}

// ariaAttrs enumerates the aria-* attributes the custom profile accepts.
var ariaAttrs = []string{
	"aria-label", "aria-labelledby", "aria-describedby", "aria-hidden",
	"aria-live", "aria-expanded", "aria-controls", "aria-current",
	"aria-haspopup", "aria-pressed", "aria-selected",
}

var (
	richTextPolicy = buildRichTextPolicy()
	customPolicy   = buildCustomPolicy()
)

func buildRichTextPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(richTextTags...)
	p.AllowAttrs(allowedAttrs...).Globally()
	p.AllowURLSchemes(allowedSchemes...)
	p.AllowRelativeURLs(true)
	return p
}

func buildCustomPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(customTags...)
	p.AllowAttrs(allowedAttrs...).Globally()
	p.AllowAttrs("role").Globally()
	p.AllowAttrs(ariaAttrs...).Globally()
	p.AllowDataAttributes()
	p.AllowURLSchemes(allowedSchemes...)
	p.AllowRelativeURLs(true)
	return p
}

// HTML sanitizes rich-text body content with the rich-text profile.
// Disallowed markup is stripped but its text content is kept, except for
// script and style elements whose content is removed entirely.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	return richTextPolicy.Sanitize(input)
}

// CustomHTML sanitizes custom-template markup with the broader layout
// profile (semantic tags plus data-*/aria-* attributes).
func CustomHTML(input string) string {
	if input == "" {
		return ""
	}
	return customPolicy.Sanitize(input)
}

// Text strips all markup from a string, keeping only text content.
// Used for pull-quote text and citations, which are rendered outside the
// rich-text body.
func Text(input string) string {
	if input == "" {
		return ""
	}
	return textPolicy.Sanitize(input)
}

var textPolicy = bluemonday.StrictPolicy()
