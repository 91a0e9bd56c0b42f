// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sanitize

import (
	"regexp"
	"strings"
)

// RedactedMarker replaces dangerous JS constructs so editors can see that
// something was removed rather than having their script silently break.
const RedactedMarker = "/* REMOVED */"

// cssDenylist matches CSS constructs that can load external resources or
// execute script. Matches are removed, not escaped.
var cssDenylist = []*regexp.Regexp{
	regexp.MustCompile(`(?i)@import`),
	regexp.MustCompile(`(?i)expression\s*\(`),
	regexp.MustCompile(`(?i)behavior\s*:`),
	regexp.MustCompile(`(?i)binding\s*:`),
	regexp.MustCompile(`(?i)-moz-binding`),
	regexp.MustCompile(`(?i)url\s*\(\s*["']?\s*javascript:`),
	regexp.MustCompile(`(?i)javascript:`),
}

// jsDenylist matches identifiers and calls that reach outside the page
// content: dynamic code evaluation, DOM injection, network access, and
// global object traversal.
var jsDenylist = []*regexp.Regexp{
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)Function\s*\(`),
	regexp.MustCompile(`(?i)setTimeout\s*\(`),
	regexp.MustCompile(`(?i)setInterval\s*\(`),
	regexp.MustCompile(`(?i)document\.write(ln)?`),
	regexp.MustCompile(`(?i)innerHTML\s*=`),
	regexp.MustCompile(`(?i)outerHTML\s*=`),
	regexp.MustCompile(`(?i)fetch\s*\(`),
	regexp.MustCompile(`(?i)XMLHttpRequest`),
	regexp.MustCompile(`(?i)ActiveXObject`),
	regexp.MustCompile(`(?i)import\s*\(`),
	regexp.MustCompile(`(?i)require\s*\(`),
	regexp.MustCompile(`(?i)process\.`),
	regexp.MustCompile(`(?i)global\.`),
	regexp.MustCompile(`(?i)window\.`),
	regexp.MustCompile(`(?i)document\.`),
	regexp.MustCompile(`(?i)location\.`),
	regexp.MustCompile(`(?i)history\.`),
}

// CSS strips dangerous constructs from a stylesheet by pattern match.
// This is not a CSS parse; matched substrings are removed and the
// remainder returned trimmed.
func CSS(input string) string {
	if input == "" {
		return ""
	}
	out := input
	for _, re := range cssDenylist {
		out = re.ReplaceAllString(out, "")
	}
	return strings.TrimSpace(out)
}

// JS redacts dangerous constructs from a custom-template script. Each
// match is replaced with RedactedMarker. This is a best-effort denylist;
// it keeps honest editors honest and nothing more.
func JS(input string) string {
	if input == "" {
		return ""
	}
	out := input
	for _, re := range jsDenylist {
		out = re.ReplaceAllString(out, RedactedMarker)
	}
	return strings.TrimSpace(out)
}
