package sanitize

import (
	"fmt"

	"casepress/internal/apperr"
)

// Hard byte ceilings for custom-template content. Checked before any
// sanitization pass runs; oversized content is rejected, never truncated.
const (
	MaxHTMLBytes = 100 * 1024
	MaxCSSBytes  = 50 * 1024
	MaxJSBytes   = 25 * 1024
)

// CheckSizes validates all three custom-template blobs against their
// ceilings and returns a validation error naming the first field that
// exceeds its limit.
func CheckSizes(html, css, js string) error {
	if len(html) > MaxHTMLBytes {
		return apperr.ValidationFields("HTML content too large (max 100KB)", map[string]string{
			"template.customFields.html": fmt.Sprintf("%d bytes exceeds the %d byte limit", len(html), MaxHTMLBytes),
		})
	}
	if len(css) > MaxCSSBytes {
		return apperr.ValidationFields("CSS content too large (max 50KB)", map[string]string{
			"template.customFields.css": fmt.Sprintf("%d bytes exceeds the %d byte limit", len(css), MaxCSSBytes),
		})
	}
	if len(js) > MaxJSBytes {
		return apperr.ValidationFields("JavaScript content too large (max 25KB)", map[string]string{
			"template.customFields.js": fmt.Sprintf("%d bytes exceeds the %d byte limit", len(js), MaxJSBytes),
		})
	}
	return nil
}
