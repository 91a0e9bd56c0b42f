// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sanitize

import (
	"strings"

	"casepress/internal/apperr"
	"casepress/internal/models"
)

// Template runs the full sanitization pipeline over a post template in
// place. It enforces that exactly the representation matching the mode is
// populated: the other side is dropped rather than stored stale.
//
// Size ceilings are checked before any sanitization is attempted, so an
// oversized submission fails fast without partial transformation.
func Template(t *models.Template) error {
	switch t.Mode {
	case models.ModeDefault:
		if t.DefaultFields == nil {
			return apperr.Validation("defaultFields required for default template mode")
		}
		t.CustomFields = nil
		t.DefaultFields.Body = HTML(t.DefaultFields.Body)
		for i := range t.DefaultFields.PullQuotes {
			q := &t.DefaultFields.PullQuotes[i]
			q.Text = strings.TrimSpace(Text(q.Text))
			q.Citation = strings.TrimSpace(Text(q.Citation))
		}
		return nil

	case models.ModeCustom:
		if t.CustomFields == nil {
			return apperr.Validation("customFields required for custom template mode")
		}
		t.DefaultFields = nil
		f := t.CustomFields
		if err := CheckSizes(f.HTML, f.CSS, f.JS); err != nil {
			return err
		}
		f.HTML = CustomHTML(f.HTML)
		f.CSS = CSS(f.CSS)
		f.JS = JS(f.JS)
		return nil

	default:
		return apperr.Validation("template mode must be default or custom")
	}
}
