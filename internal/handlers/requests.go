// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"casepress/internal/apperr"
	"casepress/internal/models"
)

// Validation limits for post and author fields.
const (
	minTitleLen    = 5
	maxTitleLen    = 200
	minExcerptLen  = 10
	maxExcerptLen  = 300
	minBannerAlt   = 5
	maxBannerAlt   = 125
	minTagLen      = 2
	maxTagLen      = 30
	maxSEOTitle    = 60
	maxSEODesc     = 160
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
	minFullName    = 2
	maxFullName    = 100
	maxBioLen      = 500
	maxDesignation = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// decodeJSON strictly decodes the request body into v, rejecting unknown
// fields and trailing garbage.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if dec.More() {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

// slugPattern constrains caller-supplied slugs to the same shape the
// generator produces.
var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// postRequest is the payload for creating or updating a post.
type postRequest struct {
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Excerpt         string          `json:"excerpt"`
	Banner          models.Banner   `json:"banner"`
	ContentType     string          `json:"contentType"`
	ServiceCategory string          `json:"serviceCategory"`
	Template        models.Template `json:"template"`
	Tags            []string        `json:"tags"`
	RelatedIDs      []uuid.UUID     `json:"relatedIds"`
	SEO             models.SEO      `json:"seo"`
}

// Validate checks field lengths and enum membership. Template content is
// validated separately by the sanitizer.
func (pr *postRequest) Validate() error {
	fields := map[string]string{}

	title := strings.TrimSpace(pr.Title)
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		fields["title"] = "Title must be between 5 and 200 characters"
	}

	if pr.Slug != "" && !slugPattern.MatchString(pr.Slug) {
		fields["slug"] = "Slug may only contain lowercase letters, numbers, and hyphens"
	}

	excerpt := strings.TrimSpace(pr.Excerpt)
	if n := utf8.RuneCountInString(excerpt); n < minExcerptLen || n > maxExcerptLen {
		fields["excerpt"] = "Excerpt must be between 10 and 300 characters"
	}

	bannerURL := strings.TrimSpace(pr.Banner.URL)
	if u, err := url.Parse(bannerURL); bannerURL == "" || err != nil || u.Host == "" {
		fields["banner.url"] = "Banner image must be a valid URL"
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(pr.Banner.Alt)); n < minBannerAlt || n > maxBannerAlt {
		fields["banner.alt"] = "Banner alt text must be between 5 and 125 characters"
	}

	if !models.ValidContentType(pr.ContentType) {
		fields["contentType"] = "Unknown content type"
	}
	if !models.ValidServiceCategory(pr.ServiceCategory) {
		fields["serviceCategory"] = "Unknown service category"
	}

	for _, tag := range pr.Tags {
		if n := utf8.RuneCountInString(strings.TrimSpace(tag)); n < minTagLen || n > maxTagLen {
			fields["tags"] = "Each tag must be between 2 and 30 characters"
			break
		}
	}

	if utf8.RuneCountInString(pr.SEO.Title) > maxSEOTitle {
		fields["seo.title"] = "SEO title must be at most 60 characters"
	}
	if utf8.RuneCountInString(pr.SEO.Description) > maxSEODesc {
		fields["seo.description"] = "SEO description must be at most 160 characters"
	}

	if len(fields) > 0 {
		return apperr.ValidationFields("Validation failed", fields)
	}
	return nil
}

// apply copies the request payload onto a post. Workflow fields and the
// slug are left alone; empty SEO overrides fall back to the post's own
// title and excerpt.
func (pr *postRequest) apply(p *models.Post) {
	p.Title = strings.TrimSpace(pr.Title)
	p.Excerpt = strings.TrimSpace(pr.Excerpt)
	p.Banner = pr.Banner
	p.ContentType = pr.ContentType
	p.ServiceCategory = pr.ServiceCategory
	p.Template = pr.Template
	p.Tags = dedupeTags(pr.Tags)
	p.RelatedIDs = pr.RelatedIDs
	p.SEO = pr.SEO
	if p.SEO.Title == "" {
		p.SEO.Title = p.Title
	}
	if p.SEO.Description == "" {
		p.SEO.Description = p.Excerpt
	}
}

// dedupeTags trims tags and drops duplicates, keeping first-seen order.
func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// rejectRequest carries the optional reason for rejecting a post.
type rejectRequest struct {
	Reason string `json:"reason"`
}

// loginRequest carries credentials for session creation.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate rejects obviously malformed credentials before touching the
// store, keeping bcrypt work off garbage input.
func (lr *loginRequest) Validate() error {
	if lr.Username == "" || lr.Password == "" {
		return apperr.Validation("Username and password are required")
	}
	return nil
}

// twoFARequest carries a TOTP code.
type twoFARequest struct {
	Code string `json:"code"`
}

// authorRequest is the payload for creating or updating an author.
// Password is required on create and optional on update.
type authorRequest struct {
	Username    string        `json:"username"`
	Password    string        `json:"password"`
	FullName    string        `json:"fullName"`
	Designation string        `json:"designation"`
	Bio         string        `json:"bio"`
	AvatarURL   *string       `json:"avatarUrl"`
	Role        models.Role   `json:"role"`
	Social      models.Social `json:"social"`
	Active      *bool         `json:"active"`
}

// Validate checks author fields. requirePassword distinguishes create
// from update.
func (ar *authorRequest) Validate(requirePassword bool) error {
	fields := map[string]string{}

	username := strings.TrimSpace(ar.Username)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		fields["username"] = "Username must be between 3 and 50 characters"
	} else if !usernamePattern.MatchString(username) {
		fields["username"] = "Username may only contain letters, numbers, and underscores"
	}

	if ar.Password == "" {
		if requirePassword {
			fields["password"] = "Password is required"
		}
	} else if utf8.RuneCountInString(ar.Password) < minPasswordLen {
		fields["password"] = "Password must be at least 6 characters"
	}

	if n := utf8.RuneCountInString(strings.TrimSpace(ar.FullName)); n < minFullName || n > maxFullName {
		fields["fullName"] = "Full name must be between 2 and 100 characters"
	}

	if utf8.RuneCountInString(ar.Bio) > maxBioLen {
		fields["bio"] = "Bio must be at most 500 characters"
	}

	if utf8.RuneCountInString(ar.Designation) > maxDesignation {
		fields["designation"] = "Designation must be at most 100 characters"
	}

	if ar.Role != "" && !models.ValidRole(ar.Role) {
		fields["role"] = "Unknown role"
	}

	if len(fields) > 0 {
		return apperr.ValidationFields("Validation failed", fields)
	}
	return nil
}
