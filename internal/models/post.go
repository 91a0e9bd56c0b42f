// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus represents a post's position in the approval workflow.
type PostStatus string

const (
	StatusDraft           PostStatus = "draft"
	StatusPendingApproval PostStatus = "pending_approval"
	StatusApproved        PostStatus = "approved"
	StatusRejected        PostStatus = "rejected"
)

// ValidStatus reports whether s is one of the four workflow states.
func ValidStatus(s PostStatus) bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// TemplateMode selects which of the two content representations a post uses.
type TemplateMode string

const (
	ModeDefault TemplateMode = "default"
	ModeCustom  TemplateMode = "custom"
)

// ContentTypes is the fixed set of editorial content classifications.
var ContentTypes = []string{
	"Blog Posts",
	"Case Studies",
	"User Interview",
	"Quantitative Research",
	"Competitors Research",
}

// ServiceCategories is the fixed set of marketing service classifications.
var ServiceCategories = []string{
	"Meta & Google Ads",
	"First Party Data",
	"CRO",
	"High Performing Creatives",
	"Retention Marketing",
	"Other",
}

// ValidContentType reports whether v is a known content type.
func ValidContentType(v string) bool {
	for _, t := range ContentTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ValidServiceCategory reports whether v is a known service category.
func ValidServiceCategory(v string) bool {
	for _, c := range ServiceCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Banner is the hero image shown at the top of a post.
type Banner struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// PullQuote is a highlighted quotation inside a default-template post.
// Order is significant and preserved through storage.
type PullQuote struct {
	Text     string `json:"text"`
	Citation string `json:"citation,omitempty"`
}

// DefaultFields holds the rich-text representation of a post body.
// Body is sanitized HTML by the time it reaches storage.
type DefaultFields struct {
	Body       string      `json:"body"`
	PullQuotes []PullQuote `json:"pullQuotes,omitempty"`
}

// CustomFields holds the custom-template representation: separate
// sanitized HTML, CSS, and JS blobs rendered as a standalone layout.
type CustomFields struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}

// Template selects and carries one of the two content representations.
// Exactly one of DefaultFields/CustomFields is populated, matching Mode.
type Template struct {
	Mode          TemplateMode   `json:"mode"`
	DefaultFields *DefaultFields `json:"defaultFields,omitempty"`
	CustomFields  *CustomFields  `json:"customFields,omitempty"`
}

// SEO holds optional per-post metadata overrides. Title and Description
// default to the post's own title/excerpt when absent.
type SEO struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Canonical   *string `json:"canonical"`
}

// Post is a unit of publishable content with one lifecycle state.
type Post struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Slug            string      `json:"slug"`
	Excerpt         string      `json:"excerpt"`
	Banner          Banner      `json:"banner"`
	ContentType     string      `json:"contentType"`
	ServiceCategory string      `json:"serviceCategory"`
	Template        Template    `json:"template"`
	Status          PostStatus  `json:"status"`
	RejectionReason *string     `json:"rejectionReason,omitempty"`
	AuthorID        uuid.UUID   `json:"authorId"`
	PublishedAt     *time.Time  `json:"publishedAt"`
	Views           int64       `json:"views"`
	Tags            []string    `json:"tags"`
	RelatedIDs      []uuid.UUID `json:"relatedIds"`
	SEO             SEO         `json:"seo"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// IsApproved returns true if the post is publicly visible.
func (p *Post) IsApproved() bool {
	return p.Status == StatusApproved
}
