// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents an author's permission level in the system.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleAuthor
}

// Social holds an author's public profile links. All fields are optional.
type Social struct {
	Instagram *string `json:"instagram"`
	YouTube   *string `json:"youtube"`
	X         *string `json:"x"`
	Facebook  *string `json:"facebook"`
	LinkedIn  *string `json:"linkedin"`
	Website   *string `json:"website"`
	Email     *string `json:"email"`
}

// Author is a credentialed user who creates posts.
type Author struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	FullName     string    `json:"fullName"`
	Designation  string    `json:"designation"`
	Bio          string    `json:"bio"`
	AvatarURL    *string   `json:"avatarUrl"`
	Role         Role      `json:"role"`
	Social       Social    `json:"social"`
	Active       bool      `json:"active"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totpEnabled"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin returns true if the author has the admin role.
func (a *Author) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// AuthorSummary is the public-safe author representation embedded in
// post responses.
type AuthorSummary struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"fullName"`
	AvatarURL *string   `json:"avatarUrl"`
	Bio       string    `json:"bio,omitempty"`
	Social    *Social   `json:"social,omitempty"`
}

// Summary returns the public-safe view of the author.
func (a *Author) Summary() *AuthorSummary {
	return &AuthorSummary{
		ID:        a.ID,
		FullName:  a.FullName,
		AvatarURL: a.AvatarURL,
		Bio:       a.Bio,
		Social:    &a.Social,
	}
}
