// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"casepress/internal/models"
)

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// Visibility identifies the caller for read-path filtering. The zero
// value is an unauthenticated (public) viewer.
type Visibility struct {
	Role     models.Role
	ViewerID uuid.UUID
}

// Filter narrows a post listing. Zero values mean "no constraint".
type Filter struct {
	Offset          int
	Limit           int
	ContentType     string
	ServiceCategory string
	Status          models.PostStatus
	Query           string
	AuthorID        uuid.UUID
}

// PostWithAuthor pairs a post with its author's public profile for API
// responses. Embedding flattens the post fields in JSON.
type PostWithAuthor struct {
	models.Post
	Author *models.AuthorSummary `json:"author"`
}

const postColumns = `p.id, p.title, p.slug, p.excerpt, p.banner, p.content_type,
	p.service_category, p.template_mode, p.default_fields, p.custom_fields,
	p.status, p.rejection_reason, p.author_id, p.published_at, p.views,
	p.tags, p.related_ids, p.seo, p.created_at, p.updated_at`

// scanPost reads one post row, decoding the JSONB columns.
func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	p := &models.Post{}
	var banner, defaultFields, customFields, tags, relatedIDs, seo []byte

	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &banner, &p.ContentType,
		&p.ServiceCategory, &p.Template.Mode, &defaultFields, &customFields,
		&p.Status, &p.RejectionReason, &p.AuthorID, &p.PublishedAt, &p.Views,
		&tags, &relatedIDs, &seo, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(banner, &p.Banner); err != nil {
		return nil, fmt.Errorf("decode banner: %w", err)
	}
	if len(defaultFields) > 0 {
		p.Template.DefaultFields = &models.DefaultFields{}
		if err := json.Unmarshal(defaultFields, p.Template.DefaultFields); err != nil {
			return nil, fmt.Errorf("decode default fields: %w", err)
		}
	}
	if len(customFields) > 0 {
		p.Template.CustomFields = &models.CustomFields{}
		if err := json.Unmarshal(customFields, p.Template.CustomFields); err != nil {
			return nil, fmt.Errorf("decode custom fields: %w", err)
		}
	}
	if err := json.Unmarshal(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(relatedIDs, &p.RelatedIDs); err != nil {
		return nil, fmt.Errorf("decode related ids: %w", err)
	}
	if len(seo) > 0 {
		if err := json.Unmarshal(seo, &p.SEO); err != nil {
			return nil, fmt.Errorf("decode seo: %w", err)
		}
	}
	return p, nil
}

// encodePost marshals the JSONB columns of a post for writing.
func encodePost(p *models.Post) (banner, defaultFields, customFields, tags, relatedIDs, seo []byte, err error) {
	if banner, err = json.Marshal(p.Banner); err != nil {
		return
	}
	if p.Template.DefaultFields != nil {
		if defaultFields, err = json.Marshal(p.Template.DefaultFields); err != nil {
			return
		}
	}
	if p.Template.CustomFields != nil {
		if customFields, err = json.Marshal(p.Template.CustomFields); err != nil {
			return
		}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if tags, err = json.Marshal(p.Tags); err != nil {
		return
	}
	if p.RelatedIDs == nil {
		p.RelatedIDs = []uuid.UUID{}
	}
	if relatedIDs, err = json.Marshal(p.RelatedIDs); err != nil {
		return
	}
	seo, err = json.Marshal(p.SEO)
	return
}

// Create inserts a new post and returns it with generated fields populated.
func (s *PostStore) Create(p *models.Post) (*models.Post, error) {
	banner, defaultFields, customFields, tags, relatedIDs, seo, err := encodePost(p)
	if err != nil {
		return nil, fmt.Errorf("encode post: %w", err)
	}

	created, err := scanPost(s.db.QueryRow(`
		INSERT INTO posts (title, slug, excerpt, banner, content_type, service_category,
		                   template_mode, default_fields, custom_fields, status,
		                   author_id, published_at, views, tags, related_ids, seo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+strings.ReplaceAll(postColumns, "p.", ""),
		p.Title, p.Slug, p.Excerpt, banner, p.ContentType, p.ServiceCategory,
		p.Template.Mode, defaultFields, customFields, p.Status,
		p.AuthorID, p.PublishedAt, p.Views, tags, relatedIDs, seo,
	))
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return created, nil
}

// Update replaces a post's content fields. Workflow fields (status,
// rejection reason, published date, views) are untouched; those move
// through UpdateWorkflow and IncrementViews.
func (s *PostStore) Update(p *models.Post) (*models.Post, error) {
	banner, defaultFields, customFields, tags, relatedIDs, seo, err := encodePost(p)
	if err != nil {
		return nil, fmt.Errorf("encode post: %w", err)
	}

	updated, err := scanPost(s.db.QueryRow(`
		UPDATE posts
		SET title = $2, slug = $3, excerpt = $4, banner = $5, content_type = $6,
		    service_category = $7, template_mode = $8, default_fields = $9,
		    custom_fields = $10, tags = $11, related_ids = $12, seo = $13,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+strings.ReplaceAll(postColumns, "p.", ""),
		p.ID, p.Title, p.Slug, p.Excerpt, banner, p.ContentType,
		p.ServiceCategory, p.Template.Mode, defaultFields, customFields,
		tags, relatedIDs, seo,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return updated, nil
}

// UpdateWorkflow persists the workflow fields after a lifecycle
// transition: status, rejection reason, and published date.
func (s *PostStore) UpdateWorkflow(p *models.Post) (*models.Post, error) {
	updated, err := scanPost(s.db.QueryRow(`
		UPDATE posts
		SET status = $2, rejection_reason = $3, published_at = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+strings.ReplaceAll(postColumns, "p.", ""),
		p.ID, p.Status, p.RejectionReason, p.PublishedAt,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update post workflow: %w", err)
	}
	return updated, nil
}

// FindByID retrieves a post by UUID. Returns nil if not found.
func (s *PostStore) FindByID(id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRow(
		`SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a post by slug regardless of status. The caller
// applies the visibility rule. Returns nil if not found.
func (s *PostStore) FindBySlug(slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRow(
		`SELECT `+postColumns+` FROM posts p WHERE p.slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// SlugExists reports whether slug belongs to a post other than excludeID.
// Pass uuid.Nil to check against all posts.
func (s *PostStore) SlugExists(slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`,
		slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug exists: %w", err)
	}
	return exists, nil
}

// Delete removes a post. Returns sql.ErrNoRows if it doesn't exist.
func (s *PostStore) Delete(id uuid.UUID) error {
	result, err := s.db.Exec("DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementViews bumps the view counter of an approved post and returns
// the new value. The status guard lives in the SQL so two concurrent
// increments never race against a stale in-memory count.
func (s *PostStore) IncrementViews(id uuid.UUID) (int64, error) {
	var views int64
	err := s.db.QueryRow(`
		UPDATE posts SET views = views + 1, updated_at = now()
		WHERE id = $1 AND status = 'approved'
		RETURNING views
	`, id).Scan(&views)
	if err == sql.ErrNoRows {
		return 0, sql.ErrNoRows
	}
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

// visibilityClause returns the SQL predicate implementing the read-path
// rule: the public sees only approved posts, authors additionally see
// their own, admins see everything. It is part of the WHERE clause, so
// it applies before any search, sort, or pagination.
func visibilityClause(v Visibility, args *[]any) string {
	switch v.Role {
	case models.RoleAdmin:
		return "TRUE"
	case models.RoleAuthor:
		*args = append(*args, v.ViewerID)
		return fmt.Sprintf("(p.status = 'approved' OR p.author_id = $%d)", len(*args))
	default:
		return "p.status = 'approved'"
	}
}

// List returns the page of posts visible to v that match f, with author
// profiles attached, plus the total match count for pagination.
func (s *PostStore) List(v Visibility, f Filter) ([]PostWithAuthor, int, error) {
	var args []any
	where := []string{visibilityClause(v, &args)}

	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if f.AuthorID != uuid.Nil {
		args = append(args, f.AuthorID)
		where = append(where, fmt.Sprintf("p.author_id = $%d", len(args)))
	}
	if f.ContentType != "" {
		args = append(args, f.ContentType)
		where = append(where, fmt.Sprintf("p.content_type = $%d", len(args)))
	}
	if f.ServiceCategory != "" {
		args = append(args, f.ServiceCategory)
		where = append(where, fmt.Sprintf("p.service_category = $%d", len(args)))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(p.title ILIKE $%d OR p.excerpt ILIKE $%d OR p.default_fields->>'body' ILIKE $%d)",
			n, n, n))
	}

	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM posts p WHERE "+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 6
	}
	args = append(args, limit, f.Offset)

	// Approved posts sort by publication date, everything else by last
	// update, newest first in both cases.
	rows, err := s.db.Query(`
		SELECT `+postColumns+`, a.id, a.full_name, a.avatar_url, a.bio, a.social
		FROM posts p
		JOIN authors a ON a.id = p.author_id
		WHERE `+whereSQL+`
		ORDER BY CASE WHEN p.status = 'approved' THEN p.published_at ELSE p.updated_at END DESC
		LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	items, err := collectPostsWithAuthors(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, rows.Err()
}

// Related returns up to limit approved posts related to p: explicitly
// linked posts first, then posts sharing a content type or service
// category, newest first.
func (s *PostStore) Related(p *models.Post, limit int) ([]PostWithAuthor, error) {
	relatedIDs, err := json.Marshal(p.RelatedIDs)
	if err != nil {
		return nil, fmt.Errorf("encode related ids: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT `+postColumns+`, a.id, a.full_name, a.avatar_url, a.bio, a.social
		FROM posts p
		JOIN authors a ON a.id = p.author_id
		WHERE p.status = 'approved'
		  AND p.id <> $1
		  AND ($2::jsonb @> to_jsonb(p.id::text)
		       OR p.content_type = $3
		       OR p.service_category = $4)
		ORDER BY ($2::jsonb @> to_jsonb(p.id::text)) DESC, p.published_at DESC
		LIMIT $5
	`, p.ID, relatedIDs, p.ContentType, p.ServiceCategory, limit)
	if err != nil {
		return nil, fmt.Errorf("list related posts: %w", err)
	}
	defer rows.Close()

	items, err := collectPostsWithAuthors(rows)
	if err != nil {
		return nil, err
	}
	return items, rows.Err()
}

// CountByAuthor returns the number of posts owned by the given author.
func (s *PostStore) CountByAuthor(authorID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM posts WHERE author_id = $1", authorID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts by author: %w", err)
	}
	return count, nil
}

// collectPostsWithAuthors scans joined post+author rows.
func collectPostsWithAuthors(rows *sql.Rows) ([]PostWithAuthor, error) {
	var items []PostWithAuthor
	for rows.Next() {
		var p models.Post
		var author models.AuthorSummary
		var banner, defaultFields, customFields, tags, relatedIDs, seo, social []byte
		err := rows.Scan(
			&p.ID, &p.Title, &p.Slug, &p.Excerpt, &banner, &p.ContentType,
			&p.ServiceCategory, &p.Template.Mode, &defaultFields, &customFields,
			&p.Status, &p.RejectionReason, &p.AuthorID, &p.PublishedAt, &p.Views,
			&tags, &relatedIDs, &seo, &p.CreatedAt, &p.UpdatedAt,
			&author.ID, &author.FullName, &author.AvatarURL, &author.Bio, &social,
		)
		if err != nil {
			return nil, fmt.Errorf("scan post with author: %w", err)
		}

		if err := json.Unmarshal(banner, &p.Banner); err != nil {
			return nil, fmt.Errorf("decode banner: %w", err)
		}
		if len(defaultFields) > 0 {
			p.Template.DefaultFields = &models.DefaultFields{}
			if err := json.Unmarshal(defaultFields, p.Template.DefaultFields); err != nil {
				return nil, fmt.Errorf("decode default fields: %w", err)
			}
		}
		if len(customFields) > 0 {
			p.Template.CustomFields = &models.CustomFields{}
			if err := json.Unmarshal(customFields, p.Template.CustomFields); err != nil {
				return nil, fmt.Errorf("decode custom fields: %w", err)
			}
		}
		if err := json.Unmarshal(tags, &p.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
		if err := json.Unmarshal(relatedIDs, &p.RelatedIDs); err != nil {
			return nil, fmt.Errorf("decode related ids: %w", err)
		}
		if len(seo) > 0 {
			if err := json.Unmarshal(seo, &p.SEO); err != nil {
				return nil, fmt.Errorf("decode seo: %w", err)
			}
		}
		if len(social) > 0 {
			author.Social = &models.Social{}
			if err := json.Unmarshal(social, author.Social); err != nil {
				return nil, fmt.Errorf("decode author social: %w", err)
			}
		}

		items = append(items, PostWithAuthor{Post: p, Author: &author})
	}
	return items, nil
}
