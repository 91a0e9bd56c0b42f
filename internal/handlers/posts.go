// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"casepress/internal/apperr"
	"casepress/internal/cache"
	"casepress/internal/lifecycle"
	"casepress/internal/middleware"
	"casepress/internal/models"
	"casepress/internal/sanitize"
	"casepress/internal/session"
	"casepress/internal/slug"
	"casepress/internal/store"
)

const (
	defaultPageSize = 6
	maxPageSize     = 50
	maxQueryLen     = 100
	relatedLimit    = 3
)

// Posts groups all post-related HTTP handlers.
type Posts struct {
	posts   *store.PostStore
	authors *store.AuthorStore
	cache   *cache.PostCache
}

// NewPosts creates a new Posts handler group.
func NewPosts(posts *store.PostStore, authors *store.AuthorStore, postCache *cache.PostCache) *Posts {
	return &Posts{
		posts:   posts,
		authors: authors,
		cache:   postCache,
	}
}

// viewer extracts the caller's identity for visibility filtering. The
// zero value means an unauthenticated reader.
func viewer(sess *session.Data) store.Visibility {
	if sess == nil {
		return store.Visibility{}
	}
	return store.Visibility{Role: sess.Role, ViewerID: sess.AuthorID}
}

// canSee applies the visibility rule to a single post.
func canSee(v store.Visibility, p *models.Post) bool {
	if p.IsApproved() {
		return true
	}
	switch v.Role {
	case models.RoleAdmin:
		return true
	case models.RoleAuthor:
		return p.AuthorID == v.ViewerID
	}
	return false
}

// postDetail is the single-post response shape.
type postDetail struct {
	Post    store.PostWithAuthor   `json:"post"`
	Related []store.PostWithAuthor `json:"related"`
}

// listResponse is the paginated listing response shape.
type listResponse struct {
	Posts      []store.PostWithAuthor `json:"posts"`
	Pagination pagination             `json:"pagination"`
}

type pagination struct {
	Offset     int `json:"offset"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// List handles GET /api/posts. Visibility is applied before search,
// filters, and pagination, so hidden posts never shift page boundaries.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	query := strings.TrimSpace(q.Get("q"))
	if len(query) > maxQueryLen {
		writeError(w, apperr.Validation("Search query too long"))
		return
	}

	filter := store.Filter{
		Offset:          offset,
		Limit:           limit,
		ContentType:     q.Get("contentType"),
		ServiceCategory: q.Get("serviceCategory"),
		Query:           query,
	}
	if s := q.Get("status"); s != "" {
		if !models.ValidStatus(models.PostStatus(s)) {
			writeError(w, apperr.Validation("Unknown status"))
			return
		}
		filter.Status = models.PostStatus(s)
	}
	if a := q.Get("authorId"); a != "" {
		id, err := uuid.Parse(a)
		if err != nil {
			writeError(w, apperr.Validation("Invalid author id"))
			return
		}
		filter.AuthorID = id
	}

	v := viewer(middleware.SessionFromCtx(r.Context()))
	posts, total, err := h.posts.List(v, filter)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if posts == nil {
		posts = []store.PostWithAuthor{}
	}

	totalPages := (total + limit - 1) / limit
	writeJSON(w, http.StatusOK, listResponse{
		Posts: posts,
		Pagination: pagination{
			Offset:     offset,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// Get handles GET /api/posts/{slug}. Posts hidden from the caller return
// 404 so their existence doesn't leak. Public reads of approved posts are
// served from the Valkey cache when possible.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")
	sess := middleware.SessionFromCtx(r.Context())

	// Cache only serves anonymous readers; authenticated callers may see
	// drafts and rejection reasons that must never be cached.
	if sess == nil && h.cache != nil {
		if body, ok := h.cache.Get(r.Context(), slugParam); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write(body)
			return
		}
	}

	p, err := h.posts.FindBySlug(slugParam)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	v := viewer(sess)
	if p == nil || !canSee(v, p) {
		writeError(w, apperr.NotFound("Post not found"))
		return
	}

	author, err := h.authors.FindByID(p.AuthorID)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	var summary *models.AuthorSummary
	if author != nil {
		summary = author.Summary()
	}

	related, err := h.posts.Related(p, relatedLimit)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if related == nil {
		related = []store.PostWithAuthor{}
	}

	detail := postDetail{
		Post:    store.PostWithAuthor{Post: *p, Author: summary},
		Related: related,
	}

	if sess == nil && h.cache != nil && p.IsApproved() {
		if body, err := json.Marshal(detail); err == nil {
			h.cache.Set(r.Context(), slugParam, body)
		}
	}

	writeJSON(w, http.StatusOK, detail)
}

// Create handles POST /api/posts. New posts always start as drafts owned
// by the caller; template content is sanitized before it is stored.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	p := &models.Post{
		Status:   models.StatusDraft,
		AuthorID: sess.AuthorID,
	}
	req.apply(p)

	if err := sanitize.Template(&p.Template); err != nil {
		writeError(w, err)
		return
	}

	base := req.Slug
	if base == "" {
		base = slug.Generate(p.Title)
	}
	s, err := slug.Unique(base, func(candidate string) (bool, error) {
		return h.posts.SlugExists(candidate, uuid.Nil)
	})
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	p.Slug = s

	created, err := h.posts.Create(p)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	slog.Info("post created", "id", created.ID, "slug", created.Slug, "author", sess.Username)
	writeJSON(w, http.StatusCreated, map[string]any{"post": created})
}

// Update handles PUT /api/posts/{id}. Authors may edit their own
// non-approved posts; admins may edit anything. A changed title
// regenerates the slug.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	p, err := h.findVisible(r, sess)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := lifecycle.Authorize(sess.Role, p.AuthorID == sess.AuthorID, p.Status, lifecycle.ActionEdit); err != nil {
		writeError(w, err)
		return
	}

	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	oldSlug := p.Slug
	titleChanged := p.Title != strings.TrimSpace(req.Title)
	req.apply(p)

	if err := sanitize.Template(&p.Template); err != nil {
		writeError(w, err)
		return
	}

	// A caller-supplied slug wins; otherwise a changed title regenerates it.
	base := ""
	if req.Slug != "" && req.Slug != oldSlug {
		base = req.Slug
	} else if titleChanged && req.Slug == "" {
		base = slug.Generate(p.Title)
	}
	if base != "" {
		s, err := slug.Unique(base, func(candidate string) (bool, error) {
			return h.posts.SlugExists(candidate, p.ID)
		})
		if err != nil {
			writeError(w, apperr.Internal(err))
			return
		}
		p.Slug = s
	}

	updated, err := h.posts.Update(p)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if updated == nil {
		writeError(w, apperr.NotFound("Post not found"))
		return
	}

	h.invalidate(r, oldSlug, updated.Slug)
	writeJSON(w, http.StatusOK, map[string]any{"post": updated})
}

// Submit handles POST /api/posts/{id}/submit.
func (h *Posts) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, lifecycle.ActionSubmit, "Post submitted for approval")
}

// Approve handles POST /api/posts/{id}/approve.
func (h *Posts) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, lifecycle.ActionApprove, "Post approved")
}

// Reject handles POST /api/posts/{id}/reject.
func (h *Posts) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, lifecycle.ActionReject, "Post rejected")
}

// transition runs a workflow action against the post and persists the
// result. The lifecycle package owns every rule; this function only
// moves data.
func (h *Posts) transition(w http.ResponseWriter, r *http.Request, action lifecycle.Action, message string) {
	sess := middleware.SessionFromCtx(r.Context())

	p, err := h.findVisible(r, sess)
	if err != nil {
		writeError(w, err)
		return
	}

	var reason string
	if action == lifecycle.ActionReject {
		var req rejectRequest
		// An empty body means "no reason given".
		if r.ContentLength > 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, err)
				return
			}
		}
		reason = req.Reason
	}

	if err := lifecycle.Apply(p, action, sess.Role, sess.AuthorID, reason, time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.posts.UpdateWorkflow(p)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if updated == nil {
		writeError(w, apperr.NotFound("Post not found"))
		return
	}

	h.invalidate(r, updated.Slug)
	slog.Info("post transitioned",
		"id", updated.ID,
		"action", string(action),
		"status", string(updated.Status),
		"actor", sess.Username,
	)
	writeJSON(w, http.StatusOK, map[string]any{"message": message, "post": updated})
}

// TrackView handles POST /api/posts/{id}/view. Public endpoint; only
// approved posts count views, and the increment happens in the database
// so concurrent requests never lose counts.
func (h *Posts) TrackView(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.Validation("Invalid post id"))
		return
	}

	p, err := h.posts.FindByID(id)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	v := viewer(middleware.SessionFromCtx(r.Context()))
	if p == nil || !canSee(v, p) {
		writeError(w, apperr.NotFound("Post not found"))
		return
	}

	if err := lifecycle.Authorize(v.Role, false, p.Status, lifecycle.ActionView); err != nil {
		writeError(w, err)
		return
	}

	views, err := h.posts.IncrementViews(id)
	if err == sql.ErrNoRows {
		// Approved when checked, changed since. Same caller-visible outcome.
		writeError(w, apperr.Conflict("Can only track views for approved posts"))
		return
	}
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"views": views})
}

// Delete handles DELETE /api/posts/{id}. Admin only, any state.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	p, err := h.findVisible(r, sess)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := lifecycle.Authorize(sess.Role, p.AuthorID == sess.AuthorID, p.Status, lifecycle.ActionDelete); err != nil {
		writeError(w, err)
		return
	}

	if err := h.posts.Delete(p.ID); err != nil {
		if err == sql.ErrNoRows {
			writeError(w, apperr.NotFound("Post not found"))
			return
		}
		writeError(w, apperr.Internal(err))
		return
	}

	h.invalidate(r, p.Slug)
	slog.Info("post deleted", "id", p.ID, "slug", p.Slug, "actor", sess.Username)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Post deleted"})
}

// findVisible loads the post addressed by the {id} URL parameter and
// applies the visibility rule for the caller. Hidden and missing posts
// are indistinguishable.
func (h *Posts) findVisible(r *http.Request, sess *session.Data) (*models.Post, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, apperr.Validation("Invalid post id")
	}

	p, err := h.posts.FindByID(id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p == nil || !canSee(viewer(sess), p) {
		return nil, apperr.NotFound("Post not found")
	}
	return p, nil
}

// invalidate drops cached entries for the given slugs.
func (h *Posts) invalidate(r *http.Request, slugs ...string) {
	if h.cache == nil {
		return
	}
	for _, s := range slugs {
		h.cache.Invalidate(r.Context(), s)
	}
}
