// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"casepress/internal/apperr"
	"casepress/internal/cache"
	"casepress/internal/middleware"
	"casepress/internal/models"
	"casepress/internal/store"
)

// Authors groups author management handlers. Creation and deletion are
// admin operations; authors may update their own profile.
type Authors struct {
	authors *store.AuthorStore
	posts   *store.PostStore
	cache   *cache.PostCache
}

// NewAuthors creates a new Authors handler group.
func NewAuthors(authors *store.AuthorStore, posts *store.PostStore, postCache *cache.PostCache) *Authors {
	return &Authors{
		authors: authors,
		posts:   posts,
		cache:   postCache,
	}
}

// List handles GET /api/authors. Admin only.
func (h *Authors) List(w http.ResponseWriter, r *http.Request) {
	authors, err := h.authors.List()
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if authors == nil {
		authors = []models.Author{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"authors": authors})
}

// Get handles GET /api/authors/{id}. Admins see anyone; authors see
// themselves.
func (h *Authors) Get(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.Validation("Invalid author id"))
		return
	}

	if sess.Role != models.RoleAdmin && sess.AuthorID != id {
		writeError(w, apperr.Forbidden("You can only view your own profile"))
		return
	}

	author, err := h.authors.FindByID(id)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if author == nil {
		writeError(w, apperr.NotFound("Author not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"author": author})
}

// Create handles POST /api/authors. Admin only.
func (h *Authors) Create(w http.ResponseWriter, r *http.Request) {
	var req authorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.Validate(true); err != nil {
		writeError(w, err)
		return
	}

	taken, err := h.authors.UsernameExists(req.Username, uuid.Nil)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if taken {
		writeError(w, apperr.Conflict("Username already exists"))
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleAuthor
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	author := &models.Author{
		Username:    req.Username,
		FullName:    req.FullName,
		Designation: req.Designation,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		Role:        role,
		Social:      req.Social,
		Active:      active,
	}

	created, err := h.authors.Create(author, req.Password)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	slog.Info("author created", "id", created.ID, "username", created.Username)
	writeJSON(w, http.StatusCreated, map[string]any{"author": created})
}

// Update handles PUT /api/authors/{id}. Admins may update anyone; authors
// only themselves, and only admins may change roles or active status.
func (h *Authors) Update(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.Validation("Invalid author id"))
		return
	}

	isAdmin := sess.Role == models.RoleAdmin
	if !isAdmin && sess.AuthorID != id {
		writeError(w, apperr.Forbidden("You can only update your own profile"))
		return
	}

	author, err := h.authors.FindByID(id)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if author == nil {
		writeError(w, apperr.NotFound("Author not found"))
		return
	}

	var req authorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.Validate(false); err != nil {
		writeError(w, err)
		return
	}

	if req.Username != author.Username {
		taken, err := h.authors.UsernameExists(req.Username, id)
		if err != nil {
			writeError(w, apperr.Internal(err))
			return
		}
		if taken {
			writeError(w, apperr.Conflict("Username already exists"))
			return
		}
	}

	author.Username = req.Username
	author.FullName = req.FullName
	author.Designation = req.Designation
	author.Bio = req.Bio
	author.AvatarURL = req.AvatarURL
	author.Social = req.Social

	if isAdmin {
		if req.Role != "" {
			// Demoting the last active admin would lock everyone out.
			if author.Role == models.RoleAdmin && req.Role != models.RoleAdmin && author.Active {
				admins, err := h.authors.CountActiveAdmins()
				if err != nil {
					writeError(w, apperr.Internal(err))
					return
				}
				if admins <= 1 {
					writeError(w, apperr.Conflict("Cannot demote the last active admin"))
					return
				}
			}
			author.Role = req.Role
		}
		if req.Active != nil {
			if !*req.Active && author.Role == models.RoleAdmin && author.Active {
				admins, err := h.authors.CountActiveAdmins()
				if err != nil {
					writeError(w, apperr.Internal(err))
					return
				}
				if admins <= 1 {
					writeError(w, apperr.Conflict("Cannot deactivate the last active admin"))
					return
				}
			}
			author.Active = *req.Active
		}
	}

	updated, err := h.authors.Update(author, req.Password)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	// Author profiles ride along on cached post responses.
	if h.cache != nil {
		h.cache.InvalidateAll(r.Context())
	}

	writeJSON(w, http.StatusOK, map[string]any{"author": updated})
}

// Delete handles DELETE /api/authors/{id}. Admin only. Refuses to remove
// the last active admin or any author who still owns posts.
func (h *Authors) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.Validation("Invalid author id"))
		return
	}

	author, err := h.authors.FindByID(id)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if author == nil {
		writeError(w, apperr.NotFound("Author not found"))
		return
	}

	if author.Role == models.RoleAdmin && author.Active {
		admins, err := h.authors.CountActiveAdmins()
		if err != nil {
			writeError(w, apperr.Internal(err))
			return
		}
		if admins <= 1 {
			writeError(w, apperr.Conflict("Cannot delete the last active admin"))
			return
		}
	}

	count, err := h.posts.CountByAuthor(id)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if count > 0 {
		writeError(w, apperr.Conflict("Cannot delete an author who still has posts"))
		return
	}

	if err := h.authors.Delete(id); err != nil {
		if err == sql.ErrNoRows {
			writeError(w, apperr.NotFound("Author not found"))
			return
		}
		writeError(w, apperr.Internal(err))
		return
	}

	slog.Info("author deleted", "id", id, "username", author.Username, "actor", sess.Username)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Author deleted"})
}
