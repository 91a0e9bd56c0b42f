// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"casepress/internal/models"
)

func TestPostWorkflowThroughHandlers(t *testing.T) {
	env := newTestEnv(t)
	author := env.createAuthor(t, "handler_wf_author", models.RoleAuthor)
	admin := env.createAuthor(t, "handler_wf_admin", models.RoleAdmin)
	p := env.createPost(t, "handler-workflow-post", author.ID)

	params := map[string]string{"id": p.ID.String()}

	// Author submits their draft.
	rr := httptest.NewRecorder()
	env.postHandlers.Submit(rr, newRequest(t, "POST", "/api/posts/"+p.ID.String()+"/submit", nil, sessionFor(author), params))
	if rr.Code != http.StatusOK {
		t.Fatalf("submit: got %d, body %s", rr.Code, rr.Body.String())
	}

	// Author cannot approve their own pending post.
	rr = httptest.NewRecorder()
	env.postHandlers.Approve(rr, newRequest(t, "POST", "/api/posts/"+p.ID.String()+"/approve", nil, sessionFor(author), params))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("author approve: got %d, want 403", rr.Code)
	}

	// Admin approves.
	rr = httptest.NewRecorder()
	env.postHandlers.Approve(rr, newRequest(t, "POST", "/api/posts/"+p.ID.String()+"/approve", nil, sessionFor(admin), params))
	if rr.Code != http.StatusOK {
		t.Fatalf("admin approve: got %d, body %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	post := body["post"].(map[string]any)
	if post["status"] != "approved" {
		t.Errorf("status: got %v, want approved", post["status"])
	}
	if post["publishedAt"] == nil {
		t.Error("expected publishedAt after approval")
	}

	// Approving again conflicts.
	rr = httptest.NewRecorder()
	env.postHandlers.Approve(rr, newRequest(t, "POST", "/api/posts/"+p.ID.String()+"/approve", nil, sessionFor(admin), params))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("double approve: got %d, want 400", rr.Code)
	}
}

func TestPostRejectStoresReason(t *testing.T) {
	env := newTestEnv(t)
	author := env.createAuthor(t, "handler_rej_author", models.RoleAuthor)
	admin := env.createAuthor(t, "handler_rej_admin", models.RoleAdmin)
	p := env.createPost(t, "handler-reject-post", author.ID)

	params := map[string]string{"id": p.ID.String()}

	rr := httptest.NewRecorder()
	env.postHandlers.Submit(rr, newRequest(t, "POST", "/s", nil, sessionFor(author), params))
	if rr.Code != http.StatusOK {
		t.Fatalf("submit: got %d", rr.Code)
	}

	// Reject without a body falls back to the default reason.
	rr = httptest.NewRecorder()
	env.postHandlers.Reject(rr, newRequest(t, "POST", "/r", nil, sessionFor(admin), params))
	if rr.Code != http.StatusOK {
		t.Fatalf("reject: got %d, body %s", rr.Code, rr.Body.String())
	}
	post := decodeBody(t, rr)["post"].(map[string]any)
	if post["rejectionReason"] != "No reason provided" {
		t.Errorf("rejectionReason: got %v", post["rejectionReason"])
	}

	// Resubmitting clears the reason.
	rr = httptest.NewRecorder()
	env.postHandlers.Submit(rr, newRequest(t, "POST", "/s", nil, sessionFor(author), params))
	if rr.Code != http.StatusOK {
		t.Fatalf("resubmit: got %d, body %s", rr.Code, rr.Body.String())
	}
	post = decodeBody(t, rr)["post"].(map[string]any)
	if _, present := post["rejectionReason"]; present {
		t.Errorf("rejectionReason should be cleared, got %v", post["rejectionReason"])
	}

	// Reject again, this time with an explicit reason.
	rr = httptest.NewRecorder()
	env.postHandlers.Reject(rr, newRequest(t, "POST", "/r", map[string]string{"reason": "Needs work"}, sessionFor(admin), params))
	if rr.Code != http.StatusOK {
		t.Fatalf("reject with reason: got %d, body %s", rr.Code, rr.Body.String())
	}
	post = decodeBody(t, rr)["post"].(map[string]any)
	if post["rejectionReason"] != "Needs work" {
		t.Errorf("rejectionReason: got %v, want Needs work", post["rejectionReason"])
	}
}

func TestPostGetHidesDraftsFromPublic(t *testing.T) {
	env := newTestEnv(t)
	author := env.createAuthor(t, "handler_vis_author", models.RoleAuthor)
	other := env.createAuthor(t, "handler_vis_other", models.RoleAuthor)
	p := env.createPost(t, "handler-visibility-post", author.ID)

	params := map[string]string{"slug": p.Slug}

	// Anonymous reader gets 404.
	rr := httptest.NewRecorder()
	env.postHandlers.Get(rr, newRequest(t, "GET", "/api/posts/"+p.Slug, nil, nil, params))
	if rr.Code != http.StatusNotFound {
		t.Errorf("anonymous: got %d, want 404", rr.Code)
	}

	// Another author gets 404 too.
	rr = httptest.NewRecorder()
	env.postHandlers.Get(rr, newRequest(t, "GET", "/api/posts/"+p.Slug, nil, sessionFor(other), params))
	if rr.Code != http.StatusNotFound {
		t.Errorf("other author: got %d, want 404", rr.Code)
	}

	// The owner sees their draft.
	rr = httptest.NewRecorder()
	env.postHandlers.Get(rr, newRequest(t, "GET", "/api/posts/"+p.Slug, nil, sessionFor(author), params))
	if rr.Code != http.StatusOK {
		t.Errorf("owner: got %d, want 200", rr.Code)
	}
}

func TestPostCreateSanitizesTemplate(t *testing.T) {
	env := newTestEnv(t)
	author := env.createAuthor(t, "handler_san_author", models.RoleAuthor)

	req := validPostRequest()
	req.Title = "Post created via handler test"
	req.Template.DefaultFields.Body = `<p>keep</p><script>alert('xss')</script>`

	rr := httptest.NewRecorder()
	env.postHandlers.Create(rr, newRequest(t, "POST", "/api/posts", req, sessionFor(author), nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	post := body["post"].(map[string]any)
	t.Cleanup(func() { env.db.Exec("DELETE FROM posts WHERE id = $1", post["id"]) })

	tmpl := post["template"].(map[string]any)
	fields := tmpl["defaultFields"].(map[string]any)
	got := fields["body"].(string)
	if strings.Contains(got, "<script") || strings.Contains(got, "alert") {
		t.Errorf("script survived sanitization: %q", got)
	}
	if !strings.Contains(got, "keep") {
		t.Errorf("benign content removed: %q", got)
	}

	if post["status"] != "draft" {
		t.Errorf("status: got %v, want draft", post["status"])
	}
	if !strings.HasPrefix(post["slug"].(string), "post-created-via-handler-test") {
		t.Errorf("slug: got %v", post["slug"])
	}
}

func TestPostUpdateForbiddenOnApproved(t *testing.T) {
	env := newTestEnv(t)
	author := env.createAuthor(t, "handler_upd_author", models.RoleAuthor)
	admin := env.createAuthor(t, "handler_upd_admin", models.RoleAdmin)
	p := env.createPost(t, "handler-update-approved", author.ID)

	params := map[string]string{"id": p.ID.String()}

	// Submit and approve.
	rr := httptest.NewRecorder()
	env.postHandlers.Submit(rr, newRequest(t, "POST", "/s", nil, sessionFor(author), params))
	rr = httptest.NewRecorder()
	env.postHandlers.Approve(rr, newRequest(t, "POST", "/a", nil, sessionFor(admin), params))
	if rr.Code != http.StatusOK {
		t.Fatalf("approve: got %d", rr.Code)
	}

	// Author cannot edit their approved post.
	req := validPostRequest()
	rr = httptest.NewRecorder()
	env.postHandlers.Update(rr, newRequest(t, "PUT", "/u", req, sessionFor(author), params))
	if rr.Code != http.StatusForbidden {
		t.Errorf("author edit approved: got %d, want 403", rr.Code)
	}

	// Admin still can.
	rr = httptest.NewRecorder()
	env.postHandlers.Update(rr, newRequest(t, "PUT", "/u", req, sessionFor(admin), params))
	if rr.Code != http.StatusOK {
		t.Errorf("admin edit approved: got %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestPostDeleteRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	author := env.createAuthor(t, "handler_del_author", models.RoleAuthor)
	admin := env.createAuthor(t, "handler_del_admin", models.RoleAdmin)
	p := env.createPost(t, "handler-delete-post", author.ID)

	params := map[string]string{"id": p.ID.String()}

	// The owner cannot delete their own post.
	rr := httptest.NewRecorder()
	env.postHandlers.Delete(rr, newRequest(t, "DELETE", "/d", nil, sessionFor(author), params))
	if rr.Code != http.StatusForbidden {
		t.Errorf("author delete: got %d, want 403", rr.Code)
	}

	rr = httptest.NewRecorder()
	env.postHandlers.Delete(rr, newRequest(t, "DELETE", "/d", nil, sessionFor(admin), params))
	if rr.Code != http.StatusOK {
		t.Errorf("admin delete: got %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestPostTrackView(t *testing.T) {
	env := newTestEnv(t)
	author := env.createAuthor(t, "handler_view_author", models.RoleAuthor)
	admin := env.createAuthor(t, "handler_view_admin", models.RoleAdmin)
	p := env.createPost(t, "handler-view-post", author.ID)

	params := map[string]string{"id": p.ID.String()}

	// Draft views are hidden from the public entirely.
	rr := httptest.NewRecorder()
	env.postHandlers.TrackView(rr, newRequest(t, "POST", "/v", nil, nil, params))
	if rr.Code != http.StatusNotFound {
		t.Errorf("draft view (public): got %d, want 404", rr.Code)
	}

	// The owner sees the post but still can't count views on a draft.
	rr = httptest.NewRecorder()
	env.postHandlers.TrackView(rr, newRequest(t, "POST", "/v", nil, sessionFor(author), params))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("draft view (owner): got %d, want 400", rr.Code)
	}

	// Approve, then views count for everyone.
	rr = httptest.NewRecorder()
	env.postHandlers.Submit(rr, newRequest(t, "POST", "/s", nil, sessionFor(author), params))
	rr = httptest.NewRecorder()
	env.postHandlers.Approve(rr, newRequest(t, "POST", "/a", nil, sessionFor(admin), params))

	rr = httptest.NewRecorder()
	env.postHandlers.TrackView(rr, newRequest(t, "POST", "/v", nil, nil, params))
	if rr.Code != http.StatusOK {
		t.Fatalf("approved view: got %d, body %s", rr.Code, rr.Body.String())
	}
	if views := decodeBody(t, rr)["views"].(float64); views != 1 {
		t.Errorf("views: got %v, want 1", views)
	}
}

func TestPostListPagination(t *testing.T) {
	env := newTestEnv(t)
	author := env.createAuthor(t, "handler_list_author", models.RoleAuthor)
	for _, s := range []string{"handler-list-a", "handler-list-b", "handler-list-c"} {
		env.createPost(t, s, author.ID)
	}

	// The owner lists their drafts, two per page.
	rr := httptest.NewRecorder()
	env.postHandlers.List(rr, newRequest(t, "GET",
		"/api/posts?limit=2&offset=0&authorId="+author.ID.String(), nil, sessionFor(author), nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list: got %d, body %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	posts := body["posts"].([]any)
	if len(posts) != 2 {
		t.Errorf("page 1: got %d posts, want 2", len(posts))
	}
	pg := body["pagination"].(map[string]any)
	if pg["total"].(float64) != 3 {
		t.Errorf("total: got %v, want 3", pg["total"])
	}
	if pg["totalPages"].(float64) != 2 {
		t.Errorf("totalPages: got %v, want 2", pg["totalPages"])
	}

	// Anonymous readers see none of the drafts.
	rr = httptest.NewRecorder()
	env.postHandlers.List(rr, newRequest(t, "GET",
		"/api/posts?authorId="+author.ID.String(), nil, nil, nil))
	body = decodeBody(t, rr)
	if total := body["pagination"].(map[string]any)["total"].(float64); total != 0 {
		t.Errorf("anonymous total: got %v, want 0", total)
	}
}
