// handler_test.go provides shared helpers for handler integration tests.
// Tests are skipped if PostgreSQL is not available. Sessions are injected
// directly into the request context, so no Valkey instance is needed.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"casepress/internal/database"
	"casepress/internal/middleware"
	"casepress/internal/models"
	"casepress/internal/session"
	"casepress/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "casepress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "casepress")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

// testEnv bundles the stores and handler groups against a live database.
type testEnv struct {
	db      *sql.DB
	posts   *store.PostStore
	authors *store.AuthorStore

	postHandlers   *Posts
	authorHandlers *Authors
}

// newTestEnv connects to the test database, runs migrations, and builds
// the handler groups. Skips the test when the database is unreachable.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })

	posts := store.NewPostStore(db)
	authors := store.NewAuthorStore(db)
	return &testEnv{
		db:             db,
		posts:          posts,
		authors:        authors,
		postHandlers:   NewPosts(posts, authors, nil),
		authorHandlers: NewAuthors(authors, posts, nil),
	}
}

// createAuthor creates a throwaway author and registers cleanup.
func (e *testEnv) createAuthor(t *testing.T, username string, role models.Role) *models.Author {
	t.Helper()
	a, err := e.authors.Create(&models.Author{
		Username: username,
		FullName: "Handler Test " + username,
		Role:     role,
		Active:   true,
	}, "secret123")
	if err != nil {
		t.Fatalf("create author %s: %v", username, err)
	}
	t.Cleanup(func() { e.db.Exec("DELETE FROM authors WHERE id = $1", a.ID) })
	return a
}

// createPost inserts a draft post owned by the author.
func (e *testEnv) createPost(t *testing.T, slug string, authorID uuid.UUID) *models.Post {
	t.Helper()
	p, err := e.posts.Create(&models.Post{
		Title:           "Handler Test Post",
		Slug:            slug,
		Excerpt:         "An excerpt long enough for validation.",
		Banner:          models.Banner{URL: "https://example.com/b.jpg", Alt: "Banner for tests"},
		ContentType:     "Blog Posts",
		ServiceCategory: "CRO",
		Template: models.Template{
			Mode:          models.ModeDefault,
			DefaultFields: &models.DefaultFields{Body: "<p>body</p>"},
		},
		Status:   models.StatusDraft,
		AuthorID: authorID,
	})
	if err != nil {
		t.Fatalf("create post %s: %v", slug, err)
	}
	t.Cleanup(func() { e.db.Exec("DELETE FROM posts WHERE id = $1", p.ID) })
	return p
}

// sessionFor builds session data for an author, as LoadSession would.
func sessionFor(a *models.Author) *session.Data {
	return &session.Data{
		AuthorID:  a.ID,
		Username:  a.Username,
		FullName:  a.FullName,
		Role:      a.Role,
		TwoFADone: true,
	}
}

// newRequest builds a request with an optional JSON body, session, and
// chi URL parameters.
func newRequest(t *testing.T, method, target string, body any, sess *session.Data, params map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	r := httptest.NewRequest(method, target, &buf)
	ctx := r.Context()

	if sess != nil {
		ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	return r.WithContext(ctx)
}

// decodeBody decodes a JSON response body into a map.
func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return m
}
