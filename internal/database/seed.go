package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a bootstrap
// admin account and one approved sample case study so the public list is
// not empty. It is a no-op when authors already exist.
func Seed(db *sql.DB, adminUsername, adminPassword string) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM authors").Scan(&count); err != nil {
		return fmt.Errorf("seed check authors: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), 12)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	var adminID string
	err = db.QueryRow(`
		INSERT INTO authors (username, password_hash, full_name, designation, role, active)
		VALUES ($1, $2, $3, $4, 'admin', TRUE)
		RETURNING id
	`, adminUsername, string(hash), "Site Admin", "Administrator").Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	banner, _ := json.Marshal(map[string]string{
		"url": "https://placehold.co/1200x630",
		"alt": "Sample case study banner image",
	})
	defaultFields, _ := json.Marshal(map[string]any{
		"body": "<h2>The Challenge</h2><p>A sample case study seeded for local development.</p>",
		"pullQuotes": []map[string]string{
			{"text": "Results spoke for themselves.", "citation": "Head of Growth"},
		},
	})
	seo, _ := json.Marshal(map[string]any{
		"title":       "Welcome to CasePress",
		"description": "A seeded sample case study for local development.",
		"canonical":   nil,
	})

	_, err = db.Exec(`
		INSERT INTO posts (title, slug, excerpt, banner, content_type, service_category,
		                   template_mode, default_fields, status, author_id, published_at,
		                   tags, seo)
		VALUES ($1, $2, $3, $4, $5, $6, 'default', $7, 'approved', $8, now(), $9, $10)
	`,
		"Welcome to CasePress",
		"welcome-to-casepress",
		"A seeded sample case study so the public listing has content in development.",
		banner,
		"Case Studies",
		"Other",
		defaultFields,
		adminID,
		[]byte(`["sample","getting-started"]`),
		seo,
	)
	if err != nil {
		return fmt.Errorf("seed insert sample post: %w", err)
	}

	slog.Info("database seeded with bootstrap admin and sample post",
		"username", adminUsername,
	)

	return nil
}
