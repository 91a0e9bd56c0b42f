// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all CasePress
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"casepress/internal/models"
)

// bcryptCost is the work factor for password hashes. Raising it
// invalidates no existing hashes.
const bcryptCost = 12

// AuthorStore handles all author-related database operations.
type AuthorStore struct {
	db *sql.DB
}

// NewAuthorStore creates a new AuthorStore with the given database connection.
func NewAuthorStore(db *sql.DB) *AuthorStore {
	return &AuthorStore{db: db}
}

const authorColumns = `id, username, password_hash, full_name, designation, bio,
	avatar_url, role, social, active, totp_secret, totp_enabled, created_at, updated_at`

// scanAuthor reads one author row, decoding the social JSONB column.
func scanAuthor(row interface{ Scan(...any) error }) (*models.Author, error) {
	a := &models.Author{}
	var social []byte
	err := row.Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.FullName, &a.Designation, &a.Bio,
		&a.AvatarURL, &a.Role, &social, &a.Active, &a.TOTPSecret, &a.TOTPEnabled,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(social) > 0 {
		if err := json.Unmarshal(social, &a.Social); err != nil {
			return nil, fmt.Errorf("decode author social: %w", err)
		}
	}
	return a, nil
}

// FindByUsername retrieves an author by username. Returns nil if not found.
func (s *AuthorStore) FindByUsername(username string) (*models.Author, error) {
	a, err := scanAuthor(s.db.QueryRow(
		`SELECT `+authorColumns+` FROM authors WHERE username = $1`, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find author by username: %w", err)
	}
	return a, nil
}

// FindByID retrieves an author by UUID. Returns nil if not found.
func (s *AuthorStore) FindByID(id uuid.UUID) (*models.Author, error) {
	a, err := scanAuthor(s.db.QueryRow(
		`SELECT `+authorColumns+` FROM authors WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find author by id: %w", err)
	}
	return a, nil
}

// List returns all authors ordered by creation date descending.
func (s *AuthorStore) List() ([]models.Author, error) {
	rows, err := s.db.Query(`SELECT ` + authorColumns + ` FROM authors ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var authors []models.Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, *a)
	}
	return authors, rows.Err()
}

// Create inserts a new author with a freshly hashed password and returns
// it with generated fields populated.
func (s *AuthorStore) Create(a *models.Author, password string) (*models.Author, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	social, err := json.Marshal(a.Social)
	if err != nil {
		return nil, fmt.Errorf("encode author social: %w", err)
	}

	created, err := scanAuthor(s.db.QueryRow(`
		INSERT INTO authors (username, password_hash, full_name, designation, bio,
		                     avatar_url, role, social, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+authorColumns,
		a.Username, string(hash), a.FullName, a.Designation, a.Bio,
		a.AvatarURL, a.Role, social, a.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("insert author: %w", err)
	}
	return created, nil
}

// Update replaces an author's profile fields. If newPassword is non-empty
// the credential hash is replaced as well.
func (s *AuthorStore) Update(a *models.Author, newPassword string) (*models.Author, error) {
	social, err := json.Marshal(a.Social)
	if err != nil {
		return nil, fmt.Errorf("encode author social: %w", err)
	}

	passwordHash := a.PasswordHash
	if newPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		passwordHash = string(hash)
	}

	updated, err := scanAuthor(s.db.QueryRow(`
		UPDATE authors
		SET username = $2, password_hash = $3, full_name = $4, designation = $5,
		    bio = $6, avatar_url = $7, role = $8, social = $9, active = $10,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+authorColumns,
		a.ID, a.Username, passwordHash, a.FullName, a.Designation,
		a.Bio, a.AvatarURL, a.Role, social, a.Active,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update author: %w", err)
	}
	return updated, nil
}

// Delete removes an author. The handler is responsible for the guards
// (owned posts, last active admin) before calling this.
func (s *AuthorStore) Delete(id uuid.UUID) error {
	result, err := s.db.Exec("DELETE FROM authors WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete author: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountActiveAdmins returns the number of active admin accounts.
// Used to prevent removing or deactivating the last one.
func (s *AuthorStore) CountActiveAdmins() (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM authors WHERE role = 'admin' AND active`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active admins: %w", err)
	}
	return count, nil
}

// UsernameExists reports whether username belongs to an author other than
// excludeID. Pass uuid.Nil to check against all authors.
func (s *AuthorStore) UsernameExists(username string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM authors WHERE username = $1 AND id <> $2)`,
		username, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

// CheckPassword verifies a plaintext password against the stored hash.
func (s *AuthorStore) CheckPassword(a *models.Author, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// SetTOTPSecret stores a provisional TOTP secret for the author.
// The secret becomes binding only when EnableTOTP is called after the
// author proves they can generate a valid code.
func (s *AuthorStore) SetTOTPSecret(id uuid.UUID, secret string) error {
	_, err := s.db.Exec(
		`UPDATE authors SET totp_secret = $2, updated_at = now() WHERE id = $1`,
		id, secret)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks 2FA enrollment as complete.
func (s *AuthorStore) EnableTOTP(id uuid.UUID) error {
	_, err := s.db.Exec(
		`UPDATE authors SET totp_enabled = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}
