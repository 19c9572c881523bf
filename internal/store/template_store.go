package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/model"
)

const templateColumns = `id, name, category, text, favorite, usage_count, built_in, created_at, updated_at`

// ListTemplates returns all templates: favorites first, then by usage and
// name.
func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]model.PromptTemplate, error) {
	var templates []model.PromptTemplate
	err := s.db.SelectContext(ctx, &templates, `
		SELECT `+templateColumns+` FROM templates
		ORDER BY favorite DESC, usage_count DESC, name COLLATE NOCASE ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	return templates, nil
}

// GetTemplate retrieves a template by ID.
func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (*model.PromptTemplate, error) {
	var t model.PromptTemplate
	err := s.db.GetContext(ctx, &t,
		"SELECT "+templateColumns+" FROM templates WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.NotFound, "template %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting template %s: %w", id, err)
	}
	return &t, nil
}

// ResolveTemplates looks up each ref by ID, then by case-insensitive name,
// and returns the templates in ref order.
func (s *SQLiteStore) ResolveTemplates(ctx context.Context, refs []string) ([]model.PromptTemplate, error) {
	out := make([]model.PromptTemplate, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}

		var t model.PromptTemplate
		err := s.db.GetContext(ctx, &t, `
			SELECT `+templateColumns+` FROM templates
			WHERE id = ? OR name = ? COLLATE NOCASE
			ORDER BY id = ? DESC
			LIMIT 1`, ref, ref, ref)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.NotFound, "template %q not found", ref)
		}
		if err != nil {
			return nil, fmt.Errorf("resolving template %s: %w", ref, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// CreateTemplate inserts a new user template and returns it with its
// generated ID and timestamps.
func (s *SQLiteStore) CreateTemplate(ctx context.Context, t model.PromptTemplate) (*model.PromptTemplate, error) {
	if err := validateTemplate(&t); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, t.Name, ""); err != nil {
		return nil, err
	}

	t.ID = uuid.New().String()
	t.BuiltIn = false
	t.UsageCount = 0
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, string(t.Category), t.Text, boolToInt(t.Favorite),
		t.UsageCount, boolToInt(t.BuiltIn), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating template: %w", err)
	}
	return &t, nil
}

// UpdateTemplate changes the name, category and text of a template.
// Built-in templates may be edited but keep their built-in flag.
func (s *SQLiteStore) UpdateTemplate(ctx context.Context, t model.PromptTemplate) error {
	if err := validateTemplate(&t); err != nil {
		return err
	}
	if err := s.checkNameFree(ctx, t.Name, t.ID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE templates SET name = ?, category = ?, text = ?, updated_at = ?
		WHERE id = ?`,
		t.Name, string(t.Category), t.Text, time.Now().UTC(), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating template %s: %w", t.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Newf(apperrors.NotFound, "template %q not found", t.ID)
	}
	return nil
}

// DeleteTemplate removes a user template. Built-in templates cannot be
// deleted.
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id string) error {
	existing, err := s.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if existing.BuiltIn {
		return apperrors.Newf(apperrors.InvalidRequest, "template %q is built in and cannot be deleted", existing.Name)
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting template %s: %w", id, err)
	}
	return nil
}

// SetFavorite marks or unmarks a template as favorite.
func (s *SQLiteStore) SetFavorite(ctx context.Context, id string, favorite bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE templates SET favorite = ?, updated_at = ? WHERE id = ?",
		boolToInt(favorite), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating favorite for %s: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Newf(apperrors.NotFound, "template %q not found", id)
	}
	return nil
}

// IncrementUsage bumps the usage counter of each template once. Unknown
// IDs are ignored.
func (s *SQLiteStore) IncrementUsage(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := tx.ExecContext(ctx,
			"UPDATE templates SET usage_count = usage_count + 1 WHERE id = ?", id,
		); err != nil {
			return fmt.Errorf("incrementing usage for %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// validateTemplate trims and checks user-supplied fields.
func validateTemplate(t *model.PromptTemplate) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return apperrors.New(apperrors.InvalidRequest, "template name must not be empty")
	}
	if strings.TrimSpace(t.Text) == "" {
		return apperrors.New(apperrors.InvalidRequest, "template text must not be empty")
	}
	if t.Category == "" {
		t.Category = model.CategoryCustom
	}
	if !t.Category.Valid() {
		return apperrors.Newf(apperrors.InvalidRequest, "unknown template category %q", t.Category)
	}
	return nil
}

// checkNameFree fails when another template (other than exceptID) already
// uses name.
func (s *SQLiteStore) checkNameFree(ctx context.Context, name, exceptID string) error {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM templates WHERE name = ? COLLATE NOCASE AND id != ?",
		name, exceptID)
	if err != nil {
		return fmt.Errorf("checking template name: %w", err)
	}
	if count > 0 {
		return apperrors.Newf(apperrors.InvalidRequest, "a template named %q already exists", name)
	}
	return nil
}
