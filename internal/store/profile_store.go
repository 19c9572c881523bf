package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/model"
)

// profileRow flattens the context profile for sqlx.
type profileRow struct {
	model.PersonalContext
	model.OrganizationContext
}

// GetContextProfile returns the saved profile, or an empty (disabled) one
// when nothing has been saved yet.
func (s *SQLiteStore) GetContextProfile(ctx context.Context) (model.ContextProfile, error) {
	var row profileRow
	err := s.db.GetContext(ctx, &row, `
		SELECT personal_enabled, name, role, company, industry,
			communication_style, detail_level, notes, org_enabled, org_text
		FROM context_profile WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ContextProfile{}, nil
	}
	if err != nil {
		return model.ContextProfile{}, fmt.Errorf("getting context profile: %w", err)
	}

	return model.ContextProfile{
		Personal:     row.PersonalContext,
		Organization: row.OrganizationContext,
	}, nil
}

// SaveContextProfile replaces the stored profile. Free text beyond the
// size budgets is rejected.
func (s *SQLiteStore) SaveContextProfile(ctx context.Context, p model.ContextProfile) error {
	if n := utf8.RuneCountInString(p.Personal.Notes); n > model.PersonalNotesMaxChars {
		return apperrors.Newf(apperrors.InvalidRequest,
			"personal notes are %d characters, the limit is %d", n, model.PersonalNotesMaxChars)
	}
	if n := utf8.RuneCountInString(p.Organization.Text); n > model.OrganizationTextMaxChars {
		return apperrors.Newf(apperrors.InvalidRequest,
			"organizational context is %d characters, the limit is %d", n, model.OrganizationTextMaxChars)
	}

	pc, oc := p.Personal, p.Organization
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO context_profile (
			id, personal_enabled, name, role, company, industry,
			communication_style, detail_level, notes,
			org_enabled, org_text, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		boolToInt(pc.Enabled), pc.Name, pc.Role, pc.Company, pc.Industry,
		pc.CommunicationStyle, pc.DetailLevel, pc.Notes,
		boolToInt(oc.Enabled), oc.Text, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving context profile: %w", err)
	}
	return nil
}

// GetQuickNote returns the retained quick note, or "" if none.
func (s *SQLiteStore) GetQuickNote(ctx context.Context) (string, error) {
	var text string
	err := s.db.GetContext(ctx, &text, "SELECT text FROM quick_note WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting quick note: %w", err)
	}
	return text, nil
}

// SaveQuickNote retains text for the next run. An empty text clears it.
func (s *SQLiteStore) SaveQuickNote(ctx context.Context, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO quick_note (id, text, updated_at) VALUES (1, ?, ?)`,
		text, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving quick note: %w", err)
	}
	return nil
}
