package store_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/store"
	"github.com/nhle/mailshot/tests/testutil"
)

func TestNewSQLiteStore_SeedsBuiltIns(t *testing.T) {
	s := testutil.NewTestStore(t)

	templates, err := s.ListTemplates(context.Background())
	require.NoError(t, err)
	assert.Len(t, templates, len(store.BuiltInTemplates))
	for _, tpl := range templates {
		assert.True(t, tpl.BuiltIn)
		assert.False(t, tpl.CreatedAt.IsZero())
	}
}

func TestNewSQLiteStore_ReseedsMissingBuiltIns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailshot.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)

	// Simulate a lost row plus a user edit to another built-in.
	require.NoError(t, s.UpdateTemplate(context.Background(), model.PromptTemplate{
		ID: "builtin-reply", Name: "My Reply", Category: model.CategoryReply, Text: "custom text",
	}))
	require.NoError(t, store.DeleteRowForTest(s, "builtin-summarize"))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	restored, err := s.GetTemplate(context.Background(), "builtin-summarize")
	require.NoError(t, err)
	assert.True(t, restored.BuiltIn)

	edited, err := s.GetTemplate(context.Background(), "builtin-reply")
	require.NoError(t, err)
	assert.Equal(t, "custom text", edited.Text, "user edits survive re-seeding")
}

func TestTemplateCRUD(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTemplate(ctx, model.PromptTemplate{
		Name: "  Body Only ",
		Text: "{email_body}",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Body Only", created.Name)
	assert.Equal(t, model.CategoryCustom, created.Category)
	assert.False(t, created.BuiltIn)

	got, err := s.GetTemplate(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "{email_body}", got.Text)

	got.Text = "Summarize: {email_body}"
	got.Category = model.CategorySummarize
	require.NoError(t, s.UpdateTemplate(ctx, *got))

	got, err = s.GetTemplate(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Summarize: {email_body}", got.Text)
	assert.Equal(t, model.CategorySummarize, got.Category)

	require.NoError(t, s.DeleteTemplate(ctx, created.ID))
	_, err = s.GetTemplate(ctx, created.ID)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestCreateTemplate_Validation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		tpl  model.PromptTemplate
	}{
		{"empty name", model.PromptTemplate{Name: " ", Text: "x"}},
		{"empty text", model.PromptTemplate{Name: "x", Text: "  "}},
		{"bad category", model.PromptTemplate{Name: "x", Text: "x", Category: "poetry"}},
		{"duplicate name", model.PromptTemplate{Name: "summarize", Text: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateTemplate(ctx, tt.tpl)
			assert.True(t, apperrors.Is(err, apperrors.InvalidRequest), "got %v", err)
		})
	}
}

func TestDeleteTemplate_BuiltInRefused(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.DeleteTemplate(context.Background(), "builtin-summarize")
	assert.True(t, apperrors.Is(err, apperrors.InvalidRequest))

	_, err = s.GetTemplate(context.Background(), "builtin-summarize")
	assert.NoError(t, err)

	err = s.DeleteTemplate(context.Background(), "missing")
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestResolveTemplates(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	got, err := s.ResolveTemplates(ctx, []string{"key insights", "builtin-summarize", ""})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "builtin-insights", got[0].ID)
	assert.Equal(t, "builtin-summarize", got[1].ID)

	_, err = s.ResolveTemplates(ctx, []string{"nope"})
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestFavoritesAndUsageOrdering(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IncrementUsage(ctx, []string{"builtin-reply", "builtin-reply", "unknown"}))
	require.NoError(t, s.IncrementUsage(ctx, []string{"builtin-reply"}))
	require.NoError(t, s.SetFavorite(ctx, "builtin-decline", true))

	templates, err := s.ListTemplates(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, templates)

	assert.Equal(t, "builtin-decline", templates[0].ID)
	assert.True(t, templates[0].Favorite)
	assert.Equal(t, "builtin-reply", templates[1].ID)
	assert.Equal(t, 2, templates[1].UsageCount, "duplicate ids in one call count once")

	err = s.SetFavorite(ctx, "missing", true)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestContextProfile(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	empty, err := s.GetContextProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ContextProfile{}, empty)

	p := model.ContextProfile{
		Personal: model.PersonalContext{
			Enabled: true, Name: "Ann", Role: "CFO", Company: "Acme",
			CommunicationStyle: "concise", DetailLevel: "high", Notes: "Numbers first.",
		},
		Organization: model.OrganizationContext{Enabled: true, Text: "Acme sells anvils."},
	}
	require.NoError(t, s.SaveContextProfile(ctx, p))

	got, err := s.GetContextProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	p.Personal.Notes = strings.Repeat("n", model.PersonalNotesMaxChars+1)
	err = s.SaveContextProfile(ctx, p)
	assert.True(t, apperrors.Is(err, apperrors.InvalidRequest))
}

func TestQuickNote(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	note, err := s.GetQuickNote(ctx)
	require.NoError(t, err)
	assert.Empty(t, note)

	require.NoError(t, s.SaveQuickNote(ctx, "Mention the offsite"))
	note, err = s.GetQuickNote(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Mention the offsite", note)

	require.NoError(t, s.SaveQuickNote(ctx, ""))
	note, err = s.GetQuickNote(ctx)
	require.NoError(t, err)
	assert.Empty(t, note)
}
