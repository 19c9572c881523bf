package store

import (
	"context"

	"github.com/nhle/mailshot/internal/model"
)

// Store defines the persistence interface for prompt templates, the
// context profile and the retained quick note.
type Store interface {
	// === Templates ===

	ListTemplates(ctx context.Context) ([]model.PromptTemplate, error)
	GetTemplate(ctx context.Context, id string) (*model.PromptTemplate, error)
	ResolveTemplates(ctx context.Context, refs []string) ([]model.PromptTemplate, error)
	CreateTemplate(ctx context.Context, t model.PromptTemplate) (*model.PromptTemplate, error)
	UpdateTemplate(ctx context.Context, t model.PromptTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
	IncrementUsage(ctx context.Context, ids []string) error

	// === Context profile ===

	GetContextProfile(ctx context.Context) (model.ContextProfile, error)
	SaveContextProfile(ctx context.Context, p model.ContextProfile) error

	// === Quick note ===

	GetQuickNote(ctx context.Context) (string, error)
	SaveQuickNote(ctx context.Context, text string) error

	Close() error
}
