package model

import "time"

// TemplateCategory groups prompt templates in the picker.
type TemplateCategory string

const (
	CategorySummarize TemplateCategory = "summarize"
	CategoryReply     TemplateCategory = "reply"
	CategoryInsights  TemplateCategory = "insights"
	CategoryCustom    TemplateCategory = "custom"
)

// Valid reports whether c is one of the known categories.
func (c TemplateCategory) Valid() bool {
	switch c {
	case CategorySummarize, CategoryReply, CategoryInsights, CategoryCustom:
		return true
	}
	return false
}

// PromptTemplate is a user-selectable instruction. Its Text may contain
// {placeholder} tokens that are substituted with message fields when a
// prompt is composed.
type PromptTemplate struct {
	ID         string           `db:"id" json:"id"`
	Name       string           `db:"name" json:"name"`
	Category   TemplateCategory `db:"category" json:"category"`
	Text       string           `db:"text" json:"text"`
	Favorite   bool             `db:"favorite" json:"favorite"`
	UsageCount int              `db:"usage_count" json:"usage_count"`

	// BuiltIn templates are seeded by the application and cannot be deleted.
	BuiltIn bool `db:"built_in" json:"built_in"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
