package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/mailshot/internal/model"
)

// BuiltInTemplates are seeded into every database. Their IDs are stable so
// a missing one can be re-created on the next start.
var BuiltInTemplates = []model.PromptTemplate{
	{
		ID:       "builtin-summarize",
		Name:     "Summarize",
		Category: model.CategorySummarize,
		Text: "Summarize this email in 3-5 short bullet points. " +
			"Lead with any deadline or decision.\n\nSubject: {subject}\nFrom: {sender}\n\n{email_body}",
	},
	{
		ID:       "builtin-action-items",
		Name:     "Action Items",
		Category: model.CategoryInsights,
		Text: "List every action item in this email with its owner and due date when stated. " +
			"Write \"none\" if there are no action items.\n\n{email_body}",
	},
	{
		ID:       "builtin-reply",
		Name:     "Draft Reply",
		Category: model.CategoryReply,
		Text: "Write a reply to {sender_name} that answers every question in the email below. " +
			"Keep it friendly and concise.\n\nSubject: {subject}\n\n{email_body}",
	},
	{
		ID:       "builtin-decline",
		Name:     "Polite Decline",
		Category: model.CategoryReply,
		Text: "Write a short, polite reply to {sender_name} declining the request in this email " +
			"while keeping the relationship warm.\n\n{email_body}",
	},
	{
		ID:       "builtin-insights",
		Name:     "Key Insights",
		Category: model.CategoryInsights,
		Text: "Identify the key insights, risks and open questions in this email from {sender} " +
			"sent on {date}.\n\n{email_body}",
	},
}

// seedBuiltIns inserts any built-in template that is missing. Existing
// rows, including user edits to built-ins, are left alone.
func (s *SQLiteStore) seedBuiltIns(ctx context.Context) error {
	now := time.Now().UTC()
	for _, t := range BuiltInTemplates {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO templates (
				id, name, category, text, favorite, usage_count, built_in,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, 0, 0, 1, ?, ?)`,
			t.ID, t.Name, string(t.Category), t.Text, now, now,
		)
		if err != nil {
			return fmt.Errorf("seeding template %s: %w", t.ID, err)
		}
	}
	return nil
}
