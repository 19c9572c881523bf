// Package compose turns the user's selected templates, quick notes,
// context profile and attachment summaries into the (system, user) prompt
// pair sent to the AI invoker.
//
// The system prompt carries persistent identity and preferences; the user
// content carries the per-run instruction and data. The two are built
// independently and must not be merged.
package compose

import (
	"fmt"
	"strings"

	"github.com/nhle/mailshot/internal/model"
)

// FallbackInstruction is used when no template is selected.
const FallbackInstruction = "Please analyze and respond to this email.\n\n" +
	"Subject: {subject}\nFrom: {sender}\nDate: {date}\n\n{email_body}"

// Block headers in the user content.
const (
	QuickNotesHeader  = "--- Additional one-time instructions ---"
	AttachmentsHeader = "--- Attachment summaries ---"
	AttachmentsFooter = "Consider both the email content and the attachment summaries above in your response."
)

// Prompt is a composed request.
type Prompt struct {
	System string
	User   string

	// TemplateNames lists the templates used, in order.
	TemplateNames []string

	QuickNotesApplied bool
}

// Input gathers everything a prompt is composed from.
type Input struct {
	Templates   []model.PromptTemplate
	Message     model.Message
	QuickNotes  string
	Profile     model.ContextProfile
	Attachments []model.AttachmentSummary
}

// Compose builds the system prompt and user content for in.
func Compose(in Input) Prompt {
	names := make([]string, 0, len(in.Templates))
	for _, t := range in.Templates {
		names = append(names, t.Name)
	}

	return Prompt{
		System:            SystemPrompt(in.Profile),
		User:              UserContent(in.Templates, in.Message, in.QuickNotes, in.Attachments),
		TemplateNames:     names,
		QuickNotesApplied: strings.TrimSpace(in.QuickNotes) != "",
	}
}

// UserContent concatenates the selected templates in order, each under a
// "### <name>:" header, followed by the optional quick-notes and
// attachment-summary blocks.
func UserContent(
	templates []model.PromptTemplate,
	msg model.Message,
	quickNotes string,
	summaries []model.AttachmentSummary,
) string {
	var sb strings.Builder

	if len(templates) == 0 {
		sb.WriteString(Substitute(FallbackInstruction, msg))
		sb.WriteString("\n\n")
	}

	for _, t := range templates {
		fmt.Fprintf(&sb, "### %s:\n", t.Name)
		sb.WriteString(Substitute(t.Text, msg))
		sb.WriteString("\n\n")
	}

	if notes := strings.TrimSpace(quickNotes); notes != "" {
		sb.WriteString(QuickNotesHeader)
		sb.WriteString("\n")
		sb.WriteString(notes)
		sb.WriteString("\n\n")
	}

	if len(summaries) > 0 {
		sb.WriteString(AttachmentsHeader)
		sb.WriteString("\n")
		for i, s := range summaries {
			fmt.Fprintf(&sb, "[%d] %s (%s):\n%s\n\n", i+1, s.Filename, s.Type, s.Summary)
		}
		sb.WriteString(AttachmentsFooter)
		sb.WriteString("\n")
	}

	return sb.String()
}
