// Package ui renders pipeline results and template listings for the
// terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/theme"
)

// Layout holds the terminal width panels are rendered at.
type Layout struct {
	Width int
}

// NewLayout creates a Layout for a terminal of the given width. A
// non-positive width falls back to 80 columns.
func NewLayout(width int) Layout {
	if width <= 0 {
		width = 80
	}
	return Layout{Width: width}
}

// PanelWidth returns the inner width of a bordered panel, capped at 100.
func (l Layout) PanelWidth() int {
	w := l.Width - 4
	if w > 100 {
		w = 100
	}
	if w < 20 {
		w = 20
	}
	return w
}

// RenderResult renders a One Shot or Smart Shot result: a header, the
// templates and attachments involved, the AI output, and the error when
// the run failed. Output is shown even when delivery failed so it can be
// copied by hand.
func (l Layout) RenderResult(title string, res model.PipelineResult) string {
	var sections []string

	sections = append(sections, theme.HeaderStyle.Render(title))

	if len(res.TemplatesUsed) > 0 {
		sections = append(sections,
			theme.LabelStyle.Render("Templates: ")+strings.Join(res.TemplatesUsed, ", "))
	}
	if res.QuickNotesApplied {
		sections = append(sections, theme.HelpStyle.Render("Quick notes applied"))
	}
	if len(res.Attachments) > 0 {
		sections = append(sections, l.renderAttachments(res.Attachments))
	}

	if res.Content != "" {
		sections = append(sections,
			theme.PanelStyle.Width(l.PanelWidth()).Render(res.Content))
	}

	switch {
	case res.Err != nil:
		sections = append(sections, l.RenderError(res.Err, res.Stage))
	case res.Delivered:
		sections = append(sections, theme.SuccessStyle.Render("✓ Reply draft created"))
	default:
		sections = append(sections, theme.HelpStyle.Render("Not delivered"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// RenderAnalysis renders the output of a standalone file analysis.
func (l Layout) RenderAnalysis(file, kind, content string) string {
	title := "Analysis"
	if kind != "" {
		title = strings.ToUpper(kind[:1]) + kind[1:]
	}
	header := theme.HeaderStyle.Render(title + ": " + file)
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		theme.PanelStyle.Width(l.PanelWidth()).Render(content),
	)
}

// RenderError renders err with its kind. stage is omitted when empty.
func (l Layout) RenderError(err error, stage string) string {
	msg := apperrors.UserMessage(err)
	if kind := apperrors.KindOf(err); kind != "" {
		msg = fmt.Sprintf("%s (%s)", msg, kind)
	}
	if stage != "" {
		msg += "\n" + theme.LabelStyle.Render("Stage: ") + theme.StageStyle(stage).Render(stage)
	}
	return theme.ErrorPanelStyle.Width(l.PanelWidth()).Render(theme.ErrorStyle.Render("✗ ") + msg)
}

func (l Layout) renderAttachments(summaries []model.AttachmentSummary) string {
	lines := []string{theme.LabelStyle.Render("Attachments:")}
	for _, s := range summaries {
		mark := theme.SuccessStyle.Render("✓")
		if s.Failed {
			mark = theme.ErrorStyle.Render("✗")
		}
		line := fmt.Sprintf("  %s %s (%s)", mark, s.Filename, s.Type)
		if s.Failed {
			line += " " + theme.HelpStyle.Render(strings.TrimSuffix(strings.TrimPrefix(s.Summary, "[Error: "), "]"))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// RenderTemplates renders the template list, favorites first as stored.
func (l Layout) RenderTemplates(templates []model.PromptTemplate) string {
	if len(templates) == 0 {
		return theme.HelpStyle.Render("No templates.")
	}

	lines := make([]string, 0, len(templates))
	for _, t := range templates {
		star := " "
		if t.Favorite {
			star = theme.SuccessStyle.Render("★")
		}
		origin := ""
		if t.BuiltIn {
			origin = theme.HelpStyle.Render(" built-in")
		}
		lines = append(lines, fmt.Sprintf("%s %-24s %s uses:%d  %s%s",
			star,
			t.Name,
			theme.CategoryStyle(string(t.Category)).Render(string(t.Category)),
			t.UsageCount,
			theme.HelpStyle.Render(t.ID),
			origin,
		))
	}
	return strings.Join(lines, "\n")
}
