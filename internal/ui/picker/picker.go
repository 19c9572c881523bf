// Package picker asks the user which templates to run, with an optional
// one-time note, before a One Shot or Smart Shot run.
package picker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/huh"

	"github.com/nhle/mailshot/internal/model"
)

// MaxQuickNoteChars caps the one-time note.
const MaxQuickNoteChars = 1000

// Selection is the outcome of the picker.
type Selection struct {
	TemplateIDs []string
	QuickNotes  string
	ReplyAll    bool

	// KeepNote saves QuickNotes as the default for the next run.
	KeepNote bool
}

// bindings holds form values on the heap so that huh's Value() pointers
// stay valid.
type bindings struct {
	templateIDs []string
	quickNotes  string
	replyAll    bool
	keepNote    bool
}

// NewForm builds the picker form seeded with sel. The returned function
// reads the answers once the form has completed.
func NewForm(templates []model.PromptTemplate, sel Selection) (*huh.Form, func() Selection) {
	b := &bindings{
		templateIDs: sel.TemplateIDs,
		quickNotes:  sel.QuickNotes,
		replyAll:    sel.ReplyAll,
		keepNote:    sel.KeepNote,
	}

	var fields []huh.Field
	if len(templates) > 0 {
		fields = append(fields,
			huh.NewMultiSelect[string]().
				Title("Templates").
				Description("Composed in the order shown. Leave empty for a general analysis.").
				Options(templateOptions(templates)...).
				Value(&b.templateIDs),
		)
	}
	fields = append(fields,
		huh.NewText().
			Title("Quick notes").
			Placeholder("One-time instructions (optional)").
			CharLimit(MaxQuickNoteChars).
			Value(&b.quickNotes).
			Validate(validateNote),
		huh.NewConfirm().
			Title("Reply to all recipients?").
			Value(&b.replyAll),
		huh.NewConfirm().
			Title("Keep this note for next time?").
			Value(&b.keepNote),
	)

	form := huh.NewForm(huh.NewGroup(fields...)).WithWidth(80)

	result := func() Selection {
		return Selection{
			TemplateIDs: orderedIDs(templates, b.templateIDs),
			QuickNotes:  strings.TrimSpace(b.quickNotes),
			ReplyAll:    b.replyAll,
			KeepNote:    b.keepNote,
		}
	}
	return form, result
}

// Run shows the picker and blocks until the user submits or aborts.
// Aborting returns huh.ErrUserAborted.
func Run(templates []model.PromptTemplate, sel Selection) (Selection, error) {
	form, result := NewForm(templates, sel)
	if err := form.Run(); err != nil {
		return Selection{}, err
	}
	return result(), nil
}

func templateOptions(templates []model.PromptTemplate) []huh.Option[string] {
	opts := make([]huh.Option[string], len(templates))
	for i, t := range templates {
		label := t.Name
		if t.Favorite {
			label = "★ " + label
		}
		opts[i] = huh.NewOption(fmt.Sprintf("%s (%s)", label, t.Category), t.ID)
	}
	return opts
}

// orderedIDs returns the selected IDs in list order, whatever order they
// were toggled in.
func orderedIDs(templates []model.PromptTemplate, selected []string) []string {
	if len(selected) == 0 {
		return nil
	}
	want := make(map[string]bool, len(selected))
	for _, id := range selected {
		want[id] = true
	}
	ids := make([]string, 0, len(selected))
	for _, t := range templates {
		if want[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func validateNote(s string) error {
	if utf8.RuneCountInString(s) > MaxQuickNoteChars {
		return fmt.Errorf("quick notes are limited to %d characters", MaxQuickNoteChars)
	}
	return nil
}
