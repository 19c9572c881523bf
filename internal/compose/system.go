package compose

import (
	"strings"

	"github.com/nhle/mailshot/internal/model"
)

// DefaultSystemPrompt is used when no context block contributes.
const DefaultSystemPrompt = "You are a helpful email assistant. " +
	"Respond in plain text suitable for an email body."

const contextPreamble = "You are a helpful email assistant working on behalf of the user described below. " +
	"Use this context to tailor tone, content and level of detail. " +
	"Respond in plain text suitable for an email body."

// SystemPrompt builds the instructional preamble from the context
// profile: organizational context first, then personal context. Disabled
// or empty blocks are skipped.
func SystemPrompt(p model.ContextProfile) string {
	var blocks []string

	if p.Organization.Enabled {
		text := strings.TrimSpace(p.Organization.Text)
		if text != "" {
			text = clip(text, model.OrganizationTextMaxChars)
			blocks = append(blocks, "Organizational context:\n"+text)
		}
	}

	if p.Personal.Enabled {
		if block := personalBlock(p.Personal); block != "" {
			blocks = append(blocks, block)
		}
	}

	if len(blocks) == 0 {
		return DefaultSystemPrompt
	}

	return contextPreamble + "\n\n" + strings.Join(blocks, "\n\n")
}

func personalBlock(pc model.PersonalContext) string {
	var lines []string

	field := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			lines = append(lines, "- "+label+": "+v)
		}
	}
	field("Name", pc.Name)
	field("Role", pc.Role)
	field("Company", pc.Company)
	field("Industry", pc.Industry)

	var prefs []string
	if v := strings.TrimSpace(pc.CommunicationStyle); v != "" {
		prefs = append(prefs, "use a "+v+" communication style")
	}
	if v := strings.TrimSpace(pc.DetailLevel); v != "" {
		prefs = append(prefs, "keep the level of detail "+v)
	}
	if len(prefs) > 0 {
		lines = append(lines, "- Preferences: "+strings.Join(prefs, "; "))
	}

	if notes := strings.TrimSpace(pc.Notes); notes != "" {
		notes = clip(notes, model.PersonalNotesMaxChars)
		lines = append(lines, "- Notes: "+notes)
	}

	if len(lines) == 0 {
		return ""
	}
	return "About the user:\n" + strings.Join(lines, "\n")
}

// clip cuts s to max runes.
func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
