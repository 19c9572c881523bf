package model

// Size budgets for context profile free text.
const (
	PersonalNotesMaxChars    = 1000
	OrganizationTextMaxChars = 8000
)

// PersonalContext describes the user for the system prompt.
type PersonalContext struct {
	Enabled            bool   `db:"personal_enabled" json:"enabled"`
	Name               string `db:"name" json:"name"`
	Role               string `db:"role" json:"role"`
	Company            string `db:"company" json:"company"`
	Industry           string `db:"industry" json:"industry"`
	CommunicationStyle string `db:"communication_style" json:"communication_style"`
	DetailLevel        string `db:"detail_level" json:"detail_level"`
	Notes              string `db:"notes" json:"notes"`
}

// OrganizationContext is long-form text about the user's organization.
type OrganizationContext struct {
	Enabled bool   `db:"org_enabled" json:"enabled"`
	Text    string `db:"org_text" json:"text"`
}

// ContextProfile holds the two independently toggleable context blocks
// merged into the system prompt. The pipeline never mutates it.
type ContextProfile struct {
	Personal     PersonalContext
	Organization OrganizationContext
}
