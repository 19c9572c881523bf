package compose

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/mailshot/internal/model"
)

func sampleMessage() model.Message {
	return model.Message{
		ID:          "42",
		Subject:     "Q3 Budget",
		SenderName:  "Dana Reyes",
		SenderEmail: "dana@example.com",
		To:          []string{"me@example.com", "team@example.com"},
		CC:          []string{"boss@example.com"},
		Body:        "Please review by Friday",
		ReceivedAt:  time.Date(2026, 3, 6, 9, 30, 0, 0, time.UTC),
	}
}

func TestSubstitute_AllPlaceholders(t *testing.T) {
	text := "{subject}|{sender}|{sender_name}|{sender_email}|{to}|{cc}|{date}|{email_body}"

	got := Substitute(text, sampleMessage())

	assert.Equal(t,
		"Q3 Budget|Dana Reyes <dana@example.com>|Dana Reyes|dana@example.com|"+
			"me@example.com, team@example.com|boss@example.com|Fri, 06 Mar 2026 09:30|Please review by Friday",
		got)
}

func TestSubstitute_UnknownPlaceholderLeftVerbatim(t *testing.T) {
	got := Substitute("Hi {recipient_name}, re: {subject}", sampleMessage())
	assert.Equal(t, "Hi {recipient_name}, re: Q3 Budget", got)
}

func TestSubstitute_ValuesAreNotRescanned(t *testing.T) {
	msg := sampleMessage()
	msg.Subject = "about {email_body}"

	got := Substitute("{subject}", msg)
	assert.Equal(t, "about {email_body}", got)
}

func TestSubstitute_MissingFieldsBecomeEmpty(t *testing.T) {
	got := Substitute("[{date}][{cc}][{sender}]", model.Message{})
	assert.Equal(t, "[][][]", got)
}

func TestSubstitute_NoPlaceholdersIsIdentity(t *testing.T) {
	body := "Summarize the key decisions in three bullet points."
	assert.Equal(t, body, Substitute(body, sampleMessage()))
	assert.Equal(t, body, Substitute(body, model.Message{Body: "other", Subject: "x"}))
}

func TestUserContent_SingleBodyTemplate(t *testing.T) {
	templates := []model.PromptTemplate{{Name: "Body Only", Text: "{email_body}"}}

	got := UserContent(templates, sampleMessage(), "", nil)

	assert.Equal(t, "### Body Only:\nPlease review by Friday\n\n", got)
}

func TestUserContent_TemplatesInSelectedOrder(t *testing.T) {
	templates := []model.PromptTemplate{
		{Name: "Second", Text: "B"},
		{Name: "First", Text: "A"},
	}

	got := UserContent(templates, sampleMessage(), "", nil)

	assert.Equal(t, "### Second:\nB\n\n### First:\nA\n\n", got)
}

func TestUserContent_NoTemplatesUsesFallback(t *testing.T) {
	got := UserContent(nil, sampleMessage(), "", nil)

	assert.True(t, strings.HasPrefix(got, "Please analyze and respond to this email."))
	assert.Contains(t, got, "Subject: Q3 Budget")
	assert.Contains(t, got, "Please review by Friday")
	assert.NotContains(t, got, "###")
}

func TestUserContent_QuickNotesBlock(t *testing.T) {
	templates := []model.PromptTemplate{{Name: "Reply", Text: "Draft a reply."}}

	got := UserContent(templates, sampleMessage(), "  Mention the offsite.  ", nil)

	assert.Equal(t,
		"### Reply:\nDraft a reply.\n\n"+QuickNotesHeader+"\nMention the offsite.\n\n",
		got)
}

func TestUserContent_BlankQuickNotesIgnored(t *testing.T) {
	templates := []model.PromptTemplate{{Name: "Reply", Text: "Draft a reply."}}
	got := UserContent(templates, sampleMessage(), " \n\t ", nil)
	assert.NotContains(t, got, QuickNotesHeader)
}

func TestUserContent_AttachmentBlock(t *testing.T) {
	templates := []model.PromptTemplate{{Name: "Reply", Text: "Draft a reply."}}
	summaries := []model.AttachmentSummary{
		{Filename: "budget.xlsx", Type: "excel", Summary: "- Total 1.2M"},
		{Filename: "scan.png", Type: "image", Summary: "[Error: unreadable]", Failed: true},
	}

	got := UserContent(templates, sampleMessage(), "", summaries)

	assert.Contains(t, got, AttachmentsHeader+"\n[1] budget.xlsx (excel):\n- Total 1.2M\n\n[2] scan.png (image):\n[Error: unreadable]\n\n")
	assert.True(t, strings.HasSuffix(got, AttachmentsFooter+"\n"))
}

func TestCompose(t *testing.T) {
	in := Input{
		Templates:  []model.PromptTemplate{{Name: "Summarize", Text: "Summarize: {email_body}"}, {Name: "Insights", Text: "List insights."}},
		Message:    sampleMessage(),
		QuickNotes: "Be brief",
	}

	p := Compose(in)

	assert.Equal(t, []string{"Summarize", "Insights"}, p.TemplateNames)
	assert.True(t, p.QuickNotesApplied)
	assert.Equal(t, DefaultSystemPrompt, p.System)
	assert.NotContains(t, p.User, DefaultSystemPrompt, "system and user content stay separate")
}

func TestSystemPrompt_Default(t *testing.T) {
	assert.Equal(t, DefaultSystemPrompt, SystemPrompt(model.ContextProfile{}))

	disabled := model.ContextProfile{
		Personal:     model.PersonalContext{Enabled: false, Name: "Ann"},
		Organization: model.OrganizationContext{Enabled: true, Text: "   "},
	}
	assert.Equal(t, DefaultSystemPrompt, SystemPrompt(disabled))
}

func TestSystemPrompt_OrganizationThenPersonal(t *testing.T) {
	p := model.ContextProfile{
		Personal: model.PersonalContext{
			Enabled:            true,
			Name:               "Ann Lee",
			Role:               "CFO",
			Company:            "Acme",
			CommunicationStyle: "concise",
			DetailLevel:        "high",
			Notes:              "Prefers numbers first.",
		},
		Organization: model.OrganizationContext{Enabled: true, Text: "Acme sells anvils."},
	}

	got := SystemPrompt(p)

	org := strings.Index(got, "Organizational context:\nAcme sells anvils.")
	personal := strings.Index(got, "About the user:")
	assert.GreaterOrEqual(t, org, 0)
	assert.Greater(t, personal, org)
	assert.Contains(t, got, "- Name: Ann Lee\n- Role: CFO\n- Company: Acme")
	assert.NotContains(t, got, "Industry")
	assert.Contains(t, got, "use a concise communication style; keep the level of detail high")
	assert.Contains(t, got, "- Notes: Prefers numbers first.")
}

func TestSystemPrompt_ClipsLongContext(t *testing.T) {
	p := model.ContextProfile{
		Organization: model.OrganizationContext{Enabled: true, Text: strings.Repeat("o", model.OrganizationTextMaxChars+500)},
	}

	got := SystemPrompt(p)

	assert.Contains(t, got, strings.Repeat("o", model.OrganizationTextMaxChars)+"...")
	assert.NotContains(t, got, strings.Repeat("o", model.OrganizationTextMaxChars+1))
}
