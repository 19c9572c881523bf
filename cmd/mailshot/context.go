package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/store"
	"github.com/nhle/mailshot/internal/theme"
)

func newContextCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage the personal and organizational context sent as the system prompt",
	}
	cmd.AddCommand(newContextShowCmd(a))
	cmd.AddCommand(newContextSetCmd(a))
	return cmd
}

func newContextShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved context profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, st *store.SQLiteStore) error {
				p, err := st.GetContextProfile(ctx)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderProfile(p))
				return nil
			})
		},
	}
}

func renderProfile(p model.ContextProfile) string {
	var b strings.Builder
	field := func(label, value string) {
		if value == "" {
			value = theme.HelpStyle.Render("(not set)")
		}
		fmt.Fprintf(&b, "  %s %s\n", theme.LabelStyle.Render(label+":"), value)
	}
	enabled := func(on bool) string {
		if on {
			return theme.SuccessStyle.Render("enabled")
		}
		return theme.HelpStyle.Render("disabled")
	}

	pc := p.Personal
	fmt.Fprintf(&b, "%s %s\n", theme.HeaderStyle.Render("Personal"), enabled(pc.Enabled))
	field("Name", pc.Name)
	field("Role", pc.Role)
	field("Company", pc.Company)
	field("Industry", pc.Industry)
	field("Style", pc.CommunicationStyle)
	field("Detail", pc.DetailLevel)
	field("Notes", pc.Notes)

	oc := p.Organization
	fmt.Fprintf(&b, "\n%s %s\n", theme.HeaderStyle.Render("Organization"), enabled(oc.Enabled))
	field("Text", fmt.Sprintf("%d characters", len([]rune(oc.Text))))
	return b.String()
}

func newContextSetCmd(a *app) *cobra.Command {
	var (
		personal, org                          bool
		name, role, company, industry          string
		style, detail, notes, orgText, orgFile string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update fields of the context profile",
		Long: `Update fields of the context profile. Only the flags given are changed.
Personal notes are limited to 1,000 characters and the organizational
text to 8,000.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if orgFile != "" {
				b, err := os.ReadFile(orgFile)
				if err != nil {
					return fmt.Errorf("reading organization file: %w", err)
				}
				orgText = string(b)
			}

			return a.withStore(cmd, func(ctx context.Context, st *store.SQLiteStore) error {
				p, err := st.GetContextProfile(ctx)
				if err != nil {
					return err
				}

				set := func(flag string, dst *string, v string) {
					if flags.Changed(flag) {
						*dst = strings.TrimSpace(v)
					}
				}
				if flags.Changed("personal") {
					p.Personal.Enabled = personal
				}
				set("name", &p.Personal.Name, name)
				set("role", &p.Personal.Role, role)
				set("company", &p.Personal.Company, company)
				set("industry", &p.Personal.Industry, industry)
				set("style", &p.Personal.CommunicationStyle, style)
				set("detail", &p.Personal.DetailLevel, detail)
				set("notes", &p.Personal.Notes, notes)

				if flags.Changed("org") {
					p.Organization.Enabled = org
				}
				if flags.Changed("org-text") || orgFile != "" {
					p.Organization.Text = strings.TrimSpace(orgText)
				}

				if err := st.SaveContextProfile(ctx, p); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Context profile saved")
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.BoolVar(&personal, "personal", false, "include the personal context")
	f.StringVar(&name, "name", "", "your name")
	f.StringVar(&role, "role", "", "your role")
	f.StringVar(&company, "company", "", "your company")
	f.StringVar(&industry, "industry", "", "your industry")
	f.StringVar(&style, "style", "", "preferred communication style")
	f.StringVar(&detail, "detail", "", "preferred level of detail")
	f.StringVar(&notes, "notes", "", "additional notes about you")
	f.BoolVar(&org, "org", false, "include the organizational context")
	f.StringVar(&orgText, "org-text", "", "organizational context text")
	f.StringVar(&orgFile, "org-file", "", "read the organizational context from a file")
	cmd.MarkFlagsMutuallyExclusive("org-text", "org-file")
	return cmd
}
