package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/mailshot/internal/compose"
	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/store"
)

func newTemplatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template", "tpl"},
		Short:   "Manage prompt templates",
		Long: "Prompt templates are instructions composed into the prompt. Their text\n" +
			"may use the placeholders " + strings.Join(compose.Placeholders, " ") + ".",
	}

	cmd.AddCommand(newTemplatesListCmd(a))
	cmd.AddCommand(newTemplatesAddCmd(a))
	cmd.AddCommand(newTemplatesEditCmd(a))
	cmd.AddCommand(newTemplatesDeleteCmd(a))
	cmd.AddCommand(newTemplatesFavoriteCmd(a))
	return cmd
}

// withStore opens the store for the duration of fn.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, st *store.SQLiteStore) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, st)
}

// resolveOne finds a template by ID or name.
func resolveOne(ctx context.Context, st *store.SQLiteStore, ref string) (model.PromptTemplate, error) {
	found, err := st.ResolveTemplates(ctx, []string{ref})
	if err != nil {
		return model.PromptTemplate{}, err
	}
	if len(found) == 0 {
		return model.PromptTemplate{}, fmt.Errorf("template reference is empty")
	}
	return found[0], nil
}

// templateText returns text, or the contents of file when text is empty.
func templateText(text, file string) (string, error) {
	if text != "" || file == "" {
		return text, nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading template file: %w", err)
	}
	return string(b), nil
}

func newTemplatesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates, favorites and most used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, st *store.SQLiteStore) error {
				templates, err := st.ListTemplates(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), a.layout().RenderTemplates(templates))
				return nil
			})
		},
	}
}

func newTemplatesAddCmd(a *app) *cobra.Command {
	var name, category, text, file string
	var favorite bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := templateText(text, file)
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, st *store.SQLiteStore) error {
				t, err := st.CreateTemplate(ctx, model.PromptTemplate{
					Name:     name,
					Category: model.TemplateCategory(category),
					Text:     body,
					Favorite: favorite,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created template %q (%s)\n", t.Name, t.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "template name (required)")
	cmd.Flags().StringVar(&category, "category", string(model.CategoryCustom), "summarize, reply, insights or custom")
	cmd.Flags().StringVar(&text, "text", "", "template text")
	cmd.Flags().StringVar(&file, "file", "", "read the template text from a file")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "mark as favorite")
	_ = cmd.MarkFlagRequired("name")
	cmd.MarkFlagsOneRequired("text", "file")
	return cmd
}

func newTemplatesEditCmd(a *app) *cobra.Command {
	var name, category, text, file string

	cmd := &cobra.Command{
		Use:   "edit <id|name>",
		Short: "Change a template's name, category or text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := templateText(text, file)
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, st *store.SQLiteStore) error {
				t, err := resolveOne(ctx, st, args[0])
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("name") {
					t.Name = name
				}
				if cmd.Flags().Changed("category") {
					t.Category = model.TemplateCategory(category)
				}
				if body != "" {
					t.Text = body
				}
				if err := st.UpdateTemplate(ctx, t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated template %q\n", t.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().StringVar(&text, "text", "", "new text")
	cmd.Flags().StringVar(&file, "file", "", "read the new text from a file")
	return cmd
}

func newTemplatesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a user template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, st *store.SQLiteStore) error {
				t, err := resolveOne(ctx, st, args[0])
				if err != nil {
					return err
				}
				if err := st.DeleteTemplate(ctx, t.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted template %q\n", t.Name)
				return nil
			})
		},
	}
}

func newTemplatesFavoriteCmd(a *app) *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   "favorite <id|name>",
		Short: "Mark a template as favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, st *store.SQLiteStore) error {
				t, err := resolveOne(ctx, st, args[0])
				if err != nil {
					return err
				}
				if err := st.SetFavorite(ctx, t.ID, !off); err != nil {
					return err
				}
				state := "is now a favorite"
				if off {
					state = "is no longer a favorite"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Template %q %s\n", t.Name, state)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&off, "off", false, "remove the favorite mark")
	return cmd
}
