package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/mailshot/internal/logging"
	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/pipeline"
	"github.com/nhle/mailshot/internal/store"
	"github.com/nhle/mailshot/internal/ui/picker"
	"github.com/nhle/mailshot/internal/ui/progress"
)

type shotFlags struct {
	templates  []string
	note       string
	messageID  string
	replyAll   bool
	noDeliver  bool
	keepNote   bool
	noProgress bool
}

func newShotCmd(a *app, smart bool) *cobra.Command {
	var f shotFlags

	use, short, title := "oneshot", "Run templates over the active email and create a reply draft", "One Shot"
	if smart {
		use, short, title = "smartshot", "Like oneshot, with the attachments summarized into the prompt", "Smart Shot"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Templates are given by ID or name and composed in the order given. Without
-t on a terminal, a picker asks for templates and a one-time note.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShot(cmd, f, smart, title)
		},
	}

	cmd.Flags().StringSliceVarP(&f.templates, "template", "t", nil, "template ID or name (repeatable)")
	cmd.Flags().StringVarP(&f.note, "note", "n", "", "one-time instructions added to the prompt")
	cmd.Flags().StringVar(&f.messageID, "message", "", "message UID (default: newest message)")
	cmd.Flags().BoolVar(&f.replyAll, "reply-all", false, "address the draft to all recipients")
	cmd.Flags().BoolVar(&f.noDeliver, "no-deliver", false, "print the answer without creating a draft")
	cmd.Flags().BoolVar(&f.keepNote, "keep-note", false, "remember the note for the next run")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "do not show the progress view")

	return cmd
}

func (a *app) runShot(cmd *cobra.Command, f shotFlags, smart bool, title string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sel, err := a.selection(ctx, st, f)
	if errors.Is(err, huh.ErrUserAborted) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := rememberNote(ctx, st, sel); err != nil {
		a.logger.Warn("saving quick note", logging.Err(err))
	}

	creds := a.credentials()
	mailer := newLazyMail(func() (pipeline.MailClient, error) {
		c, err := a.mailClient(creds)
		if err != nil {
			return nil, err
		}
		return c, nil
	})

	req := pipeline.RunRequest{
		TemplateIDs:  sel.TemplateIDs,
		QuickNotes:   sel.QuickNotes,
		MessageID:    f.messageID,
		ReplyAll:     sel.ReplyAll,
		SkipDelivery: f.noDeliver,
	}

	run := func(ctx context.Context, observe pipeline.Observer) model.PipelineResult {
		orch, err := a.orchestrator(st, mailer, observe)
		if err != nil {
			return model.PipelineResult{Err: err}
		}
		if smart {
			return orch.RunSmartShot(ctx, req)
		}
		return orch.RunOneShot(ctx, req)
	}

	var res model.PipelineResult
	if a.interactive && !f.noProgress {
		res, err = progress.Run(ctx, cmd.ErrOrStderr(), title, run)
		if err != nil {
			return err
		}
	} else {
		res = run(ctx, nil)
	}

	fmt.Fprintln(cmd.OutOrStdout(), a.layout().RenderResult(title, res))
	if res.Err != nil {
		return reportedError{err: res.Err}
	}
	return nil
}

// rememberNote keeps the quick note for the next run when the user opted
// in, and forgets any previously kept note otherwise.
func rememberNote(ctx context.Context, st *store.SQLiteStore, sel picker.Selection) error {
	if sel.KeepNote {
		return st.SaveQuickNote(ctx, sel.QuickNotes)
	}
	return st.SaveQuickNote(ctx, "")
}

// selection decides templates, note and reply-all from flags, or from the
// picker when no template was given on an interactive terminal.
func (a *app) selection(ctx context.Context, st *store.SQLiteStore, f shotFlags) (picker.Selection, error) {
	sel := picker.Selection{
		TemplateIDs: f.templates,
		QuickNotes:  f.note,
		ReplyAll:    f.replyAll,
		KeepNote:    f.keepNote,
	}
	if len(f.templates) > 0 || !a.interactive {
		return sel, nil
	}

	templates, err := st.ListTemplates(ctx)
	if err != nil {
		return picker.Selection{}, err
	}
	if sel.QuickNotes == "" {
		saved, err := st.GetQuickNote(ctx)
		if err != nil {
			a.logger.Warn("loading saved quick note", logging.Err(err))
		}
		sel.QuickNotes = saved
	}

	return picker.Run(templates, sel)
}
