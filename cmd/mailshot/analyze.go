package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/extract"
	"github.com/nhle/mailshot/internal/pipeline"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a document with the AI",
		Long: `Extract the text of a document (PDF, Word, Excel, CSV, text or image)
and ask the AI to summarize it, extract its key facts, or list the
questions it raises. The file is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := pipeline.ParseAnalysisKind(kind)
			if err != nil {
				return err
			}

			path := args[0]
			if !extract.Supported(path) {
				return apperrors.Newf(apperrors.UnsupportedFormat,
					"%s is not a supported file type", filepath.Base(path))
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			orch, err := a.orchestrator(st, nil, nil)
			if err != nil {
				return err
			}

			out, err := orch.AnalyzeFile(ctx, path, k)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), a.layout().RenderAnalysis(filepath.Base(path), string(k), out))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(pipeline.AnalysisSummarize), "summarize, extract or questions")
	return cmd
}
