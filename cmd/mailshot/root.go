package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nhle/mailshot/internal/logging"
	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/ui"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	debug      bool

	cfg    *model.AppConfig
	logger *slog.Logger

	// interactive is false when stdin or stdout is not a terminal.
	interactive bool
}

// load reads the configuration and sets up logging.
func (a *app) load(stderr io.Writer) error {
	cfg, err := model.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.debug {
		level = "debug"
	}
	a.logger = logging.New(stderr, level)
	slog.SetDefault(a.logger)

	a.interactive = isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	return nil
}

// dataDir is the directory holding the config file; the keyring file
// backend keeps its fallback store there.
func (a *app) dataDir() string {
	return filepath.Dir(a.configPath)
}

// layout sizes result panels to the terminal.
func (a *app) layout() ui.Layout {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width = 0
	}
	return ui.NewLayout(width)
}

// reportedError marks an error the command has already shown to the user.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mailshot",
		Short: "Run AI templates over an email and file the answer as a reply draft",
		Long: `mailshot reads the newest message of your mailbox (and, with smartshot,
its attachments), runs the selected prompt templates through an AI provider
and saves the cleaned-up answer as a reply draft for you to review.

It can also analyze a standalone document with the analyze command.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}

	cmd.SetVersionTemplate(`{{printf "mailshot version %s\n" .Version}}`)
	cmd.PersistentFlags().StringVar(&a.configPath, "config", model.DefaultConfigPath(), "path to the config file")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newShotCmd(a, false))
	cmd.AddCommand(newShotCmd(a, true))
	cmd.AddCommand(newAnalyzeCmd(a))
	cmd.AddCommand(newTemplatesCmd(a))
	cmd.AddCommand(newContextCmd(a))
	cmd.AddCommand(newCredentialsCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

// execute runs the CLI and returns the process exit code.
func execute(args []string) int {
	a := &app{}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var reported reportedError
	if !errors.As(err, &reported) {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.NewLayout(0).RenderError(err, ""))
	}
	return 1
}
