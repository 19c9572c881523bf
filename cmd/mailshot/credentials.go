package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/mailshot/internal/ai"
	"github.com/nhle/mailshot/internal/credential"
	apperrors "github.com/nhle/mailshot/internal/errors"
)

const imapTarget = "imap"

func newCredentialsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Store or remove secrets in the system keyring",
		Long: `Store or remove secrets in the system keyring. The target is an AI
provider (` + strings.Join(ai.Providers(), ", ") + `) or "imap" for the mail
account password.`,
	}
	cmd.AddCommand(newCredentialsSetCmd(a))
	cmd.AddCommand(newCredentialsDeleteCmd(a))
	return cmd
}

// credentialKey maps a target to its keyring key.
func (a *app) credentialKey(target string) (string, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == imapTarget {
		if a.cfg.Mail.Username == "" {
			return "", apperrors.New(apperrors.InvalidRequest, "set mail.username before storing the IMAP password")
		}
		return credential.IMAPPasswordName(a.cfg.Mail.Username), nil
	}
	for _, p := range ai.Providers() {
		if p == target {
			return credential.APIKeyName(target), nil
		}
	}
	return "", apperrors.Newf(apperrors.InvalidRequest, "unknown credential target %q", target)
}

func newCredentialsSetCmd(a *app) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set <provider|imap>",
		Short: "Store a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.credentialKey(args[0])
			if err != nil {
				return err
			}

			var secret string
			if fromStdin || !a.interactive {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading secret from stdin: %w", err)
				}
				secret = line
			} else {
				err := huh.NewInput().
					Title("Secret for " + args[0]).
					EchoMode(huh.EchoModePassword).
					Value(&secret).
					Run()
				if err != nil {
					return err
				}
			}

			secret = strings.TrimSpace(secret)
			if secret == "" {
				return apperrors.New(apperrors.InvalidRequest, "secret must not be empty")
			}
			if err := a.credentials().Set(key, secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", key)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the secret from standard input")
	return cmd
}

func newCredentialsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <provider|imap>",
		Short: "Remove a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.credentialKey(args[0])
			if err != nil {
				return err
			}
			if err := a.credentials().Delete(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", key)
			return nil
		},
	}
}
