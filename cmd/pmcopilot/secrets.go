package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gupta362/pm-agent-v2/pkg/config"
)

func newSecretsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage the encrypted project secrets file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set NAME",
		Short: "Store a secret (e.g. ANTHROPIC_API_KEY); the value is read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("secret name cannot be empty")
			}
			password, err := readPassword("🔐 Secrets password: ")
			if err != nil {
				return err
			}
			if config.SecretsFileExists(opts.projectDir) {
				if err := config.UnlockSecrets(opts.projectDir, password); err != nil {
					return fmt.Errorf("unlock secrets: %w", err)
				}
			}
			value, err := readSecretValue(name)
			if err != nil {
				return err
			}
			config.SetSecret(name, value)
			if err := config.SaveSecretsToFile(opts.projectDir, password); err != nil {
				return fmt.Errorf("save secrets: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Stored %s\n", name)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored secret names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !config.SecretsFileExists(opts.projectDir) {
				fmt.Fprintln(cmd.OutOrStdout(), "No secrets file.")
				return nil
			}
			if err := unlockSecrets(opts.projectDir); err != nil {
				return err
			}
			for _, name := range config.SecretNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})
	return cmd
}

// readSecretValue reads the value without echo on a terminal, or one line from piped stdin.
func readSecretValue(name string) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int
	var value string
	if term.IsTerminal(fd) {
		fmt.Fprintf(os.Stderr, "Value for %s: ", name)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read value: %w", err)
		}
		value = string(raw)
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read value from stdin: %w", err)
		}
		value = line
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("empty value for %s", name)
	}
	return value, nil
}
