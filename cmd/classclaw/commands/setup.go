package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/jholhewres/classclaw/pkg/classclaw/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// newSetupCmd creates the `classclaw setup` command: writes a starter config
// and stores secrets in the OS keyring instead of plaintext files.
func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Write a starter config and store secrets in the OS keyring",
		Long: `Interactively store the LLM API key and bot token in the operating
system keyring (Keychain, Secret Service, Credential Manager) and write a
starter config.yaml if none exists.`,
		RunE: runSetup,
	}
}

func runSetup(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if !config.KeyringAvailable() {
		fmt.Fprintln(out, "OS keyring is not available; secrets will have to come from the environment or .env.")
	} else {
		apiKey, err := promptSecret(out, "LLM API key (empty to skip): ")
		if err != nil {
			return err
		}
		if apiKey != "" {
			if err := config.StoreKeyring(config.KeyringAPIKey, apiKey); err != nil {
				return fmt.Errorf("storing API key: %w", err)
			}
			fmt.Fprintln(out, "API key stored in keyring.")
		}

		botToken, err := promptSecret(out, "Bot token (empty to skip): ")
		if err != nil {
			return err
		}
		if botToken != "" {
			if err := config.StoreKeyring(config.KeyringBotToken, botToken); err != nil {
				return fmt.Errorf("storing bot token: %w", err)
			}
			fmt.Fprintln(out, "Bot token stored in keyring.")
		}
	}

	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "Config %s already exists, leaving it untouched.\n", path)
		return nil
	}

	cfg := config.DefaultConfig()
	cfg.Channels.Telegram.Token = "${TELEGRAM_TOKEN}"
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Starter config written to %s — set handle, chat IDs and schedule there.\n", path)
	return nil
}

// promptSecret reads a secret without echoing when stdin is a terminal.
func promptSecret(out interface{ Write([]byte) (int, error) }, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	// Non-interactive fallback (piped input).
	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", nil
	}
	return strings.TrimSpace(line), nil
}
