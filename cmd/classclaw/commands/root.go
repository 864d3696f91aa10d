// Package commands implementa os comandos CLI do ClassClaw usando cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd cria o comando raiz do CLI com todos os subcomandos registrados.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "classclaw",
		Short: "ClassClaw - class group assistant bot",
		Long: `ClassClaw is a chat-group assistant for class groups.
Mention it in your group to record assignments, timetables and events in
natural language; it sends a daily digest of what's due.

Examples:
  classclaw serve
  classclaw digest
  classclaw setup`,
		Version: version,
	}

	// Registra subcomandos.
	rootCmd.AddCommand(
		newServeCmd(),
		newDigestCmd(),
		newSetupCmd(),
	)

	// Flags globais.
	rootCmd.PersistentFlags().StringP("config", "c", "config.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
