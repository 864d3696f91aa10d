package commands

import (
	"fmt"

	"github.com/jholhewres/classclaw/pkg/classclaw/assistant"
	"github.com/jholhewres/classclaw/pkg/classclaw/store"
	"github.com/spf13/cobra"
)

// newDigestCmd creates the `classclaw digest` command: a dry run of the
// on-demand digest against the local store, without connecting any channel.
func newDigestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print the upcoming digest to stdout",
		Long: `Render the on-demand digest (upcoming assignments, events and
tomorrow's timetable) from the local store, without connecting to any chat.

With --daily, renders the scheduled daily digest instead; prints nothing
when there is nothing due, exactly like the broadcast path.`,
		RunE: runDigest,
	}
	cmd.Flags().Bool("daily", false, "render the scheduled daily digest instead")
	return cmd
}

func runDigest(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfigAndLogger(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	// No classifier needed for digests.
	bot, err := assistant.New(cfg, st, nil, logger)
	if err != nil {
		return err
	}

	daily, _ := cmd.Flags().GetBool("daily")
	if daily {
		msg, ok, err := bot.ScheduledDigest(bot.Today())
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(cmd.OutOrStdout(), msg)
		}
		return nil
	}

	body, err := bot.OnDemandDigest(bot.Today())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), body)
	return nil
}
