package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jholhewres/classclaw/pkg/classclaw/assistant"
	"github.com/jholhewres/classclaw/pkg/classclaw/channels"
	"github.com/jholhewres/classclaw/pkg/classclaw/channels/discord"
	"github.com/jholhewres/classclaw/pkg/classclaw/channels/telegram"
	"github.com/jholhewres/classclaw/pkg/classclaw/classifier"
	"github.com/jholhewres/classclaw/pkg/classclaw/config"
	"github.com/jholhewres/classclaw/pkg/classclaw/scheduler"
	"github.com/jholhewres/classclaw/pkg/classclaw/store"
	"github.com/spf13/cobra"
)

// newServeCmd creates the `classclaw serve` command that starts the daemon.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bot daemon",
		Long: `Start ClassClaw as a daemon: connects to the configured channel,
handles addressed messages, and broadcasts the daily digest.

Examples:
  classclaw serve
  classclaw serve --config ./config.yaml`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfigAndLogger(cmd)
	if err != nil {
		return err
	}

	// ── Record store ──
	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()
	logger.Info("store opened", "path", cfg.Store.Path)

	// ── Classifier ──
	llm := classifier.NewClient(cfg.API, cfg.Model, logger)
	timeout := time.Duration(cfg.API.TimeoutSeconds) * time.Second
	cl := classifier.NewLLMClassifier(llm, cfg.Name, timeout, logger)

	// ── Assistant ──
	bot, err := assistant.New(cfg, st, cl, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Channel ──
	ch, err := buildChannel(cfg, logger)
	if err != nil {
		return err
	}
	if err := ch.Connect(ctx); err != nil {
		return fmt.Errorf("connecting %s: %w", ch.Name(), err)
	}
	defer ch.Disconnect()

	// ── Daily digest scheduler ──
	hour, minute, err := cfg.Digest.ScheduleHourMinute()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	sched, err := scheduler.New(hour, minute, loc, func(jobCtx context.Context) error {
		msg, ok, err := bot.ScheduledDigest(bot.Today())
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("daily digest empty, skipping broadcast")
			return nil
		}
		if cfg.Digest.BroadcastChatID == "" {
			logger.Warn("daily digest ready but broadcast_chat_id is not configured")
			return nil
		}
		return ch.Send(jobCtx, cfg.Digest.BroadcastChatID, &channels.OutgoingMessage{Content: msg})
	}, logger)
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	// ── Handle messages until shutdown ──
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		s := <-sig
		logger.Info("shutting down", "signal", s.String())
		cancel()
	}()

	logger.Info("classclaw is listening", "channel", ch.Name(), "handle", "@"+cfg.Handle)
	if err := bot.Run(ctx, ch); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// buildChannel instantiates the configured transport.
func buildChannel(cfg *config.Config, logger *slog.Logger) (channels.Channel, error) {
	switch cfg.Channel {
	case "telegram":
		tcfg := cfg.Channels.Telegram
		tcfg.Token = config.ResolveBotToken(tcfg.Token)
		return telegram.New(tcfg, logger), nil
	case "discord":
		dcfg := cfg.Channels.Discord
		dcfg.Token = config.ResolveBotToken(dcfg.Token)
		return discord.New(dcfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown channel %q", cfg.Channel)
	}
}

// loadConfigAndLogger resolves the config file and builds the logger from it.
func loadConfigAndLogger(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, nil, err
	}

	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logLevel := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	return cfg, slog.New(handler), nil
}
