package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bowerhall/parley/internal/bot"
	"github.com/bowerhall/parley/internal/config"
	"github.com/bowerhall/parley/internal/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat bots and the timeout runner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.Bots.Any() {
		return fmt.Errorf("no bot providers enabled, set TELEGRAM_TOKEN or DISCORD_TOKEN")
	}

	router := bot.NewRouter()

	alert := func(message string) {
		if cfg.Alerts.Session == "" {
			logger.Warn("alert", "message", message)
			return
		}
		router.Notify(cfg.Alerts.Session, []string{message})
	}

	app, err := build(ctx, cfg, alert)
	if err != nil {
		return err
	}
	defer app.Close()

	app.agent.SetNotifyFunc(router.Notify)

	var bots []bot.Bot
	if cfg.Bots.Telegram.Enabled {
		b, err := bot.New(bot.Config{
			Provider:    bot.ProviderTelegram,
			Token:       cfg.Bots.Telegram.Token,
			OwnerChatID: cfg.Bots.Telegram.OwnerChatID,
			Menu:        app.menu,
		}, app.agent)
		if err != nil {
			return fmt.Errorf("telegram bot: %w", err)
		}
		bots = append(bots, b)
	}
	if cfg.Bots.Discord.Enabled {
		b, err := bot.New(bot.Config{
			Provider: bot.ProviderDiscord,
			Token:    cfg.Bots.Discord.Token,
			GuildID:  cfg.Bots.Discord.GuildID,
		}, app.agent)
		if err != nil {
			return fmt.Errorf("discord bot: %w", err)
		}
		bots = append(bots, b)
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, b := range bots {
		router.Add(b)
		g.Go(func() error {
			return b.Start(gctx)
		})
		logger.Info("bot enabled", "provider", b.Provider())
	}

	if app.runner != nil {
		g.Go(func() error {
			return app.runner.Run(gctx)
		})
	}

	logger.Info("parley started", "bots", len(bots))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("shutting down")
	return nil
}
