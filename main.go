// Package main is the entry point for the Spendify Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/bot"
	"github.com/spendify/spendify-bot/internal/config"
	"github.com/spendify/spendify-bot/internal/localstore"
	"github.com/spendify/spendify-bot/internal/logger"
	"github.com/spendify/spendify-bot/internal/session"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("spendify-bot %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetLevel(cfg.LogLevel)

	sessions, err := session.NewStore(cfg.SessionFile, cfg.SessionKey)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to open session store")
	}

	local, err := localstore.Open(cfg.LocalDBPath)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to open local store")
	}
	defer local.Close()

	apiClient := api.NewClient(cfg.APIBaseURL)

	telegramBot, err := bot.New(cfg, apiClient, sessions, local)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	telegramBot.Start(ctx)
}
