package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/scriptwatch/scriptwatch/internal/config"
	"github.com/scriptwatch/scriptwatch/internal/logger"
	"github.com/scriptwatch/scriptwatch/internal/notifier"
	"github.com/scriptwatch/scriptwatch/internal/orchestrator"
	"github.com/scriptwatch/scriptwatch/internal/urlhandler"

	"github.com/rs/zerolog"
)

func main() {
	flags := ParseFlags()

	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile)
	if err != nil {
		log.Fatalf("[FATAL] Could not load configuration: %v", err)
	}
	applyFlagOverrides(gCfg, flags)

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Fatalf("[FATAL] Could not initialize logger: %v", err)
	}

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if flags.TestDiscord {
		runDiscordTest(ctx, gCfg, zLogger)
		return
	}

	if err := loadTargets(gCfg, flags, zLogger); err != nil {
		zLogger.Fatal().Err(err).Msg("Could not load target URLs")
	}

	scanOrchestrator, err := orchestrator.NewScanOrchestrator(gCfg, nil, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Could not initialize scan orchestrator")
	}
	defer scanOrchestrator.Close()

	zLogger.Info().
		Int("targets", len(gCfg.MonitorConfig.TargetURLs)).
		Bool("live_mode", gCfg.MonitorConfig.LiveMode).
		Msg("scriptwatch starting")

	if err := scanOrchestrator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zLogger.Error().Err(err).Msg("Scan run failed")
		os.Exit(1)
	}
	zLogger.Info().Msg("scriptwatch finished")
}

// applyFlagOverrides lets command line flags take precedence over the
// configuration file.
func applyFlagOverrides(gCfg *config.GlobalConfig, flags AppFlags) {
	if flags.Live {
		gCfg.MonitorConfig.LiveMode = true
	}
	if flags.IntervalSeconds > 0 {
		gCfg.MonitorConfig.IntervalSeconds = flags.IntervalSeconds
	}
}

// loadTargets merges targets from the config file, the -targets file and the
// -url flag. At least one target must come out of it.
func loadTargets(gCfg *config.GlobalConfig, flags AppFlags, zLogger zerolog.Logger) error {
	if flags.TargetsFile != "" {
		urls, err := urlhandler.ReadURLsFromFile(flags.TargetsFile, zLogger)
		if err != nil {
			return err
		}
		gCfg.MonitorConfig.TargetURLs = append(gCfg.MonitorConfig.TargetURLs, urls...)
	}
	if flags.TargetURL != "" {
		gCfg.MonitorConfig.TargetURLs = append(gCfg.MonitorConfig.TargetURLs, flags.TargetURL)
	}
	if len(gCfg.MonitorConfig.TargetURLs) == 0 {
		return errors.New("no target URLs given; use -url, -targets or the config file")
	}
	return nil
}

// runDiscordTest verifies the webhook configuration and exits.
func runDiscordTest(ctx context.Context, gCfg *config.GlobalConfig, zLogger zerolog.Logger) {
	if gCfg.NotificationConfig.DiscordWebhookURL == "" {
		zLogger.Fatal().Msg("No Discord webhook URL configured")
	}
	discordNotifier := notifier.NewDiscordNotifier(zLogger, nil)
	helper := notifier.NewNotificationHelper(discordNotifier, gCfg.NotificationConfig, zLogger)
	if err := helper.SendTestMessage(ctx); err != nil {
		zLogger.Fatal().Err(err).Msg("Discord test message failed")
	}
	zLogger.Info().Msg("Discord test message sent")
}
