package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"github.com/Usmankhan866/BetfairBot/internal/betfair"
	"github.com/Usmankhan866/BetfairBot/internal/bot"
	"github.com/Usmankhan866/BetfairBot/internal/config"
	"github.com/Usmankhan866/BetfairBot/internal/dash"
	"github.com/Usmankhan866/BetfairBot/internal/metrics"
)

func parseFlags() (cfgPath string, dryRun bool) {
	path := flag.String("config", "./config.yaml", "path to config file")
	dry := flag.Bool("dry-run", false, "force dry-run regardless of config")
	flag.Parse()
	return *path, *dry
}

func main() {
	cfgPath, dryRun := parseFlags()

	logBuf := dash.NewLogBuffer(100)
	logger, err := bot.NewLogger(logBuf)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}
	if dryRun {
		cfg.DryRun = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Serve(ctx, cfg.Metrics.ListenAddr, logger)

	exch, err := betfair.NewClient(cfg, logger)
	if err != nil {
		logger.Fatal("exchange client init failed", zap.Error(err))
	}

	bot.New(cfg, cfgPath, exch, logBuf, logger).Run(ctx)
}
