// feed-tail follows the Redis bet stream written by a running bot and
// prints each attempt. Useful for watching a remote run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Usmankhan866/BetfairBot/internal/bot"
	"github.com/Usmankhan866/BetfairBot/internal/config"
	"github.com/Usmankhan866/BetfairBot/internal/exposure"
	"github.com/Usmankhan866/BetfairBot/internal/feed"
)

func main() {
	cfgPath := flag.String("config", "./config.yaml", "path to config file")
	group := flag.String("group", "feed", "consumer group name")
	consumer := flag.String("consumer", "feed-tail", "consumer name")
	flag.Parse()

	logger, err := bot.NewLogger(nil)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}
	if cfg.Redis.Addr == "" {
		logger.Fatal("redis.addr is not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	out := make(chan exposure.Record, 64)
	go func() {
		for rec := range out {
			status := "FAILED"
			detail := rec.ErrorCode
			if rec.Success {
				status = "OK"
				detail = rec.BetID
			}
			fmt.Printf("%s %-6s %s %s $%.2f @ %.2f %s\n",
				rec.Ts.Format("15:04:05"), status, rec.MarketID, rec.RunnerName, rec.Stake, rec.Price, detail)
		}
	}()

	c := feed.NewConsumer(cfg)
	if err := c.TailBets(ctx, *group, *consumer, out); err != nil && ctx.Err() == nil {
		logger.Fatal("tail failed", zap.Error(err))
	}
}
