package feed

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Usmankhan866/BetfairBot/internal/config"
	"github.com/Usmankhan866/BetfairBot/internal/exposure"
)

// Consumer tails the bet stream written by Publisher.
type Consumer struct {
	rdb       *redis.Client
	betStream string
}

func NewConsumer(cfg *config.Config) *Consumer {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
	})
	return &Consumer{rdb: rdb, betStream: cfg.Redis.BetStream}
}

// TailBets reads bet events through a consumer group and pushes them to
// out until ctx is canceled. Create the group once with:
//
//	XGROUP CREATE bet:stream feed $ MKSTREAM
func (c *Consumer) TailBets(ctx context.Context, group, consumer string, out chan<- exposure.Record) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{c.betStream, ">"},
			Count:    200,
			Block:    time.Second,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			time.Sleep(200 * time.Millisecond)
			continue
		}
		for _, s := range streams {
			for _, m := range s.Messages {
				rec := decodeRecord(m.Values)
				if rec.MarketID != "" {
					select {
					case out <- rec:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				_ = c.rdb.XAck(ctx, c.betStream, group, m.ID).Err()
			}
		}
	}
}

func decodeRecord(values map[string]interface{}) exposure.Record {
	rec := exposure.Record{}
	if v, ok := values["market_id"].(string); ok {
		rec.MarketID = v
	}
	if v, ok := values["runner_name"].(string); ok {
		rec.RunnerName = v
	}
	if v, ok := values["selection_id"].(string); ok {
		rec.SelectionID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := values["stake"].(string); ok {
		rec.Stake, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := values["price"].(string); ok {
		rec.Price, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := values["success"].(string); ok {
		rec.Success = v == "true"
	}
	if v, ok := values["bet_id"].(string); ok {
		rec.BetID = v
	}
	if v, ok := values["error_code"].(string); ok {
		rec.ErrorCode = v
	}
	if v, ok := values["ts_ms"].(string); ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			rec.Ts = time.UnixMilli(ms)
		}
	}
	return rec
}
