package feed

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/Usmankhan866/BetfairBot/internal/config"
	"github.com/Usmankhan866/BetfairBot/internal/exposure"
	"github.com/Usmankhan866/BetfairBot/internal/types"
)

// Publisher mirrors race metadata and bet attempts into Redis so external
// consumers (alerting, record keeping) can follow the run. A nil Publisher
// is valid and publishes nothing; the bot stays fully functional without
// Redis configured.
type Publisher struct {
	rdb       *redis.Client
	betStream string
	activeKey string
	metaNS    string
}

// NewPublisher returns nil when no Redis address is configured.
func NewPublisher(cfg *config.Config) *Publisher {
	if cfg.Redis.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
	})
	return &Publisher{
		rdb:       rdb,
		betStream: cfg.Redis.BetStream,
		activeKey: cfg.Redis.ActiveKey,
		metaNS:    cfg.Redis.MetaNS,
	}
}

// UpsertRaceMeta stores race metadata under race:meta:<marketID> and
// indexes the market in the race:active ZSET scored by discovery time.
func (p *Publisher) UpsertRaceMeta(ctx context.Context, meta types.RaceMeta, tsMs int64) error {
	if p == nil {
		return nil
	}
	key := p.metaNS + meta.MarketID
	if err := p.rdb.HSet(ctx, key, map[string]interface{}{
		"market_id":    meta.MarketID,
		"event_name":   meta.EventName,
		"market_start": meta.MarketStart.UnixMilli(),
		"runner_count": meta.RunnerCount,
		"ts_ms":        tsMs,
	}).Err(); err != nil {
		return err
	}
	return p.rdb.ZAdd(ctx, p.activeKey, redis.Z{
		Score: float64(tsMs), Member: meta.MarketID,
	}).Err()
}

// PublishBet appends one bet attempt to the bet stream.
func (p *Publisher) PublishBet(ctx context.Context, rec exposure.Record) error {
	if p == nil {
		return nil
	}
	return p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.betStream,
		Values: map[string]interface{}{
			"market_id":    rec.MarketID,
			"runner_name":  rec.RunnerName,
			"selection_id": strconv.FormatInt(rec.SelectionID, 10),
			"stake":        strconv.FormatFloat(rec.Stake, 'f', 2, 64),
			"price":        strconv.FormatFloat(rec.Price, 'f', 2, 64),
			"success":      strconv.FormatBool(rec.Success),
			"bet_id":       rec.BetID,
			"error_code":   rec.ErrorCode,
			"ts_ms":        rec.Ts.UnixMilli(),
		},
	}).Err()
}
