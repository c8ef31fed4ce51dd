package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Usmankhan866/BetfairBot/internal/betfair"
	"github.com/Usmankhan866/BetfairBot/internal/config"
	"github.com/Usmankhan866/BetfairBot/internal/feed"
	imetrics "github.com/Usmankhan866/BetfairBot/internal/metrics"
)

// Source lists upcoming races; satisfied by *betfair.Client.
type Source interface {
	ListUpcomingRaces(ctx context.Context, hoursAhead int) ([]betfair.RaceCard, error)
}

// Service finds upcoming races and filters them down to the field sizes
// the strategy supports. Races outside the band never reach the pricing
// engine. Qualifying race metadata is mirrored to the Redis feed.
// Settings are read through the config store so dashboard edits to the
// runner band apply on the next scan.
type Service struct {
	cfg *config.Store
	src Source
	pub *feed.Publisher
	log *zap.Logger
}

func NewService(cfg *config.Store, src Source, pub *feed.Publisher, log *zap.Logger) *Service {
	return &Service{cfg: cfg, src: src, pub: pub, log: log}
}

// Discover returns qualifying races sorted as the exchange returned them.
func (s *Service) Discover(ctx context.Context) ([]betfair.RaceCard, error) {
	cfg := s.cfg.Snapshot()
	cards, err := s.src.ListUpcomingRaces(ctx, cfg.Betting.HoursAhead)
	if err != nil {
		return nil, err
	}

	min, max := cfg.Betting.MinRunners, cfg.Betting.MaxRunners
	out := make([]betfair.RaceCard, 0, len(cards))
	for _, card := range cards {
		imetrics.RacesScanned.Inc()
		n := card.Meta.RunnerCount
		if n < min || n > max {
			s.log.Debug("race outside runner band",
				zap.String("market_id", card.Meta.MarketID),
				zap.String("event", card.Meta.EventName),
				zap.Int("runners", n),
			)
			continue
		}
		out = append(out, card)

		if err := s.pub.UpsertRaceMeta(ctx, card.Meta, time.Now().UnixMilli()); err != nil {
			s.log.Warn("race meta publish failed",
				zap.String("market_id", card.Meta.MarketID),
				zap.Error(err),
			)
		}
	}

	s.log.Info("race discovery finished",
		zap.Int("found", len(cards)),
		zap.Int("qualifying", len(out)),
	)
	return out, nil
}
