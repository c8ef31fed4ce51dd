package detector

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Usmankhan866/BetfairBot/internal/config"
	"github.com/Usmankhan866/BetfairBot/internal/marketdata"
	imetrics "github.com/Usmankhan866/BetfairBot/internal/metrics"
	"github.com/Usmankhan866/BetfairBot/internal/pricing"
	"github.com/Usmankhan866/BetfairBot/internal/types"
)

// Run consumes race snapshots and emits an Opportunity for every runner
// whose place price beats the margin-adjusted fair price.
func Run(ctx context.Context, cfg *config.Config, in <-chan marketdata.RaceSnapshot, out chan<- types.Opportunity, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-in:
			evaluateRace(snap, out, log)
		}
	}
}

// evaluateRace runs the pricing engine over every runner in the snapshot.
// Runners with missing quotes are skipped silently (thin market); invalid
// quotes are logged and skipped so one bad runner never kills the loop.
func evaluateRace(snap marketdata.RaceSnapshot, out chan<- types.Opportunity, log *zap.Logger) {
	for _, r := range snap.Runners {
		if !r.HasWinLay || !r.HasPlaceBack {
			continue
		}
		imetrics.RunnersEvaluated.Inc()

		d, err := pricing.Evaluate(snap.Race.RunnerCount, r.WinLayPrice, r.PlaceBack)
		if err != nil {
			if errors.Is(err, pricing.ErrInvalidInput) {
				log.Warn("detector: bad quote",
					zap.String("market_id", snap.Race.MarketID),
					zap.String("runner", r.Name),
					zap.Error(err),
				)
				continue
			}
			log.Error("detector: evaluate failed",
				zap.String("market_id", snap.Race.MarketID),
				zap.Error(err),
			)
			continue
		}
		if !d.Favorable {
			continue
		}

		imetrics.SignalsDetected.Inc()
		log.Info("bet signal",
			zap.String("market_id", snap.Race.MarketID),
			zap.String("event", snap.Race.EventName),
			zap.String("runner", r.Name),
			zap.Float64("win_lay", r.WinLayPrice),
			zap.Float64("place_back", r.PlaceBack),
			zap.Float64("min_place", d.MinPlace),
			zap.Float64("edge", d.Edge),
		)

		opp := types.Opportunity{
			MarketID:      snap.Race.MarketID,
			PlaceMarketID: snap.PlaceMarketID,
			EventName:     snap.Race.EventName,
			SelectionID:   r.SelectionID,
			RunnerName:    r.Name,
			RunnerCount:   snap.Race.RunnerCount,
			WinLayPrice:   r.WinLayPrice,
			PlaceBack:     r.PlaceBack,
			FairPlace:     d.FairPlace,
			MinPlace:      d.MinPlace,
			Edge:          d.Edge,
			Ts:            time.Now(),
		}
		select {
		case out <- opp:
		default:
			log.Warn("detector: opportunity channel full; dropping",
				zap.String("market_id", snap.Race.MarketID),
				zap.String("runner", r.Name),
			)
		}
	}
}
