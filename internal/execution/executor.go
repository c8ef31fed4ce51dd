package execution

import (
	"context"

	"go.uber.org/zap"

	"github.com/Usmankhan866/BetfairBot/internal/config"
	"github.com/Usmankhan866/BetfairBot/internal/exposure"
	"github.com/Usmankhan866/BetfairBot/internal/feed"
	imetrics "github.com/Usmankhan866/BetfairBot/internal/metrics"
	"github.com/Usmankhan866/BetfairBot/internal/types"
)

type exchIface interface {
	PlaceBet(ctx context.Context, marketID string, selectionID int64, stake, price float64) (types.BetResult, error)
}

// Executor turns opportunities into orders. The stop-loss gate is checked
// immediately before every submission, never cached: exposure moves
// between runners of the same race. Failed submissions are recorded and
// never retried; retry policy belongs to whoever feeds this channel.
type Executor struct {
	cfg     *config.Config
	exch    exchIface
	tracker *exposure.Tracker
	pub     *feed.Publisher
	log     *zap.Logger
}

func NewExecutor(cfg *config.Config, exch exchIface, tracker *exposure.Tracker, pub *feed.Publisher, log *zap.Logger) *Executor {
	return &Executor{cfg: cfg, exch: exch, tracker: tracker, pub: pub, log: log}
}

func (e *Executor) Run(ctx context.Context, in <-chan types.Opportunity) {
	for {
		select {
		case <-ctx.Done():
			return
		case opp := <-in:
			e.place(ctx, opp)
		}
	}
}

func (e *Executor) place(ctx context.Context, opp types.Opportunity) {
	if !e.tracker.CanBetOnRace(opp.MarketID) {
		imetrics.StopLossSkips.Inc()
		e.log.Warn("stop loss reached, skipping",
			zap.String("market_id", opp.MarketID),
			zap.String("runner", opp.RunnerName),
			zap.Float64("exposure", e.tracker.RaceExposure(opp.MarketID)),
		)
		return
	}

	stake := e.tracker.Stake()
	res, err := e.exch.PlaceBet(ctx, opp.PlaceMarketID, opp.SelectionID, stake, opp.PlaceBack)
	if err != nil {
		// transport failure; record it like an exchange rejection
		res = types.BetResult{Success: false, ErrorCode: err.Error()}
	}

	rec := e.tracker.Record(opp.MarketID, opp.RunnerName, opp.SelectionID, stake, opp.PlaceBack, res)

	if res.Success {
		imetrics.BetsPlaced.Inc()
		e.log.Info("bet placed",
			zap.String("market_id", opp.MarketID),
			zap.String("runner", opp.RunnerName),
			zap.Float64("stake", stake),
			zap.Float64("price", opp.PlaceBack),
			zap.Float64("edge", opp.Edge),
			zap.String("bet_id", res.BetID),
		)
	} else {
		imetrics.BetsFailed.Inc()
		e.log.Warn("bet failed",
			zap.String("market_id", opp.MarketID),
			zap.String("runner", opp.RunnerName),
			zap.String("error_code", res.ErrorCode),
		)
	}
	imetrics.TotalExposure.Set(e.tracker.Summary().TotalExposure)

	if err := e.pub.PublishBet(ctx, rec); err != nil {
		e.log.Warn("bet feed publish failed", zap.Error(err))
	}
}
