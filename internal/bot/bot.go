package bot

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Usmankhan866/BetfairBot/internal/betfair"
	"github.com/Usmankhan866/BetfairBot/internal/config"
	"github.com/Usmankhan866/BetfairBot/internal/dash"
	"github.com/Usmankhan866/BetfairBot/internal/detector"
	"github.com/Usmankhan866/BetfairBot/internal/discovery"
	"github.com/Usmankhan866/BetfairBot/internal/execution"
	"github.com/Usmankhan866/BetfairBot/internal/exposure"
	"github.com/Usmankhan866/BetfairBot/internal/feed"
	"github.com/Usmankhan866/BetfairBot/internal/marketdata"
	"github.com/Usmankhan866/BetfairBot/internal/types"
)

// Bot owns one run: a fresh exposure ledger, the polling pipeline and the
// dashboard. The ledger dies with the run.
type Bot struct {
	cfg     *config.Config
	cfgPath string
	log     *zap.Logger
	exch    *betfair.Client
	logs    *dash.LogBuffer
	tracker *exposure.Tracker
	running atomic.Bool
}

func New(cfg *config.Config, cfgPath string, exch *betfair.Client, logs *dash.LogBuffer, log *zap.Logger) *Bot {
	b := &Bot{
		cfg:     cfg,
		cfgPath: cfgPath,
		log:     log,
		exch:    exch,
		logs:    logs,
		tracker: exposure.New(cfg.Betting.Stake, cfg.Betting.PerRaceStopLoss),
	}
	b.running.Store(true)
	return b
}

// Pause, Resume and Running implement dash.Controls. Pausing stops new
// race scans; in-flight work finishes normally.
func (b *Bot) Pause()        { b.running.Store(false) }
func (b *Bot) Resume()       { b.running.Store(true) }
func (b *Bot) Running() bool { return b.running.Load() }

func (b *Bot) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		b.log.Warn("received signal, shutting down...")
		cancel()
	}()

	if bal, err := b.exch.AccountFunds(ctx); err != nil {
		b.log.Warn("balance check failed", zap.Error(err))
	} else {
		b.log.Info("account balance", zap.Float64("available", bal))
	}

	go b.keepSessionAlive(ctx)

	pub := feed.NewPublisher(b.cfg)

	// live settings shared with the dashboard: the config endpoint swaps
	// snapshots in here, discovery picks them up on its next scan
	settings := config.NewStore(b.cfg)
	disc := discovery.NewService(settings, b.exch, pub, b.log)

	store := dash.NewStore()
	hub := dash.NewHub(b.log)
	dashSrv := dash.NewServer(settings, b.cfgPath, store, b.tracker, b.logs, hub, b, b.log)
	dashSrv.Start(ctx, b.cfg.Dash.ListenAddr)

	mdCh := make(chan marketdata.RaceSnapshot, 64)
	detCh := make(chan marketdata.RaceSnapshot, 64)
	oppCh := make(chan types.Opportunity, 64)

	go marketdata.Run(ctx, b.cfg, &gatedDiscoverer{svc: disc, running: &b.running}, b.exch, mdCh, b.log)
	go teeSnapshots(ctx, mdCh, detCh, store, hub)
	go detector.Run(ctx, b.cfg, detCh, oppCh, b.log)

	if b.cfg.DryRun {
		b.log.Warn("DRY-RUN: no real bets will be placed")
		go b.logOpportunities(ctx, oppCh)
	} else {
		exec := execution.NewExecutor(b.cfg, b.exch, b.tracker, pub, b.log)
		go exec.Run(ctx, oppCh)
	}

	b.log.Info("bot started",
		zap.Float64("stake", b.cfg.Betting.Stake),
		zap.Float64("per_race_stop_loss", b.cfg.Betting.PerRaceStopLoss),
		zap.Bool("dry_run", b.cfg.DryRun),
	)

	<-ctx.Done()
	b.logSummary()
	b.log.Info("bot finished")
}

// teeSnapshots forwards every snapshot to the detector and mirrors it
// into the dashboard store.
func teeSnapshots(ctx context.Context, in <-chan marketdata.RaceSnapshot, out chan<- marketdata.RaceSnapshot, store *dash.Store, hub *dash.Hub) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-in:
			store.Update(snap)
			hub.Broadcast(map[string]any{"marketId": snap.Race.MarketID, "ts": snap.Ts.UnixMilli()})
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
		}
	}
}

// keepSessionAlive refreshes the exchange session token periodically.
// Betfair sessions expire after inactivity; a stale token turns every
// call into an auth error, so failures here are loud.
func (b *Bot) keepSessionAlive(ctx context.Context) {
	t := time.NewTicker(15 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := b.exch.KeepAlive(ctx); err != nil {
				b.log.Error("session keep-alive failed", zap.Error(err))
			}
		}
	}
}

func (b *Bot) logOpportunities(ctx context.Context, in <-chan types.Opportunity) {
	for {
		select {
		case <-ctx.Done():
			return
		case opp := <-in:
			b.log.Info("opportunity",
				zap.String("market_id", opp.MarketID),
				zap.String("event", opp.EventName),
				zap.String("runner", opp.RunnerName),
				zap.Float64("win_lay", opp.WinLayPrice),
				zap.Float64("place_back", opp.PlaceBack),
				zap.Float64("fair_place", opp.FairPlace),
				zap.Float64("min_place", opp.MinPlace),
				zap.Float64("edge", opp.Edge),
				zap.Time("ts", opp.Ts),
			)
		}
	}
}

func (b *Bot) logSummary() {
	s := b.tracker.Summary()
	b.log.Info("betting summary",
		zap.Int("successful_bets", s.SuccessfulBets),
		zap.Int("failed_attempts", s.FailedAttempts),
		zap.Float64("total_staked", s.TotalStaked),
		zap.Int("races_with_exposure", s.RacesWithExposure),
		zap.Float64("total_exposure", s.TotalExposure),
	)
}

// gatedDiscoverer returns no races while the bot is paused, which idles
// the whole pipeline without tearing it down.
type gatedDiscoverer struct {
	svc     *discovery.Service
	running *atomic.Bool
}

func (g *gatedDiscoverer) Discover(ctx context.Context) ([]betfair.RaceCard, error) {
	if !g.running.Load() {
		return nil, nil
	}
	return g.svc.Discover(ctx)
}

// NewLogger builds the production JSON logger. Every line is also fed to
// the dashboard's log buffer.
func NewLogger(buf *dash.LogBuffer) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	if buf == nil {
		return cfg.Build()
	}
	return cfg.Build(zap.Hooks(buf.Hook))
}
