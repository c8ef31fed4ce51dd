package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Usmankhan866/BetfairBot/internal/config"
	"github.com/Usmankhan866/BetfairBot/internal/dash"
	"github.com/Usmankhan866/BetfairBot/internal/marketdata"
	"github.com/Usmankhan866/BetfairBot/internal/types"
)

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Betting.Stake = 2
	cfg.Betting.PerRaceStopLoss = 20
	return cfg
}

func TestNewBot(t *testing.T) {
	cfg := newTestConfig()
	b := New(cfg, "", nil, nil, zap.NewNop())

	assert.NotNil(t, b)
	assert.Equal(t, cfg, b.cfg)
	assert.NotNil(t, b.tracker)
	assert.True(t, b.Running(), "a fresh bot starts running")
}

func TestPauseResume(t *testing.T) {
	b := New(newTestConfig(), "", nil, nil, zap.NewNop())

	b.Pause()
	assert.False(t, b.Running())
	b.Resume()
	assert.True(t, b.Running())
}

func TestGatedDiscoverer_PausedReturnsNothing(t *testing.T) {
	b := New(newTestConfig(), "", nil, nil, zap.NewNop())
	g := &gatedDiscoverer{svc: nil, running: &b.running}

	b.Pause()
	cards, err := g.Discover(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, cards, "paused bot must not scan races")
}

func TestTeeSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan marketdata.RaceSnapshot, 1)
	out := make(chan marketdata.RaceSnapshot, 1)
	store := dash.NewStore()
	hub := dash.NewHub(zap.NewNop())

	go teeSnapshots(ctx, in, out, store, hub)

	in <- marketdata.RaceSnapshot{
		Race: types.RaceMeta{MarketID: "1.234", RunnerCount: 10},
		Runners: []types.RunnerQuote{{
			SelectionID: 101, Name: "Lucky Star",
			WinLayPrice: 3.0, HasWinLay: true,
			PlaceBack: 1.62, HasPlaceBack: true,
		}},
	}

	select {
	case snap := <-out:
		assert.Equal(t, "1.234", snap.Race.MarketID)
	case <-time.After(time.Second):
		t.Fatal("snapshot was not forwarded")
	}
	require.Len(t, store.List(), 1, "snapshot mirrored to the dashboard store")
}

func TestNewLogger(t *testing.T) {
	buf := dash.NewLogBuffer(10)
	logger, err := NewLogger(buf)
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("test message")
	recent := buf.Recent()
	require.Len(t, recent, 1)
	assert.Contains(t, recent[0], "test message")
}
