package marketdata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Usmankhan866/BetfairBot/internal/betfair"
	"github.com/Usmankhan866/BetfairBot/internal/config"
	"github.com/Usmankhan866/BetfairBot/internal/types"
)

type fakeBooks struct {
	placeID  string
	placeErr error
	books    map[string]map[int64]betfair.PricePoint
	bookErr  map[string]error
}

func (f *fakeBooks) PlaceMarketID(_ context.Context, _ string) (string, error) {
	return f.placeID, f.placeErr
}

func (f *fakeBooks) MarketBook(_ context.Context, marketID string) (map[int64]betfair.PricePoint, error) {
	if err := f.bookErr[marketID]; err != nil {
		return nil, err
	}
	return f.books[marketID], nil
}

func testCard() betfair.RaceCard {
	return betfair.RaceCard{
		Meta: types.RaceMeta{MarketID: "1.234", EventName: "Flemington", RunnerCount: 10},
		Runners: []types.RunnerMeta{
			{SelectionID: 101, Name: "Lucky Star"},
			{SelectionID: 102, Name: "Night Train"},
		},
	}
}

func TestSnapshot_JoinsWinAndPlaceBooks(t *testing.T) {
	src := &fakeBooks{
		placeID: "1.235",
		books: map[string]map[int64]betfair.PricePoint{
			"1.234": {
				101: {LayPrice: 3.0, HasLay: true},
				// 102 has no lay offers
				102: {},
			},
			"1.235": {
				101: {BackPrice: 1.62, HasBack: true},
				102: {BackPrice: 2.10, HasBack: true},
			},
		},
	}
	processed := make(map[string]struct{})

	snap, ok := snapshot(context.Background(), testCard(), src, processed, zap.NewNop())
	require.True(t, ok)

	assert.Equal(t, "1.235", snap.PlaceMarketID)
	require.Len(t, snap.Runners, 2)

	assert.True(t, snap.Runners[0].HasWinLay)
	assert.Equal(t, 3.0, snap.Runners[0].WinLayPrice)
	assert.True(t, snap.Runners[0].HasPlaceBack)
	assert.Equal(t, 1.62, snap.Runners[0].PlaceBack)

	assert.False(t, snap.Runners[1].HasWinLay, "missing lay ladder stays absent")
	assert.True(t, snap.Runners[1].HasPlaceBack)

	_, done := processed["1.234"]
	assert.False(t, done, "processed is marked on delivery, not on fetch")
}

type fakeDiscoverer struct {
	cards []betfair.RaceCard
}

func (f *fakeDiscoverer) Discover(context.Context) ([]betfair.RaceCard, error) {
	return f.cards, nil
}

func TestScan_FullChannelLeavesRaceEligible(t *testing.T) {
	src := &fakeBooks{placeID: "1.235"}
	disc := &fakeDiscoverer{cards: []betfair.RaceCard{testCard()}}
	processed := make(map[string]struct{})
	cfg := &config.Config{}

	// nobody reads this channel, so the send is dropped
	full := make(chan RaceSnapshot)
	scan(context.Background(), cfg, disc, src, processed, full, zap.NewNop())

	_, done := processed["1.234"]
	assert.False(t, done, "dropped snapshot must be retried next pass")

	// with room in the channel the same race goes through and is done
	out := make(chan RaceSnapshot, 1)
	scan(context.Background(), cfg, disc, src, processed, out, zap.NewNop())

	_, done = processed["1.234"]
	assert.True(t, done)
	assert.Len(t, out, 1)
}

func TestSnapshot_NoPlaceMarketMarksProcessed(t *testing.T) {
	src := &fakeBooks{placeID: ""}
	processed := make(map[string]struct{})

	_, ok := snapshot(context.Background(), testCard(), src, processed, zap.NewNop())
	assert.False(t, ok)

	_, done := processed["1.234"]
	assert.True(t, done, "events without a place market never qualify")
}

func TestSnapshot_FetchFailureLeavesRaceEligible(t *testing.T) {
	src := &fakeBooks{
		placeID: "1.235",
		bookErr: map[string]error{"1.234": errors.New("timeout")},
	}
	processed := make(map[string]struct{})

	_, ok := snapshot(context.Background(), testCard(), src, processed, zap.NewNop())
	assert.False(t, ok)

	_, done := processed["1.234"]
	assert.False(t, done, "transient failure must allow a retry next pass")
}
