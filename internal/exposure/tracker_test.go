package exposure

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Usmankhan866/BetfairBot/internal/types"
)

func ok(betID string) types.BetResult {
	return types.BetResult{Success: true, BetID: betID}
}

func failed(code string) types.BetResult {
	return types.BetResult{Success: false, ErrorCode: code}
}

func TestStopLossAccumulation(t *testing.T) {
	tr := New(20, 30)

	assert.True(t, tr.CanBetOnRace("1.234"))

	tr.Record("1.234", "Lucky Star", 101, 20, 1.62, ok("b-1"))
	assert.Equal(t, 20.0, tr.RaceExposure("1.234"))
	assert.True(t, tr.CanBetOnRace("1.234"), "20 < 30, still allowed")

	tr.Record("1.234", "Night Train", 102, 20, 1.71, ok("b-2"))
	assert.Equal(t, 40.0, tr.RaceExposure("1.234"))
	assert.False(t, tr.CanBetOnRace("1.234"), "40 >= 30, stop loss reached")

	// other races are unaffected
	assert.True(t, tr.CanBetOnRace("1.999"))
}

func TestFailedAttemptsNeverMoveExposure(t *testing.T) {
	tr := New(20, 30)

	for i := 0; i < 5; i++ {
		tr.Record("1.234", "Lucky Star", 101, 20, 1.62, failed("INSUFFICIENT_FUNDS"))
	}

	assert.Zero(t, tr.RaceExposure("1.234"))
	assert.True(t, tr.CanBetOnRace("1.234"))

	s := tr.Summary()
	assert.Equal(t, 0, s.SuccessfulBets)
	assert.Equal(t, 5, s.FailedAttempts)
	assert.Zero(t, s.TotalStaked)
	assert.Zero(t, s.RacesWithExposure)
}

func TestSummaryMatchesHistory(t *testing.T) {
	tr := New(10, 100)

	tr.Record("1.1", "A", 1, 10, 1.50, ok("b-1"))
	tr.Record("1.1", "B", 2, 10, 1.80, failed("BET_TAKEN_OR_LAPSED"))
	tr.Record("1.2", "C", 3, 10, 2.10, ok("b-2"))
	tr.Record("1.3", "D", 4, 10, 1.95, ok("b-3"))

	s := tr.Summary()
	assert.Equal(t, 3, s.SuccessfulBets)
	assert.Equal(t, 1, s.FailedAttempts)
	assert.Equal(t, 30.0, s.TotalStaked)
	assert.Equal(t, 3, s.RacesWithExposure)
	assert.Equal(t, 30.0, s.TotalExposure)

	// summary is a pure recomputation: calling it again changes nothing
	assert.Equal(t, s, tr.Summary())
}

func TestRecent(t *testing.T) {
	tr := New(10, 100)
	for i := 0; i < 8; i++ {
		tr.Record("1.1", fmt.Sprintf("runner-%d", i), int64(i), 10, 1.5, ok(fmt.Sprintf("b-%d", i)))
	}

	recent := tr.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, "runner-5", recent[0].RunnerName)
	assert.Equal(t, "runner-7", recent[2].RunnerName)

	assert.Len(t, tr.Recent(100), 8)
}

func TestConcurrentRecords(t *testing.T) {
	tr := New(1, 1e9)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.Record("1.1", "A", 1, 1, 1.5, ok(fmt.Sprintf("b-%d", i)))
		}(i)
	}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tr.CanBetOnRace("1.1")
			_ = tr.Summary()
		}()
	}
	wg.Wait()

	// no lost updates
	assert.Equal(t, 100.0, tr.RaceExposure("1.1"))
	assert.Equal(t, 100, tr.Summary().SuccessfulBets)
}
