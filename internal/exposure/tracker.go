package exposure

import (
	"sync"
	"time"

	"github.com/Usmankhan866/BetfairBot/internal/types"
)

// Record is one bet attempt, successful or not.
type Record struct {
	Ts          time.Time
	MarketID    string
	RunnerName  string
	SelectionID int64
	Stake       float64
	Price       float64
	Success     bool
	BetID       string
	ErrorCode   string
}

// Summary is a read-only aggregate over the ledger.
type Summary struct {
	SuccessfulBets    int     `json:"successfulBets"`
	FailedAttempts    int     `json:"failedAttempts"`
	TotalStaked       float64 `json:"totalStaked"`
	RacesWithExposure int     `json:"racesWithExposure"`
	TotalExposure     float64 `json:"totalExposure"`
}

// Tracker is the per-run bet ledger. It accumulates successful stake per
// race and gates further betting once the per-race stop loss is reached.
// Exposure only ever grows; failed attempts are recorded in history but
// never move it. Safe for concurrent use; the dashboard reads it from a
// different goroutine than the executor writes it.
type Tracker struct {
	mu       sync.RWMutex
	stake    float64
	stopLoss float64
	exposure map[string]float64
	history  []Record
}

func New(stake, perRaceStopLoss float64) *Tracker {
	return &Tracker{
		stake:    stake,
		stopLoss: perRaceStopLoss,
		exposure: make(map[string]float64, 32),
	}
}

// Stake returns the configured fixed stake per bet.
func (t *Tracker) Stake() float64 { return t.stake }

// CanBetOnRace reports whether accumulated exposure for the race is still
// strictly below the stop loss. Callers must check this immediately before
// every submission; exposure can change between runners of the same race.
func (t *Tracker) CanBetOnRace(marketID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.exposure[marketID] < t.stopLoss
}

// Record appends a history entry and, on success, bumps the race's
// exposure by the stake. Returns the stored entry.
func (t *Tracker) Record(marketID, runnerName string, selectionID int64, stake, price float64, res types.BetResult) Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := Record{
		Ts:          time.Now(),
		MarketID:    marketID,
		RunnerName:  runnerName,
		SelectionID: selectionID,
		Stake:       stake,
		Price:       price,
		Success:     res.Success,
		BetID:       res.BetID,
		ErrorCode:   res.ErrorCode,
	}
	t.history = append(t.history, rec)
	if res.Success {
		t.exposure[marketID] += stake
	}
	return rec
}

// RaceExposure returns accumulated successful stake for a race, 0 if unseen.
func (t *Tracker) RaceExposure(marketID string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.exposure[marketID]
}

// Summary recomputes the aggregate view from the ledger. Never mutates.
func (t *Tracker) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var s Summary
	for _, r := range t.history {
		if r.Success {
			s.SuccessfulBets++
			s.TotalStaked += r.Stake
		} else {
			s.FailedAttempts++
		}
	}
	s.RacesWithExposure = len(t.exposure)
	for _, e := range t.exposure {
		s.TotalExposure += e
	}
	return s
}

// Recent returns up to n most recent records, oldest first.
func (t *Tracker) Recent(n int) []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n > len(t.history) {
		n = len(t.history)
	}
	out := make([]Record, n)
	copy(out, t.history[len(t.history)-n:])
	return out
}
