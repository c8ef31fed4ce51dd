package types

import "time"

// RaceMeta describes one discovered race (a WIN market on the exchange).
type RaceMeta struct {
	MarketID    string
	EventName   string
	MarketStart time.Time
	RunnerCount int
}

type RunnerMeta struct {
	SelectionID int64
	Name        string
}

// RunnerQuote carries the two prices the engine needs for one runner.
// A missing price level on the exchange is a normal condition, so each
// price has its own presence flag; zero is never used to mean "no quote".
type RunnerQuote struct {
	SelectionID  int64
	Name         string
	WinLayPrice  float64
	HasWinLay    bool
	PlaceBack    float64
	HasPlaceBack bool
}

// Opportunity is a favorable pricing decision for a single runner,
// flowing from the detector to the executor.
type Opportunity struct {
	MarketID      string // WIN market, used as the race identifier
	PlaceMarketID string // market the bet is actually placed into
	EventName     string
	SelectionID   int64
	RunnerName    string
	RunnerCount   int
	WinLayPrice   float64
	PlaceBack     float64
	FairPlace     float64
	MinPlace      float64
	Edge          float64
	Ts            time.Time
}

// BetResult is the outcome of a single order submission on the exchange.
type BetResult struct {
	Success   bool
	BetID     string
	SizeMatch float64
	AvgPrice  float64
	PlacedAt  time.Time
	ErrorCode string
}
