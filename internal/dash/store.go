package dash

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Usmankhan866/BetfairBot/internal/marketdata"
	"github.com/Usmankhan866/BetfairBot/internal/pricing"
)

// Row is one runner evaluation as shown on the dashboard. One row per
// (race, selection).
type Row struct {
	MarketID    string  `json:"marketId"`
	EventName   string  `json:"eventName"`
	Runner      string  `json:"runner"`
	SelectionID int64   `json:"selectionId"`
	RunnerCount int     `json:"runnerCount"`
	WinLay      float64 `json:"winLay"`
	PlaceBack   float64 `json:"placeBack"`
	FairPlace   float64 `json:"fairPlace"`
	MinPlace    float64 `json:"minPlace"`
	Edge        float64 `json:"edge"`
	Favorable   bool    `json:"favorable"`
	TS          int64   `json:"ts"`
}

type Store struct {
	mu   sync.RWMutex
	rows map[string]Row // key: marketID|selectionID
}

func NewStore() *Store { return &Store{rows: make(map[string]Row, 128)} }

// Update re-derives a row per runner from the snapshot. Runners with
// missing or invalid quotes are shown without decision fields.
func (s *Store) Update(snap marketdata.RaceSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := time.Now().UnixMilli()
	for _, r := range snap.Runners {
		row := Row{
			MarketID:    snap.Race.MarketID,
			EventName:   snap.Race.EventName,
			Runner:      r.Name,
			SelectionID: r.SelectionID,
			RunnerCount: snap.Race.RunnerCount,
			TS:          ts,
		}
		if r.HasWinLay {
			row.WinLay = r.WinLayPrice
		}
		if r.HasPlaceBack {
			row.PlaceBack = r.PlaceBack
		}
		if r.HasWinLay && r.HasPlaceBack {
			if d, err := pricing.Evaluate(snap.Race.RunnerCount, r.WinLayPrice, r.PlaceBack); err == nil {
				row.FairPlace = d.FairPlace
				row.MinPlace = d.MinPlace
				row.Edge = d.Edge
				row.Favorable = d.Favorable
			}
		}
		s.rows[keyFor(row)] = row
	}
}

func keyFor(r Row) string {
	return r.MarketID + "|" + strconv.FormatInt(r.SelectionID, 10)
}

func (s *Store) List() []Row {
	s.mu.RLock()
	out := make([]Row, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].MarketID != out[j].MarketID {
			return out[i].MarketID < out[j].MarketID
		}
		if out[i].Runner != out[j].Runner {
			return out[i].Runner < out[j].Runner
		}
		return out[i].SelectionID < out[j].SelectionID
	})
	return out
}
