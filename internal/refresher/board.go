package refresher

import (
	"sync"

	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/pipeline"
)

// Generations tells whether a result was produced under the current provider.
type Generations interface {
	IsCurrent(gen uint64) bool
}

// Board keeps the latest refreshed results. A result whose provider generation
// is no longer current is dropped so a slow fetch cannot overwrite data from a
// provider the user switched to in the meantime.
type Board struct {
	gens  Generations
	mu    sync.RWMutex
	picks *pipeline.Result
	live  *pipeline.Result
	// liveSport is the sport live was fetched for.
	liveSport models.Sport
}

// NewBoard creates an empty Board.
func NewBoard(gens Generations) *Board {
	return &Board{gens: gens}
}

// StorePicks records res unless it is stale. It reports whether res was kept.
func (b *Board) StorePicks(res pipeline.Result) bool {
	return b.store(&b.picks, res)
}

// StoreLive records the live fixtures of sport unless res is stale. It reports
// whether res was kept.
func (b *Board) StoreLive(sport models.Sport, res pipeline.Result) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.storeLocked(&b.live, res) {
		return false
	}
	b.liveSport = sport
	return true
}

func (b *Board) store(slot **pipeline.Result, res pipeline.Result) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.storeLocked(slot, res)
}

func (b *Board) storeLocked(slot **pipeline.Result, res pipeline.Result) bool {
	if b.gens != nil && !b.gens.IsCurrent(res.Generation) {
		return false
	}
	*slot = &res
	return true
}

// Picks returns the latest BTTS result if it is still current.
func (b *Board) Picks() (pipeline.Result, bool) {
	return b.load(&b.picks)
}

// Live returns the latest live fixtures result if it was fetched for sport and
// is still current.
func (b *Board) Live(sport models.Sport) (pipeline.Result, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.liveSport != sport {
		return pipeline.Result{}, false
	}
	return b.loadLocked(b.live)
}

func (b *Board) load(ref **pipeline.Result) (pipeline.Result, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loadLocked(*ref)
}

func (b *Board) loadLocked(slot *pipeline.Result) (pipeline.Result, bool) {
	if slot == nil {
		return pipeline.Result{}, false
	}
	if b.gens != nil && !b.gens.IsCurrent(slot.Generation) {
		return pipeline.Result{}, false
	}
	return *slot, true
}
