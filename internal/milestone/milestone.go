// Package milestone detects threshold-crossing achievements and makes
// sure each one is surfaced to the user exactly once, across restarts.
package milestone

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Metrics are the user quantities milestone predicates evaluate against.
// Amounts are raw lamports so threshold comparisons stay integer-exact.
type Metrics struct {
	DepositedLamports    uint64
	ContributionLamports uint64
}

// Definition is one milestone in the fixed catalog. IDs are unique and
// ascend with difficulty.
type Definition struct {
	ID        int
	Title     string
	Threshold string // presentation text
	Predicate func(Metrics) bool
}

func contributionAtLeast(sol uint64) func(Metrics) bool {
	lamports := sol * 1_000_000_000
	return func(m Metrics) bool { return m.ContributionLamports >= lamports }
}

// Catalog is the fixed, ordered milestone list.
var Catalog = []Definition{
	{ID: 1, Title: "First Contribution", Threshold: "Make your first deposit",
		Predicate: func(m Metrics) bool { return m.DepositedLamports > 0 }},
	{ID: 2, Title: "Carbon Reducer I", Threshold: "200 SOL contributed", Predicate: contributionAtLeast(200)},
	{ID: 3, Title: "Carbon Reducer II", Threshold: "500 SOL contributed", Predicate: contributionAtLeast(500)},
	{ID: 4, Title: "Carbon Reducer III", Threshold: "1,000 SOL contributed", Predicate: contributionAtLeast(1000)},
	{ID: 5, Title: "Carbon Reducer IV", Threshold: "2,000 SOL contributed", Predicate: contributionAtLeast(2000)},
}

// Store persists the set of milestone ids already surfaced. The set only
// ever grows; implementations must survive process restarts.
type Store interface {
	ReadSet(key string) ([]int, error)
	WriteSet(key string, ids []int) error
}

// EngineConfig wires an Engine. Key scopes the persisted set to one user
// identity (the wallet address).
type EngineConfig struct {
	Logger      *slog.Logger
	Store       Store
	Key         string
	Definitions []Definition
}

func (cfg *EngineConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if cfg.Key == "" {
		return errors.New("key is required")
	}
	if len(cfg.Definitions) == 0 {
		cfg.Definitions = Catalog
	}
	return nil
}

// Engine evaluates the catalog against live metrics and selects at most
// one newly-crossed milestone per pass, lowest id first.
type Engine struct {
	log  *slog.Logger
	defs []Definition
	st   Store
	key  string
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	defs := append([]Definition{}, cfg.Definitions...)
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return &Engine{log: cfg.Logger, defs: defs, st: cfg.Store, key: cfg.Key}, nil
}

// Unlocked returns the ids whose predicates currently hold. Recomputed
// from live metrics each call; it can shrink on a stale read, which is
// why surfacing decisions diff against the persisted set instead.
func (e *Engine) Unlocked(m Metrics) []int {
	var ids []int
	for _, d := range e.defs {
		if d.Predicate(m) {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// Definitions returns the catalog in ascending id order.
func (e *Engine) Definitions() []Definition {
	return append([]Definition{}, e.defs...)
}

// Shown returns the persisted already-surfaced ids.
func (e *Engine) Shown() ([]int, error) {
	return e.st.ReadSet(e.key)
}

// Evaluate runs one pass: if any milestone is newly crossed relative to
// the persisted set, the lowest such id is marked shown (persisted first,
// so a crash cannot re-trigger it) and returned. Remaining newly-crossed
// ids stay pending for subsequent passes. Returns nil when there is
// nothing new to surface.
func (e *Engine) Evaluate(m Metrics) (*Definition, error) {
	// Re-read the set every pass: another evaluation in this process may
	// have advanced it since we last looked.
	shownIDs, err := e.st.ReadSet(e.key)
	if err != nil {
		return nil, fmt.Errorf("read shown milestones: %w", err)
	}
	shown := make(map[int]bool, len(shownIDs))
	for _, id := range shownIDs {
		shown[id] = true
	}

	for _, d := range e.defs {
		if shown[d.ID] || !d.Predicate(m) {
			continue
		}
		if err := e.st.WriteSet(e.key, append(shownIDs, d.ID)); err != nil {
			return nil, fmt.Errorf("persist shown milestone %d: %w", d.ID, err)
		}
		e.log.Info("milestone unlocked", "id", d.ID, "title", d.Title)
		def := d
		return &def, nil
	}
	return nil, nil
}
