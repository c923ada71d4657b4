// Package bench drives an Arena through randomized splices and checks the
// whole tree after every round.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"slices"
	"time"

	"github.com/bpowers/mathquill/pkg/tree"
)

// Default stress parameters.
const (
	DefaultRounds  = 20
	DefaultNodes   = 500
	DefaultSplices = 200
	DefaultMaxSpan = 4
	DefaultSeed    = 1
)

// Node kinds used by the generated trees.
const (
	kindRoot   tree.Kind = "root"
	kindBlock  tree.Kind = "block"
	kindSymbol tree.Kind = "symbol"
)

// Fractions of splices that remove a subtree and create fresh nodes.
const (
	removeEvery = 16
	createEvery = 8
	blockEvery  = 4
)

const mib = 1 << 20

// ErrInvalidConfig is returned for non-positive stress parameters.
var ErrInvalidConfig = errors.New("invalid bench configuration")

// Config sets the shape of a stress run.
type Config struct {
	Seed    uint64
	Rounds  int
	Nodes   int
	Splices int
	MaxSpan int

	Assertions           bool
	HibernationThreshold int

	Logger   *slog.Logger
	Observer tree.Observer
}

// DefaultConfig returns the stress parameters used when none are given.
func DefaultConfig() Config {
	return Config{
		Seed:    DefaultSeed,
		Rounds:  DefaultRounds,
		Nodes:   DefaultNodes,
		Splices: DefaultSplices,
		MaxSpan: DefaultMaxSpan,
	}
}

// Report summarizes a stress run.
type Report struct {
	Rounds     int
	Splices    int
	Moved      int
	Creates    int
	Removes    int
	Verifies   int
	LiveNodes  int
	Hibernated int
	// HibernatedBytes is the compressed size seen at the last hibernation.
	HibernatedBytes int
	HeapAlloc       uint64
	Elapsed         time.Duration
	HibernateTime   time.Duration
}

// SplicesPerSecond returns the splice throughput, counting one adopt and one
// disown per splice.
func (r Report) SplicesPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}

	return float64(r.Splices) / r.Elapsed.Seconds()
}

type stress struct {
	cfg    Config
	arena  *tree.Arena
	rng    *rand.Rand
	logger *slog.Logger
	root   tree.NodeID
	pool   []tree.NodeID
	report Report
}

// Run builds a random tree of cfg.Nodes nodes and then runs cfg.Rounds
// rounds of cfg.Splices random splices. Every round ends with a full Verify
// and, once the arena reaches the hibernation threshold, a Hibernate/Boot
// cycle followed by a second Verify.
func Run(ctx context.Context, cfg Config) (Report, error) {
	err := validate(cfg)
	if err != nil {
		return Report{}, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	run := &stress{
		cfg: cfg,
		arena: tree.NewArena(
			tree.WithAssertions(cfg.Assertions),
			tree.WithLogger(logger),
			tree.WithObserver(cfg.Observer),
			tree.WithHibernationThreshold(cfg.HibernationThreshold),
		),
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)), //nolint:gosec // reproducible stress, not crypto
		logger: logger,
	}

	start := time.Now()

	err = run.seed()
	if err != nil {
		return run.report, fmt.Errorf("seed tree: %w", err)
	}

	for round := range cfg.Rounds {
		err = ctx.Err()
		if err != nil {
			return run.finish(start), err
		}

		err = run.round(round)
		if err != nil {
			return run.finish(start), fmt.Errorf("round %d: %w", round, err)
		}
	}

	return run.finish(start), nil
}

func validate(cfg Config) error {
	switch {
	case cfg.Rounds <= 0:
		return fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidConfig, cfg.Rounds)
	case cfg.Nodes <= 0:
		return fmt.Errorf("%w: nodes must be positive, got %d", ErrInvalidConfig, cfg.Nodes)
	case cfg.Splices < 0:
		return fmt.Errorf("%w: splices must not be negative, got %d", ErrInvalidConfig, cfg.Splices)
	case cfg.MaxSpan <= 0:
		return fmt.Errorf("%w: max span must be positive, got %d", ErrInvalidConfig, cfg.MaxSpan)
	case cfg.HibernationThreshold < 0:
		return fmt.Errorf("%w: hibernation threshold must not be negative, got %d",
			ErrInvalidConfig, cfg.HibernationThreshold)
	}

	return nil
}

func (run *stress) seed() error {
	run.root = run.arena.Create(kindRoot)

	for range run.cfg.Nodes {
		err := run.grow()
		if err != nil {
			return err
		}
	}

	run.refresh()

	return nil
}

// grow creates one node and adopts it into a random gap.
func (run *stress) grow() error {
	kind := kindSymbol
	if run.rng.IntN(blockEvery) == 0 {
		kind = kindBlock
	}

	id := run.arena.Create(kind)

	frag, err := run.arena.Span(id, id)
	if err != nil {
		return err
	}

	parent := run.root
	if len(run.pool) > 0 {
		parent = run.pool[run.rng.IntN(len(run.pool))]
	}

	err = run.arena.InsertAt(frag, run.gap(parent))
	if err != nil {
		return err
	}

	run.pool = append(run.pool, id)
	run.report.Creates++

	return nil
}

func (run *stress) round(index int) error {
	for step := range run.cfg.Splices {
		var err error

		switch {
		case step%removeEvery == removeEvery-1:
			err = run.remove()
		case step%createEvery == createEvery-1:
			err = run.grow()
		default:
			err = run.splice()
		}

		if err != nil {
			return err
		}
	}

	err := run.arena.Verify(run.root)
	if err != nil {
		return err
	}

	run.report.Verifies++
	run.report.Rounds++

	err = run.hibernate()
	if err != nil {
		return err
	}

	var mem runtime.MemStats

	runtime.ReadMemStats(&mem)
	run.report.HeapAlloc = mem.HeapAlloc

	run.logger.Debug("bench: round done",
		"round", index+1,
		"live", run.arena.Len(),
		"splices", run.report.Splices,
		"heap_mib", mem.HeapAlloc/mib,
	)

	return nil
}

// splice disowns a random run of siblings and adopts it into a random gap
// outside of its own subtrees.
func (run *stress) splice() error {
	if len(run.pool) == 0 {
		return nil
	}

	first := run.pool[run.rng.IntN(len(run.pool))]
	last := first

	for range run.rng.IntN(run.cfg.MaxSpan) {
		next := run.arena.Sibling(last, tree.Right)
		if next == tree.None {
			break
		}

		last = next
	}

	frag, err := run.arena.Span(first, last)
	if err != nil {
		return err
	}

	members := slices.Collect(frag.Each())

	err = frag.Disown()
	if err != nil {
		return err
	}

	err = run.arena.InsertAt(frag, run.gap(run.target(members)))
	if err != nil {
		return err
	}

	run.report.Splices++
	run.report.Moved += len(members)

	return nil
}

// target picks a parent none of whose ancestors is a member of the run. The
// root always qualifies.
func (run *stress) target(members []tree.NodeID) tree.NodeID {
	candidate := run.pool[run.rng.IntN(len(run.pool))]

	for ancestor := range run.arena.Ancestors(candidate) {
		if slices.Contains(members, ancestor) {
			return run.root
		}
	}

	return candidate
}

// gap picks a random position among parent's children.
func (run *stress) gap(parent tree.NodeID) tree.Point {
	children, err := run.arena.Children(parent)
	if err != nil {
		return tree.Point{Parent: run.root}
	}

	ids := slices.Collect(children.Each())
	at := run.rng.IntN(len(ids) + 1)
	point := tree.Point{Parent: parent}

	if at > 0 {
		point.Left = ids[at-1]
	}

	if at < len(ids) {
		point.Right = ids[at]
	}

	return point
}

func (run *stress) remove() error {
	if len(run.pool) == 0 {
		return nil
	}

	victim := run.pool[run.rng.IntN(len(run.pool))]

	err := run.arena.Remove(victim)
	if err != nil {
		return err
	}

	run.report.Removes++
	run.refresh()

	return nil
}

func (run *stress) hibernate() error {
	if run.cfg.HibernationThreshold == 0 || run.arena.Len() < run.cfg.HibernationThreshold {
		return nil
	}

	start := time.Now()

	err := run.arena.Hibernate()
	if err != nil {
		return fmt.Errorf("hibernate: %w", err)
	}

	if run.arena.Hibernated() {
		run.report.Hibernated++
		run.report.HibernatedBytes = run.arena.HibernatedSize()
	}

	err = run.arena.Boot()
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	run.report.HibernateTime += time.Since(start)

	err = run.arena.Verify(run.root)
	if err != nil {
		return err
	}

	run.report.Verifies++

	return nil
}

// refresh rebuilds the pool of attached non-root nodes.
func (run *stress) refresh() {
	run.pool = run.pool[:0]

	for id := range run.arena.PostOrder(run.root) {
		if id != run.root {
			run.pool = append(run.pool, id)
		}
	}
}

func (run *stress) finish(start time.Time) Report {
	run.report.Elapsed = time.Since(start)
	run.report.LiveNodes = run.arena.Len()

	return run.report
}
