package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/bpowers/mathquill/pkg/tree"
)

const scratchKind tree.Kind = "scratch"

// Options configures Run.
type Options struct {
	// Assertions enables the arena's optional checks in addition to the
	// script's own assertions flag.
	Assertions bool
	Logger     *slog.Logger
	Observer   tree.Observer
}

// runner holds the arena and the name table of one script run.
type runner struct {
	arena  *tree.Arena
	ids    map[string]tree.NodeID
	names  map[tree.NodeID]string
	order  []string
	logger *slog.Logger
}

// Run executes the script against a fresh arena. A step that fails
// unexpectedly, or that was expected to fail and did not, stops the run; the
// partial Result is returned together with the error. Once every step ran,
// the rendering is compared with Expect when the script sets one.
func Run(ctx context.Context, script *Script, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	run := &runner{
		arena: tree.NewArena(
			tree.WithAssertions(opts.Assertions || script.Assertions),
			tree.WithLogger(logger),
			tree.WithObserver(opts.Observer),
		),
		ids:    map[string]tree.NodeID{},
		names:  map[tree.NodeID]string{},
		logger: logger,
	}

	result := &Result{Name: script.Name, Steps: make([]StepResult, 0, len(script.Steps))}

	for idx, step := range script.Steps {
		err := ctx.Err()
		if err != nil {
			return result, fmt.Errorf("step %d (%s): %w", idx, step.Op, err)
		}

		stepErr := run.apply(step)
		outcome := StepResult{Index: idx, Op: step.Op, Class: Classify(stepErr)}

		if stepErr != nil {
			outcome.Error = stepErr.Error()
		}

		result.Steps = append(result.Steps, outcome)

		err = checkOutcome(step, stepErr)
		if err != nil {
			run.finish(result)

			return result, fmt.Errorf("step %d (%s): %w", idx, step.Op, err)
		}

		logger.Debug("script step", "script", script.Name, "step", idx, "op", step.Op, "class", outcome.Class)
	}

	run.finish(result)

	if script.Expect != "" {
		want := normalizeRendering(script.Expect)
		if want != result.Rendering {
			result.Diff = Diff(want, result.Rendering)

			return result, fmt.Errorf("%w: rendering differs", ErrExpectation)
		}
	}

	result.Passed = true

	return result, nil
}

func checkOutcome(step Step, err error) error {
	if step.ExpectError == "" {
		return err
	}

	if err == nil {
		return fmt.Errorf("%w: wanted %s, step succeeded", ErrExpectation, step.ExpectError)
	}

	if class := Classify(err); class != step.ExpectError {
		return fmt.Errorf("%w: wanted %s, got %w", ErrExpectation, step.ExpectError, err)
	}

	return nil
}

func (run *runner) finish(result *Result) {
	result.Rendering = run.render()
	result.Nodes = run.records()
}

func (run *runner) apply(step Step) error {
	switch step.Op {
	case OpCreate:
		return run.create(step)
	case OpChain:
		return run.chain(step)
	case OpAdopt:
		return run.adopt(step)
	case OpDisown:
		frag, err := run.span(step.First, step.Last)
		if err != nil {
			return err
		}

		return frag.Disown()
	case OpDispose:
		id, err := run.lookup(step.Node)
		if err != nil {
			return err
		}

		return run.arena.Dispose(id)
	case OpRemove:
		id, err := run.lookup(step.Node)
		if err != nil {
			return err
		}

		return run.arena.Remove(id)
	case OpVerify:
		return run.verify(step.Node)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, step.Op)
	}
}

func (run *runner) create(step Step) error {
	kind := tree.Kind(step.Kind)
	if kind == "" {
		kind = DefaultKind
	}

	for _, name := range step.Nodes {
		if _, ok := run.ids[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
	}

	for _, name := range step.Nodes {
		id := run.arena.Create(kind)
		run.ids[name] = id
		run.names[id] = name
		run.order = append(run.order, name)
	}

	return nil
}

// chain links the named nodes, left to right, into an orphan sibling run by
// adopting them under a scratch parent and disowning the run again.
func (run *runner) chain(step Step) error {
	ids := make([]tree.NodeID, 0, len(step.Nodes))

	for _, name := range step.Nodes {
		id, err := run.lookup(name)
		if err != nil {
			return err
		}

		ids = append(ids, id)
	}

	scratch := run.arena.Create(scratchKind)

	for _, id := range ids {
		frag, err := run.arena.Span(id, id)
		if err == nil {
			err = frag.Adopt(scratch, run.arena.End(scratch, tree.Right), tree.None)
		}

		if err != nil {
			return errors.Join(err, run.dropScratch(scratch))
		}
	}

	return run.dropScratch(scratch)
}

// dropScratch disowns whatever hangs under the scratch parent and disposes it.
func (run *runner) dropScratch(scratch tree.NodeID) error {
	frag, err := run.arena.Children(scratch)
	if err != nil {
		return err
	}

	err = frag.Disown()
	if err != nil {
		return err
	}

	return run.arena.Dispose(scratch)
}

func (run *runner) adopt(step Step) error {
	frag, err := run.span(step.First, step.Last)
	if err != nil {
		return err
	}

	parent, err := run.optional(step.Parent)
	if err != nil {
		return err
	}

	left, err := run.optional(step.Left)
	if err != nil {
		return err
	}

	right, err := run.optional(step.Right)
	if err != nil {
		return err
	}

	return frag.Adopt(parent, left, right)
}

func (run *runner) verify(name string) error {
	if name != "" {
		id, err := run.lookup(name)
		if err != nil {
			return err
		}

		return run.arena.Verify(id)
	}

	var errs []error
	for _, root := range run.roots() {
		errs = append(errs, run.arena.Verify(root))
	}

	return errors.Join(errs...)
}

func (run *runner) span(first, last string) (*tree.Fragment, error) {
	left, err := run.optional(first)
	if err != nil {
		return nil, err
	}

	right, err := run.optional(last)
	if err != nil {
		return nil, err
	}

	return run.arena.Span(left, right)
}

func (run *runner) lookup(name string) (tree.NodeID, error) {
	id, ok := run.ids[name]
	if !ok {
		return tree.None, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}

	return id, nil
}

// optional resolves a name, mapping "" to tree.None.
func (run *runner) optional(name string) (tree.NodeID, error) {
	if name == "" {
		return tree.None, nil
	}

	return run.lookup(name)
}

// roots returns the live named nodes that hang under no live parent, in
// creation order. Disowned runs count as roots until they are adopted.
func (run *runner) roots() []tree.NodeID {
	var roots []tree.NodeID

	for _, name := range run.order {
		id := run.ids[name]
		if !run.arena.Contains(id) {
			continue
		}

		if !run.attached(id) {
			roots = append(roots, id)
		}
	}

	return roots
}

func (run *runner) attached(id tree.NodeID) bool {
	parent := run.arena.Parent(id)
	if !run.arena.Contains(parent) {
		return false
	}

	children, err := run.arena.Children(parent)
	if err != nil {
		return false
	}

	return slices.Contains(slices.Collect(children.Each()), id)
}

func (run *runner) name(id tree.NodeID) string {
	if id == tree.None {
		return ""
	}

	if name, ok := run.names[id]; ok {
		return name
	}

	return fmt.Sprintf("#%d", id)
}

func normalizeRendering(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for idx, line := range lines {
		lines[idx] = strings.Join(strings.Fields(line), " ")
	}

	return strings.Join(lines, "\n")
}
