package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type backtrackingTimetabler struct {
	options Options
}

// NewBacktrackingTimetabler returns a timetabler placing sessions one at a time, most constrained first, undoing the latest placement whenever a session cannot be placed
func NewBacktrackingTimetabler(options Options) Timetabler {
	return &backtrackingTimetabler{options: options.withDefaults()}
}

// frame is a choice-point of the search: the ranked placements of a unit and the next one to try
type frame struct {
	unit       int
	candidates []candidate
	next       int
	placed     bool
}

type search struct {
	catalog *ValidatedCatalog
	request Request
	options Options

	units     []unit
	partial   *partialTimetable
	evaluator predicateEvaluator
	tracker   *conflictTracker

	steps      uint64
	backtracks uint64
}

func (timetabler *backtrackingTimetabler) Build(ctx context.Context, catalog *ValidatedCatalog, request Request) (Timetable, error) {
	request = request.WithDefaults()
	if err := request.Validate(); err != nil {
		return Timetable{}, err
	}
	if catalog == nil {
		return Timetable{}, newError(ErrInvalidCatalog, "catalog was not loaded")
	}

	options := timetabler.options
	logger := options.Logger

	if !options.DisableCapacityCheck {
		if err := capacityCheck(catalog, request, options.MaxBlockingUnits); err != nil {
			logger.Debug("capacity check failed", zap.Error(err))
			return Timetable{}, err
		}
	}

	units := orderedUnits(catalog)
	partial := newPartialTimetable(catalog, units)
	search := &search{
		catalog:   catalog,
		request:   request,
		options:   options,
		units:     units,
		partial:   partial,
		evaluator: newPredicateEvaluator(partial, request),
		tracker:   newConflictTracker(catalog, request, units, options.TraceLimit),
	}

	logger.Debug("search started",
		zap.Int("units", len(units)),
		zap.Uint64("max_hours_per_day", request.MaxHoursPerDay),
		zap.Stringer("options", options),
	)

	if err := search.run(ctx); err != nil {
		logger.Debug("search failed",
			zap.Uint64("steps", search.steps),
			zap.Uint64("backtracks", search.backtracks),
			zap.Error(err),
		)
		return Timetable{}, err
	}

	stats := Stats{Units: len(units), Steps: search.steps, Backtracks: search.backtracks}
	assignments := partial.assignments()
	if violations := CheckAssignments(catalog, request, assignments); len(violations) > 0 {
		return Timetable{}, newError(ErrInternalInconsistency, "generated timetable breaks a hard constraint: %v", violations[0])
	}
	timetable, err := NewTimetable(assignments, stats)
	if err != nil {
		return Timetable{}, err
	}

	logger.Debug("search finished",
		zap.Int("assignments", timetable.Len()),
		zap.Uint64("steps", search.steps),
		zap.Uint64("backtracks", search.backtracks),
	)
	return timetable, nil
}

func (timetabler *backtrackingTimetabler) Verify(timetable Timetable, catalog *ValidatedCatalog, request Request) bool {
	return len(CheckAssignments(catalog, request, timetable.Assignments())) == 0
}

func (search *search) run(ctx context.Context) error {
	if len(search.units) == 0 {
		return nil
	}

	deadline := time.Now().Add(search.options.Timeout)
	stack := make([]frame, 0, len(search.units))
	stack = append(stack, search.newFrame(0))

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return search.timedOut(err)
			}
			return fmt.Errorf("generation cancelled after %d steps: %w", search.steps, err)
		}
		if search.steps%64 == 0 && time.Now().After(deadline) {
			return search.timedOut(nil)
		}

		top := &stack[len(stack)-1]

		// Undo the placement made the last time this frame was visited
		if top.placed {
			search.partial.remove(top.unit)
			top.placed = false
		}

		// Candidates exhausted: return to the parent's next candidate
		if top.next >= len(top.candidates) {
			depth := len(stack) - 1
			search.backtracks++
			search.tracker.backtrack(search.steps, depth, top.unit)
			stack = stack[:depth]
			continue
		}

		if search.steps >= search.options.MaxSteps {
			return search.timedOut(nil)
		}

		placement := top.candidates[top.next]
		top.next++
		search.steps++
		search.partial.place(top.unit, placement)
		top.placed = true

		if !search.options.DisablePropagation && !search.propagate(top.unit, len(stack)) {
			continue
		}

		if len(stack) == len(search.units) {
			return nil
		}
		stack = append(stack, search.newFrame(len(stack)))
	}

	return search.infeasible()
}

// Builds the choice-point of the unit at the given depth
func (search *search) newFrame(depth int) frame {
	state := newConstraintState(search.evaluator, search.catalog, search.units[depth])
	candidates := feasibleCandidates(state)
	if len(candidates) == 0 {
		search.tracker.wipeout(state, depth, depth)
	}
	return frame{
		unit:       depth,
		candidates: rank(search.partial, search.options.Weights, search.units[depth], candidates),
	}
}

func (search *search) propagate(unitIndex, depth int) bool {
	outcome, err := propagate(search.partial, search.evaluator, unitIndex)
	if err != nil {
		search.options.Logger.Error("cannot forward-check subgroup", zap.Error(err))
		return false
	}
	if outcome.consistent() {
		return true
	}

	if outcome.wipedOut != free {
		state := newConstraintState(search.evaluator, search.catalog, search.units[outcome.wipedOut])
		search.tracker.wipeout(state, outcome.wipedOut, depth)
	} else {
		search.tracker.overload(outcome.overloaded, outcome.candidates, depth)
	}
	return false
}

func (search *search) infeasible() error {
	report := search.tracker.report(search.options.MaxBlockingUnits, search.steps, search.backtracks)

	err := newError(ErrInfeasible, "no timetable satisfies every hard constraint")
	if len(report.BlockingUnits) > 0 {
		first := report.BlockingUnits[0]
		err.Message = first.Message
		err.Course = &first.Course
	}
	err.Report = report
	err.Suggestions = suggestions(report, search.request)
	return err
}

func (search *search) timedOut(cause error) error {
	report := search.tracker.report(search.options.MaxBlockingUnits, search.steps, search.backtracks)

	err := newError(ErrGenerationTimedOut, "search stopped after %d steps and %d backtracks", search.steps, search.backtracks)
	err.Err = cause
	err.Report = report
	err.Suggestions = append(
		[]string{fmt.Sprintf("raise the search budget (currently %d steps, %v)", search.options.MaxSteps, search.options.Timeout)},
		suggestions(report, search.request)...,
	)
	return err
}
