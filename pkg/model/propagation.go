package model

import (
	"slices"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

type propagationOutcome struct {
	wipedOut   int   // Unit left without feasible placements, free when none
	overloaded []int // Remaining units of the subgroup when they cannot take distinct time-slots
	candidates int   // Feasible placements of the overloaded units
}

func (outcome propagationOutcome) consistent() bool {
	return outcome.wipedOut == free && len(outcome.overloaded) == 0
}

// Forward-checks the units of the placed unit's subgroup that are still pending. Every pending unit needs a feasible placement, and together they need pairwise distinct start slots
func propagate(partial *partialTimetable, evaluator predicateEvaluator, placed int) (propagationOutcome, error) {
	outcome := propagationOutcome{wipedOut: free}
	subgroup := partial.units[placed].subgroup

	remaining := make([]int, 0)
	for i, unit := range partial.units {
		if unit.subgroup == subgroup && !partial.placed(i) {
			remaining = append(remaining, i)
		}
	}
	if len(remaining) == 0 {
		return outcome, nil
	}

	//** Feasible start slots per pending unit
	starts := make([]map[int]bool, len(remaining))
	slots := make([]int, 0)
	for i, unitIndex := range remaining {
		state := newConstraintState(evaluator, partial.catalog, partial.units[unitIndex])
		candidates := feasibleCandidates(state)
		if len(candidates) == 0 {
			outcome.wipedOut = unitIndex
			return outcome, nil
		}

		outcome.candidates += len(candidates)
		starts[i] = make(map[int]bool)
		for _, candidate := range candidates {
			starts[i][candidate.slot] = true
		}
		slots = append(slots, lo.Keys(starts[i])...)
	}
	slots = lo.Uniq(slots)
	slices.Sort(slots)

	matched, err := matchSessions(starts, slots)
	if err != nil {
		return outcome, err
	}
	if matched < len(remaining) {
		outcome.overloaded = remaining
	}
	return outcome, nil
}

// Returns the size of the largest matching between pending sessions and time-slots
func matchSessions(starts []map[int]bool, slots []int) (int, error) {
	if len(slots) < len(starts) {
		return len(slots), nil
	}

	// Build neighbors predicate based on feasible start slots
	neighbors := func(sessionAny any, slotAny any) (bool, error) {
		session := sessionAny.(int)
		slot := slotAny.(int)

		return starts[session][slot], nil
	}

	// Transform sessions and slots to slices of any
	sessionsAny := lo.Times(len(starts), func(session int) any { return session })
	slotsAny := lo.Map(slots, func(slot int, _ int) any { return slot })

	graph, err := bipartitegraph.NewBipartiteGraph(sessionsAny, slotsAny, neighbors)
	if err != nil {
		return 0, err
	}

	return len(graph.LargestMatching()), nil
}
