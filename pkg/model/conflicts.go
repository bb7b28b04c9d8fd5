package model

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

const (
	DefaultMaxBlockingUnits = 10
	DefaultTraceLimit       = 50
)

type ConstraintCount struct {
	Kind     ConstraintKind `json:"kind"`
	Rejected int            `json:"rejected"`
}

// BlockingUnit is a session the search could not place, together with the constraints that ruled out its placements
type BlockingUnit struct {
	Course      uint64            `json:"course"`
	Code        string            `json:"code,omitempty"`
	Name        string            `json:"name"`
	Session     uint64            `json:"session"`
	Subgroup    string            `json:"subgroup"`
	Teachers    []string          `json:"teachers"`
	Candidates  int               `json:"candidates"`
	Constraints []ConstraintCount `json:"constraints"`
	Blocking    []ConstraintKind  `json:"blocking"`
	DeadEnds    int               `json:"dead_ends"`
	Message     string            `json:"message"`
}

type BacktrackPoint struct {
	Step    uint64 `json:"step"`
	Depth   int    `json:"depth"`
	Course  uint64 `json:"course"`
	Session uint64 `json:"session"`
}

type ConflictReport struct {
	BlockingUnits []BlockingUnit   `json:"blocking_units"`
	Trace         []BacktrackPoint `json:"trace"`
	Steps         uint64           `json:"steps"`
	Backtracks    uint64           `json:"backtracks"`
}

type unitDiagnosis struct {
	depth      int
	candidates int
	rejected   map[ConstraintKind]int
}

// conflictTracker accumulates dead-ends during a single build
type conflictTracker struct {
	catalog    *ValidatedCatalog
	request    Request
	units      []unit
	traceLimit int

	deadEnds  []int
	diagnoses []*unitDiagnosis
	trace     []BacktrackPoint
}

func newConflictTracker(catalog *ValidatedCatalog, request Request, units []unit, traceLimit int) *conflictTracker {
	return &conflictTracker{
		catalog:    catalog,
		request:    request,
		units:      units,
		traceLimit: traceLimit,
		deadEnds:   make([]int, len(units)),
		diagnoses:  make([]*unitDiagnosis, len(units)),
		trace:      make([]BacktrackPoint, 0),
	}
}

// Records a unit whose candidate set was wiped out. Only the shallowest wipeout of each unit is diagnosed
func (tracker *conflictTracker) wipeout(state constraintState, unitIndex, depth int) {
	tracker.deadEnds[unitIndex]++
	if diagnosis := tracker.diagnoses[unitIndex]; diagnosis != nil && diagnosis.depth <= depth {
		return
	}
	total, rejected := rejections(state)
	tracker.diagnoses[unitIndex] = &unitDiagnosis{depth: depth, candidates: total, rejected: rejected}
}

// Records pending units that cannot be given distinct time-slots
func (tracker *conflictTracker) overload(units []int, candidates, depth int) {
	for _, unitIndex := range units {
		tracker.deadEnds[unitIndex]++
		if diagnosis := tracker.diagnoses[unitIndex]; diagnosis != nil && diagnosis.depth <= depth {
			continue
		}
		tracker.diagnoses[unitIndex] = &unitDiagnosis{
			depth:      depth,
			candidates: candidates,
			rejected:   map[ConstraintKind]int{ConstraintSubgroupOverload: candidates},
		}
	}
}

func (tracker *conflictTracker) backtrack(step uint64, depth int, unitIndex int) {
	if len(tracker.trace) >= tracker.traceLimit {
		return
	}
	unit := tracker.units[unitIndex]
	tracker.trace = append(tracker.trace, BacktrackPoint{
		Step:    step,
		Depth:   depth,
		Course:  tracker.catalog.courses[unit.course].Id,
		Session: unit.session,
	})
}

func (tracker *conflictTracker) report(maxBlockingUnits int, steps, backtracks uint64) *ConflictReport {
	diagnosed := make([]int, 0)
	for i, diagnosis := range tracker.diagnoses {
		if diagnosis != nil {
			diagnosed = append(diagnosed, i)
		}
	}
	slices.SortFunc(diagnosed, func(a, b int) int {
		unitA, unitB := tracker.units[a], tracker.units[b]
		return cmp.Or(
			cmp.Compare(tracker.diagnoses[a].depth, tracker.diagnoses[b].depth),
			cmp.Compare(tracker.deadEnds[b], tracker.deadEnds[a]),
			cmp.Compare(tracker.catalog.courses[unitA.course].Id, tracker.catalog.courses[unitB.course].Id),
			cmp.Compare(unitA.session, unitB.session),
		)
	})
	diagnosed = lo.UniqBy(diagnosed, func(unitIndex int) int { return tracker.units[unitIndex].course })
	if len(diagnosed) > maxBlockingUnits {
		diagnosed = diagnosed[:maxBlockingUnits]
	}

	return &ConflictReport{
		BlockingUnits: lo.Map(diagnosed, func(unitIndex int, _ int) BlockingUnit { return tracker.blockingUnit(unitIndex) }),
		Trace:         slices.Clone(tracker.trace),
		Steps:         steps,
		Backtracks:    backtracks,
	}
}

func (tracker *conflictTracker) blockingUnit(unitIndex int) BlockingUnit {
	unit := tracker.units[unitIndex]
	course := tracker.catalog.courses[unit.course]
	diagnosis := tracker.diagnoses[unitIndex]

	constraints := make([]ConstraintCount, 0, len(diagnosis.rejected))
	for kind, rejected := range diagnosis.rejected {
		if rejected > 0 {
			constraints = append(constraints, ConstraintCount{Kind: kind, Rejected: rejected})
		}
	}
	slices.SortFunc(constraints, func(a, b ConstraintCount) int {
		return cmp.Or(cmp.Compare(b.Rejected, a.Rejected), cmp.Compare(a.Kind, b.Kind))
	})

	// Constraints rejecting every placement are blocking on their own, otherwise every rejecting constraint takes part
	blocking := lo.FilterMap(constraints, func(count ConstraintCount, _ int) (ConstraintKind, bool) {
		return count.Kind, count.Rejected == diagnosis.candidates
	})
	if len(blocking) == 0 {
		blocking = lo.Map(constraints, func(count ConstraintCount, _ int) ConstraintKind { return count.Kind })
	}

	teachers := lo.Map(tracker.catalog.qualified[unit.course], func(teacher int, _ int) Teacher { return tracker.catalog.teachers[teacher] })

	return BlockingUnit{
		Course:      course.Id,
		Code:        course.Code,
		Name:        course.Name,
		Session:     unit.session,
		Subgroup:    course.Subgroup,
		Teachers:    lo.Map(teachers, func(teacher Teacher, _ int) string { return teacher.Name }),
		Candidates:  diagnosis.candidates,
		Constraints: constraints,
		Blocking:    blocking,
		DeadEnds:    tracker.deadEnds[unitIndex],
		Message:     tracker.message(unit, course, teachers, blocking),
	}
}

func (tracker *conflictTracker) message(unit unit, course Course, teachers []Teacher, blocking []ConstraintKind) string {
	names := func(describe func(teacher Teacher, index int) string) string {
		return strings.Join(lo.Map(teachers, func(teacher Teacher, _ int) string {
			return describe(teacher, tracker.catalog.teacherIndex[teacher.Id])
		}), ", ")
	}

	reasons := lo.Map(blocking, func(kind ConstraintKind, _ int) string {
		switch kind {
		case ConstraintDailyHourCap:
			return "daily hour cap reached by " + names(func(teacher Teacher, index int) string {
				return fmt.Sprintf("%v (%d hour(s) per day)", teacher.Name, tracker.catalog.dailyCap(index, tracker.request))
			})
		case ConstraintWeeklyHourCap:
			return "weekly hour cap reached by " + names(func(teacher Teacher, _ int) string {
				return fmt.Sprintf("%v (%d hour(s) per week)", teacher.Name, teacher.MaxWeeklyHours)
			})
		case ConstraintTeacherUnavailable:
			return "unavailability of " + names(func(teacher Teacher, _ int) string { return teacher.Name })
		case ConstraintTeacherClash:
			return "every remaining slot is taken by another session of " + names(func(teacher Teacher, _ int) string { return teacher.Name })
		case ConstraintTeacherContinuity:
			return "course sessions must stay with the teacher already chosen"
		case ConstraintRoomClash:
			return fmt.Sprintf("every compatible %v room is occupied", course.Type)
		case ConstraintSubgroupClash:
			return fmt.Sprintf("subgroup %v is busy in every remaining slot", course.Subgroup)
		case ConstraintSessionContiguity:
			return fmt.Sprintf("no day offers %d consecutive slots", unit.length)
		case ConstraintSlotExcluded:
			return "the remaining slots fall in the lunch break or have an irregular length"
		case ConstraintRoomType:
			return fmt.Sprintf("only %v rooms can host it", course.Type)
		case ConstraintRoomCapacity:
			return fmt.Sprintf("no free %v room seats %d students", course.Type, course.Enrollment)
		case ConstraintSubgroupOverload:
			return fmt.Sprintf("subgroup %v has more pending sessions than distinct feasible slots", course.Subgroup)
		}
		return string(kind)
	})

	return fmt.Sprintf("course %v (%v) session %d cannot be placed: %v", course.Name, course.Code, unit.session+1, strings.Join(reasons, "; "))
}

// Relaxations that would remove the blocking constraints of a report
func suggestions(report *ConflictReport, request Request) []string {
	kinds := make(map[ConstraintKind]bool)
	for _, unit := range report.BlockingUnits {
		for _, kind := range unit.Blocking {
			kinds[kind] = true
		}
	}

	suggestions := make([]string, 0)
	if kinds[ConstraintDailyHourCap] {
		if request.MaxHoursPerDay < MaxMaxHoursPerDay {
			suggestions = append(suggestions, fmt.Sprintf("raise max_hours_per_day above %d", request.MaxHoursPerDay))
		}
		suggestions = append(suggestions, "raise the daily cap of the listed teachers or qualify more teachers")
	}
	if kinds[ConstraintWeeklyHourCap] {
		suggestions = append(suggestions, "raise the weekly cap of the listed teachers or qualify more teachers")
	}
	if kinds[ConstraintTeacherUnavailable] || kinds[ConstraintTeacherClash] || kinds[ConstraintTeacherContinuity] {
		suggestions = append(suggestions, "qualify more teachers for the listed courses or widen their availability")
	}
	if kinds[ConstraintRoomClash] || kinds[ConstraintRoomType] || kinds[ConstraintRoomCapacity] {
		suggestions = append(suggestions, "make more compatible rooms available")
	}
	if kinds[ConstraintSubgroupClash] || kinds[ConstraintSubgroupOverload] || kinds[ConstraintSessionContiguity] || kinds[ConstraintSlotExcluded] {
		suggestions = append(suggestions, "add time-slots or reduce weekly sessions of the listed subgroups")
	}
	return suggestions
}
