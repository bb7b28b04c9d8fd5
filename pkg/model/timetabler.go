package model

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
)

type Timetabler interface {
	Build(
		ctx context.Context,
		catalog *ValidatedCatalog,
		request Request,
	) (timetable Timetable, err error)

	Verify(
		timetable Timetable,
		catalog *ValidatedCatalog,
		request Request,
	) bool
}

// Assignment places one slot of a course session. A session spanning several slots yields one assignment per slot, numbered by Part
type Assignment struct {
	Course   uint64 `json:"course"`
	Session  uint64 `json:"session"`
	Part     uint64 `json:"part"`
	Teacher  uint64 `json:"teacher"`
	Room     uint64 `json:"room"`
	TimeSlot uint64 `json:"timeslot"`
	Subgroup string `json:"subgroup"`
}

type Stats struct {
	Units      int    `json:"units"`
	Steps      uint64 `json:"steps"`
	Backtracks uint64 `json:"backtracks"`
}

// Timetable is an immutable, ordered set of assignments indexed by (teacher, time-slot), (room, time-slot) and (subgroup, time-slot)
type Timetable struct {
	assignments []Assignment
	byTeacher   map[[2]uint64]int
	byRoom      map[[2]uint64]int
	bySubgroup  map[subgroupSlot]int
	stats       Stats
}

type subgroupSlot struct {
	subgroup string
	slot     uint64
}

// NewTimetable indexes the assignments, failing if any teacher, room or subgroup is double-booked
func NewTimetable(assignments []Assignment, stats Stats) (Timetable, error) {
	timetable := Timetable{
		assignments: slices.Clone(assignments),
		byTeacher:   make(map[[2]uint64]int, len(assignments)),
		byRoom:      make(map[[2]uint64]int, len(assignments)),
		bySubgroup:  make(map[subgroupSlot]int, len(assignments)),
		stats:       stats,
	}

	for i, assignment := range timetable.assignments {
		teacherKey := [2]uint64{assignment.Teacher, assignment.TimeSlot}
		roomKey := [2]uint64{assignment.Room, assignment.TimeSlot}
		subgroupKey := subgroupSlot{assignment.Subgroup, assignment.TimeSlot}

		if _, ok := timetable.byTeacher[teacherKey]; ok {
			return Timetable{}, newError(ErrInternalInconsistency, "teacher %d is double-booked at time-slot %d", assignment.Teacher, assignment.TimeSlot)
		}
		if _, ok := timetable.byRoom[roomKey]; ok {
			return Timetable{}, newError(ErrInternalInconsistency, "room %d is double-booked at time-slot %d", assignment.Room, assignment.TimeSlot)
		}
		if _, ok := timetable.bySubgroup[subgroupKey]; ok {
			return Timetable{}, newError(ErrInternalInconsistency, "subgroup %q is double-booked at time-slot %d", assignment.Subgroup, assignment.TimeSlot)
		}
		timetable.byTeacher[teacherKey] = i
		timetable.byRoom[roomKey] = i
		timetable.bySubgroup[subgroupKey] = i
	}
	return timetable, nil
}

func (timetable Timetable) Assignments() []Assignment { return slices.Clone(timetable.assignments) }
func (timetable Timetable) Len() int                  { return len(timetable.assignments) }
func (timetable Timetable) Stats() Stats              { return timetable.stats }

func (timetable Timetable) TeacherAt(teacher, slot uint64) (Assignment, bool) {
	index, ok := timetable.byTeacher[[2]uint64{teacher, slot}]
	return timetable.at(index, ok)
}

func (timetable Timetable) RoomAt(room, slot uint64) (Assignment, bool) {
	index, ok := timetable.byRoom[[2]uint64{room, slot}]
	return timetable.at(index, ok)
}

func (timetable Timetable) SubgroupAt(subgroup string, slot uint64) (Assignment, bool) {
	index, ok := timetable.bySubgroup[subgroupSlot{subgroup, slot}]
	return timetable.at(index, ok)
}

func (timetable Timetable) at(index int, ok bool) (Assignment, bool) {
	if !ok {
		return Assignment{}, false
	}
	return timetable.assignments[index], true
}

func (timetable Timetable) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Assignments []Assignment `json:"assignments"`
		Stats       Stats        `json:"stats"`
	}{
		Assignments: timetable.Assignments(),
		Stats:       timetable.stats,
	})
}

const (
	DefaultMaxSteps = 200_000
	DefaultTimeout  = 10 * time.Second
)

// Options tune the search. Zero values fall back to the defaults
type Options struct {
	MaxSteps           uint64
	Timeout            time.Duration
	Weights            SoftWeights // Zero weights select DefaultSoftWeights
	DisablePropagation bool
	MaxBlockingUnits   int
	TraceLimit         int
	Logger             *zap.Logger

	// Skips the slot counting done before the search, leaving over-subscription to be found by backtracking
	DisableCapacityCheck bool
}

func DefaultOptions() Options {
	return Options{
		MaxSteps:         DefaultMaxSteps,
		Timeout:          DefaultTimeout,
		Weights:          DefaultSoftWeights(),
		MaxBlockingUnits: DefaultMaxBlockingUnits,
		TraceLimit:       DefaultTraceLimit,
		Logger:           zap.NewNop(),
	}
}

func (options Options) withDefaults() Options {
	defaults := DefaultOptions()
	if options.MaxSteps == 0 {
		options.MaxSteps = defaults.MaxSteps
	}
	if options.Timeout == 0 {
		options.Timeout = defaults.Timeout
	}
	if options.Weights == (SoftWeights{}) {
		options.Weights = defaults.Weights
	}
	if options.MaxBlockingUnits == 0 {
		options.MaxBlockingUnits = defaults.MaxBlockingUnits
	}
	if options.TraceLimit == 0 {
		options.TraceLimit = defaults.TraceLimit
	}
	if options.Logger == nil {
		options.Logger = defaults.Logger
	}
	return options
}

func (options Options) String() string {
	return fmt.Sprintf("steps=%d timeout=%v weights=%+v", options.MaxSteps, options.Timeout, options.Weights)
}
