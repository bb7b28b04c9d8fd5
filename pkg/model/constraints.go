package model

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
)

// ConstraintKind names a hard constraint. Rejection counts and violations are reported per kind
type ConstraintKind string

const (
	ConstraintTeacherClash         ConstraintKind = "teacher_clash"
	ConstraintRoomClash            ConstraintKind = "room_clash"
	ConstraintSubgroupClash        ConstraintKind = "subgroup_clash"
	ConstraintRoomCapacity         ConstraintKind = "room_capacity"
	ConstraintRoomType             ConstraintKind = "room_type"
	ConstraintDailyHourCap         ConstraintKind = "daily_hour_cap"
	ConstraintWeeklyHourCap        ConstraintKind = "weekly_hour_cap"
	ConstraintTeacherUnavailable   ConstraintKind = "teacher_unavailable"
	ConstraintSessionContiguity    ConstraintKind = "session_contiguity"
	ConstraintSlotExcluded         ConstraintKind = "slot_excluded"
	ConstraintTeacherContinuity    ConstraintKind = "teacher_continuity"
	ConstraintTeacherQualification ConstraintKind = "teacher_qualification"
	ConstraintSubgroupOverload     ConstraintKind = "subgroup_overload"
	ConstraintSessionCount         ConstraintKind = "session_count"
	ConstraintUnknownReference     ConstraintKind = "unknown_reference"
)

// Violation is a broken hard constraint found while re-validating an assignment set
type Violation struct {
	Kind     ConstraintKind `json:"kind"`
	Course   uint64         `json:"course"`
	Session  uint64         `json:"session"`
	TimeSlot uint64         `json:"timeslot,omitempty"`
	Detail   string         `json:"detail"`
}

func (violation Violation) String() string {
	return fmt.Sprintf("%v: %v", violation.Kind, violation.Detail)
}

type constraintState struct {
	evaluator predicateEvaluator
	generator permutationGenerator

	unit     unit
	teachers []int // Qualified teachers of the unit's course
	rooms    []int // Compatible rooms of the unit's course
}

type hardConstraint struct {
	kind      ConstraintKind
	predicate func(permutation []uint64) bool
}

func newConstraintState(evaluator predicateEvaluator, catalog *ValidatedCatalog, unit unit) constraintState {
	teachers, rooms := catalog.qualified[unit.course], catalog.compatible[unit.course]
	return constraintState{
		evaluator: evaluator,
		generator: newPermutationGenerator(uint64(len(catalog.timeSlots)), uint64(len(teachers)), uint64(len(rooms))),
		unit:      unit,
		teachers:  teachers,
		rooms:     rooms,
	}
}

// Hard constraints over (time-slot, teacher, room) permutations. Constraints involving fewer attributes come first so that prefixes are pruned as early as possible
func unitConstraints(state constraintState) []hardConstraint {
	course, subgroup, length := uint64(state.unit.course), uint64(state.unit.subgroup), state.unit.length
	teacher := func(permutation []uint64) uint64 { return uint64(state.teachers[permutation[1]]) }
	room := func(permutation []uint64) uint64 { return uint64(state.rooms[permutation[2]]) }

	return []hardConstraint{
		{
			kind: ConstraintSlotExcluded,
			predicate: func(permutation []uint64) bool {
				slot := permutation[0]
				return slot == math.MaxUint64 ||

					// Actual predicate
					state.evaluator.Placeable(slot, length)
			},
		},
		{
			kind: ConstraintSessionContiguity,
			predicate: func(permutation []uint64) bool {
				slot := permutation[0]
				return slot == math.MaxUint64 ||

					// Actual predicate
					state.evaluator.Contiguous(slot, length)
			},
		},
		{
			kind: ConstraintSubgroupClash,
			predicate: func(permutation []uint64) bool {
				slot := permutation[0]
				return slot == math.MaxUint64 ||

					// Actual predicate
					state.evaluator.SubgroupFree(subgroup, slot, length)
			},
		},
		{
			kind: ConstraintTeacherContinuity,
			predicate: func(permutation []uint64) bool {
				return permutation[1] == math.MaxUint64 ||

					// Actual predicate
					state.evaluator.Continuous(course, teacher(permutation))
			},
		},
		{
			kind: ConstraintWeeklyHourCap,
			predicate: func(permutation []uint64) bool {
				return permutation[1] == math.MaxUint64 ||

					// Actual predicate
					state.evaluator.WithinWeeklyCap(teacher(permutation), length)
			},
		},
		{
			kind: ConstraintTeacherUnavailable,
			predicate: func(permutation []uint64) bool {
				slot := permutation[0]
				return slot == math.MaxUint64 ||
					permutation[1] == math.MaxUint64 ||

					// Actual predicate
					state.evaluator.TeacherAvailable(teacher(permutation), slot, length)
			},
		},
		{
			kind: ConstraintTeacherClash,
			predicate: func(permutation []uint64) bool {
				slot := permutation[0]
				return slot == math.MaxUint64 ||
					permutation[1] == math.MaxUint64 ||

					// Actual predicate
					state.evaluator.TeacherFree(teacher(permutation), slot, length)
			},
		},
		{
			kind: ConstraintDailyHourCap,
			predicate: func(permutation []uint64) bool {
				slot := permutation[0]
				return slot == math.MaxUint64 ||
					permutation[1] == math.MaxUint64 ||

					// Actual predicate
					state.evaluator.WithinDailyCap(teacher(permutation), slot, length)
			},
		},
		{
			kind: ConstraintRoomType,
			predicate: func(permutation []uint64) bool {
				return permutation[2] == math.MaxUint64 ||

					// Actual predicate
					state.evaluator.SameType(course, room(permutation))
			},
		},
		{
			kind: ConstraintRoomCapacity,
			predicate: func(permutation []uint64) bool {
				return permutation[2] == math.MaxUint64 ||

					// Actual predicate
					state.evaluator.Fits(course, room(permutation))
			},
		},
		{
			kind: ConstraintRoomClash,
			predicate: func(permutation []uint64) bool {
				slot := permutation[0]
				return slot == math.MaxUint64 ||
					permutation[2] == math.MaxUint64 ||

					// Actual predicate
					state.evaluator.RoomFree(room(permutation), slot, length)
			},
		},
	}
}

func predicates(constraints []hardConstraint) []func(permutation []uint64) bool {
	return lo.Map(constraints, func(constraint hardConstraint, _ int) func(permutation []uint64) bool {
		return constraint.predicate
	})
}

// Returns every feasible placement of the unit
func feasibleCandidates(state constraintState) []candidate {
	permutations := state.generator.ConstrainedPermutations(predicates(unitConstraints(state)))
	return lo.Map(permutations, func(permutation []uint64, _ int) candidate {
		return candidate{
			slot:    int(permutation[0]),
			teacher: state.teachers[permutation[1]],
			room:    state.rooms[permutation[2]],
		}
	})
}

// Evaluates every raw placement of the unit against each constraint independently. Returns the number of raw placements and how many of them each constraint rejects
func rejections(state constraintState) (total int, rejected map[ConstraintKind]int) {
	constraints := unitConstraints(state)
	permutations := state.generator.ConstrainedPermutations(nil)

	rejected = make(map[ConstraintKind]int)
	for _, permutation := range permutations {
		for _, constraint := range constraints {
			if !constraint.predicate(permutation) {
				rejected[constraint.kind]++
			}
		}
	}
	return len(permutations), rejected
}

// CheckAssignments re-validates a complete assignment set against every hard constraint
func CheckAssignments(catalog *ValidatedCatalog, request Request, assignments []Assignment) []Violation {
	request = request.WithDefaults()
	partial := newPartialTimetable(catalog, nil)
	evaluator := newPredicateEvaluator(partial, request)

	violations := make([]Violation, 0)
	report := func(kind ConstraintKind, assignment Assignment, format string, args ...any) {
		violations = append(violations, Violation{
			Kind:     kind,
			Course:   assignment.Course,
			Session:  assignment.Session,
			TimeSlot: assignment.TimeSlot,
			Detail:   fmt.Sprintf(format, args...),
		})
	}

	//** Initialize assistance
	teacherAssistance := make(map[[2]uint64]bool)
	roomAssistance := make(map[[2]uint64]bool)
	subgroupAssistance := make(map[string]bool)
	teacherDaily := make(map[[2]int]uint64)
	teacherWeekly := make(map[int]uint64)
	sessions := make(map[[2]uint64][]Assignment)
	courseTeachers := make(map[uint64][]uint64)

	for _, assignment := range assignments {
		course, courseOk := catalog.courseIndex[assignment.Course]
		teacher, teacherOk := catalog.teacherIndex[assignment.Teacher]
		room, roomOk := catalog.roomIndex[assignment.Room]
		slot, slotOk := catalog.slotIndex[assignment.TimeSlot]
		if !courseOk || !teacherOk || !roomOk || !slotOk {
			report(ConstraintUnknownReference, assignment, "assignment references an entity outside of the catalog")
			continue
		}
		if catalog.courses[course].Subgroup != assignment.Subgroup {
			report(ConstraintUnknownReference, assignment, "course %d is attended by subgroup %q, not %q", assignment.Course, catalog.courses[course].Subgroup, assignment.Subgroup)
			continue
		}

		// Check that:
		// - Teacher is qualified to teach the course
		// - Room has the type the course requires
		// - Subgroup fits in room
		// - Slot is open to sessions
		// - Teacher is available in the slot
		// - Teacher, room and subgroup are not already assisting in the slot
		if !slices.Contains(catalog.qualified[course], teacher) {
			report(ConstraintTeacherQualification, assignment, "teacher %d cannot teach course %d", assignment.Teacher, assignment.Course)
		}
		if !evaluator.SameType(uint64(course), uint64(room)) {
			report(ConstraintRoomType, assignment, "room %d is not a %v room", assignment.Room, catalog.courses[course].Type)
		}
		if !evaluator.Fits(uint64(course), uint64(room)) {
			report(ConstraintRoomCapacity, assignment, "room %d cannot seat %d students", assignment.Room, catalog.courses[course].Enrollment)
		}
		if !catalog.placeable[slot] {
			report(ConstraintSlotExcluded, assignment, "time-slot %d is closed to sessions", assignment.TimeSlot)
		}
		if !evaluator.TeacherAvailable(uint64(teacher), uint64(slot), 1) {
			report(ConstraintTeacherUnavailable, assignment, "teacher %d is unavailable at time-slot %d", assignment.Teacher, assignment.TimeSlot)
		}

		teacherKey, roomKey := [2]uint64{assignment.Teacher, assignment.TimeSlot}, [2]uint64{assignment.Room, assignment.TimeSlot}
		subgroupKey := fmt.Sprintf("%v~%v", assignment.Subgroup, assignment.TimeSlot)
		if teacherAssistance[teacherKey] {
			report(ConstraintTeacherClash, assignment, "teacher %d is double-booked at time-slot %d", assignment.Teacher, assignment.TimeSlot)
		}
		if roomAssistance[roomKey] {
			report(ConstraintRoomClash, assignment, "room %d is double-booked at time-slot %d", assignment.Room, assignment.TimeSlot)
		}
		if subgroupAssistance[subgroupKey] {
			report(ConstraintSubgroupClash, assignment, "subgroup %q is double-booked at time-slot %d", assignment.Subgroup, assignment.TimeSlot)
		}

		teacherAssistance[teacherKey] = true   // Store teacher assistance
		roomAssistance[roomKey] = true         // Store room assistance
		subgroupAssistance[subgroupKey] = true // Store subgroup assistance
		teacherDaily[[2]int{teacher, catalog.slotDay[slot]}]++
		teacherWeekly[teacher]++

		sessionKey := [2]uint64{assignment.Course, assignment.Session}
		sessions[sessionKey] = append(sessions[sessionKey], assignment)
		if !slices.Contains(courseTeachers[assignment.Course], assignment.Teacher) {
			courseTeachers[assignment.Course] = append(courseTeachers[assignment.Course], assignment.Teacher)
		}
	}

	//** Hour caps
	dailyKeys := lo.Keys(teacherDaily)
	slices.SortFunc(dailyKeys, func(a, b [2]int) int { return cmp.Or(cmp.Compare(a[0], b[0]), cmp.Compare(a[1], b[1])) })
	for _, key := range dailyKeys {
		teacher, day := key[0], key[1]
		if limit := catalog.dailyCap(teacher, request); teacherDaily[key] > limit {
			violations = append(violations, Violation{
				Kind:   ConstraintDailyHourCap,
				Detail: fmt.Sprintf("teacher %d teaches %d hours on %v, cap is %d", catalog.teachers[teacher].Id, teacherDaily[key], catalog.days[day], limit),
			})
		}
	}
	weeklyKeys := lo.Keys(teacherWeekly)
	slices.Sort(weeklyKeys)
	for _, teacher := range weeklyKeys {
		if limit := catalog.teachers[teacher].MaxWeeklyHours; limit > 0 && teacherWeekly[teacher] > limit {
			violations = append(violations, Violation{
				Kind:   ConstraintWeeklyHourCap,
				Detail: fmt.Sprintf("teacher %d teaches %d hours a week, cap is %d", catalog.teachers[teacher].Id, teacherWeekly[teacher], limit),
			})
		}
	}

	//** Sessions
	sessionKeys := lo.Keys(sessions)
	slices.SortFunc(sessionKeys, func(a, b [2]uint64) int { return cmp.Or(cmp.Compare(a[0], b[0]), cmp.Compare(a[1], b[1])) })
	for _, key := range sessionKeys {
		violations = append(violations, checkSession(catalog, sessions[key])...)
	}

	//** Continuity and completeness
	for i, course := range catalog.courses {
		if teachers := courseTeachers[course.Id]; len(teachers) > 1 {
			violations = append(violations, Violation{
				Kind:   ConstraintTeacherContinuity,
				Course: course.Id,
				Detail: fmt.Sprintf("course %d is taught by %d different teachers", course.Id, len(teachers)),
			})
		}

		placed := uint64(0)
		for session := range catalog.courses[i].WeeklySessions {
			if _, ok := sessions[[2]uint64{course.Id, session}]; ok {
				placed++
			}
		}
		extra := lo.CountBy(sessionKeys, func(key [2]uint64) bool { return key[0] == course.Id && key[1] >= course.WeeklySessions })
		if placed != course.WeeklySessions || extra > 0 {
			violations = append(violations, Violation{
				Kind:   ConstraintSessionCount,
				Course: course.Id,
				Detail: fmt.Sprintf("course %d has %d of %d weekly sessions placed (%d unexpected)", course.Id, placed, course.WeeklySessions, extra),
			})
		}
	}

	return violations
}

// Checks that the parts of a session fill consecutive slots of a single day, with a single teacher and room
func checkSession(catalog *ValidatedCatalog, parts []Assignment) []Violation {
	parts = slices.Clone(parts)
	slices.SortFunc(parts, func(a, b Assignment) int { return cmp.Compare(a.Part, b.Part) })

	first := parts[0]
	course := catalog.courses[catalog.courseIndex[first.Course]]
	violation := Violation{Kind: ConstraintSessionContiguity, Course: first.Course, Session: first.Session, TimeSlot: first.TimeSlot}

	if uint64(len(parts)) != course.Slots() {
		violation.Detail = fmt.Sprintf("session spans %d slots instead of %d", len(parts), course.Slots())
		return []Violation{violation}
	}

	start := catalog.slotIndex[first.TimeSlot]
	for i, part := range parts {
		slot := catalog.slotIndex[part.TimeSlot]
		if part.Part != uint64(i) || slot != start+i || catalog.slotDay[slot] != catalog.slotDay[start] {
			violation.Detail = fmt.Sprintf("part %d is not adjacent to the previous part", part.Part)
			return []Violation{violation}
		}
		if part.Teacher != first.Teacher || part.Room != first.Room {
			violation.Detail = fmt.Sprintf("part %d changes teacher or room within the session", part.Part)
			return []Violation{violation}
		}
	}
	return nil
}
