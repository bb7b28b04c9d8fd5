package model

// Every argument is a dense catalog index. Session-wide predicates receive the start time-slot and the number of slots the session spans
type predicateEvaluator interface {
	// Checks whether the teacher is not teaching during any slot of the session
	TeacherFree(teacher, slot, length uint64) bool

	// Checks whether the room is not in use during any slot of the session
	RoomFree(room, slot, length uint64) bool

	// Checks whether the subgroup is not attending any other session during the session
	SubgroupFree(subgroup, slot, length uint64) bool

	// Checks whether the teacher is available to teach at every slot of the session
	TeacherAvailable(teacher, slot, length uint64) bool

	// Checks whether every slot of the session is open to sessions (i.e. neither lunch nor of an irregular length)
	Placeable(slot, length uint64) bool

	// Checks whether the session fits consecutive slots of a single day
	Contiguous(slot, length uint64) bool

	// Checks whether the session keeps the teacher within its effective daily cap
	WithinDailyCap(teacher, slot, length uint64) bool

	// Checks whether the session keeps the teacher within its weekly cap (if any)
	WithinWeeklyCap(teacher, length uint64) bool

	// Checks whether the teacher is the one already teaching the course's placed sessions (if any)
	Continuous(course, teacher uint64) bool

	// Checks whether the course's enrollment is smaller than or equal to the room's capacity (i.e. the subgroup fits in the room)
	Fits(course, room uint64) bool

	// Checks whether the room's type is the one the course requires
	SameType(course, room uint64) bool
}

func newPredicateEvaluator(partial *partialTimetable, request Request) predicateEvaluator {
	return &predicateEvaluatorStandard{
		catalog: partial.catalog,
		partial: partial,
		request: request,
	}
}
