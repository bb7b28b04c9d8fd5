package model

type predicateEvaluatorStandard struct {
	catalog *ValidatedCatalog
	partial *partialTimetable
	request Request
}

func (evaluator *predicateEvaluatorStandard) TeacherFree(teacher, slot, length uint64) bool {
	return evaluator.freeDuring(evaluator.partial.teacherCells, evaluator.partial.teacherIndexer, teacher, slot, length)
}

func (evaluator *predicateEvaluatorStandard) RoomFree(room, slot, length uint64) bool {
	return evaluator.freeDuring(evaluator.partial.roomCells, evaluator.partial.roomIndexer, room, slot, length)
}

func (evaluator *predicateEvaluatorStandard) SubgroupFree(subgroup, slot, length uint64) bool {
	return evaluator.freeDuring(evaluator.partial.subgroupCells, evaluator.partial.subgroupIndexer, subgroup, slot, length)
}

func (evaluator *predicateEvaluatorStandard) freeDuring(cells []int, indexer indexer, resource, slot, length uint64) bool {
	for offset := range length {
		if slot+offset >= uint64(len(evaluator.catalog.timeSlots)) {
			return false
		}
		if cells[indexer.Index(slot+offset, resource)] != free {
			return false
		}
	}
	return true
}

func (evaluator *predicateEvaluatorStandard) TeacherAvailable(teacher, slot, length uint64) bool {
	unavailable := evaluator.catalog.unavailable[teacher]
	for offset := range length {
		if slot+offset >= uint64(len(unavailable)) || unavailable[slot+offset] {
			return false
		}
	}
	return true
}

func (evaluator *predicateEvaluatorStandard) Placeable(slot, length uint64) bool {
	for offset := range length {
		if slot+offset >= uint64(len(evaluator.catalog.placeable)) || !evaluator.catalog.placeable[slot+offset] {
			return false
		}
	}
	return true
}

func (evaluator *predicateEvaluatorStandard) Contiguous(slot, length uint64) bool {
	last := slot + length - 1
	if length == 0 || last >= uint64(len(evaluator.catalog.timeSlots)) {
		return false
	}
	// Slots are stored day by day, so a session is contiguous when its first and last slots share the day
	return evaluator.catalog.slotDay[slot] == evaluator.catalog.slotDay[last]
}

func (evaluator *predicateEvaluatorStandard) WithinDailyCap(teacher, slot, length uint64) bool {
	day := evaluator.catalog.slotDay[slot]
	return evaluator.partial.hoursOn(int(teacher), day)+length <= evaluator.catalog.dailyCap(int(teacher), evaluator.request)
}

func (evaluator *predicateEvaluatorStandard) WithinWeeklyCap(teacher, length uint64) bool {
	limit := evaluator.catalog.teachers[teacher].MaxWeeklyHours
	return limit == 0 || evaluator.partial.teacherWeek[teacher]+length <= limit
}

func (evaluator *predicateEvaluatorStandard) Continuous(course, teacher uint64) bool {
	chosen := evaluator.partial.courseTeach[course]
	return chosen == free || chosen == int(teacher)
}

func (evaluator *predicateEvaluatorStandard) Fits(course, room uint64) bool {
	return evaluator.catalog.rooms[room].Capacity >= evaluator.catalog.courses[course].Enrollment
}

func (evaluator *predicateEvaluatorStandard) SameType(course, room uint64) bool {
	return evaluator.catalog.rooms[room].Type == evaluator.catalog.courses[course].Type
}
