package model

import (
	"cmp"
	"slices"
)

// unit is one weekly session of a course
type unit struct {
	course   int // Dense course index
	session  uint64
	length   uint64
	subgroup int
}

type candidate struct {
	slot    int // Start time-slot
	teacher int // Dense teacher index
	room    int // Dense room index
	score   int
}

const free = -1

// partialTimetable is the mutable state owned by a single build. Occupancy matrices store the unit holding each (time-slot, resource) cell
type partialTimetable struct {
	catalog *ValidatedCatalog
	units   []unit

	teacherIndexer, roomIndexer, subgroupIndexer indexer
	teacherCells, roomCells, subgroupCells       []int

	dayIndexer   indexer  // (day, teacher) pairs
	teacherDay   []uint64 // Hours taught per (day, teacher)
	teacherWeek  []uint64 // Hours taught per teacher
	courseDay    []uint64 // Sessions per (day, course)
	courseTeach  []int    // Teacher chosen for each course, free when no session is placed
	coursePlaced []uint64 // Sessions placed per course

	placements []*candidate // Placement per unit
}

func newPartialTimetable(catalog *ValidatedCatalog, units []unit) *partialTimetable {
	slots := uint64(len(catalog.timeSlots))
	days := uint64(len(catalog.days))
	teachers := uint64(len(catalog.teachers))
	courses := uint64(len(catalog.courses))

	partial := &partialTimetable{
		catalog:         catalog,
		units:           units,
		teacherIndexer:  newIndexer(slots, teachers),
		roomIndexer:     newIndexer(slots, uint64(len(catalog.rooms))),
		subgroupIndexer: newIndexer(slots, uint64(len(catalog.subgroups))),
		dayIndexer:      newIndexer(days, teachers),
		teacherWeek:     make([]uint64, teachers),
		courseDay:       make([]uint64, days*courses),
		courseTeach:     make([]int, courses),
		coursePlaced:    make([]uint64, courses),
		placements:      make([]*candidate, len(units)),
	}
	partial.teacherCells = freeCells(partial.teacherIndexer.Size())
	partial.roomCells = freeCells(partial.roomIndexer.Size())
	partial.subgroupCells = freeCells(partial.subgroupIndexer.Size())
	partial.teacherDay = make([]uint64, partial.dayIndexer.Size())
	for i := range partial.courseTeach {
		partial.courseTeach[i] = free
	}
	return partial
}

func freeCells(size uint64) []int {
	cells := make([]int, size)
	for i := range cells {
		cells[i] = free
	}
	return cells
}

func (partial *partialTimetable) place(unitIndex int, placement candidate) {
	unit := partial.units[unitIndex]
	partial.mark(unit, placement, unitIndex)

	day := uint64(partial.catalog.slotDay[placement.slot])
	partial.teacherDay[partial.dayIndexer.Index(day, uint64(placement.teacher))] += unit.length
	partial.teacherWeek[placement.teacher] += unit.length
	partial.courseDay[day*uint64(len(partial.catalog.courses))+uint64(unit.course)]++
	partial.courseTeach[unit.course] = placement.teacher
	partial.coursePlaced[unit.course]++
	partial.placements[unitIndex] = &placement
}

func (partial *partialTimetable) remove(unitIndex int) {
	placement := partial.placements[unitIndex]
	if placement == nil {
		return
	}
	unit := partial.units[unitIndex]
	partial.mark(unit, *placement, free)

	day := uint64(partial.catalog.slotDay[placement.slot])
	partial.teacherDay[partial.dayIndexer.Index(day, uint64(placement.teacher))] -= unit.length
	partial.teacherWeek[placement.teacher] -= unit.length
	partial.courseDay[day*uint64(len(partial.catalog.courses))+uint64(unit.course)]--
	if partial.coursePlaced[unit.course]--; partial.coursePlaced[unit.course] == 0 {
		partial.courseTeach[unit.course] = free
	}
	partial.placements[unitIndex] = nil
}

func (partial *partialTimetable) mark(unit unit, placement candidate, owner int) {
	for offset := range unit.length {
		slot := uint64(placement.slot) + offset
		partial.teacherCells[partial.teacherIndexer.Index(slot, uint64(placement.teacher))] = owner
		partial.roomCells[partial.roomIndexer.Index(slot, uint64(placement.room))] = owner
		partial.subgroupCells[partial.subgroupIndexer.Index(slot, uint64(unit.subgroup))] = owner
	}
}

func (partial *partialTimetable) placed(unitIndex int) bool {
	return partial.placements[unitIndex] != nil
}

// Occupancy of a subgroup at a time-slot, free when nothing is scheduled
func (partial *partialTimetable) subgroupAt(subgroup int, slot int) int {
	if slot < 0 || slot >= len(partial.catalog.timeSlots) {
		return free
	}
	return partial.subgroupCells[partial.subgroupIndexer.Index(uint64(slot), uint64(subgroup))]
}

func (partial *partialTimetable) hoursOn(teacher int, day int) uint64 {
	return partial.teacherDay[partial.dayIndexer.Index(uint64(day), uint64(teacher))]
}

func (partial *partialTimetable) sessionsOn(course int, day int) uint64 {
	return partial.courseDay[uint64(day)*uint64(len(partial.catalog.courses))+uint64(course)]
}

// Converts the (complete) partial timetable into assignments ordered by time-slot, then subgroup
func (partial *partialTimetable) assignments() []Assignment {
	catalog := partial.catalog
	assignments := make([]Assignment, 0)
	for index, owner := range partial.subgroupCells {
		if owner == free {
			continue
		}
		slot, _ := partial.subgroupIndexer.Attributes(uint64(index))
		unit := partial.units[owner]
		placement := partial.placements[owner]
		course := catalog.courses[unit.course]

		assignments = append(assignments, Assignment{
			Course:   course.Id,
			Session:  unit.session,
			Part:     slot - uint64(placement.slot),
			Teacher:  catalog.teachers[placement.teacher].Id,
			Room:     catalog.rooms[placement.room].Id,
			TimeSlot: catalog.timeSlots[slot].Id,
			Subgroup: course.Subgroup,
		})
	}
	return assignments
}

// Builds the session units in most-constrained-first order
func orderedUnits(catalog *ValidatedCatalog) []unit {
	units := make([]unit, 0)
	for i, course := range catalog.courses {
		for session := range course.WeeklySessions {
			units = append(units, unit{
				course:   i,
				session:  session,
				length:   course.Slots(),
				subgroup: catalog.subgroupIndex[course.Subgroup],
			})
		}
	}

	slices.SortStableFunc(units, func(a, b unit) int {
		courseA, courseB := catalog.courses[a.course], catalog.courses[b.course]
		return cmp.Or(
			cmp.Compare(len(catalog.qualified[a.course]), len(catalog.qualified[b.course])),
			cmp.Compare(len(catalog.compatible[a.course]), len(catalog.compatible[b.course])),
			cmp.Compare(b.length, a.length),
			cmp.Compare(courseB.WeeklySessions, courseA.WeeklySessions),
			cmp.Compare(courseA.Id, courseB.Id),
			cmp.Compare(a.session, b.session),
		)
	})
	return units
}
