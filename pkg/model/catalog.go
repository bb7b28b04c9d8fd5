package model

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// ValidatedCatalog is a catalog that passed every structural check. Entities are stored in ascending id order (time-slots in day-then-position order) and are addressed internally through dense indices
type ValidatedCatalog struct {
	teachers  []Teacher
	courses   []Course
	rooms     []Room // Available rooms only
	timeSlots []TimeSlot
	subgroups []string

	teacherIndex  map[uint64]int
	courseIndex   map[uint64]int
	roomIndex     map[uint64]int
	slotIndex     map[uint64]int
	subgroupIndex map[string]int

	days       []Day
	slotDay    []int // Dense day index per time-slot
	slotsByDay [][]int
	placeable  []bool // Time-slots the slot policy leaves open to sessions

	qualified   [][]int  // Teachers able to teach each course
	compatible  [][]int  // Rooms able to host each course
	unavailable [][]bool // Teacher availability matrix (teacher x time-slot)
}

// Load validates a catalog snapshot before scheduling begins, excluding slots per DefaultSlotPolicy
func Load(catalog Catalog) (*ValidatedCatalog, error) {
	return LoadWithPolicy(catalog, DefaultSlotPolicy())
}

func LoadWithPolicy(catalog Catalog, policy SlotPolicy) (*ValidatedCatalog, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if err := validateEntities(catalog); err != nil {
		return nil, err
	}
	if len(catalog.TimeSlots) == 0 {
		return nil, newError(ErrEmptySlotSet, "at least one time-slot must be configured")
	}

	validated := &ValidatedCatalog{}

	//** Index entities
	var err error
	validated.teachers, validated.teacherIndex, err = indexEntities(catalog.Teachers, "teacher", func(teacher Teacher) uint64 { return teacher.Id })
	if err != nil {
		return nil, err
	}
	validated.courses, validated.courseIndex, err = indexEntities(catalog.Courses, "course", func(course Course) uint64 { return course.Id })
	if err != nil {
		return nil, err
	}
	// Duplicate detection runs over every room, availability is applied afterwards
	if _, _, err = indexEntities(catalog.Rooms, "room", func(room Room) uint64 { return room.Id }); err != nil {
		return nil, err
	}
	validated.rooms, validated.roomIndex, _ = indexEntities(
		lo.Filter(catalog.Rooms, func(room Room, _ int) bool { return room.Available }),
		"room",
		func(room Room) uint64 { return room.Id },
	)
	if err := validated.indexTimeSlots(catalog.TimeSlots); err != nil {
		return nil, err
	}
	validated.placeable = lo.Map(validated.timeSlots, func(slot TimeSlot, _ int) bool { return policy.Placeable(slot) })

	//** Normalize types
	for i := range validated.courses {
		validated.courses[i].Type = lo.Ternary(validated.courses[i].Type == "", RoomTypeLecture, validated.courses[i].Type)
	}
	for i := range validated.rooms {
		validated.rooms[i].Type = lo.Ternary(validated.rooms[i].Type == "", RoomTypeLecture, validated.rooms[i].Type)
	}

	//** Subgroups
	validated.subgroups = lo.Uniq(lo.Map(validated.courses, func(course Course, _ int) string { return course.Subgroup }))
	slices.Sort(validated.subgroups)
	validated.subgroupIndex = make(map[string]int, len(validated.subgroups))
	for i, subgroup := range validated.subgroups {
		validated.subgroupIndex[subgroup] = i
	}

	//** Teacher availability
	validated.unavailable = make([][]bool, len(validated.teachers))
	for i, teacher := range validated.teachers {
		validated.unavailable[i] = make([]bool, len(validated.timeSlots))
		for _, slotId := range teacher.Unavailable {
			slot, ok := validated.slotIndex[slotId]
			if !ok {
				return nil, newError(ErrInvalidCatalog, "teacher %q references unknown time-slot %d", teacher.Name, slotId)
			}
			validated.unavailable[i][slot] = true
		}
	}

	//** Candidate teachers and rooms per course (courses are visited in ascending id order)
	validated.qualified = make([][]int, len(validated.courses))
	validated.compatible = make([][]int, len(validated.courses))
	for i, course := range validated.courses {
		teachers, err := validated.qualifiedTeachers(course)
		if err != nil {
			return nil, err
		}
		validated.qualified[i] = teachers

		rooms := validated.compatibleRooms(course)
		if len(rooms) == 0 {
			return nil, courseError(ErrNoAvailableRooms, course, "course %v (%v) needs an available %v room for %d students, none exists", course.Name, course.Code, course.Type, course.Enrollment)
		}
		validated.compatible[i] = rooms

		if course.Slots() > uint64(validated.longestDay()) {
			return nil, courseError(ErrInvalidCatalog, course, "course %v (%v) sessions span %d slots but no day has that many", course.Name, course.Code, course.Slots())
		}
	}

	return validated, nil
}

func validateEntities(catalog Catalog) error {
	check := func(kind string, id uint64, entity any) error {
		if err := validate.Struct(entity); err != nil {
			var fields validator.ValidationErrors
			message := err.Error()
			if errors.As(err, &fields) && len(fields) > 0 {
				message = fmt.Sprintf("field %v failed on %q", fields[0].Field(), fields[0].Tag())
			}
			return newError(ErrInvalidCatalog, "%v %d is invalid: %v", kind, id, message)
		}
		return nil
	}

	for _, teacher := range catalog.Teachers {
		if err := check("teacher", teacher.Id, teacher); err != nil {
			return err
		}
	}
	for _, course := range catalog.Courses {
		if err := check("course", course.Id, course); err != nil {
			return err
		}
	}
	for _, room := range catalog.Rooms {
		if err := check("room", room.Id, room); err != nil {
			return err
		}
	}
	for _, slot := range catalog.TimeSlots {
		if err := check("time-slot", slot.Id, slot); err != nil {
			return err
		}
	}
	return nil
}

func indexEntities[T any](entities []T, kind string, id func(T) uint64) ([]T, map[uint64]int, error) {
	sorted := slices.Clone(entities)
	slices.SortFunc(sorted, func(a, b T) int { return cmp.Compare(id(a), id(b)) })

	index := make(map[uint64]int, len(sorted))
	for i, entity := range sorted {
		if _, ok := index[id(entity)]; ok {
			return nil, nil, newError(ErrInvalidCatalog, "duplicate %v id %d", kind, id(entity))
		}
		index[id(entity)] = i
	}
	return sorted, index, nil
}

// Orders time-slots by day then by (ordinal, start, id), and rewrites ordinals as dense positions within each day
func (catalog *ValidatedCatalog) indexTimeSlots(timeSlots []TimeSlot) error {
	sorted := slices.Clone(timeSlots)
	slices.SortFunc(sorted, func(a, b TimeSlot) int {
		return cmp.Or(
			cmp.Compare(a.Day, b.Day),
			cmp.Compare(a.Ordinal, b.Ordinal),
			cmp.Compare(a.Start, b.Start),
			cmp.Compare(a.Id, b.Id),
		)
	})

	catalog.slotIndex = make(map[uint64]int, len(sorted))
	catalog.slotDay = make([]int, len(sorted))
	for i, slot := range sorted {
		if _, ok := catalog.slotIndex[slot.Id]; ok {
			return newError(ErrInvalidCatalog, "duplicate time-slot id %d", slot.Id)
		}
		catalog.slotIndex[slot.Id] = i

		if len(catalog.days) == 0 || catalog.days[len(catalog.days)-1] != slot.Day {
			catalog.days = append(catalog.days, slot.Day)
			catalog.slotsByDay = append(catalog.slotsByDay, []int{})
		}
		day := len(catalog.days) - 1
		sorted[i].Ordinal = uint64(len(catalog.slotsByDay[day]))
		catalog.slotDay[i] = day
		catalog.slotsByDay[day] = append(catalog.slotsByDay[day], i)
	}

	// Slots of a same day must not overlap
	for _, slots := range catalog.slotsByDay {
		for i := 1; i < len(slots); i++ {
			previous, current := sorted[slots[i-1]], sorted[slots[i]]
			if current.Start < previous.End {
				return newError(ErrInvalidCatalog, "time-slots %d and %d overlap on %v", previous.Id, current.Id, current.Day)
			}
		}
	}

	catalog.timeSlots = sorted
	return nil
}

func (catalog *ValidatedCatalog) qualifiedTeachers(course Course) ([]int, error) {
	if course.TeacherId != nil {
		teacher, ok := catalog.teacherIndex[*course.TeacherId]
		if !ok {
			return nil, courseError(ErrIncompleteTeacherAssignment, course, "course %v (%v) is assigned to unknown teacher %d", course.Name, course.Code, *course.TeacherId)
		}
		return []int{teacher}, nil
	}

	teachers := make([]int, 0)
	for i, teacher := range catalog.teachers {
		if slices.Contains(teacher.QualifiedCourses, course.Id) {
			teachers = append(teachers, i)
		}
	}
	if len(teachers) == 0 {
		return nil, courseError(ErrIncompleteTeacherAssignment, course, "course %v (%v) has no assigned teacher and no teacher is qualified to teach it", course.Name, course.Code)
	}
	return teachers, nil
}

func (catalog *ValidatedCatalog) compatibleRooms(course Course) []int {
	rooms := make([]int, 0)
	for i, room := range catalog.rooms {
		if room.Type == course.Type && room.Capacity >= course.Enrollment {
			rooms = append(rooms, i)
		}
	}
	return rooms
}

func (catalog *ValidatedCatalog) longestDay() int {
	return lo.Max(lo.Map(catalog.slotsByDay, func(slots []int, _ int) int { return len(slots) }))
}

// TeachersByCourse returns the teachers able to teach the course
func (catalog *ValidatedCatalog) TeachersByCourse(courseId uint64) []Teacher {
	course, ok := catalog.courseIndex[courseId]
	if !ok {
		return nil
	}
	return lo.Map(catalog.qualified[course], func(teacher int, _ int) Teacher { return catalog.teachers[teacher] })
}

// RoomsByType returns the available rooms of the given type
func (catalog *ValidatedCatalog) RoomsByType(roomType RoomType) []Room {
	return lo.Filter(catalog.rooms, func(room Room, _ int) bool { return room.Type == roomType })
}

// SlotsByDay returns the time-slots of a day ordered by position
func (catalog *ValidatedCatalog) SlotsByDay(day Day) []TimeSlot {
	index := slices.Index(catalog.days, day)
	if index < 0 {
		return nil
	}
	return lo.Map(catalog.slotsByDay[index], func(slot int, _ int) TimeSlot { return catalog.timeSlots[slot] })
}

func (catalog *ValidatedCatalog) Days() []Day           { return slices.Clone(catalog.days) }
func (catalog *ValidatedCatalog) Teachers() []Teacher   { return slices.Clone(catalog.teachers) }
func (catalog *ValidatedCatalog) Courses() []Course     { return slices.Clone(catalog.courses) }
func (catalog *ValidatedCatalog) Rooms() []Room         { return slices.Clone(catalog.rooms) }
func (catalog *ValidatedCatalog) TimeSlots() []TimeSlot { return slices.Clone(catalog.timeSlots) }
func (catalog *ValidatedCatalog) Subgroups() []string   { return slices.Clone(catalog.subgroups) }

// Placeable reports whether sessions may be scheduled at the time-slot
func (catalog *ValidatedCatalog) Placeable(id uint64) bool {
	index, ok := catalog.slotIndex[id]
	return ok && catalog.placeable[index]
}

func (catalog *ValidatedCatalog) Teacher(id uint64) (Teacher, bool) {
	index, ok := catalog.teacherIndex[id]
	if !ok {
		return Teacher{}, false
	}
	return catalog.teachers[index], true
}

func (catalog *ValidatedCatalog) Course(id uint64) (Course, bool) {
	index, ok := catalog.courseIndex[id]
	if !ok {
		return Course{}, false
	}
	return catalog.courses[index], true
}

func (catalog *ValidatedCatalog) Room(id uint64) (Room, bool) {
	index, ok := catalog.roomIndex[id]
	if !ok {
		return Room{}, false
	}
	return catalog.rooms[index], true
}

func (catalog *ValidatedCatalog) TimeSlot(id uint64) (TimeSlot, bool) {
	index, ok := catalog.slotIndex[id]
	if !ok {
		return TimeSlot{}, false
	}
	return catalog.timeSlots[index], true
}

// Effective daily cap of a teacher under the given request
func (catalog *ValidatedCatalog) dailyCap(teacher int, request Request) uint64 {
	limit := catalog.teachers[teacher].MaxDailyHours
	if limit == 0 || limit > request.MaxHoursPerDay {
		return request.MaxHoursPerDay
	}
	return limit
}
