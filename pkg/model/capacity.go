package model

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// shortage is a resource whose open slots cannot cover the sessions that depend on it
type shortage struct {
	resource string
	kinds    []ConstraintKind
	courses  []int // Dense course indices
	demand   uint64
	supply   uint64
}

// capacityShortages compares, before any search, the slots each resource can offer with the slots demanded of it:
// room-slots per room type, slots per subgroup and teaching hours per teacher over the courses only they can teach
func capacityShortages(catalog *ValidatedCatalog, request Request) []shortage {
	open := uint64(lo.CountBy(catalog.placeable, func(placeable bool) bool { return placeable }))
	shortages := make([]shortage, 0)

	if open == 0 && len(catalog.courses) > 0 {
		courses := lo.Range(len(catalog.courses))
		return append(shortages, shortage{
			resource: "open time-slots",
			kinds:    []ConstraintKind{ConstraintSlotExcluded},
			courses:  courses,
			demand:   sessionSlots(catalog, courses),
		})
	}

	//** Room types
	types := lo.Uniq(lo.Map(catalog.courses, func(course Course, _ int) RoomType { return course.Type }))
	slices.Sort(types)
	for _, roomType := range types {
		courses := coursesWhere(catalog, func(course Course) bool { return course.Type == roomType })
		rooms := uint64(lo.CountBy(catalog.rooms, func(room Room) bool { return room.Type == roomType }))
		if demand, supply := sessionSlots(catalog, courses), rooms*open; demand > supply {
			shortages = append(shortages, shortage{
				resource: fmt.Sprintf("%v rooms", roomType),
				kinds:    []ConstraintKind{ConstraintRoomClash, ConstraintRoomType},
				courses:  courses,
				demand:   demand,
				supply:   supply,
			})
		}
	}

	//** Subgroups
	for _, subgroup := range catalog.subgroups {
		courses := coursesWhere(catalog, func(course Course) bool { return course.Subgroup == subgroup })
		if demand := sessionSlots(catalog, courses); demand > open {
			kinds := []ConstraintKind{ConstraintSubgroupOverload}
			if demand <= uint64(len(catalog.timeSlots)) {
				kinds = append(kinds, ConstraintSlotExcluded)
			}
			shortages = append(shortages, shortage{
				resource: "subgroup " + subgroup,
				kinds:    kinds,
				courses:  courses,
				demand:   demand,
				supply:   open,
			})
		}
	}

	//** Teachers
	for teacher := range catalog.teachers {
		courses := lo.Filter(lo.Range(len(catalog.courses)), func(course int, _ int) bool {
			return len(catalog.qualified[course]) == 1 && catalog.qualified[course][0] == teacher
		})
		if len(courses) == 0 {
			continue
		}
		demand := sessionSlots(catalog, courses)
		if found, ok := teacherShortage(catalog, request, teacher, demand); ok {
			found.courses = courses
			shortages = append(shortages, found)
		}
	}
	return shortages
}

// Teaching hours a teacher can give over the week against the hours demanded by the courses only they can teach
func teacherShortage(catalog *ValidatedCatalog, request Request, teacher int, demand uint64) (shortage, bool) {
	limit := catalog.dailyCap(teacher, request)
	weekly := catalog.teachers[teacher].MaxWeeklyHours

	var available, capped, supply uint64
	for _, slots := range catalog.slotsByDay {
		var open, reachable uint64
		for _, slot := range slots {
			if !catalog.placeable[slot] {
				continue
			}
			open++
			if !catalog.unavailable[teacher][slot] {
				reachable++
			}
		}
		available += reachable
		capped += min(limit, open)
		supply += min(limit, reachable)
	}
	if weekly > 0 {
		supply = min(supply, weekly)
	}
	if demand <= supply {
		return shortage{}, false
	}

	var kinds []ConstraintKind
	switch {
	case weekly > 0 && weekly < demand:
		kinds = []ConstraintKind{ConstraintWeeklyHourCap}
	case available < demand:
		kinds = []ConstraintKind{ConstraintTeacherUnavailable}
	case capped < demand:
		kinds = []ConstraintKind{ConstraintDailyHourCap}
	default:
		kinds = []ConstraintKind{ConstraintDailyHourCap, ConstraintTeacherUnavailable}
	}
	return shortage{
		resource: catalog.teachers[teacher].Name,
		kinds:    kinds,
		demand:   demand,
		supply:   supply,
	}, true
}

func coursesWhere(catalog *ValidatedCatalog, predicate func(course Course) bool) []int {
	return lo.Filter(lo.Range(len(catalog.courses)), func(course int, _ int) bool { return predicate(catalog.courses[course]) })
}

func sessionSlots(catalog *ValidatedCatalog, courses []int) uint64 {
	return lo.SumBy(courses, func(course int) uint64 {
		return catalog.courses[course].WeeklySessions * catalog.courses[course].Slots()
	})
}

// capacityCheck fails with ErrInfeasible when some resource is over-subscribed. Each course is reported once, under the first shortage naming it
func capacityCheck(catalog *ValidatedCatalog, request Request, maxBlockingUnits int) error {
	shortages := capacityShortages(catalog, request)
	if len(shortages) == 0 {
		return nil
	}

	tracker := newConflictTracker(catalog, request, nil, 0)
	type blame struct {
		course   int
		shortage shortage
	}
	blames := lo.UniqBy(lo.FlatMap(shortages, func(found shortage, _ int) []blame {
		return lo.Map(found.courses, func(course int, _ int) blame { return blame{course: course, shortage: found} })
	}), func(item blame) int { return item.course })
	if len(blames) > maxBlockingUnits {
		blames = blames[:maxBlockingUnits]
	}

	report := &ConflictReport{
		BlockingUnits: lo.Map(blames, func(item blame, _ int) BlockingUnit {
			course := catalog.courses[item.course]
			blocked := unit{
				course:   item.course,
				session:  course.WeeklySessions - 1,
				length:   course.Slots(),
				subgroup: catalog.subgroupIndex[course.Subgroup],
			}
			teachers := lo.Map(catalog.qualified[item.course], func(teacher int, _ int) Teacher { return catalog.teachers[teacher] })
			missing := int(item.shortage.demand - item.shortage.supply)

			return BlockingUnit{
				Course:      course.Id,
				Code:        course.Code,
				Name:        course.Name,
				Session:     blocked.session,
				Subgroup:    course.Subgroup,
				Teachers:    lo.Map(teachers, func(teacher Teacher, _ int) string { return teacher.Name }),
				Candidates:  int(item.shortage.supply),
				Constraints: []ConstraintCount{{Kind: item.shortage.kinds[0], Rejected: missing}},
				Blocking:    slices.Clone(item.shortage.kinds),
				Message: fmt.Sprintf("%v (%v: %d slot(s) demanded, %d available)",
					tracker.message(blocked, course, teachers, item.shortage.kinds),
					item.shortage.resource, item.shortage.demand, item.shortage.supply,
				),
			}
		}),
		Trace: make([]BacktrackPoint, 0),
	}

	err := newError(ErrInfeasible, "no timetable satisfies every hard constraint")
	first := report.BlockingUnits[0]
	err.Message = first.Message
	err.Course = &first.Course
	err.Report = report
	err.Suggestions = suggestions(report, request)
	return err
}
