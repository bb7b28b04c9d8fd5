package model

import (
	"fmt"
	"math/rand/v2"
)

var (
	lunchStart = NewClock(13, 0)
	lunchEnd   = NewClock(13, 50)
)

const slotLength = 50

// SeedTimeSlots lays out perDay 50-minute slots from 08:00 on each day, skipping the 13:00-13:50 lunch break. Ids start at 1
func SeedTimeSlots(days []Day, perDay int) []TimeSlot {
	slots := make([]TimeSlot, 0, len(days)*perDay)
	id := uint64(1)
	for _, day := range days {
		start := NewClock(8, 0)
		for position := 0; position < perDay; position++ {
			if start >= lunchStart && start < lunchEnd {
				start = lunchEnd
			}
			slots = append(slots, TimeSlot{
				Id:      id,
				Day:     day,
				Start:   start,
				End:     start + slotLength,
				Ordinal: uint64(position),
			})
			start += slotLength
			id++
		}
	}
	return slots
}

func Weekdays() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday}
}

// CatalogShape sizes a synthetic catalog
type CatalogShape struct {
	Days              int
	SlotsPerDay       int
	Subgroups         int
	CoursesPerGroup   int
	SessionsPerCourse int
	Teachers          int
	Rooms             int
	LabRooms          int
	LabShare          float64 // Probability of a course being a lab
}

// GenerateCatalog builds a random catalog of the given shape. The same seed always yields the same catalog
func GenerateCatalog(shape CatalogShape, seed uint64) Catalog {
	random := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	days := Weekdays()
	if shape.Days < len(days) {
		days = days[:max(shape.Days, 1)]
	}

	catalog := Catalog{
		Teachers:  make([]Teacher, shape.Teachers),
		Courses:   make([]Course, 0, shape.Subgroups*shape.CoursesPerGroup),
		Rooms:     make([]Room, 0, shape.Rooms+shape.LabRooms),
		TimeSlots: SeedTimeSlots(days, shape.SlotsPerDay),
	}

	for i := range catalog.Teachers {
		catalog.Teachers[i] = Teacher{
			Id:               uint64(i + 1),
			Name:             fmt.Sprintf("Teacher %d", i+1),
			QualifiedCourses: make([]uint64, 0),
		}
	}

	for i := range shape.Rooms {
		catalog.Rooms = append(catalog.Rooms, Room{Id: uint64(i + 1), Name: fmt.Sprintf("Room %d", i+1), Capacity: 60, Type: RoomTypeLecture, Available: true})
	}
	for i := range shape.LabRooms {
		catalog.Rooms = append(catalog.Rooms, Room{Id: uint64(shape.Rooms + i + 1), Name: fmt.Sprintf("Lab %d", i+1), Capacity: 60, Type: RoomTypeLab, Available: true})
	}

	id := uint64(1)
	for group := range shape.Subgroups {
		for range shape.CoursesPerGroup {
			course := Course{
				Id:             id,
				Name:           fmt.Sprintf("Course %d", id),
				Code:           fmt.Sprintf("C%03d", id),
				WeeklySessions: uint64(max(shape.SessionsPerCourse, 1)),
				Subgroup:       fmt.Sprintf("G%d", group+1),
				Enrollment:     uint64(20 + random.IntN(30)),
				Type:           RoomTypeLecture,
			}
			if shape.LabRooms > 0 && random.Float64() < shape.LabShare {
				course.Type = RoomTypeLab
				course.SessionLength = 2
			}

			// One or two qualified teachers per course
			if shape.Teachers > 0 {
				first := random.IntN(shape.Teachers)
				catalog.Teachers[first].QualifiedCourses = append(catalog.Teachers[first].QualifiedCourses, id)
				if second := random.IntN(shape.Teachers); second != first && random.IntN(2) == 0 {
					catalog.Teachers[second].QualifiedCourses = append(catalog.Teachers[second].QualifiedCourses, id)
				}
			}

			catalog.Courses = append(catalog.Courses, course)
			id++
		}
	}

	return catalog
}
