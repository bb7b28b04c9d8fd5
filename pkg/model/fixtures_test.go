package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func id(value uint64) *uint64 {
	return &value
}

func mustLoad(t *testing.T, catalog Catalog) *ValidatedCatalog {
	t.Helper()
	validated, err := Load(catalog)
	require.NoError(t, err)
	return validated
}

// Two teachers qualified for a three-session course, one room, five slots a day over the week
func twoTeachersCatalog() Catalog {
	return Catalog{
		Teachers: []Teacher{
			{Id: 1, Name: "Ada Lovelace", QualifiedCourses: []uint64{10}},
			{Id: 2, Name: "Alan Turing", QualifiedCourses: []uint64{10}},
		},
		Courses: []Course{
			{Id: 10, Name: "Algebra", Code: "MAT101", WeeklySessions: 3, Subgroup: "CS-1", Enrollment: 30},
		},
		Rooms: []Room{
			{Id: 1, Name: "A-101", Capacity: 40, Available: true},
		},
		TimeSlots: SeedTimeSlots(Weekdays(), 5),
	}
}

// A single teacher owning a two-session course on a one-day week
func oneDayCatalog() Catalog {
	return Catalog{
		Teachers: []Teacher{
			{Id: 1, Name: "Grace Hopper"},
		},
		Courses: []Course{
			{Id: 20, Name: "Compilers", Code: "CS301", WeeklySessions: 2, TeacherId: id(1), Subgroup: "CS-3", Enrollment: 25},
		},
		Rooms: []Room{
			{Id: 1, Name: "B-201", Capacity: 30, Available: true},
		},
		TimeSlots: SeedTimeSlots([]Day{Monday}, 4),
	}
}

// Three subgroups sharing teachers and rooms
func faculty() Catalog {
	return Catalog{
		Teachers: []Teacher{
			{Id: 1, Name: "Ada Lovelace", QualifiedCourses: []uint64{1, 4}},
			{Id: 2, Name: "Alan Turing", QualifiedCourses: []uint64{2, 5}, MaxDailyHours: 3},
			{Id: 3, Name: "Grace Hopper", QualifiedCourses: []uint64{3, 6, 7}},
			{Id: 4, Name: "Edsger Dijkstra", QualifiedCourses: []uint64{1, 2, 3}, Unavailable: []uint64{1, 2, 3}},
		},
		Courses: []Course{
			{Id: 1, Name: "Algebra", Code: "MAT101", WeeklySessions: 3, Subgroup: "CS-1", Enrollment: 30},
			{Id: 2, Name: "Programming", Code: "CS101", WeeklySessions: 3, Subgroup: "CS-1", Enrollment: 30},
			{Id: 3, Name: "Logic", Code: "MAT102", WeeklySessions: 2, Subgroup: "CS-2", Enrollment: 45},
			{Id: 4, Name: "Calculus", Code: "MAT201", WeeklySessions: 3, Subgroup: "CS-2", Enrollment: 45},
			{Id: 5, Name: "Databases", Code: "CS201", WeeklySessions: 2, Subgroup: "CS-3", Enrollment: 20},
			{Id: 6, Name: "Networks Lab", Code: "CS202L", WeeklySessions: 2, SessionLength: 2, Subgroup: "CS-3", Enrollment: 20, Type: RoomTypeLab},
			{Id: 7, Name: "Operating Systems", Code: "CS203", WeeklySessions: 2, Subgroup: "CS-3", Enrollment: 20},
		},
		Rooms: []Room{
			{Id: 1, Name: "A-101", Capacity: 50, Type: RoomTypeLecture, Available: true},
			{Id: 2, Name: "A-102", Capacity: 35, Type: RoomTypeLecture, Available: true},
			{Id: 3, Name: "Lab 1", Capacity: 25, Type: RoomTypeLab, Available: true},
			{Id: 4, Name: "A-103", Capacity: 80, Type: RoomTypeLecture, Available: false},
		},
		TimeSlots: SeedTimeSlots(Weekdays(), 6),
	}
}
