package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Valid catalog", func(t *testing.T) {
		//** Arrange
		catalog := faculty()

		//** Act
		validated, err := Load(catalog)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, Weekdays(), validated.Days())
		assert.Equal(t, []string{"CS-1", "CS-2", "CS-3"}, validated.Subgroups())
		assert.Len(t, validated.SlotsByDay(Wednesday), 6)
		assert.Empty(t, validated.SlotsByDay(Sunday))

		// Unavailable rooms are excluded
		assert.Len(t, validated.Rooms(), 3)
		_, ok := validated.Room(4)
		assert.False(t, ok)
		assert.Len(t, validated.RoomsByType(RoomTypeLab), 1)
		assert.Len(t, validated.RoomsByType(RoomTypeLecture), 2)

		teachers := validated.TeachersByCourse(1)
		require.Len(t, teachers, 2)
		assert.Equal(t, "Ada Lovelace", teachers[0].Name)
		assert.Equal(t, "Edsger Dijkstra", teachers[1].Name)

		course, ok := validated.Course(4)
		assert.True(t, ok)
		assert.Equal(t, RoomTypeLecture, course.Type)
	})

	t.Run("Time-slots are ordered and re-densified per day", func(t *testing.T) {
		//** Arrange
		catalog := twoTeachersCatalog()
		catalog.TimeSlots = []TimeSlot{
			{Id: 7, Day: Tuesday, Start: NewClock(9, 0), End: NewClock(10, 0), Ordinal: 9},
			{Id: 3, Day: Monday, Start: NewClock(10, 0), End: NewClock(11, 0), Ordinal: 4},
			{Id: 5, Day: Monday, Start: NewClock(8, 0), End: NewClock(9, 0), Ordinal: 1},
			{Id: 1, Day: Tuesday, Start: NewClock(8, 0), End: NewClock(9, 0), Ordinal: 2},
		}

		//** Act
		validated := mustLoad(t, catalog)

		//** Assert
		slots := validated.TimeSlots()
		assert.Equal(t, []uint64{5, 3, 1, 7}, []uint64{slots[0].Id, slots[1].Id, slots[2].Id, slots[3].Id})
		assert.Equal(t, []uint64{0, 1, 0, 1}, []uint64{slots[0].Ordinal, slots[1].Ordinal, slots[2].Ordinal, slots[3].Ordinal})
		assert.Equal(t, []Day{Monday, Tuesday}, validated.Days())
	})

	t.Run("Failures", func(t *testing.T) {
		scenarios := []struct {
			name     string
			mutate   func(catalog *Catalog)
			expected error
			course   *uint64
		}{
			{
				name:     "No time-slots",
				mutate:   func(catalog *Catalog) { catalog.TimeSlots = nil },
				expected: ErrEmptySlotSet,
			},
			{
				name:     "Duplicate course",
				mutate:   func(catalog *Catalog) { catalog.Courses = append(catalog.Courses, catalog.Courses[0]) },
				expected: ErrInvalidCatalog,
			},
			{
				name:     "Duplicate room",
				mutate:   func(catalog *Catalog) { catalog.Rooms = append(catalog.Rooms, Room{Id: 4, Name: "Copy"}) },
				expected: ErrInvalidCatalog,
			},
			{
				name:     "Missing name",
				mutate:   func(catalog *Catalog) { catalog.Teachers[0].Name = "" },
				expected: ErrInvalidCatalog,
			},
			{
				name:     "Zero weekly sessions",
				mutate:   func(catalog *Catalog) { catalog.Courses[0].WeeklySessions = 0 },
				expected: ErrInvalidCatalog,
			},
			{
				name:     "Time-slot ending before it starts",
				mutate:   func(catalog *Catalog) { catalog.TimeSlots[0].End = catalog.TimeSlots[0].Start - 10 },
				expected: ErrInvalidCatalog,
			},
			{
				name: "Overlapping time-slots",
				mutate: func(catalog *Catalog) {
					catalog.TimeSlots[1].Start = catalog.TimeSlots[0].Start + 10
					catalog.TimeSlots[1].End = catalog.TimeSlots[0].End + 10
				},
				expected: ErrInvalidCatalog,
			},
			{
				name:     "Unknown unavailable time-slot",
				mutate:   func(catalog *Catalog) { catalog.Teachers[0].Unavailable = []uint64{999} },
				expected: ErrInvalidCatalog,
			},
			{
				name: "Unqualified course",
				mutate: func(catalog *Catalog) {
					catalog.Teachers[2].QualifiedCourses = []uint64{3, 6}
				},
				expected: ErrIncompleteTeacherAssignment,
				course:   id(7),
			},
			{
				name:     "Unknown assigned teacher",
				mutate:   func(catalog *Catalog) { catalog.Courses[4].TeacherId = id(99) },
				expected: ErrIncompleteTeacherAssignment,
				course:   id(5),
			},
			{
				name:     "Room too small",
				mutate:   func(catalog *Catalog) { catalog.Courses[2].Enrollment = 60 },
				expected: ErrNoAvailableRooms,
				course:   id(3),
			},
			{
				name:     "Lab without lab room",
				mutate:   func(catalog *Catalog) { catalog.Rooms[2].Available = false },
				expected: ErrNoAvailableRooms,
				course:   id(6),
			},
			{
				name:     "Session longer than any day",
				mutate:   func(catalog *Catalog) { catalog.Courses[5].SessionLength = 7 },
				expected: ErrInvalidCatalog,
				course:   id(6),
			},
		}

		for _, scenario := range scenarios {
			t.Run(scenario.name, func(t *testing.T) {
				//** Arrange
				catalog := faculty()
				scenario.mutate(&catalog)

				//** Act
				_, err := Load(catalog)

				//** Assert
				require.Error(t, err)
				assert.ErrorIs(t, err, scenario.expected)

				var typed *Error
				require.True(t, errors.As(err, &typed))
				assert.Equal(t, KindDomain, typed.Kind)
				if scenario.course != nil {
					require.NotNil(t, typed.Course)
					assert.Equal(t, *scenario.course, *typed.Course)
				}
			})
		}
	})

	t.Run("Courses are checked in ascending id order", func(t *testing.T) {
		//** Arrange
		catalog := faculty()
		catalog.Courses[6].Enrollment = 100 // Course 7
		catalog.Courses[3].Enrollment = 100 // Course 4

		//** Act
		_, err := Load(catalog)

		//** Assert
		var typed *Error
		require.True(t, errors.As(err, &typed))
		assert.Equal(t, uint64(4), *typed.Course)
	})
}

func TestRequest(t *testing.T) {
	assert.Equal(t, uint64(DefaultMaxHoursPerDay), Request{}.WithDefaults().MaxHoursPerDay)
	assert.Equal(t, uint64(3), Request{MaxHoursPerDay: 3}.WithDefaults().MaxHoursPerDay)

	assert.NoError(t, Request{MaxHoursPerDay: 1}.Validate())
	assert.NoError(t, Request{MaxHoursPerDay: 12}.Validate())
	assert.ErrorIs(t, Request{MaxHoursPerDay: 13}.Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, Request{}.Validate(), ErrInvalidRequest)
}
