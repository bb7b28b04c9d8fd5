package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	scenarios := map[string]Day{
		"Monday":    Monday,
		"monday":    Monday,
		"TUE":       Tuesday,
		" Friday ":  Friday,
		"6":         Sunday,
		"0":         Monday,
		"wednesday": Wednesday,
	}
	for value, expected := range scenarios {
		day, err := ParseDay(value)
		assert.NoError(t, err, value)
		assert.Equal(t, expected, day, value)
	}

	for _, value := range []string{"", "Mo", "7", "Someday"} {
		_, err := ParseDay(value)
		assert.Error(t, err, value)
	}
}

func TestParseClock(t *testing.T) {
	clock, err := ParseClock("08:50")
	assert.NoError(t, err)
	assert.Equal(t, NewClock(8, 50), clock)
	assert.Equal(t, "08:50", clock.String())

	clock, err = ParseClock("13:00:00")
	assert.NoError(t, err)
	assert.Equal(t, NewClock(13, 0), clock)

	for _, value := range []string{"", "8", "24:00", "10:60", "aa:bb"} {
		_, err := ParseClock(value)
		assert.Error(t, err, value)
	}
}

func TestParseRoomType(t *testing.T) {
	for value, expected := range map[string]RoomType{"": RoomTypeLecture, "Theatre": RoomTypeLecture, "lecture": RoomTypeLecture, "Lab": RoomTypeLab, "laboratory": RoomTypeLab} {
		roomType, err := ParseRoomType(value)
		assert.NoError(t, err)
		assert.Equal(t, expected, roomType)
	}
	_, err := ParseRoomType("gym")
	assert.Error(t, err)
}

func TestDecodeCatalog(t *testing.T) {
	//** Arrange
	records := map[string]any{
		"teachers": []any{
			map[string]any{"id": 1, "first_name": "Grace", "last_name": "Hopper", "designation": "Professor", "max_daily_hours": 4, "qualified_courses": []any{10}},
			map[string]any{"id": 2, "name": "Alan Turing", "unavailable": []any{2}},
		},
		"courses": []any{
			map[string]any{"id": 10, "name": "Compilers", "code": "CS301", "number_of_lectures": 2, "teacher": 1, "subgroup": "CS-3", "enrolled": 25, "type": "Lab", "session_length": 2},
			map[string]any{"id": 11, "name": "Logic", "weeklySessions": 3, "subgroup": "CS-3", "enrollment": 25},
		},
		"rooms": []any{
			map[string]any{"id": 1, "name": "Lab 1", "capacity": "30", "type": "Lab"},
			map[string]any{"id": 2, "name": "Theatre 1", "capacity": 90, "type": "Theatre", "available": false},
		},
		"time_slots": []any{
			map[string]any{"id": 1, "day": "Mon", "slot": "08:00 - 08:50"},
			map[string]any{"id": 2, "day": "monday", "start_time": "08:50", "end_time": "09:40", "ordinal": 1},
		},
	}

	//** Act
	catalog, err := DecodeCatalog(records)

	//** Assert
	require.NoError(t, err)
	require.Len(t, catalog.Teachers, 2)
	assert.Equal(t, "Grace Hopper", catalog.Teachers[0].Name)
	assert.Equal(t, uint64(4), catalog.Teachers[0].MaxDailyHours)
	assert.Equal(t, []uint64{10}, catalog.Teachers[0].QualifiedCourses)
	assert.Equal(t, []uint64{2}, catalog.Teachers[1].Unavailable)

	require.Len(t, catalog.Courses, 2)
	compilers := catalog.Courses[0]
	assert.Equal(t, uint64(2), compilers.WeeklySessions)
	require.NotNil(t, compilers.TeacherId)
	assert.Equal(t, uint64(1), *compilers.TeacherId)
	assert.Equal(t, uint64(25), compilers.Enrollment)
	assert.Equal(t, RoomTypeLab, compilers.Type)
	assert.Equal(t, uint64(2), compilers.Slots())
	assert.Nil(t, catalog.Courses[1].TeacherId)
	assert.Equal(t, uint64(3), catalog.Courses[1].WeeklySessions)

	require.Len(t, catalog.Rooms, 2)
	assert.True(t, catalog.Rooms[0].Available)
	assert.Equal(t, uint64(30), catalog.Rooms[0].Capacity)
	assert.False(t, catalog.Rooms[1].Available)
	assert.Equal(t, RoomTypeLecture, catalog.Rooms[1].Type)

	require.Len(t, catalog.TimeSlots, 2)
	assert.Equal(t, TimeSlot{Id: 1, Day: Monday, Start: NewClock(8, 0), End: NewClock(8, 50)}, catalog.TimeSlots[0])
	assert.Equal(t, TimeSlot{Id: 2, Day: Monday, Start: NewClock(8, 50), End: NewClock(9, 40), Ordinal: 1}, catalog.TimeSlots[1])
}

func TestDecodeCatalogInvalidValues(t *testing.T) {
	_, err := DecodeCatalog(map[string]any{
		"timeslots": []any{map[string]any{"id": 1, "day": "Funday", "start": "08:00", "end": "08:50"}},
	})
	assert.Error(t, err)
}

func TestCatalogFromJson(t *testing.T) {
	//** Arrange
	file := filepath.Join(t.TempDir(), "catalog.json")
	bytes, err := json.Marshal(map[string]any{
		"teachers":  []any{map[string]any{"id": 1, "name": "Ada Lovelace", "qualified_courses": []any{1}}},
		"courses":   []any{map[string]any{"id": 1, "name": "Algebra", "weekly_sessions": 2, "subgroup": "CS-1", "enrollment": 20}},
		"rooms":     []any{map[string]any{"id": 1, "name": "A-101", "capacity": 30}},
		"timeslots": []any{map[string]any{"id": 1, "day": "Tuesday", "start": "10:00", "end": "10:50"}},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, bytes, 0o644))

	//** Act
	catalog, err := CatalogFromJson(file)

	//** Assert
	require.NoError(t, err)
	assert.Len(t, catalog.Courses, 1)
	assert.Equal(t, Tuesday, catalog.TimeSlots[0].Day)
	assert.True(t, catalog.Rooms[0].Available)
}

func TestScoped(t *testing.T) {
	//** Arrange
	catalog := Catalog{Courses: []Course{
		{Id: 1, Department: "CS", Semester: 1},
		{Id: 2, Department: "CS", Semester: 2},
		{Id: 3, Department: "Math", Semester: 1},
	}}

	//** Act & Assert
	assert.Len(t, catalog.Scoped("", 0).Courses, 3)
	assert.Len(t, catalog.Scoped("cs", 0).Courses, 2)
	assert.Len(t, catalog.Scoped("", 1).Courses, 2)
	scoped := catalog.Scoped("CS", 2)
	assert.Len(t, scoped.Courses, 1)
	assert.Equal(t, uint64(2), scoped.Courses[0].Id)
	assert.Len(t, catalog.Courses, 3)
}

func TestSeedTimeSlots(t *testing.T) {
	slots := SeedTimeSlots([]Day{Monday, Tuesday}, 8)

	assert.Len(t, slots, 16)
	assert.Equal(t, "08:00 - 08:50", slots[0].Label())
	assert.Equal(t, "12:10 - 13:00", slots[5].Label())
	// Lunch break
	assert.Equal(t, "13:50 - 14:40", slots[6].Label())
	assert.Equal(t, uint64(9), slots[8].Id)
	assert.Equal(t, Tuesday, slots[8].Day)
}
