package model

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGrid(t *testing.T) {
	t.Run("Generated timetable", func(t *testing.T) {
		//** Arrange
		catalog := mustLoad(t, twoTeachersCatalog())
		timetable, err := NewBacktrackingTimetabler(DefaultOptions()).Build(context.Background(), catalog, Request{})
		require.NoError(t, err)

		//** Act
		grid, err := BuildGrid(catalog, timetable)

		//** Assert
		require.NoError(t, err)
		require.Len(t, grid.Subgroups, 1)
		assert.Equal(t, "CS-1", grid.Subgroups[0].Subgroup)
		require.Len(t, grid.Subgroups[0].Days, 5)
		for _, column := range grid.Subgroups[0].Days {
			assert.Len(t, column.Cells, 5)
		}
		cells := lo.FlatMap(grid.Subgroups[0].Days, func(column DayColumn, _ int) []Cell { return column.Cells })
		assert.Equal(t, 3, lo.CountBy(cells, func(cell Cell) bool { return !cell.Empty }))

		rows := grid.Rows()
		require.Len(t, rows, 3)
		for _, row := range rows {
			assert.ElementsMatch(t, GridColumns, lo.Keys(row))
			assert.Equal(t, "Algebra", row["subject"])
			assert.Equal(t, "MAT101", row["code"])
			assert.Equal(t, "lecture", row["type"])
			assert.Equal(t, "A-101", row["room"])
			assert.Equal(t, "Ada Lovelace", row["teacher"])
		}
		assert.Equal(t, "Monday", rows[0]["day"])
		assert.Equal(t, "08:00 - 08:50", rows[0]["time"])
		assert.Equal(t, "1", rows[0]["session"])
	})

	t.Run("Assignment outside of the catalog", func(t *testing.T) {
		//** Arrange
		catalog := mustLoad(t, twoTeachersCatalog())
		timetable, err := NewTimetable([]Assignment{{Course: 10, Teacher: 1, Room: 9, TimeSlot: 1, Subgroup: "CS-1"}}, Stats{})
		require.NoError(t, err)

		//** Act
		_, err = BuildGrid(catalog, timetable)

		//** Assert
		assert.ErrorIs(t, err, ErrInternalInconsistency)
	})

	t.Run("Wrong subgroup", func(t *testing.T) {
		//** Arrange
		catalog := mustLoad(t, twoTeachersCatalog())
		timetable, err := NewTimetable([]Assignment{{Course: 10, Teacher: 1, Room: 1, TimeSlot: 1, Subgroup: "CS-9"}}, Stats{})
		require.NoError(t, err)

		//** Act
		_, err = BuildGrid(catalog, timetable)

		//** Assert
		assert.ErrorIs(t, err, ErrInternalInconsistency)
	})
}
