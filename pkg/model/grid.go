package model

import (
	"strconv"

	"github.com/samber/lo"
)

// Grid lays a timetable out per subgroup, per day and per time-slot. Every configured slot is present, free ones are flagged as empty
type Grid struct {
	Subgroups []SubgroupGrid `json:"subgroups"`
}

type SubgroupGrid struct {
	Subgroup string      `json:"subgroup"`
	Days     []DayColumn `json:"days"`
}

type DayColumn struct {
	Day   Day    `json:"day"`
	Cells []Cell `json:"cells"`
}

type Cell struct {
	TimeSlot uint64   `json:"timeslot"`
	Time     string   `json:"time"`
	Empty    bool     `json:"empty"`
	Course   uint64   `json:"course,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Code     string   `json:"code,omitempty"`
	Type     RoomType `json:"type,omitempty"`
	Room     string   `json:"room,omitempty"`
	Teacher  string   `json:"teacher,omitempty"`
	Session  uint64   `json:"session,omitempty"`
}

var GridColumns = []string{"subgroup", "day", "time", "subject", "code", "type", "room", "teacher", "session"}

func BuildGrid(catalog *ValidatedCatalog, timetable Timetable) (Grid, error) {
	cells := make(map[subgroupSlot]Cell, timetable.Len())
	for _, assignment := range timetable.assignments {
		course, courseOk := catalog.Course(assignment.Course)
		teacher, teacherOk := catalog.Teacher(assignment.Teacher)
		room, roomOk := catalog.Room(assignment.Room)
		slot, slotOk := catalog.TimeSlot(assignment.TimeSlot)
		if !courseOk || !teacherOk || !roomOk || !slotOk {
			return Grid{}, newError(ErrInternalInconsistency, "assignment of course %d references an entity outside of the catalog", assignment.Course)
		}
		if course.Subgroup != assignment.Subgroup {
			return Grid{}, newError(ErrInternalInconsistency, "course %d is not attended by subgroup %q", course.Id, assignment.Subgroup)
		}

		key := subgroupSlot{assignment.Subgroup, assignment.TimeSlot}
		if _, ok := cells[key]; ok {
			return Grid{}, newError(ErrInternalInconsistency, "subgroup %q has two sessions at time-slot %d", assignment.Subgroup, assignment.TimeSlot)
		}
		cells[key] = Cell{
			TimeSlot: slot.Id,
			Time:     slot.Label(),
			Course:   course.Id,
			Subject:  course.Name,
			Code:     course.Code,
			Type:     course.Type,
			Room:     room.Name,
			Teacher:  teacher.Name,
			Session:  assignment.Session + 1,
		}
	}

	grid := Grid{Subgroups: make([]SubgroupGrid, 0, len(catalog.subgroups))}
	for _, subgroup := range catalog.subgroups {
		subgroupGrid := SubgroupGrid{Subgroup: subgroup, Days: make([]DayColumn, 0, len(catalog.days))}
		for _, day := range catalog.days {
			column := DayColumn{Day: day}
			for _, slot := range catalog.SlotsByDay(day) {
				cell, ok := cells[subgroupSlot{subgroup, slot.Id}]
				if !ok {
					cell = Cell{TimeSlot: slot.Id, Time: slot.Label(), Empty: true}
				}
				column.Cells = append(column.Cells, cell)
			}
			subgroupGrid.Days = append(subgroupGrid.Days, column)
		}
		grid.Subgroups = append(grid.Subgroups, subgroupGrid)
	}
	return grid, nil
}

// Rows flattens the occupied cells in grid order, keyed by GridColumns
func (grid Grid) Rows() []map[string]string {
	rows := make([]map[string]string, 0)
	for _, subgroup := range grid.Subgroups {
		for _, column := range subgroup.Days {
			occupied := lo.Filter(column.Cells, func(cell Cell, _ int) bool { return !cell.Empty })
			for _, cell := range occupied {
				rows = append(rows, map[string]string{
					"subgroup": subgroup.Subgroup,
					"day":      column.Day.String(),
					"time":     cell.Time,
					"subject":  cell.Subject,
					"code":     cell.Code,
					"type":     string(cell.Type),
					"room":     cell.Room,
					"teacher":  cell.Teacher,
					"session":  strconv.FormatUint(cell.Session, 10),
				})
			}
		}
	}
	return rows
}
