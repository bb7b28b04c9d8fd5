package model

import (
	"cmp"
	"slices"
)

// SoftWeights are the penalties applied to otherwise valid placements. Higher scores rank first
type SoftWeights struct {
	LoadBalance int `json:"load_balance" mapstructure:"load_balance"` // Per hour the teacher already teaches that day
	BackToBack  int `json:"back_to_back" mapstructure:"back_to_back"` // Per subgroup session adjacent to the placement
	DaySpread   int `json:"day_spread" mapstructure:"day_spread"`     // Per session of the same course already on that day
	EarlySlot   int `json:"early_slot" mapstructure:"early_slot"`     // Per position within the day
}

func DefaultSoftWeights() SoftWeights {
	return SoftWeights{
		LoadBalance: 4,
		BackToBack:  3,
		DaySpread:   5,
		EarlySlot:   1,
	}
}

func score(partial *partialTimetable, weights SoftWeights, unit unit, placement candidate) int {
	catalog := partial.catalog
	day := catalog.slotDay[placement.slot]
	position := catalog.timeSlots[placement.slot].Ordinal

	adjacent := 0
	if previous := placement.slot - 1; previous >= 0 && catalog.slotDay[previous] == day && partial.subgroupAt(unit.subgroup, previous) != free {
		adjacent++
	}
	if next := placement.slot + int(unit.length); next < len(catalog.timeSlots) && catalog.slotDay[next] == day && partial.subgroupAt(unit.subgroup, next) != free {
		adjacent++
	}

	penalty := weights.LoadBalance*int(partial.hoursOn(placement.teacher, day)) +
		weights.BackToBack*adjacent +
		weights.DaySpread*int(partial.sessionsOn(unit.course, day)) +
		weights.EarlySlot*int(position)
	return -penalty
}

// Scores the candidates and orders them by score (desc), time-slot, room id and teacher id
func rank(partial *partialTimetable, weights SoftWeights, unit unit, candidates []candidate) []candidate {
	catalog := partial.catalog
	for i := range candidates {
		candidates[i].score = score(partial, weights, unit, candidates[i])
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Or(
			cmp.Compare(b.score, a.score),
			cmp.Compare(a.slot, b.slot),
			cmp.Compare(catalog.rooms[a.room].Id, catalog.rooms[b.room].Id),
			cmp.Compare(catalog.teachers[a.teacher].Id, catalog.teachers[b.teacher].Id),
		)
	})
	return candidates
}
