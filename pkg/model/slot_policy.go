package model

// SlotPolicy marks time-slots as unplaceable: those overlapping the lunch window and those whose length falls outside [MinMinutes, MaxMinutes]. Zero fields disable their rule
type SlotPolicy struct {
	LunchStart Clock  `json:"lunch_start" mapstructure:"lunch_start"`
	LunchEnd   Clock  `json:"lunch_end" mapstructure:"lunch_end"`
	MinMinutes uint64 `json:"min_slot_minutes" mapstructure:"min_slot_minutes"`
	MaxMinutes uint64 `json:"max_slot_minutes" mapstructure:"max_slot_minutes"`
}

func DefaultSlotPolicy() SlotPolicy {
	return SlotPolicy{
		LunchStart: lunchStart,
		LunchEnd:   lunchEnd,
		MinMinutes: 45,
		MaxMinutes: 55,
	}
}

// Placeable reports whether sessions may be scheduled at the slot
func (policy SlotPolicy) Placeable(slot TimeSlot) bool {
	if policy.LunchEnd > policy.LunchStart && slot.Start < policy.LunchEnd && slot.End > policy.LunchStart {
		return false
	}
	length := uint64(slot.End - slot.Start)
	if policy.MinMinutes > 0 && length < policy.MinMinutes {
		return false
	}
	if policy.MaxMinutes > 0 && length > policy.MaxMinutes {
		return false
	}
	return true
}

func (policy SlotPolicy) Validate() error {
	if policy.LunchEnd < policy.LunchStart {
		return newError(ErrInvalidRequest, "lunch window ends (%v) before it starts (%v)", policy.LunchEnd, policy.LunchStart)
	}
	if policy.MaxMinutes > 0 && policy.MinMinutes > policy.MaxMinutes {
		return newError(ErrInvalidRequest, "minimum slot length %d is above the maximum %d", policy.MinMinutes, policy.MaxMinutes)
	}
	return nil
}
