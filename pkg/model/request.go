package model

import (
	"github.com/go-playground/validator/v10"
)

const (
	DefaultMaxHoursPerDay = 6
	MinMaxHoursPerDay     = 1
	MaxMaxHoursPerDay     = 12
)

// Request carries the parameters of a single generation run
type Request struct {
	MaxHoursPerDay uint64 `json:"max_hours_per_day" mapstructure:"max_hours_per_day" validate:"min=1,max=12"`
	Department     string `json:"department,omitempty" mapstructure:"department"`
	Semester       uint64 `json:"semester,omitempty" mapstructure:"semester"`
}

// WithDefaults fills the unset fields
func (request Request) WithDefaults() Request {
	if request.MaxHoursPerDay == 0 {
		request.MaxHoursPerDay = DefaultMaxHoursPerDay
	}
	return request
}

func (request Request) Validate() error {
	if err := validate.Struct(request); err != nil {
		return newError(ErrInvalidRequest, "max_hours_per_day must be between %d and %d: %v", MinMaxHoursPerDay, MaxMaxHoursPerDay, request.MaxHoursPerDay)
	}
	return nil
}

var validate = validator.New()
