package model

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

type Day uint8

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (day Day) String() string {
	if int(day) < len(dayNames) {
		return dayNames[day]
	}
	return fmt.Sprintf("Day(%d)", uint8(day))
}

func (day Day) MarshalText() ([]byte, error) {
	return []byte(day.String()), nil
}

func (day *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*day = parsed
	return nil
}

// ParseDay accepts full or three-letter english day names (case-insensitive) and numeric
// indices where 0 stands for Monday.
func ParseDay(value string) (Day, error) {
	value = strings.TrimSpace(value)
	if index, err := strconv.ParseUint(value, 10, 8); err == nil {
		if index >= uint64(len(dayNames)) {
			return 0, fmt.Errorf("day index out of range: %v", index)
		}
		return Day(index), nil
	}
	for i, name := range dayNames {
		if strings.EqualFold(name, value) || (len(value) == 3 && strings.EqualFold(name[:3], value)) {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day: %q", value)
}

// Clock is a time of day expressed in minutes since midnight
type Clock uint16

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

func (clock Clock) String() string {
	return fmt.Sprintf("%02d:%02d", clock/60, clock%60)
}

func (clock Clock) MarshalText() ([]byte, error) {
	return []byte(clock.String()), nil
}

func (clock *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*clock = parsed
	return nil
}

// ParseClock accepts "HH:MM" and "HH:MM:SS" (seconds are dropped)
func ParseClock(value string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock: %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in clock %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in clock %q", value)
	}
	return NewClock(hour, minute), nil
}

type RoomType string

const (
	RoomTypeLecture RoomType = "lecture"
	RoomTypeLab     RoomType = "lab"
)

func ParseRoomType(value string) (RoomType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "lecture", "theatre", "theater", "classroom":
		return RoomTypeLecture, nil
	case "lab", "laboratory":
		return RoomTypeLab, nil
	}
	return "", fmt.Errorf("unknown room type: %q", value)
}

type Teacher struct {
	Id               uint64
	Name             string `validate:"required"`
	Designation      string
	MaxDailyHours    uint64 `validate:"lte=24"`
	MaxWeeklyHours   uint64
	QualifiedCourses []uint64
	Unavailable      []uint64 // Time-slots the teacher cannot teach at
}

type Course struct {
	Id             uint64
	Name           string `validate:"required"`
	Code           string
	Semester       uint64
	Department     string
	WeeklySessions uint64 `validate:"min=1"`
	SessionLength  uint64 // Consecutive slots occupied by a single session, zero stands for one
	TeacherId      *uint64
	Subgroup       string `validate:"required"`
	Enrollment     uint64
	Type           RoomType `validate:"omitempty,oneof=lecture lab"`
}

// Slots returns the number of consecutive time-slots taken by each session of the course
func (course Course) Slots() uint64 {
	return max(course.SessionLength, 1)
}

type Room struct {
	Id        uint64
	Name      string `validate:"required"`
	Capacity  uint64
	Type      RoomType `validate:"omitempty,oneof=lecture lab"`
	Available bool
}

type TimeSlot struct {
	Id      uint64
	Day     Day   `validate:"lte=6"`
	Start   Clock `validate:"lt=1440"`
	End     Clock `validate:"lte=1440,gtfield=Start"`
	Ordinal uint64
}

func (slot TimeSlot) Label() string {
	return fmt.Sprintf("%v - %v", slot.Start, slot.End)
}

// Catalog is a read-only snapshot of every entity the timetabler works with
type Catalog struct {
	Teachers  []Teacher
	Courses   []Course
	Rooms     []Room
	TimeSlots []TimeSlot
}

// Scoped returns a copy of the catalog holding only the courses that belong to the given department and semester. Empty department and zero semester match everything
func (catalog Catalog) Scoped(department string, semester uint64) Catalog {
	scoped := catalog
	scoped.Courses = lo.Filter(catalog.Courses, func(course Course, _ int) bool {
		return (department == "" || strings.EqualFold(course.Department, department)) &&
			(semester == 0 || course.Semester == semester)
	})
	return scoped
}

func CatalogFromJson(file string) (Catalog, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Catalog{}, err
	}
	var catalogJson map[string]any
	if err := json.Unmarshal(bytes, &catalogJson); err != nil {
		return Catalog{}, err
	}
	return DecodeCatalog(catalogJson)
}

// DecodeCatalog converts loosely-typed records (as produced by the CRUD layer) into a typed catalog
func DecodeCatalog(records map[string]any) (Catalog, error) {
	normalizeRecords(records)

	var catalog Catalog
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			dayHook,
			clockHook,
			roomTypeHook,
		),
		WeaklyTypedInput: true,
		MatchName: func(mapKey, fieldName string) bool {
			return strings.EqualFold(canonicalKey(mapKey), fieldName)
		},
		Result: &catalog,
	})
	if err != nil {
		return Catalog{}, err
	}
	if err := decoder.Decode(records); err != nil {
		return Catalog{}, fmt.Errorf("cannot decode catalog: %w", err)
	}
	return catalog, nil
}

func canonicalKey(key string) string {
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
}

// Applies the aliases and defaults used by the CRUD layer's records
func normalizeRecords(records map[string]any) {
	for key, value := range records {
		list, ok := value.([]any)
		if !ok {
			continue
		}
		entries := lo.FilterMap(list, func(entry any, _ int) (map[string]any, bool) {
			record, ok := entry.(map[string]any)
			return record, ok
		})

		switch strings.ToLower(canonicalKey(key)) {
		case "teachers":
			for _, record := range entries {
				if _, ok := lookup(record, "name"); ok {
					continue
				}
				names := lo.FilterMap([]string{"firstname", "lastname"}, func(key string, _ int) (string, bool) {
					value, ok := lookup(record, key)
					return fmt.Sprint(value), ok
				})
				record["name"] = strings.Join(names, " ")
			}
		case "courses":
			for _, record := range entries {
				alias(record, "teacher", "teacher_id")
				alias(record, "numberoflectures", "weekly_sessions")
				alias(record, "sessions", "weekly_sessions")
				alias(record, "enrolled", "enrollment")
			}
		case "rooms":
			for _, record := range entries {
				if _, ok := lookup(record, "available"); !ok {
					record["available"] = true
				}
			}
		case "timeslots":
			for _, record := range entries {
				alias(record, "starttime", "start")
				alias(record, "endtime", "end")
				slot, ok := lookup(record, "slot")
				if !ok {
					continue
				}
				bounds := strings.Split(fmt.Sprint(slot), "-")
				if len(bounds) == 2 {
					record["start"] = strings.TrimSpace(bounds[0])
					record["end"] = strings.TrimSpace(bounds[1])
				}
				delete(record, "slot")
			}
		}
	}
}

// Looks a key up ignoring case and separators
func lookup(record map[string]any, key string) (any, bool) {
	for candidate, value := range record {
		if strings.EqualFold(canonicalKey(candidate), key) && value != nil {
			return value, true
		}
	}
	return nil, false
}

// Copies an aliased value into its canonical key, unless the canonical key is already present
func alias(record map[string]any, from, to string) {
	if _, ok := lookup(record, canonicalKey(to)); ok {
		return
	}
	for candidate, value := range record {
		if strings.EqualFold(canonicalKey(candidate), from) {
			delete(record, candidate)
			if value != nil {
				record[to] = value
			}
			return
		}
	}
}

var (
	dayType      = reflect.TypeOf(Day(0))
	clockType    = reflect.TypeOf(Clock(0))
	roomTypeType = reflect.TypeOf(RoomType(""))
)

func dayHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != dayType || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseDay(data.(string))
}

func clockHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != clockType || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseClock(data.(string))
}

func roomTypeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != roomTypeType || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseRoomType(data.(string))
}
