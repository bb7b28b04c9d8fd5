package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"errors"
	"path/filepath"
	"testing"

	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/limaJavier/coursetable/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One teacher owning a two-session course on a single day of four slots
func writeCatalog(t *testing.T) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "catalog.json")
	bytes, err := json.Marshal(map[string]any{
		"teachers": []any{map[string]any{"id": 1, "name": "Grace Hopper"}},
		"courses": []any{map[string]any{
			"id": 20, "name": "Compilers", "code": "CS301", "weekly_sessions": 2,
			"teacher_id": 1, "subgroup": "CS-3", "enrollment": 25,
		}},
		"rooms": []any{map[string]any{"id": 1, "name": "B-201", "capacity": 30}},
		"timeslots": []any{
			map[string]any{"id": 1, "day": "Monday", "start": "08:00", "end": "08:50"},
			map[string]any{"id": 2, "day": "Monday", "start": "08:50", "end": "09:40"},
			map[string]any{"id": 3, "day": "Monday", "start": "09:40", "end": "10:30"},
			map[string]any{"id": 4, "day": "Monday", "start": "10:30", "end": "11:20"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, bytes, 0o644))
	return file
}

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestGenerateTable(t *testing.T) {
	//** Arrange
	catalog := writeCatalog(t)

	//** Act
	code, stdout, _ := run("generate", "--file", catalog, "--log-level", "error")

	//** Assert
	assert.Equal(t, exitSolved, code)
	assert.Contains(t, stdout, "SUBGROUP")
	assert.Contains(t, stdout, "Compilers")
	assert.Contains(t, stdout, "Grace Hopper")
}

func TestGenerateInfeasible(t *testing.T) {
	//** Arrange
	catalog := writeCatalog(t)

	//** Act
	code, stdout, _ := run("generate", "--file", catalog, "--max-hours", "1", "--log-level", "error")

	//** Assert
	assert.Equal(t, exitInfeasible, code)
	var diagnostic model.Diagnostic
	require.NoError(t, json.Unmarshal([]byte(stdout), &diagnostic))
	assert.Equal(t, "INFEASIBLE", diagnostic.ReasonCode)
	require.NotEmpty(t, diagnostic.BlockingUnits)
	assert.Contains(t, diagnostic.BlockingUnits[0].Blocking, model.ConstraintDailyHourCap)
	assert.Contains(t, diagnostic.Message, "Grace Hopper")
}

func TestGenerateTimedOut(t *testing.T) {
	//** Arrange
	catalog := writeCatalog(t)

	//** Act
	code, stdout, _ := run("generate", "--file", catalog, "--max-steps", "1", "--log-level", "error")

	//** Assert
	assert.Equal(t, exitTimedOut, code)
	assert.Contains(t, stdout, "GENERATION_TIMED_OUT")
}

func TestGenerateInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing file flag", args: []string{"generate"}},
		{name: "unknown format", args: []string{"generate", "--file", "catalog.json", "--format", "xml"}},
		{name: "absent catalog", args: []string{"generate", "--file", filepath.Join(os.TempDir(), "absent-catalog.json")}},
		{name: "cap out of range", args: []string{"generate", "--max-hours", "13", "--log-level", "error"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			//** Arrange
			args := test.args
			if test.name == "cap out of range" {
				args = append(args, "--file", writeCatalog(t))
			}

			//** Act
			code, _, _ := run(args...)

			//** Assert
			assert.Equal(t, exitInvalid, code)
		})
	}
}

func TestGenerateAndVerify(t *testing.T) {
	//** Arrange
	catalog := writeCatalog(t)
	out := filepath.Join(t.TempDir(), "timetable.json")
	code, _, _ := run("generate", "--file", catalog, "--format", "json", "--out", out, "--log-level", "error")
	require.Equal(t, exitSolved, code)

	//** Act
	verified, stdout, _ := run("verify", "--file", catalog, "--timetable", out, "--log-level", "error")

	//** Assert
	assert.Equal(t, exitSolved, verified)
	assert.Contains(t, stdout, "satisfies every hard constraint")
}

func TestVerifyRejectsTamperedTimetable(t *testing.T) {
	//** Arrange
	catalog := writeCatalog(t)
	out := filepath.Join(t.TempDir(), "timetable.json")
	tampered := `{"request": {"max_hours_per_day": 6}, "timetable": {"assignments": [
		{"course": 20, "session": 0, "part": 0, "teacher": 1, "room": 1, "timeslot": 1, "subgroup": "CS-3"},
		{"course": 20, "session": 1, "part": 0, "teacher": 1, "room": 1, "timeslot": 1, "subgroup": "CS-3"}
	]}}`
	require.NoError(t, os.WriteFile(out, []byte(tampered), 0o644))

	//** Act
	code, stdout, _ := run("verify", "--file", catalog, "--timetable", out, "--log-level", "error")

	//** Assert
	assert.Equal(t, exitUnverified, code)
	assert.Contains(t, stdout, string(model.ConstraintTeacherClash))
}

type failingCloser struct{ bytes.Buffer }

func (*failingCloser) Close() error { return errors.New("disk full") }

func TestEmitReportsCloseFailure(t *testing.T) {
	//** Arrange
	output := &failingCloser{}
	result := scheduler.Result{Rows: []map[string]string{{"subgroup": "CS-3"}}}

	//** Act
	err := emit(output, result)

	//** Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot close output")
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, output.String(), "CS-3")
}

func TestGenerateToUnwritablePath(t *testing.T) {
	//** Arrange
	catalog := writeCatalog(t)
	out := filepath.Join(t.TempDir(), "missing", "timetable.json")

	//** Act
	code, _, _ := run("generate", "--file", catalog, "--out", out, "--log-level", "error")

	//** Assert
	assert.Equal(t, exitInvalid, code)
}

func TestVersion(t *testing.T) {
	//** Act
	code, stdout, _ := run("version")

	//** Assert
	assert.Equal(t, 0, code)
	assert.Equal(t, version+"\n", stdout)
}
