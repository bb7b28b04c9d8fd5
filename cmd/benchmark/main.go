package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/limaJavier/coursetable/pkg/model"

	"github.com/samber/lo"
)

const (
	executablePath         = "../../bin/timetable"
	seeds                  = 5
	MB             float32 = 1024 * 1024
)

type ResultType int

const (
	solved ResultType = iota
	infeasible
	timeout
)

var (
	resultTypes = map[ResultType]string{
		solved:     "solved",
		infeasible: "infeasible",
		timeout:    "timeout",
	}
	exitCodes = map[int]ResultType{
		10: solved,
		20: infeasible,
		30: timeout,
	}
	maxHoursPerDay = []uint64{4, 6}
)

type TestMetadata struct {
	Name      string
	File      string
	Seed      uint64
	Courses   int
	Sessions  int
	Teachers  int
	Rooms     int
	TimeSlots int
}

type BenchmarkResult struct {
	Test           TestMetadata
	MaxHoursPerDay uint64
	Duration       int64
	Memory         float32
	CpuPercentage  int64
	Result         ResultType
}

func main() {
	directory, err := os.MkdirTemp("", "timetable-benchmark-*")
	if err != nil {
		log.Fatalf("cannot create test directory: %v", err)
	}
	defer os.RemoveAll(directory)

	tests := getTests(directory)
	results := make([]BenchmarkResult, 0, len(tests)*len(maxHoursPerDay))

	for _, test := range tests {
		for _, maxHours := range maxHoursPerDay {
			fmt.Printf("Benchmarking test \"%v\" (seed %v) with max-hours \"%v\"\n", test.Name, test.Seed, maxHours)

			duration, maxMemory, cpuPercentage, result := measure(test, maxHours)

			results = append(results, BenchmarkResult{
				Test:           test,
				MaxHoursPerDay: maxHours,
				Duration:       duration,
				Memory:         maxMemory,
				CpuPercentage:  cpuPercentage,
				Result:         result,
			})
		}
	}

	toCsv(results)
}

func getShapes() map[string]model.CatalogShape {
	return map[string]model.CatalogShape{
		"small": {
			Days: 5, SlotsPerDay: 6, Subgroups: 3, CoursesPerGroup: 4, SessionsPerCourse: 2,
			Teachers: 8, Rooms: 3, LabRooms: 1, LabShare: 0.2,
		},
		"medium": {
			Days: 5, SlotsPerDay: 8, Subgroups: 8, CoursesPerGroup: 6, SessionsPerCourse: 3,
			Teachers: 20, Rooms: 8, LabRooms: 3, LabShare: 0.2,
		},
		"large": {
			Days: 5, SlotsPerDay: 8, Subgroups: 16, CoursesPerGroup: 7, SessionsPerCourse: 3,
			Teachers: 40, Rooms: 16, LabRooms: 6, LabShare: 0.25,
		},
	}
}

// Writes a synthetic catalog per shape and seed into directory
func getTests(directory string) []TestMetadata {
	shapes := getShapes()
	names := []string{"small", "medium", "large"}

	tests := make([]TestMetadata, 0, len(names)*seeds)
	for _, name := range names {
		for seed := range uint64(seeds) {
			catalog := model.GenerateCatalog(shapes[name], seed)
			bytes, err := json.Marshal(catalog)
			if err != nil {
				log.Fatalf("cannot encode catalog: %v", err)
			}
			file := filepath.Join(directory, fmt.Sprintf("%v-%d.json", name, seed))
			if err := os.WriteFile(file, bytes, 0666); err != nil {
				log.Fatalf("cannot write catalog: %v", err)
			}

			tests = append(tests, TestMetadata{
				Name:      name,
				File:      file,
				Seed:      seed,
				Courses:   len(catalog.Courses),
				Sessions:  lo.SumBy(catalog.Courses, func(course model.Course) int { return int(course.WeeklySessions) }),
				Teachers:  len(catalog.Teachers),
				Rooms:     len(catalog.Rooms),
				TimeSlots: len(catalog.TimeSlots),
			})
		}
	}

	return tests
}

func measure(test TestMetadata, maxHours uint64) (duration int64, maxMemory float32, cpuPercentage int64, result ResultType) {
	cmd := exec.Command("/usr/bin/time", "-v", executablePath, "generate", "--file", test.File, "--max-hours", fmt.Sprint(maxHours), "--log-level", "error")

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	cmd.Run()
	result, ok := exitCodes[cmd.ProcessState.ExitCode()]
	if !ok {
		log.Fatalf("an error occurred during the execution \"timetable\" at test \"%v\" (seed %v) using max-hours \"%v\": %v\n", test.Name, test.Seed, maxHours, stdErr.String())
	}

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("Substring \"%v\" could not be found", substr)
		}
		return line
	}

	duration = parseDurationLine(getLine("wall clock"))
	maxMemory = parseMemoryLine(getLine("maximum resident set size"))
	cpuPercentage = parseCpuPercentageLine(getLine("percent of cpu"))

	return duration, maxMemory, cpuPercentage, result
}

func toCsv(results []BenchmarkResult) {
	file, err := os.Create("benchmark_results.csv")
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Test", "Seed", "MaxHoursPerDay", "Courses", "Sessions", "Teachers", "Rooms", "TimeSlots", "Duration(ms)", "Memory(MB)", "CPU(%)", "Result"}
	if err := writer.Write(header); err != nil {
		log.Panicf("cannot write CSV header: %v", err)
	}

	for _, result := range results {
		record := []string{
			result.Test.Name,
			fmt.Sprintf("%d", result.Test.Seed),
			fmt.Sprintf("%d", result.MaxHoursPerDay),
			fmt.Sprintf("%d", result.Test.Courses),
			fmt.Sprintf("%d", result.Test.Sessions),
			fmt.Sprintf("%d", result.Test.Teachers),
			fmt.Sprintf("%d", result.Test.Rooms),
			fmt.Sprintf("%d", result.Test.TimeSlots),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.CpuPercentage),
			resultTypes[result.Result],
		}
		if err := writer.Write(record); err != nil {
			log.Panicf("cannot write CSV record: %v", err)
		}
	}
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsStr := parts[len(parts)-1]
	secondsParts := strings.Split(secondsStr, ".")

	var duration int64
	if len(parts) == 3 { // h:mm:ss
		hours := lo.Must(strconv.Atoi(parts[0]))
		minutes := lo.Must(strconv.Atoi(parts[1]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else if len(parts) == 2 { // m:ss
		minutes := lo.Must(strconv.Atoi(parts[0]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else {
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return duration
}

// Maximum resident set size is reported in KB
func parseMemoryLine(line string) float32 {
	memoryStr := strings.Split(line, ":")[1][1:]
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) * 1024 / MB
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.Split(line, ":")[1][1:]
	percentageStr = percentageStr[:len(percentageStr)-1]
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
