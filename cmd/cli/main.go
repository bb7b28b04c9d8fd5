package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"strings"
	"time"

	"github.com/limaJavier/coursetable/pkg/config"
	"github.com/limaJavier/coursetable/pkg/logger"
	"github.com/limaJavier/coursetable/pkg/metrics"
	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/limaJavier/coursetable/pkg/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes. Success and infeasibility keep the 10/20 convention of SAT solvers
const (
	exitSolved     = 10
	exitInvalid    = 1
	exitUnverified = 15
	exitInfeasible = 20
	exitTimedOut   = 30
)

var version = "dev"

var (
	configPath  string
	logLevel    string
	filePath    string
	outFilePath string
	format      string
	request     model.Request
	maxSteps    uint64
	timeout     time.Duration
	showMetrics bool
	resultPath  string
)

// exitError carries the process exit code of a command
type exitError struct {
	code int
	err  error
}

func (err *exitError) Error() string {
	if err.err == nil {
		return fmt.Sprintf("exit code %d", err.code)
	}
	return err.err.Error()
}

func (err *exitError) Unwrap() error { return err.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	var exit *exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exit):
		if exit.err != nil {
			fmt.Fprintln(stderr, exit.err)
		}
		return exit.code
	default:
		fmt.Fprintln(stderr, err)
		return exitInvalid
	}
}

func newRootCommand() *cobra.Command {
	cmdTimetable := &cobra.Command{
		Use:           "timetable",
		Short:         "Course timetable generator",
		Long:          "Builds weekly course timetables that satisfy teacher, room and subgroup constraints,\nand explains which constraints block a timetable when none exists",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmdTimetable.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON or YAML config file; config.json next to the executable is used when present")
	cmdTimetable.PersistentFlags().StringVar(&logLevel, "log-level", "", "overrides the configured log level")

	cmdGenerate := &cobra.Command{
		Use:   "generate",
		Short: "generate a timetable from a catalog file",
		Args:  cobra.NoArgs,
		RunE:  commandGenerate,
	}
	cmdGenerate.Flags().StringVarP(&filePath, "file", "f", "", "path to the catalog file")
	cmdGenerate.Flags().StringVarP(&outFilePath, "out", "o", "", "path to the output file; the standard output is used when empty")
	cmdGenerate.Flags().StringVar(&format, "format", "table", `output format: "table" or "json"`)
	cmdGenerate.Flags().Uint64Var(&request.MaxHoursPerDay, "max-hours", 0, "maximum teaching hours per teacher per day (1-12); the configured value is used when zero")
	cmdGenerate.Flags().StringVar(&request.Department, "department", "", "only schedule courses of this department")
	cmdGenerate.Flags().Uint64Var(&request.Semester, "semester", 0, "only schedule courses of this semester")
	cmdGenerate.Flags().Uint64Var(&maxSteps, "max-steps", 0, "overrides the configured placement budget")
	cmdGenerate.Flags().DurationVar(&timeout, "timeout", 0, "overrides the configured time budget")
	cmdGenerate.Flags().BoolVar(&showMetrics, "metrics", false, "print generation metrics to the standard error")
	_ = cmdGenerate.MarkFlagRequired("file")
	cmdTimetable.AddCommand(cmdGenerate)

	cmdVerify := &cobra.Command{
		Use:   "verify",
		Short: "check a generated timetable against a catalog file",
		Args:  cobra.NoArgs,
		RunE:  commandVerify,
	}
	cmdVerify.Flags().StringVarP(&filePath, "file", "f", "", "path to the catalog file")
	cmdVerify.Flags().StringVarP(&resultPath, "timetable", "t", "", "path to a timetable written by generate --format json")
	_ = cmdVerify.MarkFlagRequired("file")
	_ = cmdVerify.MarkFlagRequired("timetable")
	cmdTimetable.AddCommand(cmdVerify)

	cmdVersion := &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
	cmdTimetable.AddCommand(cmdVersion)

	return cmdTimetable
}

func commandGenerate(cmd *cobra.Command, _ []string) error {
	format = strings.ToLower(format)
	if format != "table" && format != "json" {
		return &exitError{code: exitInvalid, err: fmt.Errorf("%v is not a valid format", format)}
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if maxSteps > 0 {
		cfg.Scheduler.MaxSteps = maxSteps
	}
	if timeout > 0 {
		cfg.Scheduler.Timeout = timeout
	}

	catalog, err := model.CatalogFromJson(filePath)
	if err != nil {
		return &exitError{code: exitInvalid, err: fmt.Errorf("cannot parse catalog file: %w", err)}
	}

	recorder := metrics.NewRecorder()
	service := scheduler.NewService(cfg.Scheduler, log, recorder)
	result, err := service.Generate(cmd.Context(), catalog, request)
	if showMetrics {
		if err := recorder.WriteText(cmd.ErrOrStderr()); err != nil {
			log.Warn("cannot write metrics", zap.Error(err))
		}
	}
	if err != nil {
		return failure(cmd.OutOrStdout(), err)
	}

	output, err := open(cmd.OutOrStdout())
	if err != nil {
		return &exitError{code: exitInvalid, err: err}
	}
	if err := emit(output, result); err != nil {
		return &exitError{code: exitInvalid, err: err}
	}
	return &exitError{code: exitSolved}
}

// Writes the result in the selected format and closes output. A failed close means the timetable may not have reached the file
func emit(output io.WriteCloser, result scheduler.Result) error {
	var err error
	if format == "json" {
		err = writeJson(output, result)
	} else {
		err = writeTable(output, result.Rows)
	}
	closeErr := output.Close()
	if err != nil {
		return fmt.Errorf("cannot write output: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("cannot close output: %w", closeErr)
	}
	return nil
}

func commandVerify(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	catalog, err := model.CatalogFromJson(filePath)
	if err != nil {
		return &exitError{code: exitInvalid, err: fmt.Errorf("cannot parse catalog file: %w", err)}
	}
	generated, err := readGenerated(resultPath)
	if err != nil {
		return &exitError{code: exitInvalid, err: err}
	}

	service := scheduler.NewService(cfg.Scheduler, log, nil)
	violations, err := service.Verify(catalog, generated.Request, generated.Timetable.Assignments)
	if err != nil {
		return failure(cmd.OutOrStdout(), err)
	}
	if len(violations) > 0 {
		for _, violation := range violations {
			fmt.Fprintln(cmd.OutOrStdout(), violation)
		}
		return &exitError{code: exitUnverified}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "timetable satisfies every hard constraint")
	return &exitError{code: exitSolved}
}

func setup() (*config.Config, *zap.Logger, error) {
	file := configPath
	if file == "" {
		file = defaultConfigPath()
	}
	cfg, err := config.Load(file)
	if err != nil {
		return nil, nil, &exitError{code: exitInvalid, err: err}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, &exitError{code: exitInvalid, err: err}
	}
	return cfg, log, nil
}

// Looks for config.json next to the executable
func defaultConfigPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	candidate := path.Join(path.Dir(execPath), "config.json")
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}

// Writes the diagnostic of a failed run and maps it to an exit code
func failure(w io.Writer, err error) error {
	diagnostic := model.Diagnose(err)
	if diagnostic.Kind == model.KindCancelled {
		return &exitError{code: exitInvalid, err: err}
	}
	if writeErr := writeJson(w, diagnostic); writeErr != nil {
		return &exitError{code: exitInvalid, err: errors.Join(err, writeErr)}
	}

	switch diagnostic.Kind {
	case model.KindInfeasible:
		return &exitError{code: exitInfeasible}
	case model.KindTimedOut:
		return &exitError{code: exitTimedOut}
	}
	return &exitError{code: exitInvalid, err: err}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func open(stdout io.Writer) (io.WriteCloser, error) {
	if outFilePath == "" {
		return nopCloser{stdout}, nil
	}
	file, err := os.Create(outFilePath)
	if err != nil {
		return nil, fmt.Errorf("cannot create output file: %w", err)
	}
	return file, nil
}

type generatedTimetable struct {
	Request   model.Request `json:"request"`
	Timetable struct {
		Assignments []model.Assignment `json:"assignments"`
	} `json:"timetable"`
}

func readGenerated(file string) (generatedTimetable, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return generatedTimetable{}, fmt.Errorf("cannot read timetable file: %w", err)
	}
	var generated generatedTimetable
	if err := json.Unmarshal(bytes, &generated); err != nil {
		return generatedTimetable{}, fmt.Errorf("cannot parse timetable file: %w", err)
	}
	return generated, nil
}
