package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/limaJavier/coursetable/pkg/config"
	"github.com/limaJavier/coursetable/pkg/metrics"
	"github.com/limaJavier/coursetable/pkg/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service runs generation requests against catalog snapshots
type Service struct {
	config   config.SchedulerConfig
	logger   *zap.Logger
	recorder *metrics.Recorder
}

// Result is a successful generation. RunId identifies the run in logs and is not part of the timetable
type Result struct {
	RunId     uuid.UUID           `json:"run_id"`
	Request   model.Request       `json:"request"`
	Timetable model.Timetable     `json:"timetable"`
	Grid      model.Grid          `json:"grid"`
	Rows      []map[string]string `json:"rows"`
}

// Outcome pairs a request of a batch with its result or failure
type Outcome struct {
	Request model.Request
	Result  Result
	Err     error
}

func NewService(config config.SchedulerConfig, logger *zap.Logger, recorder *metrics.Recorder) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Service{config: config, logger: logger, recorder: recorder}
}

// Prepare applies the configured defaults to the request and loads the part of the catalog it targets
func (service *Service) Prepare(catalog model.Catalog, request model.Request) (*model.ValidatedCatalog, model.Request, error) {
	if request.MaxHoursPerDay == 0 {
		request.MaxHoursPerDay = service.config.MaxHoursPerDay
	}
	request = request.WithDefaults()
	if err := request.Validate(); err != nil {
		return nil, request, err
	}

	validated, err := model.LoadWithPolicy(catalog.Scoped(request.Department, request.Semester), service.config.Slots)
	if err != nil {
		return nil, request, err
	}
	return validated, request, nil
}

func (service *Service) Generate(ctx context.Context, catalog model.Catalog, request model.Request) (Result, error) {
	runId := uuid.New()
	logger := service.logger.With(zap.Stringer("run_id", runId))
	start := time.Now()

	result, err := service.generate(ctx, logger, catalog, request)
	elapsed := time.Since(start)
	if err != nil {
		service.failed(logger, err, elapsed)
		return Result{}, err
	}
	result.RunId = runId

	stats := result.Timetable.Stats()
	service.recorder.Observe(metrics.OutcomeSuccess, elapsed, stats.Steps, stats.Backtracks)
	logger.Info("timetable generated",
		zap.Int("assignments", result.Timetable.Len()),
		zap.Int("units", stats.Units),
		zap.Uint64("steps", stats.Steps),
		zap.Uint64("backtracks", stats.Backtracks),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (service *Service) generate(ctx context.Context, logger *zap.Logger, catalog model.Catalog, request model.Request) (Result, error) {
	validated, request, err := service.Prepare(catalog, request)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("catalog loaded",
		zap.Int("courses", len(validated.Courses())),
		zap.Int("teachers", len(validated.Teachers())),
		zap.Int("rooms", len(validated.Rooms())),
		zap.Int("timeslots", len(validated.TimeSlots())),
		zap.Uint64("max_hours_per_day", request.MaxHoursPerDay),
	)

	timetabler := model.NewBacktrackingTimetabler(service.config.Options(logger))
	timetable, err := timetabler.Build(ctx, validated, request)
	if err != nil {
		return Result{}, err
	}

	grid, err := model.BuildGrid(validated, timetable)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Request:   request,
		Timetable: timetable,
		Grid:      grid,
		Rows:      grid.Rows(),
	}, nil
}

func (service *Service) failed(logger *zap.Logger, err error, elapsed time.Duration) {
	var steps, backtracks uint64
	var typed *model.Error
	if errors.As(err, &typed) && typed.Report != nil {
		steps, backtracks = typed.Report.Steps, typed.Report.Backtracks
	}

	diagnostic := model.Diagnose(err)
	service.recorder.Observe(diagnostic.ReasonCode, elapsed, steps, backtracks)
	if diagnostic.Kind == model.KindCancelled {
		logger.Info("generation cancelled", zap.Uint64("steps", steps), zap.Duration("elapsed", elapsed))
		return
	}

	fields := []zap.Field{
		zap.String("reason_code", diagnostic.ReasonCode),
		zap.Int("blocking_units", len(diagnostic.BlockingUnits)),
		zap.Uint64("steps", steps),
		zap.Duration("elapsed", elapsed),
		zap.Error(err),
	}
	switch diagnostic.Kind {
	case model.KindInternal:
		logger.Error("generation produced an inconsistent timetable", fields...)
	case model.KindTimedOut:
		logger.Warn("generation timed out", fields...)
	default:
		logger.Info("generation failed", fields...)
	}
}

// GenerateAll runs independent requests over the same catalog concurrently, at most Concurrency at a time. Outcomes keep the order of requests
func (service *Service) GenerateAll(ctx context.Context, catalog model.Catalog, requests []model.Request) ([]Outcome, error) {
	outcomes := make([]Outcome, len(requests))

	var group errgroup.Group
	group.SetLimit(service.config.Concurrency)
	for i, request := range requests {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = Outcome{Request: request, Err: err}
				return nil
			}
			result, err := service.Generate(ctx, catalog, request)
			outcomes[i] = Outcome{Request: request, Result: result, Err: err}
			return nil
		})
	}
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return outcomes, fmt.Errorf("batch generation interrupted: %w", err)
	}
	return outcomes, nil
}

// Verify checks a previously generated assignment set against the current catalog
func (service *Service) Verify(catalog model.Catalog, request model.Request, assignments []model.Assignment) ([]model.Violation, error) {
	validated, request, err := service.Prepare(catalog, request)
	if err != nil {
		return nil, err
	}
	return model.CheckAssignments(validated, request, assignments), nil
}
