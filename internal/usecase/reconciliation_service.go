package usecase

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/internal/domain/repository"
	"chronos-reconciler/pkg/logger"
	"chronos-reconciler/pkg/metrics"
	"chronos-reconciler/pkg/utils"
	"chronos-reconciler/templates"

	"github.com/google/uuid"
)

// DefaultPageSize is the page size used when reading the directory
const DefaultPageSize = 1000

// ReconciliationService runs reconciliation passes against the directory snapshot
type ReconciliationService struct {
	directory repository.DirectoryRepository
	runLog    repository.RunLogRepository
	metrics   *metrics.Metrics
	logger    logger.Logger
	pageSize  int
	workers   int
	scorer    utils.Scorer
}

// ReconciliationOption customizes a ReconciliationService
type ReconciliationOption func(*ReconciliationService)

// WithPageSize sets the directory page size
func WithPageSize(size int) ReconciliationOption {
	return func(s *ReconciliationService) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithWorkers sets the classifier fan-out
func WithWorkers(workers int) ReconciliationOption {
	return func(s *ReconciliationService) {
		if workers > 0 {
			s.workers = workers
		}
	}
}

// WithScorer replaces the fuzzy scorer
func WithScorer(scorer utils.Scorer) ReconciliationOption {
	return func(s *ReconciliationService) {
		s.scorer = scorer
	}
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	directory repository.DirectoryRepository,
	runLog repository.RunLogRepository,
	m *metrics.Metrics,
	logger logger.Logger,
	opts ...ReconciliationOption,
) *ReconciliationService {
	s := &ReconciliationService{
		directory: directory,
		runLog:    runLog,
		metrics:   m,
		logger:    logger,
		pageSize:  DefaultPageSize,
		workers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadSnapshot reads every user and meeting from the directory
func (s *ReconciliationService) LoadSnapshot(ctx context.Context, progress ProgressFunc) ([]entity.ZoomUser, []entity.ZoomMeeting, error) {
	report := newProgressReporter(progress)

	report.Send(templates.MSG_FETCHING_USERS)
	users, err := fetchAllPages(ctx, s.pageSize, s.directory.ListUsersPage, func(n int) {
		report.Send(fmt.Sprintf(templates.MSG_FETCHING_USERS_PAGE, n))
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	report.Send(templates.MSG_FETCHING_MEETINGS)
	meetings, err := fetchAllPages(ctx, s.pageSize, s.directory.ListMeetingsPage, func(n int) {
		report.Send(fmt.Sprintf(templates.MSG_FETCHING_MEETINGS_PAGE, n))
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch meetings: %w", err)
	}

	s.logger.Info("Directory snapshot loaded", "users", len(users), "meetings", len(meetings))
	return users, meetings, nil
}

// Reconcile loads a fresh snapshot and classifies the schedules against it
func (s *ReconciliationService) Reconcile(ctx context.Context, schedules []entity.ScheduleRecord, progress ProgressFunc) ([]entity.ReconciliationResult, error) {
	users, meetings, err := s.LoadSnapshot(ctx, progress)
	if err != nil {
		return nil, err
	}
	return s.ReconcileSnapshot(ctx, users, meetings, schedules, progress)
}

// ReconcileSnapshot classifies the schedules against the given snapshots
func (s *ReconciliationService) ReconcileSnapshot(
	ctx context.Context,
	users []entity.ZoomUser,
	meetings []entity.ZoomMeeting,
	schedules []entity.ScheduleRecord,
	progress ProgressFunc,
) ([]entity.ReconciliationResult, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := s.logger.With("runId", runID)

	if progress != nil {
		progress(fmt.Sprintf(templates.MSG_RECONCILE_START, len(schedules), len(meetings)))
	}

	index := BuildMatchIndex(users, meetings)
	indexedUsers, nameKeys, topicKeys := index.Stats()
	log.Debug("Match index built", "users", indexedUsers, "nameKeys", nameKeys, "topicKeys", topicKeys)

	results, err := NewClassifier(index, s.scorer).ClassifyAll(ctx, schedules, s.workers, progress)
	if err != nil {
		log.Warn("Reconciliation abandoned", "error", err)
		return nil, err
	}

	summary := entity.Summarize(results)
	for _, r := range results {
		s.metrics.Classified(r.Status.String())
	}
	s.metrics.ReconcileFinished(started)

	log.Info("Reconciliation completed",
		"schedules", len(schedules),
		"assigned", summary.Assigned,
		"toUpdate", summary.ToUpdate,
		"notFound", summary.NotFound,
		"duration", time.Since(started))

	s.saveRun(ctx, &entity.RunLog{
		RunID:      runID,
		Kind:       entity.RunKindReconcile,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Counts: map[string]int{
			"schedules": len(schedules),
			"users":     len(users),
			"meetings":  len(meetings),
			"assigned":  summary.Assigned,
			"toUpdate":  summary.ToUpdate,
			"notFound":  summary.NotFound,
		},
	})

	return results, nil
}

func (s *ReconciliationService) saveRun(ctx context.Context, run *entity.RunLog) {
	if s.runLog == nil {
		return
	}
	if err := s.runLog.Save(ctx, run); err != nil {
		s.logger.Warn("Failed to save run log", "runId", run.RunID, "error", err)
	}
}

// Reconcile classifies schedules against in-memory snapshots with default settings.
func Reconcile(
	ctx context.Context,
	users []entity.ZoomUser,
	meetings []entity.ZoomMeeting,
	schedules []entity.ScheduleRecord,
	progress ProgressFunc,
) ([]entity.ReconciliationResult, error) {
	return NewClassifier(BuildMatchIndex(users, meetings), nil).ClassifyAll(ctx, schedules, runtime.NumCPU(), progress)
}

// fetchAllPages reads pages until a short (or empty) page signals the end
func fetchAllPages[T any](
	ctx context.Context,
	pageSize int,
	fetch func(ctx context.Context, offset, limit int) ([]T, error),
	onPage func(loaded int),
) ([]T, error) {
	var all []T
	for offset := 0; ; offset += pageSize {
		page, err := fetch(ctx, offset, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
		if onPage != nil {
			onPage(len(all))
		}
	}
}
