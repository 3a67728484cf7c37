package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/internal/domain/repository"
	"chronos-reconciler/pkg/logger"
	"chronos-reconciler/pkg/metrics"
	"chronos-reconciler/templates"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultConcurrency = 5
	MaxConcurrency     = 10
	DefaultCallTimeout = 10 * time.Second
	DefaultBatchSize   = 100

	flushTimeout = 30 * time.Second
)

// ExecutorConfig tunes an UpdateExecutor. Zero values select the defaults.
type ExecutorConfig struct {
	Concurrency int
	CallTimeout time.Duration
	BatchSize   int
	// RateLimit caps remote calls per second, 0 disables it
	RateLimit float64
}

// UpdateExecutor applies approved host reassignments
type UpdateExecutor struct {
	conferencing repository.ConferencingRepository
	meetings     repository.MeetingRepository
	credentials  *CredentialManager
	runLog       repository.RunLogRepository
	metrics      *metrics.Metrics
	logger       logger.Logger

	concurrency int
	callTimeout time.Duration
	batchSize   int
	limiter     *rate.Limiter
	now         func() time.Time
}

// NewUpdateExecutor creates a new update executor
func NewUpdateExecutor(
	conferencing repository.ConferencingRepository,
	meetings repository.MeetingRepository,
	credentials *CredentialManager,
	runLog repository.RunLogRepository,
	m *metrics.Metrics,
	logger logger.Logger,
	cfg ExecutorConfig,
) *UpdateExecutor {
	e := &UpdateExecutor{
		conferencing: conferencing,
		meetings:     meetings,
		credentials:  credentials,
		runLog:       runLog,
		metrics:      m,
		logger:       logger,
		concurrency:  cfg.Concurrency,
		callTimeout:  cfg.CallTimeout,
		batchSize:    cfg.BatchSize,
		now:          time.Now,
	}
	if e.concurrency < 1 {
		e.concurrency = DefaultConcurrency
	}
	if e.concurrency > MaxConcurrency {
		e.concurrency = MaxConcurrency
	}
	if e.callTimeout <= 0 {
		e.callTimeout = DefaultCallTimeout
	}
	if e.batchSize < 1 {
		e.batchSize = DefaultBatchSize
	}
	if cfg.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), e.concurrency)
	}
	return e
}

// commandResult is the outcome of one command plus its pending store write
type commandResult struct {
	outcome entity.UpdateOutcome
	change  *entity.HostChange
}

// Execute applies every command and reports successes and errors. Host
// changes of successful commands are persisted in batches once all remote
// calls are done. A precondition failure aborts the pass and is returned as
// the error; changes already applied remotely are still persisted.
func (e *UpdateExecutor) Execute(ctx context.Context, commands []entity.AssignmentCommand, progress ProgressFunc) (*entity.UpdateReport, error) {
	started := e.now()
	runID := uuid.NewString()
	log := e.logger.With("runId", runID)
	report := newProgressReporter(progress)

	report.Send(templates.MSG_FETCHING_TOKEN)
	cred, generation, err := e.credentials.Load(ctx)
	if err != nil {
		return nil, err
	}

	if cred.Expired(e.now()) {
		report.Send(templates.MSG_REFRESHING_TOKEN)
		if _, _, err := e.credentials.Refresh(ctx, generation); err != nil {
			if IsPrecondition(err) {
				return nil, err
			}
			log.Warn("Proactive token refresh failed, trying stored token", "error", err)
		}
	}

	log.Info("Applying host assignments", "commands", len(commands), "concurrency", e.concurrency)

	results := make([]commandResult, len(commands))
	total := len(commands)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, cmd := range commands {
		g.Go(func() error {
			res, fatal := e.apply(gctx, cmd, report)
			results[i] = res

			n := done.Add(1)
			report.Send(fmt.Sprintf(templates.MSG_UPDATING, n, total))
			return fatal
		})
	}
	fatal := g.Wait()

	out := &entity.UpdateReport{
		Successes: []entity.UpdateOutcome{},
		Errors:    []entity.UpdateOutcome{},
	}
	var changes []entity.HostChange
	for _, r := range results {
		if r.outcome.Success {
			out.Successes = append(out.Successes, r.outcome)
			if r.change != nil {
				changes = append(changes, *r.change)
			}
			continue
		}
		out.Errors = append(out.Errors, r.outcome)
	}

	// Remote changes are already applied, the write must outlive a cancelled caller
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()
	out.Errors = append(out.Errors, e.flush(flushCtx, changes, report)...)

	log.Info("Host assignments finished",
		"successes", len(out.Successes),
		"errors", len(out.Errors),
		"duration", time.Since(started))

	e.saveRun(flushCtx, runID, started, out)

	if fatal != nil && IsPrecondition(fatal) {
		return out, fatal
	}
	return out, nil
}

// apply runs one command: call, and on credential expiry a single
// refresh followed by one retry. The returned error is non-nil only for
// precondition failures.
func (e *UpdateExecutor) apply(ctx context.Context, cmd entity.AssignmentCommand, report *progressReporter) (commandResult, error) {
	res := commandResult{
		outcome: entity.UpdateOutcome{MeetingID: cmd.MeetingID, Topic: cmd.Topic},
	}

	if err := ctx.Err(); err != nil {
		res.outcome.Error = fmt.Sprintf("not attempted: %v", err)
		e.metrics.AssignmentFailed("cancelled")
		return res, nil
	}

	token, generation := e.credentials.Current()
	err := e.call(ctx, token, cmd)

	if errors.Is(err, entity.ErrCredentialExpired) {
		report.Send(templates.MSG_REFRESHING_TOKEN)
		fresh, _, rerr := e.credentials.Refresh(ctx, generation)
		if rerr != nil {
			res.outcome.Error = fmt.Sprintf("token refresh failed: %v", rerr)
			e.metrics.AssignmentFailed("refresh")
			if IsPrecondition(rerr) {
				return res, rerr
			}
			return res, nil
		}
		err = e.call(ctx, fresh, cmd)
	}

	if err != nil {
		res.outcome.Error = err.Error()
		e.metrics.AssignmentFailed(errorKind(err))
		e.logger.Warn("Failed to update meeting host",
			"meetingId", cmd.MeetingID,
			"topic", cmd.Topic,
			"error", err)
		return res, nil
	}

	res.outcome.Success = true
	res.outcome.Message = fmt.Sprintf(templates.MSG_HOST_UPDATED, cmd.Topic, cmd.MeetingID, cmd.NewHostEmail)
	res.change = &entity.HostChange{MeetingID: cmd.MeetingID, HostID: cmd.NewHostID}
	e.metrics.AssignmentApplied()
	return res, nil
}

func (e *UpdateExecutor) call(ctx context.Context, token string, cmd entity.AssignmentCommand) error {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	finished := e.metrics.CallStarted()
	defer finished()

	return e.conferencing.UpdateMeetingHost(callCtx, token, cmd.MeetingID, cmd.NewHostEmail)
}

// flush writes the host changes in batches and returns one error outcome per failed batch
func (e *UpdateExecutor) flush(ctx context.Context, changes []entity.HostChange, report *progressReporter) []entity.UpdateOutcome {
	if len(changes) == 0 {
		return nil
	}

	batches := (len(changes) + e.batchSize - 1) / e.batchSize
	var failed []entity.UpdateOutcome

	for b := 0; b < batches; b++ {
		start := b * e.batchSize
		end := min(start+e.batchSize, len(changes))
		batch := changes[start:end]

		report.Send(fmt.Sprintf(templates.MSG_SAVING_BATCH, b+1, batches))
		if err := e.meetings.UpsertHosts(ctx, batch); err != nil {
			e.metrics.BatchFlushed("error")
			e.logger.Error("Failed to save host changes",
				"batch", b+1,
				"batches", batches,
				"size", len(batch),
				"error", err)
			failed = append(failed, entity.UpdateOutcome{
				Error: fmt.Sprintf(templates.MSG_BATCH_FAILED, b+1, batches, len(batch), err),
			})
			continue
		}
		e.metrics.BatchFlushed("ok")
	}
	return failed
}

func (e *UpdateExecutor) saveRun(ctx context.Context, runID string, started time.Time, report *entity.UpdateReport) {
	if e.runLog == nil {
		return
	}

	run := &entity.RunLog{
		RunID:      runID,
		Kind:       entity.RunKindUpdate,
		StartedAt:  started,
		FinishedAt: e.now(),
		Counts: map[string]int{
			"successes": len(report.Successes),
			"errors":    len(report.Errors),
		},
	}
	for _, o := range report.Errors {
		run.Errors = append(run.Errors, o.Error)
	}

	if err := e.runLog.Save(ctx, run); err != nil {
		e.logger.Warn("Failed to save run log", "runId", runID, "error", err)
	}
}

func errorKind(err error) string {
	var remote *entity.RemoteError
	var network *entity.NetworkError
	switch {
	case errors.Is(err, entity.ErrCredentialExpired):
		return "expired"
	case errors.As(err, &remote):
		return "remote"
	case errors.As(err, &network):
		return "network"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "other"
	}
}
