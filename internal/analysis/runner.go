package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/starford/notelens/internal/index"
	"github.com/starford/notelens/internal/settings"
)

// Status is the state shown by the status indicator.
type Status string

// Status states.
const (
	StatusReady     Status = "Ready"
	StatusAnalyzing Status = "Analyzing..."
	StatusError     Status = "Error"
)

// Label renders the status as shown to the user.
func (s Status) Label() string { return "DeepSeek: " + string(s) }

// Notices shown to the user.
const (
	NoticeNoActiveFile = "No active file to analyze"
	NoticeMissingKey   = "Please set your DeepSeek API key in settings"
	NoticeCompleted    = "Note analysis completed successfully"
	noticeFailedPrefix = "Failed to complete analysis: "
)

// FailureNotice returns the notice shown for a failed run.
func FailureNotice(err error) string { return noticeFailedPrefix + Message(err) }

// Notifier receives status changes and transient notices.
type Notifier interface {
	Status(s Status)
	Notice(msg string)
}

// History records finished runs.
type History interface {
	RecordRun(ctx context.Context, r index.RunRow) error
}

// Runner is the user-facing trigger around an Orchestrator. It owns the
// status indicator, emits notices and records history. Runs are not
// serialised; the status reflects the last write.
type Runner struct {
	orch     *Orchestrator
	settings func() settings.Settings
	notifier Notifier
	history  History
	logger   *slog.Logger
	limiter  *rate.Limiter

	mu     sync.Mutex
	status Status
	wg     sync.WaitGroup
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithHistory records every started run.
func WithHistory(h History) RunnerOption {
	return func(r *Runner) { r.history = h }
}

// WithRateLimit caps how many triggers per minute Allow accepts. Zero or
// less means unlimited.
func WithRateLimit(perMinute int) RunnerOption {
	return func(r *Runner) {
		if perMinute > 0 {
			r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		}
	}
}

// NewRunner creates a Runner in the Ready state. current is called at the
// start of every run to obtain the settings to use.
func NewRunner(orch *Orchestrator, current func() settings.Settings, n Notifier, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		orch:     orch,
		settings: current,
		notifier: n,
		logger:   logger,
		status:   StatusReady,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Status returns the current status.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) setStatus(s Status) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
	r.notifier.Status(s)
}

// Allow reports whether the rate limit admits another trigger now.
func (r *Runner) Allow() bool {
	return r.limiter == nil || r.limiter.Allow()
}

// Admit reports whether a trigger for activePath may start now. A trigger
// that fails its preconditions is always admitted without spending rate
// budget, since it only emits a notice.
func (r *Runner) Admit(ctx context.Context, activePath string) bool {
	err := r.orch.Check(ctx, activePath, r.settings())
	if errors.Is(err, ErrNoActiveDocument) || errors.Is(err, ErrMissingCredential) {
		return true
	}
	return r.Allow()
}

// Trigger starts a run in the background and returns immediately. The run
// is detached from ctx cancellation but keeps its values.
func (r *Runner) Trigger(ctx context.Context, activePath string) {
	ctx = context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_, _ = r.Execute(ctx, activePath)
	}()
}

// Wait blocks until all triggered runs have finished.
func (r *Runner) Wait() { r.wg.Wait() }

// Execute performs one run synchronously with the same status, notice and
// history handling as Trigger. Precondition failures only emit a notice.
func (r *Runner) Execute(ctx context.Context, activePath string) (*Outcome, error) {
	s := r.settings()
	if err := r.orch.Check(ctx, activePath, s); err != nil {
		switch {
		case errors.Is(err, ErrNoActiveDocument):
			r.notifier.Notice(NoticeNoActiveFile)
			return nil, err
		case errors.Is(err, ErrMissingCredential):
			r.notifier.Notice(NoticeMissingKey)
			return nil, err
		}
	}

	id := uuid.NewString()
	started := time.Now()
	r.setStatus(StatusAnalyzing)
	r.logger.Info("analysis: started", slog.String("run_id", id), slog.String("path", activePath))

	out, err := r.run(ctx, activePath, s)

	run := index.RunRow{
		ID:         id,
		Source:     activePath,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err != nil {
		run.Status = index.RunFailed
		run.ErrorKind = Classify(err)
		run.Error = err.Error()
		r.logger.Error("analysis: failed",
			slog.String("run_id", id),
			slog.String("path", activePath),
			slog.String("kind", run.ErrorKind),
			slog.String("error", err.Error()))
		r.notifier.Notice(FailureNotice(err))
		r.setStatus(StatusError)
	} else {
		run.Status = index.RunSucceeded
		run.Output = out.Path
		r.logger.Info("analysis: completed",
			slog.String("run_id", id),
			slog.String("path", activePath),
			slog.String("output", out.Path),
			slog.Duration("took", run.FinishedAt.Sub(started)))
		r.notifier.Notice(NoticeCompleted)
		r.setStatus(StatusReady)
	}
	r.record(ctx, run)
	return out, err
}

func (r *Runner) run(ctx context.Context, activePath string, s settings.Settings) (out *Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("%w: panic: %v", ErrUnexpected, rec)
		}
	}()
	return r.orch.Run(ctx, activePath, s)
}

func (r *Runner) record(ctx context.Context, run index.RunRow) {
	if r.history == nil {
		return
	}
	if err := r.history.RecordRun(ctx, run); err != nil {
		r.logger.Warn("analysis: record run failed", slog.String("run_id", run.ID), slog.String("error", err.Error()))
	}
}

// LogNotifier writes status changes and notices to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Status logs the status label.
func (n LogNotifier) Status(s Status) {
	n.Logger.Info(s.Label())
}

// Notice logs msg.
func (n LogNotifier) Notice(msg string) {
	n.Logger.Info(msg)
}
