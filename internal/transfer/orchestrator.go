package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"retroref/internal/fileutil"
	"retroref/internal/integrity"
	"retroref/internal/logging"
	"retroref/internal/services"
	"retroref/internal/sources"
)

// Orchestrator schedules bounded-parallel transfers, consults the integrity
// cache, and commits verified files into the destination tree. Selection is
// fully materialized before Run is called, so transfers never race with it.
type Orchestrator struct {
	Store        *integrity.Store
	Backend      Backend
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	StagingDir   string
	Logger       *slog.Logger
}

// Summary reports one system's transfer pass.
type Summary struct {
	Committed        []*Task
	Failed           []*Task
	CacheHits        int
	BytesTransferred int64
}

// Run materializes the candidates into destDir. Individual task failures are
// collected in the summary, not returned; only cancellation aborts the pass.
func (o *Orchestrator) Run(ctx context.Context, system string, refs []sources.CandidateRef, destDir string) (Summary, error) {
	logger := o.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := o.Workers
	if workers < 1 {
		workers = 1
	}
	if err := fileutil.EnsureDir(destDir); err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "transfer", "run",
			"create destination directory", err)
	}
	if err := fileutil.EnsureDir(o.StagingDir); err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "transfer", "run",
			"create staging directory", err)
	}

	tasks := make([]*Task, 0, len(refs))
	for _, ref := range refs {
		tasks = append(tasks, NewTask(system, ref, destDir, o.StagingDir))
	}

	var (
		mu      sync.Mutex
		summary Summary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o.execute(gctx, task, logger)

			mu.Lock()
			defer mu.Unlock()
			switch task.State {
			case StateCommitted:
				summary.Committed = append(summary.Committed, task)
				if task.CacheHit {
					summary.CacheHits++
				} else {
					summary.BytesTransferred += task.Digest.Size
				}
			default:
				summary.Failed = append(summary.Failed, task)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	logger.Info("transfer pass complete",
		logging.String(logging.FieldSystem, system),
		logging.Int("committed", len(summary.Committed)),
		logging.Int("failed", len(summary.Failed)),
		logging.Int("cache_hits", summary.CacheHits),
		logging.String("transferred", humanize.Bytes(uint64(summary.BytesTransferred))))
	return summary, nil
}

// execute drives one task through the state machine. The task belongs to
// this worker until it returns.
func (o *Orchestrator) execute(ctx context.Context, task *Task, logger *slog.Logger) {
	taskLogger := logger.With(
		logging.String(logging.FieldTaskID, task.ID),
		logging.String("name", task.Ref.Name))

	hit, err := o.cacheHit(ctx, task)
	if err != nil {
		taskLogger.Warn("integrity cache lookup failed", logging.Error(err))
	}
	if hit {
		task.State = StateCommitted
		task.CacheHit = true
		taskLogger.Debug("integrity cache hit, skipping transfer")
		return
	}

	backoff := o.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	for attempt := 0; ; attempt++ {
		task.Attempts = attempt + 1
		task.State = StateInFlight
		err = o.attempt(ctx, task)
		if err == nil {
			task.State = StateCommitted
			taskLogger.Info("committed",
				logging.Int("attempts", task.Attempts),
				logging.String("size", humanize.Bytes(uint64(task.Digest.Size))))
			return
		}

		os.Remove(task.Staging)
		if ctx.Err() != nil || attempt >= o.MaxRetries || !services.IsTransient(err) {
			task.State = StateFailed
			task.Err = err
			taskLogger.Error("transfer failed",
				logging.Int("attempts", task.Attempts),
				logging.Error(err))
			return
		}

		delay := backoff << attempt
		taskLogger.Warn("transient transfer failure, retrying",
			logging.Int("attempt", task.Attempts),
			logging.Duration("backoff", delay),
			logging.Error(err))
		select {
		case <-ctx.Done():
			task.State = StateFailed
			task.Err = ctx.Err()
			return
		case <-time.After(delay):
		}
	}
}

// attempt performs one fetch-verify-commit cycle.
func (o *Orchestrator) attempt(ctx context.Context, task *Task) error {
	if err := o.Backend.Fetch(ctx, task.Ref, task.Staging); err != nil {
		return err
	}

	task.State = StateVerifying
	digest, err := fileutil.DigestFile(task.Staging)
	if err != nil {
		return services.Wrap(services.ErrTransient, "transfer", "verify",
			"read staged file", err)
	}
	// The size hint from the index listing is the only source-side metadata
	// available. Listing columns round to 1024-based units, so the check
	// carries rounding slack; truncated transfers fall far outside it.
	if task.Ref.Size > 0 && !sizeMatchesHint(digest.Size, task.Ref.Size) {
		return services.Wrap(services.ErrIntegrity, "transfer", "verify",
			fmt.Sprintf("size mismatch: got %d, source reports about %d", digest.Size, task.Ref.Size), nil)
	}
	task.Digest = digest

	if err := fileutil.CommitFile(task.Staging, task.Destination); err != nil {
		return fmt.Errorf("commit %s: %w", task.Ref.Name, err)
	}

	if o.Store != nil {
		err = o.Store.Record(ctx, integrity.Entry{
			System:   task.System,
			Filename: task.Ref.Name,
			CRC32:    digest.CRC32Hex(),
			SHA256:   digest.SHA256,
			Size:     digest.Size,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// sizeMatchesHint accepts sizes within the rounding slack of a listing
// column: "4.0M" covers anything from 3.95 to 4.05 MiB, so the actual length
// may sit up to 5% away from the parsed hint.
func sizeMatchesHint(actual, hint int64) bool {
	if actual == hint {
		return true
	}
	diff := actual - hint
	if diff < 0 {
		diff = -diff
	}
	return diff*20 <= hint
}

// cacheHit reports whether the destination already holds a verified copy:
// the cache entry must exist, the file must still match its recorded size,
// and the source size hint, when present, must agree.
func (o *Orchestrator) cacheHit(ctx context.Context, task *Task) (bool, error) {
	if o.Store == nil {
		return false, nil
	}
	entry, ok, err := o.Store.Lookup(ctx, task.System, task.Ref.Name)
	if err != nil || !ok {
		return false, err
	}
	info, statErr := os.Stat(task.Destination)
	if statErr != nil || info.Size() != entry.Size {
		return false, nil
	}
	if task.Ref.Size > 0 && !sizeMatchesHint(entry.Size, task.Ref.Size) {
		return false, nil
	}
	task.Digest = fileutil.Digest{SHA256: entry.SHA256, Size: entry.Size}
	return true, nil
}
