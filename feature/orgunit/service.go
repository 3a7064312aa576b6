package orgunit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"orgunit-sync/core/metrics"
	"orgunit-sync/core/reconcile"
	"orgunit-sync/feature/orgunit/models"
	"orgunit-sync/feature/orgunit/snapshot"
	"orgunit-sync/feature/orgunit/store"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Repository is the record store the service drives.
type Repository interface {
	Begin(ctx context.Context) (store.Tx, error)
	FetchAll(ctx context.Context, tx store.Tx) (models.Collection, error)
	InsertAll(ctx context.Context, tx store.Tx, units []models.OrgUnit) error
	UpdateAll(ctx context.Context, tx store.Tx, units []models.OrgUnit) error
	DeleteAll(ctx context.Context, tx store.Tx, units []models.OrgUnit) error
}

// State is a step of a sync run.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateDiffing   State = "diffing"
	StateApplying  State = "applying"
	StateCommitted State = "committed"
	StateAborted   State = "aborted"
	// StatePlanned ends a dry run: the plan was computed and nothing was written.
	StatePlanned State = "planned"
)

// SyncOptions controls a sync run.
type SyncOptions struct {
	// DryRun computes the change sets and rolls back without writing.
	DryRun bool
}

// Result reports the outcome of a sync run.
type Result struct {
	State     State         `json:"state"`
	Source    string        `json:"source"`
	Inserted  int           `json:"inserted"`
	Updated   int           `json:"updated"`
	Deleted   int           `json:"deleted"`
	Unchanged int           `json:"unchanged"`
	DryRun    bool          `json:"dry_run"`
	Duration  time.Duration `json:"duration_ns"`
}

// orgUnitSpec compares records by description only; keys are matched by the engine.
var orgUnitSpec = &reconcile.Spec[models.Key, models.OrgUnit]{
	Name: "orgunit",
	Equal: func(current, target models.OrgUnit) bool {
		return current.Description == target.Description
	},
	Less: func(a, b models.Key) bool {
		return a.Less(b)
	},
}

// Service runs syncs and exports against a repository.
type Service struct {
	repo    Repository
	logger  *zap.Logger
	metrics *metrics.SyncMetrics

	// mu serializes sync runs issued through this process.
	mu      sync.Mutex
	exports singleflight.Group
}

// NewService creates a new orgunit service. m may be nil.
func NewService(repo Repository, logger *zap.Logger, m *metrics.SyncMetrics) *Service {
	return &Service{
		repo:    repo,
		logger:  logger,
		metrics: m,
	}
}

// Sync reconciles the store against the snapshot at src inside one transaction.
// On failure the transaction is rolled back and the store is left as it was.
// The returned Result is non-nil even on failure and carries the final state.
func (s *Service) Sync(ctx context.Context, src snapshot.Source, opts SyncOptions) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res := &Result{State: StateIdle, Source: src.String(), DryRun: opts.DryRun}
	l := s.logger.With(zap.String("source", src.String()), zap.Bool("dry_run", opts.DryRun))

	err := s.runSync(ctx, src, opts, res, l)
	res.Duration = time.Since(start)

	switch {
	case err != nil:
		// rolled back: nothing was applied
		res.Inserted, res.Updated, res.Deleted, res.Unchanged = 0, 0, 0, 0
		s.metrics.ObserveSync(metrics.OutcomeFailure, 0, 0, 0, 0, res.Duration)
		l.Error("Sync aborted", zap.Error(err), zap.String("state", string(res.State)))
		return res, err
	case opts.DryRun:
		s.metrics.ObserveSync(metrics.OutcomeDryRun, res.Inserted, res.Updated, res.Deleted, 0, res.Duration)
	default:
		total := res.Inserted + res.Updated + res.Unchanged
		s.metrics.ObserveSync(metrics.OutcomeSuccess, res.Inserted, res.Updated, res.Deleted, total, res.Duration)
	}

	l.Info("Sync finished",
		zap.String("state", string(res.State)),
		zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated),
		zap.Int("deleted", res.Deleted),
		zap.Int("unchanged", res.Unchanged),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func (s *Service) runSync(ctx context.Context, src snapshot.Source, opts SyncOptions, res *Result, l *zap.Logger) (err error) {
	transition := func(next State) {
		l.Debug("Sync state change", zap.String("from", string(res.State)), zap.String("to", string(next)))
		res.State = next
	}

	transition(StateLoading)
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		transition(StateAborted)
		return err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			if err == nil {
				// dry run: nothing was written, so there is no cause to report
				err = &models.StoreError{Op: "rollback", Err: rbErr}
			} else {
				err = &models.RollbackError{Cause: err, Err: rbErr}
			}
		}
		if err != nil {
			transition(StateAborted)
		}
	}()

	current, err := s.repo.FetchAll(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to load current records: %w", err)
	}
	target, err := snapshot.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	l.Debug("Loaded collections", zap.Int("current", len(current)), zap.Int("target", len(target)))

	transition(StateDiffing)
	plan := reconcile.ReconcileWithPlan(orgUnitSpec, current, target)
	res.Inserted = plan.Summary.Inserts
	res.Updated = plan.Summary.Updates
	res.Deleted = plan.Summary.Deletes
	res.Unchanged = plan.Summary.Unchanged

	if opts.DryRun {
		transition(StatePlanned)
		return nil
	}

	transition(StateApplying)
	if _, err = reconcile.ApplyPlan(ctx, &txMutator{repo: s.repo, tx: tx}, plan, reconcile.ReconcileOptions{}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return &models.StoreError{Op: "commit", Err: err}
	}
	committed = true
	transition(StateCommitted)
	return nil
}

// Export writes every stored record to dst and returns the record count.
// Concurrent exports to the same destination share one run.
func (s *Service) Export(ctx context.Context, dst snapshot.Destination) (int, error) {
	v, err, shared := s.exports.Do(dst.String(), func() (interface{}, error) {
		start := time.Now()
		count, err := s.export(ctx, dst)
		if err != nil {
			s.metrics.ObserveExport(metrics.OutcomeFailure, 0, time.Since(start))
			return 0, err
		}
		s.metrics.ObserveExport(metrics.OutcomeSuccess, count, time.Since(start))
		return count, nil
	})
	if err != nil {
		s.logger.Error("Export failed", zap.String("destination", dst.String()), zap.Error(err))
		return 0, err
	}

	count := v.(int)
	s.logger.Info("Export finished",
		zap.String("destination", dst.String()),
		zap.Int("records", count),
		zap.Bool("shared", shared),
	)
	return count, nil
}

func (s *Service) export(ctx context.Context, dst snapshot.Destination) (int, error) {
	current, err := s.repo.FetchAll(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read records: %w", err)
	}
	if err := snapshot.Save(ctx, dst, current); err != nil {
		return 0, err
	}
	return len(current), nil
}

// List returns the stored records ordered by key.
func (s *Service) List(ctx context.Context) ([]models.OrgUnit, error) {
	current, err := s.repo.FetchAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	return current.Sorted(), nil
}

// Snapshot returns the stored records encoded as a snapshot document.
func (s *Service) Snapshot(ctx context.Context) ([]byte, int, error) {
	current, err := s.repo.FetchAll(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	data, err := snapshot.Marshal(current)
	if err != nil {
		return nil, 0, err
	}
	return data, len(current), nil
}
