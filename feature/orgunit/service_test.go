package orgunit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"orgunit-sync/core/database"
	"orgunit-sync/core/metrics"
	"orgunit-sync/feature/orgunit/models"
	"orgunit-sync/feature/orgunit/snapshot"
	"orgunit-sync/feature/orgunit/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupStore(t *testing.T, units ...models.OrgUnit) *store.Store {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	st := store.New(db)
	ctx := context.Background()
	require.NoError(t, st.EnsureSchema(ctx))

	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, st.InsertAll(ctx, tx, units))
	require.NoError(t, tx.Commit())
	return st
}

// contents returns the stored descriptions by key, ignoring surrogate ids.
func contents(t *testing.T, repo Repository) map[models.Key]string {
	c, err := repo.FetchAll(context.Background(), nil)
	require.NoError(t, err)
	out := make(map[models.Key]string, len(c))
	for k, u := range c {
		out[k] = u.Description
	}
	return out
}

func source(t *testing.T, units ...models.OrgUnit) snapshot.Source {
	c, err := models.NewCollection("test", units...)
	require.NoError(t, err)
	data, err := snapshot.Marshal(c)
	require.NoError(t, err)
	return &snapshot.BytesSource{Name: "test", Data: data}
}

func key(code, job string) models.Key {
	return models.Key{Code: code, Job: job}
}

func TestSync_AppliesAllChangeKinds(t *testing.T) {
	st := setupStore(t,
		models.NewOrgUnit("A", "B", "x"),
		models.NewOrgUnit("C", "D", "y"),
		models.NewOrgUnit("G", "H", "same"),
	)
	svc := NewService(st, zap.NewNop(), nil)

	res, err := svc.Sync(context.Background(), source(t,
		models.NewOrgUnit("A", "B", "x2"),
		models.NewOrgUnit("E", "F", "z"),
		models.NewOrgUnit("G", "H", "same"),
	), SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, StateCommitted, res.State)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 1, res.Unchanged)
	assert.False(t, res.DryRun)

	assert.Equal(t, map[models.Key]string{
		key("A", "B"): "x2",
		key("E", "F"): "z",
		key("G", "H"): "same",
	}, contents(t, st))
}

func TestSync_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		current []models.OrgUnit
		target  []models.OrgUnit
		want    map[models.Key]string
		counts  [3]int // inserted, updated, deleted
	}{
		{
			name:    "Description change",
			current: []models.OrgUnit{models.NewOrgUnit("A", "B", "x")},
			target:  []models.OrgUnit{models.NewOrgUnit("A", "B", "y")},
			want:    map[models.Key]string{key("A", "B"): "y"},
			counts:  [3]int{0, 1, 0},
		},
		{
			name:   "Empty store",
			target: []models.OrgUnit{models.NewOrgUnit("A", "B", "x")},
			want:   map[models.Key]string{key("A", "B"): "x"},
			counts: [3]int{1, 0, 0},
		},
		{
			name:    "Empty snapshot",
			current: []models.OrgUnit{models.NewOrgUnit("A", "B", "x")},
			want:    map[models.Key]string{},
			counts:  [3]int{0, 0, 1},
		},
		{
			name:    "Case sensitive description",
			current: []models.OrgUnit{models.NewOrgUnit("A", "B", "x")},
			target:  []models.OrgUnit{models.NewOrgUnit("A", "B", "X")},
			want:    map[models.Key]string{key("A", "B"): "X"},
			counts:  [3]int{0, 1, 0},
		},
		{
			name:    "Key change is delete plus insert",
			current: []models.OrgUnit{models.NewOrgUnit("A", "B", "x")},
			target:  []models.OrgUnit{models.NewOrgUnit("A", "C", "x")},
			want:    map[models.Key]string{key("A", "C"): "x"},
			counts:  [3]int{1, 0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := setupStore(t, tt.current...)
			svc := NewService(st, zap.NewNop(), nil)

			res, err := svc.Sync(context.Background(), source(t, tt.target...), SyncOptions{})
			require.NoError(t, err)
			assert.Equal(t, StateCommitted, res.State)
			assert.Equal(t, tt.counts, [3]int{res.Inserted, res.Updated, res.Deleted})
			assert.Equal(t, tt.want, contents(t, st))
		})
	}
}

func TestSync_SecondRunIsNoop(t *testing.T) {
	st := setupStore(t, models.NewOrgUnit("A", "B", "x"), models.NewOrgUnit("C", "D", "y"))
	svc := NewService(st, zap.NewNop(), nil)
	target := source(t, models.NewOrgUnit("A", "B", "new"), models.NewOrgUnit("Q", "R", "q"))

	_, err := svc.Sync(context.Background(), target, SyncOptions{})
	require.NoError(t, err)

	res, err := svc.Sync(context.Background(), target, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, res.State)
	assert.Zero(t, res.Inserted+res.Updated+res.Deleted)
	assert.Equal(t, 2, res.Unchanged)
}

func TestSync_DryRun(t *testing.T) {
	st := setupStore(t, models.NewOrgUnit("A", "B", "x"))
	svc := NewService(st, zap.NewNop(), nil)
	before := contents(t, st)

	res, err := svc.Sync(context.Background(), source(t, models.NewOrgUnit("C", "D", "y")), SyncOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, StatePlanned, res.State)
	assert.True(t, res.DryRun)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, before, contents(t, st))
}

func TestSync_InvalidSnapshotLeavesStoreUntouched(t *testing.T) {
	dup := &snapshot.BytesSource{Name: "dup.xml", Data: []byte(`<departments>
  <department><depCode>A</depCode><depJob>B</depJob><description>1</description></department>
  <department><depCode>A</depCode><depJob>B</depJob><description>2</description></department>
</departments>`)}

	tests := []struct {
		name string
		src  snapshot.Source
		want error
	}{
		{"Missing file", snapshot.NewFileLocation(afero.NewMemMapFs(), "missing.xml"), models.ErrFormat},
		{"Malformed", &snapshot.BytesSource{Name: "bad.xml", Data: []byte("<departments>")}, models.ErrFormat},
		{"Duplicate key", dup, models.ErrDuplicateKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := setupStore(t, models.NewOrgUnit("A", "B", "x"))
			svc := NewService(st, zap.NewNop(), nil)
			before := contents(t, st)

			res, err := svc.Sync(context.Background(), tt.src, SyncOptions{})
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, StateAborted, res.State)
			assert.Equal(t, before, contents(t, st))
		})
	}
}

func TestSync_ConnectivityFailure(t *testing.T) {
	svc := NewService(store.New(nil), zap.NewNop(), nil)

	res, err := svc.Sync(context.Background(), source(t), SyncOptions{})
	assert.ErrorIs(t, err, models.ErrConnectivity)
	assert.Equal(t, StateAborted, res.State)
}

// faultyRepo wraps a real store and injects failures.
type faultyRepo struct {
	*store.Store
	failInsert   error
	failCommit   error
	failRollback error

	mu    sync.Mutex
	calls []string
}

type faultyTx struct {
	inner store.Tx
	repo  *faultyRepo
}

func (tx *faultyTx) Commit() error {
	tx.repo.record("commit")
	if tx.repo.failCommit != nil {
		_ = tx.inner.Rollback()
		return tx.repo.failCommit
	}
	return tx.inner.Commit()
}

func (tx *faultyTx) Rollback() error {
	tx.repo.record("rollback")
	err := tx.inner.Rollback()
	if tx.repo.failRollback != nil {
		return tx.repo.failRollback
	}
	return err
}

func (r *faultyRepo) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *faultyRepo) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := r.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{inner: tx, repo: r}, nil
}

func unwrap(tx store.Tx) store.Tx {
	if f, ok := tx.(*faultyTx); ok {
		return f.inner
	}
	return tx
}

func (r *faultyRepo) FetchAll(ctx context.Context, tx store.Tx) (models.Collection, error) {
	return r.Store.FetchAll(ctx, unwrap(tx))
}

func (r *faultyRepo) DeleteAll(ctx context.Context, tx store.Tx, units []models.OrgUnit) error {
	r.record("delete")
	return r.Store.DeleteAll(ctx, unwrap(tx), units)
}

func (r *faultyRepo) UpdateAll(ctx context.Context, tx store.Tx, units []models.OrgUnit) error {
	r.record("update")
	return r.Store.UpdateAll(ctx, unwrap(tx), units)
}

func (r *faultyRepo) InsertAll(ctx context.Context, tx store.Tx, units []models.OrgUnit) error {
	r.record("insert")
	if r.failInsert != nil {
		return &models.StoreError{Op: "insert", Err: r.failInsert}
	}
	return r.Store.InsertAll(ctx, unwrap(tx), units)
}

func TestSync_ApplyOrder(t *testing.T) {
	repo := &faultyRepo{Store: setupStore(t, models.NewOrgUnit("A", "B", "x"), models.NewOrgUnit("C", "D", "y"))}
	svc := NewService(repo, zap.NewNop(), nil)

	_, err := svc.Sync(context.Background(), source(t,
		models.NewOrgUnit("A", "B", "changed"),
		models.NewOrgUnit("E", "F", "new"),
	), SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"delete", "update", "insert", "commit"}, repo.calls)
}

func TestSync_SkipsEmptyGroups(t *testing.T) {
	repo := &faultyRepo{Store: setupStore(t, models.NewOrgUnit("A", "B", "x"))}
	svc := NewService(repo, zap.NewNop(), nil)

	_, err := svc.Sync(context.Background(), source(t, models.NewOrgUnit("A", "B", "y")), SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"update", "commit"}, repo.calls)
}

func TestSync_IdenticalStillCommits(t *testing.T) {
	repo := &faultyRepo{Store: setupStore(t, models.NewOrgUnit("A", "B", "x"))}
	svc := NewService(repo, zap.NewNop(), nil)

	res, err := svc.Sync(context.Background(), source(t, models.NewOrgUnit("A", "B", "x")), SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, res.State)
	assert.Equal(t, []string{"commit"}, repo.calls)
}

func TestSync_FailureAfterDeletesRollsBack(t *testing.T) {
	repo := &faultyRepo{
		Store:      setupStore(t, models.NewOrgUnit("A", "B", "x"), models.NewOrgUnit("C", "D", "y")),
		failInsert: errors.New("disk full"),
	}
	svc := NewService(repo, zap.NewNop(), nil)
	before := contents(t, repo)

	res, err := svc.Sync(context.Background(), source(t,
		models.NewOrgUnit("A", "B", "x2"),
		models.NewOrgUnit("E", "F", "z"),
	), SyncOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStore)
	assert.NotErrorIs(t, err, models.ErrRollback)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "failed to apply orgunit insert batch of 1")
	assert.Equal(t, StateAborted, res.State)
	assert.Equal(t, []string{"delete", "update", "insert", "rollback"}, repo.calls)

	// The delete and update that ran before the failure are undone.
	assert.Equal(t, before, contents(t, repo))
}

func TestSync_RollbackFailure(t *testing.T) {
	rbErr := errors.New("connection reset")
	repo := &faultyRepo{
		Store:        setupStore(t, models.NewOrgUnit("A", "B", "x")),
		failInsert:   errors.New("disk full"),
		failRollback: rbErr,
	}
	svc := NewService(repo, zap.NewNop(), nil)

	res, err := svc.Sync(context.Background(), source(t, models.NewOrgUnit("E", "F", "z")), SyncOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRollback)
	assert.ErrorIs(t, err, rbErr)
	assert.ErrorIs(t, err, models.ErrStore, "original cause stays reachable")
	assert.Equal(t, StateAborted, res.State)
}

func TestSync_CommitFailure(t *testing.T) {
	repo := &faultyRepo{
		Store:      setupStore(t, models.NewOrgUnit("A", "B", "x")),
		failCommit: errors.New("serialization failure"),
	}
	svc := NewService(repo, zap.NewNop(), nil)
	before := contents(t, repo)

	res, err := svc.Sync(context.Background(), source(t, models.NewOrgUnit("E", "F", "z")), SyncOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStore)
	assert.NotErrorIs(t, err, models.ErrRollback, "a finished transaction is not a rollback failure")
	assert.Equal(t, StateAborted, res.State)
	assert.Equal(t, before, contents(t, repo))
}

func TestSync_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewSyncMetrics(reg)
	require.NoError(t, err)

	st := setupStore(t, models.NewOrgUnit("A", "B", "x"))
	svc := NewService(st, zap.NewNop(), m)

	_, err = svc.Sync(context.Background(), source(t, models.NewOrgUnit("C", "D", "y")), SyncOptions{})
	require.NoError(t, err)
	_, err = svc.Sync(context.Background(), &snapshot.BytesSource{Name: "bad", Data: nil}, SyncOptions{})
	require.Error(t, err)

	n, err := testutil.GatherAndCount(reg, "orgunit_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per outcome")
}

func TestExport_RoundTrip(t *testing.T) {
	st := setupStore(t,
		models.NewOrgUnit("A", "B", "x"),
		models.NewOrgUnit("R&D", "Lead", "<b>bold</b>"),
	)
	svc := NewService(st, zap.NewNop(), nil)
	loc := snapshot.NewFileLocation(afero.NewMemMapFs(), "test.xml")

	n, err := svc.Export(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Syncing the store against its own export changes nothing.
	res, err := svc.Sync(context.Background(), loc, SyncOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.Inserted+res.Updated+res.Deleted)
	assert.Equal(t, 2, res.Unchanged)
}

func TestExport_Overwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "test.xml", []byte("stale content that is longer than the export"), 0o644))

	svc := NewService(setupStore(t), zap.NewNop(), nil)
	n, err := svc.Export(context.Background(), snapshot.NewFileLocation(fs, "test.xml"))
	require.NoError(t, err)
	assert.Zero(t, n)

	data, err := afero.ReadFile(fs, "test.xml")
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.Contains(t, string(data), "<departments></departments>")
}

func TestExport_StoreFailure(t *testing.T) {
	svc := NewService(store.New(nil), zap.NewNop(), nil)

	_, err := svc.Export(context.Background(), snapshot.NewFileLocation(afero.NewMemMapFs(), "out.xml"))
	assert.ErrorIs(t, err, models.ErrConnectivity)
}

func TestList(t *testing.T) {
	svc := NewService(setupStore(t,
		models.NewOrgUnit("B", "a", "2"),
		models.NewOrgUnit("A", "a", "1"),
	), zap.NewNop(), nil)

	units, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, key("A", "a"), units[0].Key)
	assert.Equal(t, key("B", "a"), units[1].Key)
}
