package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luftscan/luftscan/scan"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "scans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func storedResult() *scan.ScanResult {
	res := scan.NewScanResult([]string{"phi_0", "chi"}, []string{"collapse_probability", "formation_time"})
	res.Rows = []scan.EvaluationResult{
		{
			Index:       0,
			Parameters:  scan.ParameterSet{"phi_0": 1e-3, "chi": 2.5e-9},
			Observables: scan.Observables{"collapse_probability": scan.Float(0.25), "formation_time": scan.Float(1.5e7)},
			Success:     true,
		},
		{
			Index:       1,
			Parameters:  scan.ParameterSet{"phi_0": 0.5, "chi": 1e-12},
			Observables: scan.Observables{"collapse_probability": nil, "formation_time": nil},
			Error:       "EM portal coupling chi must be positive",
		},
	}
	return res
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	// GIVEN a stored scan with a null observable and a failed row
	st := openTestStore(t)
	ctx := context.Background()
	meta := ScanMeta{Objective: "luft", Method: scan.MethodLHS, Samples: 2, Seed: 42}

	// WHEN saving and loading it
	id, err := st.Save(ctx, meta, storedResult())
	require.NoError(t, err)
	require.NotEmpty(t, id)
	gotMeta, got, err := st.Load(ctx, id)
	require.NoError(t, err)

	// THEN the table and metadata survive unchanged
	assert.Equal(t, storedResult(), got)
	assert.Equal(t, id, gotMeta.ID)
	assert.Equal(t, "luft", gotMeta.Objective)
	assert.Equal(t, 1, gotMeta.Succeeded)
	assert.Equal(t, int64(42), gotMeta.Seed)
	assert.False(t, gotMeta.CreatedAt.IsZero())
}

func TestStore_LoadMissing(t *testing.T) {
	st := openTestStore(t)
	_, _, err := st.Load(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, id := range []string{"old", "newest", "middle"} {
		offset := map[string]time.Duration{"old": 0, "middle": time.Second, "newest": 2 * time.Second}[id]
		meta := ScanMeta{ID: id, Objective: "luft", Method: scan.MethodRandom, Samples: i + 1, CreatedAt: base.Add(offset)}
		_, err := st.Save(ctx, meta, storedResult())
		require.NoError(t, err)
	}

	metas, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, []string{"newest", "middle", "old"}, []string{metas[0].ID, metas[1].ID, metas[2].ID})
	assert.True(t, metas[0].CreatedAt.Equal(base.Add(2*time.Second)))
}

func TestStore_DuplicateIDRejected(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	meta := ScanMeta{ID: "fixed", Objective: "luft", Method: scan.MethodLHS, Samples: 2}

	_, err := st.Save(ctx, meta, storedResult())
	require.NoError(t, err)
	_, err = st.Save(ctx, meta, storedResult())
	assert.Error(t, err)

	metas, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, metas, 1, "failed save must roll back")
}

func TestMetaFromSpec(t *testing.T) {
	spec := &scan.ScanSpec{Objective: "luft-q", Method: scan.MethodRandom, Samples: 9, Seed: 3}
	assert.Equal(t, ScanMeta{Objective: "luft-q", Method: scan.MethodRandom, Samples: 9, Seed: 3}, MetaFromSpec(spec))
}

func TestDSN_AppendsPragmas(t *testing.T) {
	assert.Equal(t, "scans.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dsn("scans.db"))
	assert.Equal(t, "file:scans.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dsn("file:scans.db?mode=rwc"))
}

func TestStore_ForeignKeysOnEveryConnection(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	// GIVEN two pooled connections held open at the same time
	c1, err := st.db.Conn(ctx)
	require.NoError(t, err)
	defer func() { _ = c1.Close() }()
	c2, err := st.db.Conn(ctx)
	require.NoError(t, err)
	defer func() { _ = c2.Close() }()

	// THEN foreign keys are enforced on both
	for i, c := range []*sql.Conn{c1, c2} {
		var on int
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on))
		assert.Equal(t, 1, on, "connection %d", i)
	}
}

func TestStore_DeleteCascadesToRows(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id, err := st.Save(ctx, ScanMeta{Objective: "luft", Method: scan.MethodLHS, Samples: 2}, storedResult())
	require.NoError(t, err)

	_, err = st.db.ExecContext(ctx, "DELETE FROM scans WHERE scan_id = ?", id)
	require.NoError(t, err)

	var n int
	require.NoError(t, st.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scan_rows WHERE scan_id = ?", id).Scan(&n))
	assert.Zero(t, n)
}

func TestStore_MalformedCreatedAt(t *testing.T) {
	// GIVEN a stored scan whose created_at is not in the store's layout
	st := openTestStore(t)
	ctx := context.Background()
	id, err := st.Save(ctx, ScanMeta{Objective: "luft", Method: scan.MethodLHS, Samples: 2}, storedResult())
	require.NoError(t, err)
	_, err = st.db.ExecContext(ctx, "UPDATE scans SET created_at = 'yesterday' WHERE scan_id = ?", id)
	require.NoError(t, err)

	// WHEN listing or loading it
	_, listErr := st.List(ctx)
	_, _, loadErr := st.Load(ctx, id)

	// THEN both report the parse failure
	assert.ErrorContains(t, listErr, "created_at")
	assert.ErrorContains(t, loadErr, "created_at")
}
