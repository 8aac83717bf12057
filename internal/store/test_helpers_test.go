package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldsync/internal/model"
	"github.com/roach88/fieldsync/internal/testutil"
)

// testStart is the instant every test store starts at.
const testStart = "2025-03-14 09:30:00"

// testEnv bundles a store with the clock and id generator driving it.
type testEnv struct {
	store *Store
	clock *testutil.FixedClock
	ids   *testutil.SequentialIDs
}

// createTestStore opens a seeded store in a temp directory with a fixed
// clock and sequential ids.
func createTestStore(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	env := &testEnv{
		clock: testutil.NewFixedClockAt(testStart),
		ids:   testutil.NewSequentialIDs("id"),
	}
	base := []Option{
		WithClock(env.clock),
		WithIDGenerator(env.ids),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, append(base, opts...)...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	env.store = s
	return env
}

// firstItem returns the first catalog item by name.
func firstItem(t *testing.T, s *Store) model.Item {
	t.Helper()
	items, err := s.GetItems(context.Background(), "")
	require.NoError(t, err)
	require.NotEmpty(t, items)
	return items[0]
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// countRows returns the number of rows in table.
func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
