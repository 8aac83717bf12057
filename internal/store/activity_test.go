package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldsync/internal/model"
)

func TestEnsureActivityLog_Idempotent(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	inserted, err := env.store.EnsureActivityLog(ctx, 1, "Ali Raza", "2025-03-14")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = env.store.EnsureActivityLog(ctx, 1, "Renamed", "2025-03-14")
	require.NoError(t, err)
	assert.False(t, inserted)

	logs, err := env.store.GetActivityLog(ctx, "2025-03-14")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Ali Raza", logs[0].CustomerName)
	assert.Equal(t, model.VisitUnvisited, logs[0].Status)
}

func TestEnsureActivityLog_DoesNotDowngradeVisited(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, env.store.MarkCustomerVisited(ctx, 1))

	inserted, err := env.store.EnsureActivityLog(ctx, 1, "Ali Raza", "2025-03-14")
	require.NoError(t, err)
	assert.False(t, inserted)

	logs, err := env.store.GetActivityLog(ctx, "2025-03-14")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.VisitVisited, logs[0].Status)
}

func TestEnsureActivityLog_SeparateDates(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	for _, date := range []string{"2025-03-13", "2025-03-14"} {
		inserted, err := env.store.EnsureActivityLog(ctx, 1, "Ali Raza", date)
		require.NoError(t, err)
		assert.True(t, inserted, date)
	}
	assert.Equal(t, 2, countRows(t, env.store, "activity_logs"))
}

func TestResetAllVisited(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, env.store.MarkCustomerVisited(ctx, 1))
	require.NoError(t, env.store.MarkCustomerVisited(ctx, 4))

	n, err := env.store.ResetAllVisited(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	customers, err := env.store.GetAllCustomers(ctx)
	require.NoError(t, err)
	for _, c := range customers {
		assert.Equal(t, model.VisitUnvisited, c.Visited, c.Name)
	}

	// Activity history is untouched by the reset.
	logs, err := env.store.GetActivityLog(ctx, "2025-03-14")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, model.VisitVisited, l.Status)
	}
}

func TestSettings_FreshInstallThenSet(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	_, err := env.store.GetSettings(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.store.SetLastResetDate(ctx, "2025-03-13"))
	require.NoError(t, env.store.SetLastResetDate(ctx, "2025-03-14"))

	st, err := env.store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ID)
	assert.Equal(t, "2025-03-14", st.LastResetDate)
	assert.Equal(t, 1, countRows(t, env.store, "app_settings"))
}

func TestMarkCustomerVisited_UnknownCustomer(t *testing.T) {
	env := createTestStore(t)

	err := env.store.MarkCustomerVisited(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, countRows(t, env.store, "activity_logs"))
}

func TestGetAllActivityLogs_OrderedByDate(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	for _, row := range []struct {
		id   int64
		date string
	}{{3, "2025-03-14"}, {1, "2025-03-14"}, {2, "2025-03-13"}} {
		_, err := env.store.EnsureActivityLog(ctx, row.id, "x", row.date)
		require.NoError(t, err)
	}

	logs, err := env.store.GetAllActivityLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "2025-03-13", logs[0].Date)
	assert.Equal(t, int64(1), logs[1].CustomerID)
	assert.Equal(t, int64(3), logs[2].CustomerID)
}
