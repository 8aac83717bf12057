package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldsync/internal/model"
)

func TestSales_TodayAndLastMonth(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	orders := []struct {
		at     time.Time
		amount string
	}{
		{time.Date(2025, 2, 10, 10, 0, 0, 0, time.Local), "100"},
		{time.Date(2025, 2, 14, 8, 0, 0, 0, time.Local), "200"},
		{time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local), "300"},
		{time.Date(2025, 3, 14, 9, 0, 0, 0, time.Local), "400"},
	}
	for i, o := range orders {
		env.clock.Set(o.at)
		_, err := env.store.SubmitOrder(ctx, model.OrderSubmission{
			Booking: model.NewOrderBooking{CustomerID: 1, OrderNo: "ORD-" + o.amount},
			Lines:   []model.OrderLine{{ItemID: "id-0001", OrderQty: 1, UnitPrice: dec(o.amount)}},
		})
		require.NoError(t, err, "order %d", i)
	}
	env.clock.Set(time.Date(2025, 3, 14, 18, 0, 0, 0, time.Local))

	today, err := env.store.GetTodaysSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", today.From)
	assert.Equal(t, "2025-03-14", today.To)
	assert.Equal(t, "400", today.Amount.String())
	assert.Equal(t, 1, today.Orders)

	month, err := env.store.GetLastMonthSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-14", month.From)
	assert.Equal(t, "2025-03-14", month.To)
	assert.Equal(t, "900", month.Amount.String())
	assert.Equal(t, 3, month.Lines)
	assert.Equal(t, 3, month.Orders)
}

func TestSales_NoLines(t *testing.T) {
	env := createTestStore(t)

	total, err := env.store.GetTodaysSales(context.Background())
	require.NoError(t, err)
	assert.True(t, total.Amount.IsZero())
	assert.Equal(t, 0, total.Lines)
}

func TestSales_FractionalAmountsAreExact(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	for i, price := range []string{"0.1", "0.2"} {
		_, err := env.store.SubmitOrder(ctx, model.OrderSubmission{
			Booking: model.NewOrderBooking{CustomerID: 1, OrderNo: "ORD-" + price},
			Lines:   []model.OrderLine{{ItemID: "id-0001", OrderQty: 1, UnitPrice: dec(price)}},
		})
		require.NoError(t, err, "order %d", i)
	}

	today, err := env.store.GetTodaysSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.3", today.Amount.String())
	assert.Equal(t, 2, today.Lines)
	assert.Equal(t, 2, today.Orders)

	month, err := env.store.GetLastMonthSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.3", month.Amount.String())
}

func TestSales_LastMonthWindowAtMonthEnd(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	tests := []struct {
		now      time.Time
		wantFrom string
	}{
		{time.Date(2025, 3, 31, 12, 0, 0, 0, time.Local), "2025-02-28"},
		{time.Date(2024, 3, 31, 12, 0, 0, 0, time.Local), "2024-02-29"},
		{time.Date(2025, 5, 31, 12, 0, 0, 0, time.Local), "2025-04-30"},
		{time.Date(2025, 1, 15, 12, 0, 0, 0, time.Local), "2024-12-15"},
		{time.Date(2025, 3, 28, 12, 0, 0, 0, time.Local), "2025-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.now.Format("2006-01-02"), func(t *testing.T) {
			env.clock.Set(tt.now)
			month, err := env.store.GetLastMonthSales(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, month.From)
			assert.Equal(t, tt.now.Format("2006-01-02"), month.To)
		})
	}
}

func TestSales_MonthEndExcludesEarlyFebruary(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	for _, at := range []time.Time{
		time.Date(2025, 2, 27, 10, 0, 0, 0, time.Local),
		time.Date(2025, 2, 28, 10, 0, 0, 0, time.Local),
		time.Date(2025, 3, 3, 10, 0, 0, 0, time.Local),
	} {
		env.clock.Set(at)
		_, err := env.store.SubmitOrder(ctx, model.OrderSubmission{
			Booking: model.NewOrderBooking{CustomerID: 1, OrderNo: "ORD-" + at.Format("0102")},
			Lines:   []model.OrderLine{{ItemID: "id-0001", OrderQty: 1, UnitPrice: dec("10")}},
		})
		require.NoError(t, err)
	}

	env.clock.Set(time.Date(2025, 3, 31, 18, 0, 0, 0, time.Local))
	month, err := env.store.GetLastMonthSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20", month.Amount.String(), "Feb 28 and Mar 3 only")
	assert.Equal(t, 2, month.Orders)
}
