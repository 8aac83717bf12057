package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldsync/internal/model"
)

func TestAddOrderBooking_RecordsVisit(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	bookingID, err := env.store.AddOrderBooking(ctx, model.NewOrderBooking{
		CustomerID:  2,
		OrderNo:     "ORD-100",
		CreatedByID: "rep-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "id-0007", bookingID)

	c, err := env.store.GetCustomer(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.VisitVisited, c.Visited)
	assert.Equal(t, testStart, c.LastSeen)

	logs, err := env.store.GetActivityLog(ctx, "2025-03-14")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, int64(2), logs[0].CustomerID)
	assert.Equal(t, "Ayesha Khan", logs[0].CustomerName)
	assert.Equal(t, model.VisitVisited, logs[0].Status)

	d, err := env.store.GetOrderDetails(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", d.Booking.OrderDate)
	assert.Equal(t, testStart, d.Booking.CreatedDate)
	assert.Equal(t, "rep-7", d.Booking.CreatedByID)
	assert.Empty(t, d.Lines)
}

func TestAddOrderBooking_FlipsExistingActivityRow(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	inserted, err := env.store.EnsureActivityLog(ctx, 2, "Ayesha Khan", "2025-03-14")
	require.NoError(t, err)
	require.True(t, inserted)

	_, err = env.store.AddOrderBooking(ctx, model.NewOrderBooking{
		CustomerID:   2,
		CustomerName: "Someone Else",
		OrderNo:      "ORD-101",
	})
	require.NoError(t, err)

	logs, err := env.store.GetActivityLog(ctx, "2025-03-14")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.VisitVisited, logs[0].Status)
	// The snapshot taken when the row was created is kept.
	assert.Equal(t, "Ayesha Khan", logs[0].CustomerName)
}

func TestAddOrderBooking_UnknownCustomer(t *testing.T) {
	env := createTestStore(t)

	_, err := env.store.AddOrderBooking(context.Background(), model.NewOrderBooking{CustomerID: 404, OrderNo: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, countRows(t, env.store, "order_bookings"))
	assert.Equal(t, 0, countRows(t, env.store, "activity_logs"))
}

func TestAddOrderBooking_CommitFailureLeavesNoTrace(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()
	env.store.beforeCommit = func(string) error { return errors.New("disk I/O error") }

	_, err := env.store.AddOrderBooking(ctx, model.NewOrderBooking{CustomerID: 2, OrderNo: "ORD-1"})
	require.Error(t, err)

	assert.Equal(t, 0, countRows(t, env.store, "order_bookings"))
	assert.Equal(t, 0, countRows(t, env.store, "activity_logs"))
	c, err := env.store.GetCustomer(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.VisitUnvisited, c.Visited)
	assert.Empty(t, c.LastSeen)
}

func TestAddOrderBookingLine(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()
	item := firstItem(t, env.store)

	bookingID, err := env.store.AddOrderBooking(ctx, model.NewOrderBooking{CustomerID: 1, OrderNo: "ORD-1"})
	require.NoError(t, err)

	lineID, err := env.store.AddOrderBookingLine(ctx, model.NewOrderBookingLine{
		BookingID: bookingID,
		ItemID:    item.ID,
		OrderQty:  2,
		UnitPrice: dec("1850"),
		Amount:    dec("3700"),
	})
	require.NoError(t, err)

	d, err := env.store.GetOrderDetails(ctx, bookingID)
	require.NoError(t, err)
	require.Len(t, d.Lines, 1)
	assert.Equal(t, lineID, d.Lines[0].LineID)
	assert.Equal(t, item.Name, d.Lines[0].ItemName)
	assert.Equal(t, "3700", d.Lines[0].Amount.String())
	assert.Equal(t, testStart, d.Lines[0].CreatedAt)
}

func TestAddOrderBookingLine_FailureWritesNothing(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()
	item := firstItem(t, env.store)

	bookingID, err := env.store.AddOrderBooking(ctx, model.NewOrderBooking{CustomerID: 1, OrderNo: "ORD-1"})
	require.NoError(t, err)

	line := model.NewOrderBookingLine{
		BookingID: bookingID,
		ItemID:    item.ID,
		OrderQty:  1,
		UnitPrice: dec("10"),
		Amount:    dec("10"),
	}

	env.store.beforeCommit = func(op string) error {
		if op == "add order booking line" {
			return errors.New("simulated crash")
		}
		return nil
	}
	_, err = env.store.AddOrderBookingLine(ctx, line)
	require.Error(t, err)
	assert.Equal(t, 0, countRows(t, env.store, "order_booking_lines"))

	line.BookingID = "no-such-booking"
	env.store.beforeCommit = nil
	_, err = env.store.AddOrderBookingLine(ctx, line)
	require.Error(t, err)
	assert.Equal(t, 0, countRows(t, env.store, "order_booking_lines"))
}

func TestAddOrderBookingLine_RejectsZeroQuantity(t *testing.T) {
	env := createTestStore(t)

	_, err := env.store.AddOrderBookingLine(context.Background(), model.NewOrderBookingLine{
		BookingID: "b",
		ItemID:    "i",
		OrderQty:  0,
	})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "gt", verr.Fields["order_qty"])
}

func TestSubmitOrder_FullFlow(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	out, err := env.store.SubmitOrder(ctx, model.OrderSubmission{
		Booking: model.NewOrderBooking{CustomerID: 2, OrderNo: "ORD-100"},
		Lines: []model.OrderLine{
			{ItemID: "id-0001", OrderQty: 3, UnitPrice: dec("100")},
			{ItemID: "id-0002", OrderQty: 1, UnitPrice: dec("500")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "id-0007", out.BookingID)
	assert.Equal(t, []string{"id-0009", "id-0010"}, out.LineIDs)
	assert.Equal(t, 2, out.ItemCount)
	assert.Equal(t, "800", out.TotalAmount.String())

	orders, err := env.store.GetOrdersByCustomer(ctx, 2)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-100", orders[0].OrderNo)
	assert.Equal(t, "Ayesha Khan", orders[0].CustomerName)
	assert.Equal(t, 2, orders[0].ItemCount)
	assert.Equal(t, "800", orders[0].TotalAmount.String())

	d, err := env.store.GetOrderDetails(ctx, out.BookingID)
	require.NoError(t, err)
	require.Len(t, d.Lines, 2)
	assert.Equal(t, "300", d.Lines[0].Amount.String())
	assert.Equal(t, "500", d.Lines[1].Amount.String())

	recent, err := env.store.GetRecentActivities(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, out.BookingID, recent[0].BookingID)
	assert.Equal(t, "Ayesha Khan", recent[0].CustomerName)
	assert.Equal(t, 2, recent[0].ItemCount)
	assert.Equal(t, "800", recent[0].TotalAmount.String())

	sales, err := env.store.GetTodaysSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, "800", sales.Amount.String())
	assert.Equal(t, 2, sales.Lines)
	assert.Equal(t, 1, sales.Orders)

	c, err := env.store.GetCustomer(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.VisitVisited, c.Visited)
}

func TestSubmitOrder_BadLineRollsBackEverything(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	_, err := env.store.SubmitOrder(ctx, model.OrderSubmission{
		Booking: model.NewOrderBooking{CustomerID: 2, OrderNo: "ORD-100"},
		Lines: []model.OrderLine{
			{ItemID: "id-0001", OrderQty: 1, UnitPrice: dec("100")},
			{ItemID: "missing-item", OrderQty: 1, UnitPrice: dec("100")},
		},
	})
	require.Error(t, err)

	for _, table := range []string{"order_bookings", "order_booking_lines", "activity_logs", "recent_activities"} {
		assert.Equal(t, 0, countRows(t, env.store, table), table)
	}
	c, err := env.store.GetCustomer(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.VisitUnvisited, c.Visited)
}

func TestSubmitOrder_RequiresLines(t *testing.T) {
	env := createTestStore(t)

	_, err := env.store.SubmitOrder(context.Background(), model.OrderSubmission{
		Booking: model.NewOrderBooking{CustomerID: 2, OrderNo: "ORD-100"},
	})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "min", verr.Fields["lines"])
}

func TestUpdateOrderBookingLine(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	out, err := env.store.SubmitOrder(ctx, model.OrderSubmission{
		Booking: model.NewOrderBooking{CustomerID: 1, OrderNo: "ORD-1"},
		Lines:   []model.OrderLine{{ItemID: "id-0001", OrderQty: 1, UnitPrice: dec("250")}},
	})
	require.NoError(t, err)
	lineID := out.LineIDs[0]

	require.NoError(t, env.store.UpdateOrderBookingLine(ctx, lineID, model.LineUpdate{OrderQty: 4, Amount: dec("1000")}))

	d, err := env.store.GetOrderDetails(ctx, out.BookingID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), d.Lines[0].OrderQty)
	assert.Equal(t, "1000", d.Lines[0].Amount.String())
	assert.Equal(t, "250", d.Lines[0].UnitPrice.String())

	require.NoError(t, env.store.UpdateOrderBookingLineDetails(ctx, model.LineDetails{
		LineID:    lineID,
		ItemID:    "id-0003",
		OrderQty:  2,
		UnitPrice: dec("950"),
		Amount:    dec("1900"),
	}))

	d, err = env.store.GetOrderDetails(ctx, out.BookingID)
	require.NoError(t, err)
	assert.Equal(t, "Black Tea 475g", d.Lines[0].ItemName)
	assert.Equal(t, "1900", d.Lines[0].Amount.String())
}

func TestUpdateAndDeleteLine_NotFound(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	err := env.store.UpdateOrderBookingLine(ctx, "missing", model.LineUpdate{OrderQty: 1, Amount: dec("1")})
	assert.ErrorIs(t, err, ErrNotFound)

	err = env.store.UpdateOrderBookingLineDetails(ctx, model.LineDetails{
		LineID: "missing", ItemID: "id-0001", OrderQty: 1,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	err = env.store.DeleteOrderBookingLine(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteOrderBookingLine(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	out, err := env.store.SubmitOrder(ctx, model.OrderSubmission{
		Booking: model.NewOrderBooking{CustomerID: 1, OrderNo: "ORD-1"},
		Lines: []model.OrderLine{
			{ItemID: "id-0001", OrderQty: 1, UnitPrice: dec("10")},
			{ItemID: "id-0002", OrderQty: 1, UnitPrice: dec("20")},
		},
	})
	require.NoError(t, err)

	require.NoError(t, env.store.DeleteOrderBookingLine(ctx, out.LineIDs[0]))

	orders, err := env.store.GetAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 1, orders[0].ItemCount)
	assert.Equal(t, "20", orders[0].TotalAmount.String())
}

func TestGetAllOrders_NewestFirst(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	_, err := env.store.AddOrderBooking(ctx, model.NewOrderBooking{CustomerID: 1, OrderNo: "ORD-1"})
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	_, err = env.store.AddOrderBooking(ctx, model.NewOrderBooking{CustomerID: 3, OrderNo: "ORD-2"})
	require.NoError(t, err)

	orders, err := env.store.GetAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-2", orders[0].OrderNo)
	assert.Equal(t, "ORD-1", orders[1].OrderNo)
	assert.Equal(t, 0, orders[1].ItemCount)
	assert.True(t, orders[1].TotalAmount.IsZero())
}

func TestGetOrderDetails_NotFound(t *testing.T) {
	env := createTestStore(t)

	_, err := env.store.GetOrderDetails(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderTotals_FractionalAmountsAreExact(t *testing.T) {
	env := createTestStore(t)
	ctx := context.Background()

	out, err := env.store.SubmitOrder(ctx, model.OrderSubmission{
		Booking: model.NewOrderBooking{CustomerID: 2, OrderNo: "ORD-CENTS"},
		Lines: []model.OrderLine{
			{ItemID: "id-0001", OrderQty: 1, UnitPrice: dec("0.1")},
			{ItemID: "id-0002", OrderQty: 1, UnitPrice: dec("0.2")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "0.3", out.TotalAmount.String())

	all, err := env.store.GetAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "0.3", all[0].TotalAmount.String())
	assert.Equal(t, 2, all[0].ItemCount)

	mine, err := env.store.GetOrdersByCustomer(ctx, 2)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "0.3", mine[0].TotalAmount.String())

	recent, err := env.store.GetRecentActivities(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].TotalAmount.Equal(out.TotalAmount), "feed %s, order %s", recent[0].TotalAmount, out.TotalAmount)
}
