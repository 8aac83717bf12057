package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/fieldsync/internal/model"
)

// AddOrderBooking creates an order header and records the visit it implies:
// the customer becomes Visited with last_seen set to now, and today's
// activity row for the customer is inserted or flipped to Visited.
//
// The three writes share one transaction, in that order; a failure in any of
// them leaves no trace of the booking. Returns the generated booking id.
func (s *Store) AddOrderBooking(ctx context.Context, in model.NewOrderBooking) (string, error) {
	if err := model.Validate("order booking", in); err != nil {
		return "", fmt.Errorf("add order booking: %w", err)
	}

	var bookingID string
	err := s.inTx(ctx, "add order booking", func(tx *sql.Tx) error {
		var err error
		bookingID, _, err = s.writeBookingHeader(ctx, tx, in)
		return err
	})
	if err != nil {
		return "", err
	}
	return bookingID, nil
}

// writeBookingHeader inserts the header and applies its visit side effects.
// Returns the booking id and the customer name snapshot that was used.
func (s *Store) writeBookingHeader(ctx context.Context, tx *sql.Tx, in model.NewOrderBooking) (string, string, error) {
	name := in.CustomerName
	storedName, err := customerName(ctx, tx, in.CustomerID)
	if err != nil {
		return "", "", err
	}
	if name == "" {
		name = storedName
	}

	now := s.now()
	today := s.today()
	orderDate := in.OrderDate
	if orderDate == "" {
		orderDate = today
	}

	bookingID := s.ids.Generate()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_bookings (booking_id, order_date, customer_id, order_no, created_by_id, created_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, bookingID, orderDate, in.CustomerID, in.OrderNo, in.CreatedByID, now)
	if err != nil {
		return "", "", fmt.Errorf("insert booking: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE customers SET visited = ?, last_seen = ? WHERE entity_id = ?
	`, model.VisitVisited, now, in.CustomerID)
	if err != nil {
		return "", "", fmt.Errorf("update customer: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return "", "", fmt.Errorf("customer %d: %w", in.CustomerID, err)
	}

	if err := s.upsertVisitedLog(ctx, tx, in.CustomerID, name, today); err != nil {
		return "", "", err
	}

	return bookingID, name, nil
}

// AddOrderBookingLine inserts one order line in its own transaction.
// On failure nothing is written and the error is returned.
// The amount is persisted as given.
func (s *Store) AddOrderBookingLine(ctx context.Context, in model.NewOrderBookingLine) (string, error) {
	if err := model.Validate("order booking line", in); err != nil {
		return "", fmt.Errorf("add order booking line: %w", err)
	}

	var lineID string
	err := s.inTx(ctx, "add order booking line", func(tx *sql.Tx) error {
		var err error
		lineID, err = s.insertLine(ctx, tx, in)
		return err
	})
	if err != nil {
		return "", err
	}
	return lineID, nil
}

func (s *Store) insertLine(ctx context.Context, q querier, in model.NewOrderBookingLine) (string, error) {
	lineID := s.ids.Generate()
	_, err := q.ExecContext(ctx, `
		INSERT INTO order_booking_lines (line_id, booking_id, item_id, order_qty, unit_price, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, lineID, in.BookingID, in.ItemID, in.OrderQty,
		in.UnitPrice.InexactFloat64(), in.Amount.InexactFloat64(), s.now())
	if err != nil {
		return "", fmt.Errorf("insert line: %w", err)
	}
	return lineID, nil
}

// SubmitOrder writes a complete order atomically: the header with its visit
// side effects, every line (amount = qty × unit price) and the recent
// activity feed entry.
func (s *Store) SubmitOrder(ctx context.Context, in model.OrderSubmission) (model.SubmittedOrder, error) {
	if err := model.Validate("order", in); err != nil {
		return model.SubmittedOrder{}, fmt.Errorf("submit order: %w", err)
	}

	out := model.SubmittedOrder{LineIDs: make([]string, 0, len(in.Lines))}
	err := s.inTx(ctx, "submit order", func(tx *sql.Tx) error {
		bookingID, name, err := s.writeBookingHeader(ctx, tx, in.Booking)
		if err != nil {
			return err
		}
		out.BookingID = bookingID

		total := decimal.Zero
		for i, l := range in.Lines {
			amount := l.Amount()
			lineID, err := s.insertLine(ctx, tx, model.NewOrderBookingLine{
				BookingID: bookingID,
				ItemID:    l.ItemID,
				OrderQty:  l.OrderQty,
				UnitPrice: l.UnitPrice,
				Amount:    amount,
			})
			if err != nil {
				return fmt.Errorf("line %d: %w", i, err)
			}
			out.LineIDs = append(out.LineIDs, lineID)
			total = total.Add(amount)
		}
		out.ItemCount = len(in.Lines)
		out.TotalAmount = total

		return s.insertRecentActivity(ctx, tx, model.RecentActivity{
			BookingID:    bookingID,
			CustomerName: name,
			ItemCount:    out.ItemCount,
			TotalAmount:  total,
		})
	})
	if err != nil {
		return model.SubmittedOrder{}, err
	}
	return out, nil
}

// UpdateOrderBookingLine changes a line's quantity and amount.
// The caller supplies an amount consistent with the new quantity.
func (s *Store) UpdateOrderBookingLine(ctx context.Context, lineID string, in model.LineUpdate) error {
	if err := model.Validate("line update", in); err != nil {
		return fmt.Errorf("update order booking line: %w", err)
	}
	return s.inTx(ctx, "update order booking line", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE order_booking_lines SET order_qty = ?, amount = ? WHERE line_id = ?
		`, in.OrderQty, in.Amount.InexactFloat64(), lineID)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return fmt.Errorf("line %s: %w", lineID, err)
		}
		return nil
	})
}

// UpdateOrderBookingLineDetails replaces item, quantity, unit price and
// amount of an existing line.
func (s *Store) UpdateOrderBookingLineDetails(ctx context.Context, in model.LineDetails) error {
	if err := model.Validate("line details", in); err != nil {
		return fmt.Errorf("update order booking line details: %w", err)
	}
	return s.inTx(ctx, "update order booking line details", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE order_booking_lines
			SET item_id = ?, order_qty = ?, unit_price = ?, amount = ?
			WHERE line_id = ?
		`, in.ItemID, in.OrderQty, in.UnitPrice.InexactFloat64(), in.Amount.InexactFloat64(), in.LineID)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return fmt.Errorf("line %s: %w", in.LineID, err)
		}
		return nil
	})
}

// DeleteOrderBookingLine removes one line by id.
func (s *Store) DeleteOrderBookingLine(ctx context.Context, lineID string) error {
	return s.inTx(ctx, "delete order booking line", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM order_booking_lines WHERE line_id = ?`, lineID)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return fmt.Errorf("line %s: %w", lineID, err)
		}
		return nil
	})
}

// GetOrderDetails returns a booking with its lines joined to item names.
func (s *Store) GetOrderDetails(ctx context.Context, bookingID string) (model.OrderDetails, error) {
	var d model.OrderDetails
	b := &d.Booking
	err := s.db.QueryRowContext(ctx, `
		SELECT b.booking_id, b.order_date, b.customer_id, b.order_no, b.created_by_id, b.created_date,
		       COALESCE(c.name, '')
		FROM order_bookings b
		LEFT JOIN customers c ON c.entity_id = b.customer_id
		WHERE b.booking_id = ?
	`, bookingID).Scan(&b.BookingID, &b.OrderDate, &b.CustomerID, &b.OrderNo, &b.CreatedByID, &b.CreatedDate, &d.CustomerName)
	if errors.Is(err, sql.ErrNoRows) {
		return model.OrderDetails{}, fmt.Errorf("get order details %s: %w", bookingID, ErrNotFound)
	}
	if err != nil {
		return model.OrderDetails{}, fmt.Errorf("get order details %s: %w", bookingID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT l.line_id, l.item_id, COALESCE(i.name, ''), l.order_qty, l.unit_price, l.amount, l.created_at
		FROM order_booking_lines l
		LEFT JOIN items i ON i.id = l.item_id
		WHERE l.booking_id = ?
		ORDER BY l.created_at ASC, l.line_id ASC
	`, bookingID)
	if err != nil {
		return model.OrderDetails{}, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	d.Lines = []model.OrderLineDetail{}
	for rows.Next() {
		var l model.OrderLineDetail
		if err := rows.Scan(&l.LineID, &l.ItemID, &l.ItemName, &l.OrderQty, &l.UnitPrice, &l.Amount, &l.CreatedAt); err != nil {
			return model.OrderDetails{}, fmt.Errorf("scan order line: %w", err)
		}
		d.Lines = append(d.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return model.OrderDetails{}, fmt.Errorf("iterate order lines: %w", err)
	}
	return d, nil
}

const orderSummaryQuery = `
	SELECT b.booking_id, b.order_no, b.order_date, b.customer_id, COALESCE(c.name, ''),
	       COUNT(l.line_id), b.created_date
	FROM order_bookings b
	LEFT JOIN customers c ON c.entity_id = b.customer_id
	LEFT JOIN order_booking_lines l ON l.booking_id = b.booking_id
`

// GetAllOrders lists every booking with its line count and total, newest first.
func (s *Store) GetAllOrders(ctx context.Context) ([]model.OrderSummary, error) {
	return s.queryOrderSummaries(ctx, "", nil)
}

// GetOrdersByCustomer lists one customer's bookings, newest first.
func (s *Store) GetOrdersByCustomer(ctx context.Context, customerID int64) ([]model.OrderSummary, error) {
	return s.queryOrderSummaries(ctx, "WHERE b.customer_id = ?", []any{customerID})
}

// queryOrderSummaries lists the bookings matching where. Totals are summed
// per line in decimal; SQL SUM over REAL columns would add float noise.
func (s *Store) queryOrderSummaries(ctx context.Context, where string, args []any) ([]model.OrderSummary, error) {
	rows, err := s.db.QueryContext(ctx, orderSummaryQuery+where+`
		GROUP BY b.booking_id
		ORDER BY b.created_date DESC, b.booking_id DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.OrderSummary{}
	for rows.Next() {
		var o model.OrderSummary
		if err := rows.Scan(
			&o.BookingID, &o.OrderNo, &o.OrderDate, &o.CustomerID, &o.CustomerName,
			&o.ItemCount, &o.CreatedDate,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	rows.Close()

	totals, err := s.bookingTotals(ctx, where, args)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].TotalAmount = totals[orders[i].BookingID]
	}
	return orders, nil
}

// bookingTotals sums line amounts per booking for the bookings matching where.
func (s *Store) bookingTotals(ctx context.Context, where string, args []any) (map[string]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.booking_id, l.amount
		FROM order_booking_lines l
		JOIN order_bookings b ON b.booking_id = l.booking_id
	`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query order totals: %w", err)
	}
	defer rows.Close()

	totals := map[string]decimal.Decimal{}
	for rows.Next() {
		var id string
		var amount decimal.Decimal
		if err := rows.Scan(&id, &amount); err != nil {
			return nil, fmt.Errorf("scan order total: %w", err)
		}
		totals[id] = totals[id].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order totals: %w", err)
	}
	return totals, nil
}
