package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/roach88/fieldsync/internal/ids"
	"github.com/roach88/fieldsync/internal/model"
)

// The snapshot getters below produce the upload view of each synced table:
// all rows in ascending key order, collapsed by key with ids.Dedup so no two
// rows share a key. Rows with an empty key are given a fresh id.

// GetAllCustomersForSync returns the customer snapshot keyed by entity_id.
func (s *Store) GetAllCustomersForSync(ctx context.Context) ([]model.Customer, error) {
	customers, err := s.queryCustomers(ctx, s.db, `
		SELECT `+customerColumns+`
		FROM customers
		ORDER BY entity_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("customers snapshot: %w", err)
	}
	key := func(c *model.Customer) string { return strconv.FormatInt(c.EntityID, 10) }
	return ids.Dedup(customers, key, nil, s.ids), nil
}

// GetAllItems returns the item snapshot keyed by id.
func (s *Store) GetAllItems(ctx context.Context) ([]model.Item, error) {
	items, err := s.queryItems(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("items snapshot: %w", err)
	}
	return ids.Dedup(items,
		func(it *model.Item) string { return it.ID },
		func(it *model.Item, id string) { it.ID = id },
		s.ids,
	), nil
}

// GetAllOrderBookings returns the booking snapshot keyed by booking_id.
func (s *Store) GetAllOrderBookings(ctx context.Context) ([]model.OrderBooking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT booking_id, order_date, customer_id, order_no, created_by_id, created_date
		FROM order_bookings
		ORDER BY booking_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("bookings snapshot: %w", err)
	}
	defer rows.Close()

	bookings := []model.OrderBooking{}
	for rows.Next() {
		var b model.OrderBooking
		if err := rows.Scan(&b.BookingID, &b.OrderDate, &b.CustomerID, &b.OrderNo, &b.CreatedByID, &b.CreatedDate); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return ids.Dedup(bookings,
		func(b *model.OrderBooking) string { return b.BookingID },
		func(b *model.OrderBooking, id string) { b.BookingID = id },
		s.ids,
	), nil
}

// GetAllOrderBookingLines returns the line snapshot keyed by line_id.
func (s *Store) GetAllOrderBookingLines(ctx context.Context) ([]model.OrderBookingLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT line_id, booking_id, item_id, order_qty, unit_price, amount, created_at
		FROM order_booking_lines
		ORDER BY line_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("lines snapshot: %w", err)
	}
	defer rows.Close()

	lines := []model.OrderBookingLine{}
	for rows.Next() {
		var l model.OrderBookingLine
		if err := rows.Scan(&l.LineID, &l.BookingID, &l.ItemID, &l.OrderQty, &l.UnitPrice, &l.Amount, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines: %w", err)
	}

	return ids.Dedup(lines,
		func(l *model.OrderBookingLine) string { return l.LineID },
		func(l *model.OrderBookingLine, id string) { l.LineID = id },
		s.ids,
	), nil
}

// GetAllCustomerReceiptsForSync returns the receipt snapshot keyed by id.
func (s *Store) GetAllCustomerReceiptsForSync(ctx context.Context) ([]model.CustomerReceipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, cash_bank_id, amount, note, attachment, created_at
		FROM customer_receipts
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("receipts snapshot: %w", err)
	}
	defer rows.Close()

	receipts := []model.CustomerReceipt{}
	for rows.Next() {
		var r model.CustomerReceipt
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.CashBankID, &r.Amount, &r.Note, &r.Attachment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}

	return ids.Dedup(receipts,
		func(r *model.CustomerReceipt) string { return r.ID },
		func(r *model.CustomerReceipt, id string) { r.ID = id },
		s.ids,
	), nil
}
