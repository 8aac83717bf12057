package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/fieldsync/internal/clock"
	"github.com/roach88/fieldsync/internal/model"
)

// GetTodaysSales sums the amounts of lines created today.
func (s *Store) GetTodaysSales(ctx context.Context) (model.SalesTotal, error) {
	today := s.today()
	return s.salesBetween(ctx, today, today)
}

// GetLastMonthSales sums the amounts of lines created from the same calendar
// day one month ago through today. When the previous month is shorter, the
// window starts on its last day, so March 31 looks back to February 28.
func (s *Store) GetLastMonthSales(ctx context.Context) (model.SalesTotal, error) {
	now := s.clock.Now()
	return s.salesBetween(ctx, monthBefore(now).Format(clock.DateLayout), now.Format(clock.DateLayout))
}

// monthBefore returns the same day of the previous month, clamped to that
// month's last day.
func monthBefore(t time.Time) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-1, 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// salesBetween filters on the date prefix of created_at, inclusive on both
// ends. Amounts are added in decimal so totals match the order totals.
func (s *Store) salesBetween(ctx context.Context, from, to string) (model.SalesTotal, error) {
	total := model.SalesTotal{From: from, To: to, Amount: decimal.Zero}
	rows, err := s.db.QueryContext(ctx, `
		SELECT booking_id, amount
		FROM order_booking_lines
		WHERE substr(created_at, 1, 10) BETWEEN ? AND ?
	`, from, to)
	if err != nil {
		return model.SalesTotal{}, fmt.Errorf("sales between %s and %s: %w", from, to, err)
	}
	defer rows.Close()

	bookings := map[string]struct{}{}
	for rows.Next() {
		var booking string
		var amount decimal.Decimal
		if err := rows.Scan(&booking, &amount); err != nil {
			return model.SalesTotal{}, fmt.Errorf("scan sales line: %w", err)
		}
		total.Amount = total.Amount.Add(amount)
		total.Lines++
		bookings[booking] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return model.SalesTotal{}, fmt.Errorf("sales between %s and %s: %w", from, to, err)
	}
	total.Orders = len(bookings)
	return total, nil
}
