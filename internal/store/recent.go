package store

import (
	"context"
	"fmt"

	"github.com/roach88/fieldsync/internal/model"
)

func (s *Store) insertRecentActivity(ctx context.Context, q querier, a model.RecentActivity) error {
	if a.ID == "" {
		a.ID = s.ids.Generate()
	}
	if a.ActivityDate == "" {
		a.ActivityDate = s.now()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO recent_activities (id, booking_id, customer_name, item_count, total_amount, activity_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.BookingID, a.CustomerName, a.ItemCount, a.TotalAmount.InexactFloat64(), a.ActivityDate)
	if err != nil {
		return fmt.Errorf("insert recent activity: %w", err)
	}
	return nil
}

// GetRecentActivities returns the newest feed entries. limit <= 0 means 20.
func (s *Store) GetRecentActivities(ctx context.Context, limit int) ([]model.RecentActivity, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, booking_id, customer_name, item_count, total_amount, activity_date
		FROM recent_activities
		ORDER BY activity_date DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent activities: %w", err)
	}
	defer rows.Close()

	out := []model.RecentActivity{}
	for rows.Next() {
		var a model.RecentActivity
		if err := rows.Scan(&a.ID, &a.BookingID, &a.CustomerName, &a.ItemCount, &a.TotalAmount, &a.ActivityDate); err != nil {
			return nil, fmt.Errorf("scan recent activity: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent activities: %w", err)
	}
	return out, nil
}
