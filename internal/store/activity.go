package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/fieldsync/internal/model"
)

// EnsureActivityLog inserts an Unvisited row for (customerID, date) unless
// one already exists. An existing row is never touched.
// Reports whether a row was inserted.
func (s *Store) EnsureActivityLog(ctx context.Context, customerID int64, customerName, date string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, customer_id, customer_name, date, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(customer_id, date) DO NOTHING
	`, s.ids.Generate(), customerID, customerName, date, model.VisitUnvisited)
	if err != nil {
		return false, fmt.Errorf("ensure activity log for customer %d: %w", customerID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure activity log: rows affected: %w", err)
	}
	return n > 0, nil
}

// ResetAllVisited sets every customer back to Unvisited.
// Returns the number of customers whose status changed.
func (s *Store) ResetAllVisited(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers SET visited = ? WHERE visited <> ?
	`, model.VisitUnvisited, model.VisitUnvisited)
	if err != nil {
		return 0, fmt.Errorf("reset visited: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset visited: rows affected: %w", err)
	}
	return n, nil
}

// GetSettings returns the singleton settings row or ErrNotFound on a fresh install.
func (s *Store) GetSettings(ctx context.Context) (model.AppSettings, error) {
	var st model.AppSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT id, last_reset_date FROM app_settings WHERE id = 1
	`).Scan(&st.ID, &st.LastResetDate)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AppSettings{}, fmt.Errorf("get settings: %w", ErrNotFound)
	}
	if err != nil {
		return model.AppSettings{}, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

// SetLastResetDate creates or updates the singleton settings row.
func (s *Store) SetLastResetDate(ctx context.Context, date string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_settings (id, last_reset_date) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET last_reset_date = excluded.last_reset_date
	`, date)
	if err != nil {
		return fmt.Errorf("set last reset date: %w", err)
	}
	return nil
}

// MarkCustomerVisited flags the customer as visited and sets today's
// activity row to Visited, inserting it when the rollover has not seeded
// it yet. Both writes commit together.
func (s *Store) MarkCustomerVisited(ctx context.Context, customerID int64) error {
	today := s.today()
	return s.inTx(ctx, "mark customer visited", func(tx *sql.Tx) error {
		name, err := customerName(ctx, tx, customerID)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE customers SET visited = ? WHERE entity_id = ?
		`, model.VisitVisited, customerID)
		if err != nil {
			return fmt.Errorf("update customer: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return fmt.Errorf("customer %d: %w", customerID, err)
		}
		return s.upsertVisitedLog(ctx, tx, customerID, name, today)
	})
}

// GetActivityLog returns the activity rows for one date ordered by customer.
func (s *Store) GetActivityLog(ctx context.Context, date string) ([]model.ActivityLog, error) {
	return s.queryActivityLogs(ctx, `
		SELECT id, customer_id, customer_name, date, status
		FROM activity_logs
		WHERE date = ?
		ORDER BY customer_id ASC
	`, date)
}

// GetAllActivityLogs returns the whole visit history, oldest day first.
func (s *Store) GetAllActivityLogs(ctx context.Context) ([]model.ActivityLog, error) {
	return s.queryActivityLogs(ctx, `
		SELECT id, customer_id, customer_name, date, status
		FROM activity_logs
		ORDER BY date ASC, customer_id ASC
	`)
}

func (s *Store) queryActivityLogs(ctx context.Context, query string, args ...any) ([]model.ActivityLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity log: %w", err)
	}
	defer rows.Close()

	logs := []model.ActivityLog{}
	for rows.Next() {
		var l model.ActivityLog
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.CustomerName, &l.Date, &l.Status); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity log: %w", err)
	}
	return logs, nil
}

// upsertVisitedLog makes the (customer, date) activity row Visited,
// creating it with the given name snapshot when absent.
func (s *Store) upsertVisitedLog(ctx context.Context, q querier, customerID int64, name, date string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO activity_logs (id, customer_id, customer_name, date, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(customer_id, date) DO UPDATE SET status = excluded.status
	`, s.ids.Generate(), customerID, name, date, model.VisitVisited)
	if err != nil {
		return fmt.Errorf("upsert activity log: %w", err)
	}
	return nil
}

func customerName(ctx context.Context, q querier, customerID int64) (string, error) {
	var name string
	err := q.QueryRowContext(ctx, `SELECT name FROM customers WHERE entity_id = ?`, customerID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("customer %d: %w", customerID, err)
	}
	return name, nil
}
