package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/fieldsync/internal/model"
)

const customerColumns = `entity_id, name, phone, last_seen, visited, latitude, longitude, location_status`

// GetAllCustomers returns every customer ordered by name.
// Returns an empty slice (not nil) when there are none.
func (s *Store) GetAllCustomers(ctx context.Context) ([]model.Customer, error) {
	return s.queryCustomers(ctx, s.db, `
		SELECT `+customerColumns+`
		FROM customers
		ORDER BY name COLLATE NOCASE ASC, entity_id ASC
	`)
}

// GetCustomer returns the customer with the given entity id or ErrNotFound.
func (s *Store) GetCustomer(ctx context.Context, entityID int64) (model.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE entity_id = ?
	`, entityID)

	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Customer{}, fmt.Errorf("get customer %d: %w", entityID, ErrNotFound)
	}
	if err != nil {
		return model.Customer{}, fmt.Errorf("get customer %d: %w", entityID, err)
	}
	return c, nil
}

// SearchCustomers returns customers whose name contains query, ignoring case
// and Unicode normalization differences. An empty query returns everyone.
func (s *Store) SearchCustomers(ctx context.Context, query string) ([]model.Customer, error) {
	all, err := s.GetAllCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}

	needle := foldString(strings.TrimSpace(query))
	if needle == "" {
		return all, nil
	}

	matches := []model.Customer{}
	for _, c := range all {
		if strings.Contains(foldString(c.Name), needle) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

// AddCustomer inserts a customer created on the device and returns its
// entity id, assigned as the current maximum plus one.
func (s *Store) AddCustomer(ctx context.Context, in model.NewCustomer) (int64, error) {
	if err := model.Validate("customer", in); err != nil {
		return 0, fmt.Errorf("add customer: %w", err)
	}
	visited := in.Visited
	if visited == "" {
		visited = model.VisitUnvisited
	}
	phone := model.NormalizePhone(in.Phone, s.phoneRegion)

	var id int64
	err := s.inTx(ctx, "add customer", func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(entity_id), 0) + 1 FROM customers`).Scan(&id); err != nil {
			return fmt.Errorf("next entity id: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO customers (entity_id, name, phone, last_seen, visited, location_status)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, strings.TrimSpace(in.Name), phone, in.LastSeen, visited, model.DefaultLocationStatus)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateCustomerLocation stores captured coordinates and marks the location as updated.
func (s *Store) UpdateCustomerLocation(ctx context.Context, entityID int64, lat, lng float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET latitude = ?, longitude = ?, location_status = ?
		WHERE entity_id = ?
	`, lat, lng, model.LocationUpdated, entityID)
	if err != nil {
		return fmt.Errorf("update customer location: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("update customer location %d: %w", entityID, err)
	}
	return nil
}

// UpdateCustomerLocationWithLastSeen stores coordinates with a caller-chosen
// location status and stamps last_seen with the current time.
func (s *Store) UpdateCustomerLocationWithLastSeen(ctx context.Context, entityID int64, lat, lng float64, status string) error {
	if status == "" {
		status = model.LocationUpdated
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET latitude = ?, longitude = ?, location_status = ?, last_seen = ?
		WHERE entity_id = ?
	`, lat, lng, status, s.now(), entityID)
	if err != nil {
		return fmt.Errorf("update customer location: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("update customer location %d: %w", entityID, err)
	}
	return nil
}

// UpsertCustomers writes a batch of remote customers by entity_id in one
// transaction. A matching row is fully overwritten: the visit status goes
// back to Unvisited and the captured location is cleared. Any invalid record
// or failed statement rolls back the whole batch.
func (s *Store) UpsertCustomers(ctx context.Context, batch []model.RemoteCustomer) (int, error) {
	for i, rc := range batch {
		if err := model.Validate("remote customer", rc); err != nil {
			return 0, fmt.Errorf("upsert customers: record %d: %w", i, err)
		}
	}

	err := s.inTx(ctx, "upsert customers", func(tx *sql.Tx) error {
		for _, rc := range batch {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO customers (entity_id, name, phone, last_seen, visited, latitude, longitude, location_status)
				VALUES (?, ?, ?, ?, ?, NULL, NULL, ?)
				ON CONFLICT(entity_id) DO UPDATE SET
					name = excluded.name,
					phone = excluded.phone,
					last_seen = excluded.last_seen,
					visited = excluded.visited,
					latitude = NULL,
					longitude = NULL,
					location_status = excluded.location_status
			`, rc.EntityID, rc.Name, rc.Phone, rc.LastSeen, model.VisitUnvisited, model.DefaultLocationStatus)
			if err != nil {
				return fmt.Errorf("customer %d: %w", rc.EntityID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(batch), nil
}

func (s *Store) queryCustomers(ctx context.Context, q querier, query string, args ...any) ([]model.Customer, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

func scanCustomer(row rowScanner) (model.Customer, error) {
	var c model.Customer
	err := row.Scan(
		&c.EntityID, &c.Name, &c.Phone, &c.LastSeen, &c.Visited,
		&c.Latitude, &c.Longitude, &c.LocationStatus,
	)
	return c, err
}

// foldString prepares s for case-insensitive matching.
func foldString(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
