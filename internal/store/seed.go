package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/fieldsync/internal/model"
)

// demoCustomers is the first-run customer list. Keys are explicit so they
// line up with the backend's entity ids for the demo company.
var demoCustomers = []model.Customer{
	{EntityID: 1, Name: "Ali Raza", Phone: "0300-1234567"},
	{EntityID: 2, Name: "Ayesha Khan", Phone: "0321-7654321"},
	{EntityID: 3, Name: "Bilal Ahmed", Phone: "0333-1122334"},
	{EntityID: 4, Name: "Fatima Noor", Phone: "0345-9988776"},
	{EntityID: 5, Name: "Usman Tariq", Phone: "0312-5566778"},
}

type catalogEntry struct {
	name  string
	price string
	kind  string
	image string
	stock int64
}

// demoCatalog is the first-run item catalog.
var demoCatalog = []catalogEntry{
	{"Basmati Rice 5kg", "1850", "Grocery", "https://images.example.com/items/basmati-rice.jpg", 40},
	{"Cooking Oil 1L", "620", "Grocery", "https://images.example.com/items/cooking-oil.jpg", 60},
	{"Black Tea 475g", "950", "Beverages", "https://images.example.com/items/black-tea.jpg", 35},
	{"Mineral Water 1.5L", "90", "Beverages", "https://images.example.com/items/mineral-water.jpg", 120},
	{"Laundry Powder 1kg", "480", "Household", "https://images.example.com/items/laundry-powder.jpg", 50},
	{"Dish Soap 500ml", "260", "Household", "https://images.example.com/items/dish-soap.jpg", 45},
}

// seedData seeds customers and items independently: each only when its
// table is empty, each in its own transaction.
func (s *Store) seedData(ctx context.Context) error {
	empty, err := s.tableEmpty(ctx, "customers")
	if err != nil {
		return err
	}
	if empty {
		if err := s.seedCustomers(ctx); err != nil {
			return err
		}
		s.logger.Info("seeded demo customers", "count", len(demoCustomers))
	}

	empty, err = s.tableEmpty(ctx, "items")
	if err != nil {
		return err
	}
	if empty {
		if err := s.seedItems(ctx); err != nil {
			return err
		}
		s.logger.Info("seeded item catalog", "count", len(demoCatalog))
	}

	return nil
}

func (s *Store) tableEmpty(ctx context.Context, table string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return false, fmt.Errorf("count %s: %w", table, err)
	}
	return count == 0, nil
}

func (s *Store) seedCustomers(ctx context.Context) error {
	return s.inTx(ctx, "seed customers", func(tx *sql.Tx) error {
		for _, c := range demoCustomers {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO customers (entity_id, name, phone, last_seen, visited, location_status)
				VALUES (?, ?, ?, '', ?, ?)
			`, c.EntityID, c.Name, c.Phone, model.VisitUnvisited, model.DefaultLocationStatus)
			if err != nil {
				return fmt.Errorf("insert customer %d: %w", c.EntityID, err)
			}
		}
		return nil
	})
}

// seedItems inserts the whole catalog or nothing: a failure on any item
// rolls back the others and is returned to Open.
func (s *Store) seedItems(ctx context.Context) error {
	return s.inTx(ctx, "seed items", func(tx *sql.Tx) error {
		for _, e := range demoCatalog {
			price, err := decimal.NewFromString(e.price)
			if err != nil {
				return fmt.Errorf("item %q: price: %w", e.name, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO items (id, name, price, type, image, stock)
				VALUES (?, ?, ?, ?, ?, ?)
			`, s.ids.Generate(), e.name, price.InexactFloat64(), e.kind, e.image, e.stock)
			if err != nil {
				return fmt.Errorf("insert item %q: %w", e.name, err)
			}
		}
		return nil
	})
}
