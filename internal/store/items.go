package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/fieldsync/internal/model"
)

const itemColumns = `id, name, price, type, image, stock`

// GetItems returns catalog items whose name contains query (case-folded),
// ordered by name. An empty query returns the whole catalog.
func (s *Store) GetItems(ctx context.Context, query string) ([]model.Item, error) {
	items, err := s.queryItems(ctx, `
		SELECT `+itemColumns+`
		FROM items
		ORDER BY name COLLATE NOCASE ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	needle := foldString(strings.TrimSpace(query))
	if needle == "" {
		return items, nil
	}

	matches := []model.Item{}
	for _, it := range items {
		if strings.Contains(foldString(it.Name), needle) {
			matches = append(matches, it)
		}
	}
	return matches, nil
}

// GetItem returns one item by id or ErrNotFound.
func (s *Store) GetItem(ctx context.Context, id string) (model.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, fmt.Errorf("get item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("get item %s: %w", id, err)
	}
	return it, nil
}

// AddItem inserts a catalog item under a freshly generated id.
func (s *Store) AddItem(ctx context.Context, in model.NewItem) (string, error) {
	if err := model.Validate("item", in); err != nil {
		return "", fmt.Errorf("add item: %w", err)
	}

	kind := in.Type
	if kind == "" {
		kind = model.DefaultItemType
	}
	var stock int64
	if in.Stock != nil {
		stock = *in.Stock
	}

	id := s.ids.Generate()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, price, type, image, stock)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, strings.TrimSpace(in.Name), in.Price.InexactFloat64(), kind, in.Image, stock)
	if err != nil {
		return "", fmt.Errorf("add item: %w", err)
	}
	return id, nil
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func scanItem(row rowScanner) (model.Item, error) {
	var it model.Item
	err := row.Scan(&it.ID, &it.Name, &it.Price, &it.Type, &it.Image, &it.Stock)
	return it, err
}
