package store

import (
	"context"
	"fmt"

	"github.com/roach88/fieldsync/internal/model"
)

// AddCustomerReceipt appends a payment receipt and returns its id.
// Receipts are never updated or deleted.
func (s *Store) AddCustomerReceipt(ctx context.Context, in model.NewCustomerReceipt) (string, error) {
	if err := model.Validate("customer receipt", in); err != nil {
		return "", fmt.Errorf("add customer receipt: %w", err)
	}

	id := s.ids.Generate()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customer_receipts (id, customer_id, cash_bank_id, amount, note, attachment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, in.CustomerID, in.CashBankID, in.Amount.InexactFloat64(), in.Note, in.Attachment, s.now())
	if err != nil {
		return "", fmt.Errorf("add customer receipt: %w", err)
	}
	return id, nil
}

// GetAllCustomerReceipts lists receipts with the customer's name, newest first.
func (s *Store) GetAllCustomerReceipts(ctx context.Context) ([]model.CustomerReceipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.customer_id, COALESCE(c.name, ''), r.cash_bank_id, r.amount, r.note, r.attachment, r.created_at
		FROM customer_receipts r
		LEFT JOIN customers c ON c.entity_id = r.customer_id
		ORDER BY r.created_at DESC, r.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	receipts := []model.CustomerReceipt{}
	for rows.Next() {
		var r model.CustomerReceipt
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.CustomerName, &r.CashBankID, &r.Amount, &r.Note, &r.Attachment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return receipts, nil
}
