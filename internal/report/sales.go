// Package report exports sales data to spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/fieldsync/internal/model"
)

const (
	ordersSheet = "Orders"
	totalsSheet = "Totals"
)

var orderHeaders = []string{
	"Order No", "Order Date", "Customer ID", "Customer", "Items", "Total", "Created",
}

// Sales is the content of a sales workbook.
type Sales struct {
	GeneratedAt string
	Orders      []model.OrderSummary
	Today       model.SalesTotal
	LastMonth   model.SalesTotal
}

// WriteSales writes s as an XLSX workbook with an Orders sheet and a Totals sheet.
func WriteSales(w io.Writer, s Sales) error {
	f, err := build(s)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveSales writes the workbook to path.
func SaveSales(path string, s Sales) error {
	f, err := build(s)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func build(s Sales) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(totalsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	if err := writeOrders(f, s.Orders); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeTotals(f, s); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeOrders(f *excelize.File, orders []model.OrderSummary) error {
	if err := f.SetSheetRow(ordersSheet, "A1", &orderHeaders); err != nil {
		return fmt.Errorf("orders header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(orderHeaders), 1)
	if err := f.SetCellStyle(ordersSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, o := range orders {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			o.OrderNo, o.OrderDate, o.CustomerID, o.CustomerName,
			o.ItemCount, o.TotalAmount.InexactFloat64(), o.CreatedDate,
		}
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return fmt.Errorf("order %s: %w", o.BookingID, err)
		}
	}
	return nil
}

func writeTotals(f *excelize.File, s Sales) error {
	rows := [][]any{
		{"Period", "From", "To", "Orders", "Lines", "Amount"},
		{"Today", s.Today.From, s.Today.To, s.Today.Orders, s.Today.Lines, s.Today.Amount.InexactFloat64()},
		{"Last month", s.LastMonth.From, s.LastMonth.To, s.LastMonth.Orders, s.LastMonth.Lines, s.LastMonth.Amount.InexactFloat64()},
	}
	if s.GeneratedAt != "" {
		rows = append(rows, []any{}, []any{"Generated", s.GeneratedAt})
	}

	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(totalsSheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("totals row %d: %w", i+1, err)
		}
	}
	return nil
}
