package harness

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/fieldsync/internal/clock"
	"github.com/roach88/fieldsync/internal/model"
)

// actionFunc runs one scenario action. The returned value is recorded in the
// trace as the step result; nil records no result.
type actionFunc func(ctx context.Context, h *Harness, args map[string]interface{}) (interface{}, error)

var actions = map[string]actionFunc{
	"rollover":          actRollover,
	"next_day":          actNextDay,
	"advance":           actAdvance,
	"add_customer":      actAddCustomer,
	"update_location":   actUpdateLocation,
	"mark_visited":      actMarkVisited,
	"upsert_customers":  actUpsertCustomers,
	"add_item":          actAddItem,
	"add_order_booking": actAddOrderBooking,
	"add_order_line":    actAddOrderLine,
	"submit_order":      actSubmitOrder,
	"update_line":       actUpdateLine,
	"delete_line":       actDeleteLine,
	"add_receipt":       actAddReceipt,
	"todays_sales":      actTodaysSales,
	"last_month_sales":  actLastMonthSales,
}

// Actions returns the names of all scenario actions, sorted.
func Actions() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func knownAction(name string) bool {
	_, ok := actions[name]
	return ok
}

func (h *Harness) invoke(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	fn, ok := actions[name]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", name)
	}
	return fn(ctx, h, args)
}

// decodeArgs maps scenario args onto a typed struct through YAML, so the
// yaml tags of the target decide field names and decimal text parsing.
func decodeArgs(args map[string]interface{}, out interface{}) error {
	data, err := yaml.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	return nil
}

func actRollover(ctx context.Context, h *Harness, _ map[string]interface{}) (interface{}, error) {
	return h.rollover.AutoResetDailyVisitStatus(ctx)
}

func actNextDay(_ context.Context, h *Harness, _ map[string]interface{}) (interface{}, error) {
	h.clock.NextDay()
	return map[string]string{"today": clock.Today(h.clock)}, nil
}

func actAdvance(_ context.Context, h *Harness, args map[string]interface{}) (interface{}, error) {
	var in struct {
		Duration string `yaml:"duration"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	d, err := time.ParseDuration(in.Duration)
	if err != nil {
		return nil, fmt.Errorf("advance: %w", err)
	}
	h.clock.Advance(d)
	return map[string]string{"now": clock.Timestamp(h.clock)}, nil
}

func actAddCustomer(ctx context.Context, h *Harness, args map[string]interface{}) (interface{}, error) {
	var in struct {
		Name     string            `yaml:"name"`
		Phone    string            `yaml:"phone"`
		LastSeen string            `yaml:"last_seen"`
		Visited  model.VisitStatus `yaml:"visited"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	id, err := h.store.AddCustomer(ctx, model.NewCustomer{
		Name:     in.Name,
		Phone:    in.Phone,
		LastSeen: in.LastSeen,
		Visited:  in.Visited,
	})
	if err != nil {
		return nil, err
	}
	return map[string]int64{"entity_id": id}, nil
}

func actUpdateLocation(ctx context.Context, h *Harness, args map[string]interface{}) (interface{}, error) {
	var in struct {
		EntityID  int64   `yaml:"entity_id"`
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
		// Status switches to UpdateCustomerLocationWithLastSeen when set.
		Status string `yaml:"status"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Status != "" {
		return nil, h.store.UpdateCustomerLocationWithLastSeen(ctx, in.EntityID, in.Latitude, in.Longitude, in.Status)
	}
	return nil, h.store.UpdateCustomerLocation(ctx, in.EntityID, in.Latitude, in.Longitude)
}

func actMarkVisited(ctx context.Context, h *Harness, args map[string]interface{}) (interface{}, error) {
	var in struct {
		CustomerID int64 `yaml:"customer_id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return nil, h.store.MarkCustomerVisited(ctx, in.CustomerID)
}

// actUpsertCustomers runs the customer sync with the given records standing
// in for the remote response. The sync never fails; the result carries the
// absorbed error, if any.
func actUpsertCustomers(ctx context.Context, h *Harness, args map[string]interface{}) (interface{}, error) {
	var in struct {
		CompanyID int64 `yaml:"company_id"`
		Customers []struct {
			EntityID int64  `yaml:"entity_id"`
			Name     string `yaml:"name"`
			Phone    string `yaml:"phone"`
			LastSeen string `yaml:"last_seen"`
		} `yaml:"customers"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	batch := make([]model.RemoteCustomer, len(in.Customers))
	for i, c := range in.Customers {
		batch[i] = model.RemoteCustomer{EntityID: c.EntityID, Name: c.Name, Phone: c.Phone, LastSeen: c.LastSeen}
	}
	h.fetcher.batch = batch
	return h.syncer.SyncCustomersToDB(ctx, in.CompanyID), nil
}

func actAddItem(ctx context.Context, h *Harness, args map[string]interface{}) (interface{}, error) {
	var in struct {
		Name  string          `yaml:"name"`
		Price decimal.Decimal `yaml:"price"`
		Type  string          `yaml:"type"`
		Image string          `yaml:"image"`
		Stock *int64          `yaml:"stock"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	id, err := h.store.AddItem(ctx, model.NewItem{
		Name:  in.Name,
		Price: in.Price,
		Type:  in.Type,
		Image: in.Image,
		Stock: in.Stock,
	})
	if err != nil {
		return nil, err
	}
	return map[string]string{"id": id}, nil
}

func actAddOrderBooking(ctx context.Context, h *Harness, args map[string]interface{}) (interface{}, error) {
	var in model.NewOrderBooking
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	id, err := h.store.AddOrderBooking(ctx, in)
	if err != nil {
		return nil, err
	}
	return map[string]string{"booking_id": id}, nil
}

func actAddOrderLine(ctx context.Context, h *Harness, args map[string]interface{}) (interface{}, error) {
	var in struct {
		BookingID string          `yaml:"booking_id"`
		ItemID    string          `yaml:"item_id"`
		OrderQty  int64           `yaml:"order_qty"`
		UnitPrice decimal.Decimal `yaml:"unit_price"`
		Amount    decimal.Decimal `yaml:"amount"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	id, err := h.store.AddOrderBookingLine(ctx, model.NewOrderBookingLine{
		BookingID: in.BookingID,
		ItemID:    in.ItemID,
		OrderQty:  in.OrderQty,
		UnitPrice: in.UnitPrice,
		Amount:    in.Amount,
	})
	if err != nil {
		return nil, err
	}
	return map[string]string{"line_id": id}, nil
}

func actSubmitOrder(ctx context.Context, h *Harness, args map[string]interface{}) (interface{}, error) {
	var in model.OrderSubmission
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return h.store.SubmitOrder(ctx, in)
}

func actUpdateLine(ctx context.Context, h *Harness, args map[string]interface{}) (interface{}, error) {
	var in struct {
		LineID   string          `yaml:"line_id"`
		OrderQty int64           `yaml:"order_qty"`
		Amount   decimal.Decimal `yaml:"amount"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return nil, h.store.UpdateOrderBookingLine(ctx, in.LineID, model.LineUpdate{
		OrderQty: in.OrderQty,
		Amount:   in.Amount,
	})
}

func actDeleteLine(ctx context.Context, h *Harness, args map[string]interface{}) (interface{}, error) {
	var in struct {
		LineID string `yaml:"line_id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return nil, h.store.DeleteOrderBookingLine(ctx, in.LineID)
}

func actAddReceipt(ctx context.Context, h *Harness, args map[string]interface{}) (interface{}, error) {
	var in struct {
		CustomerID int64           `yaml:"customer_id"`
		CashBankID string          `yaml:"cash_bank_id"`
		Amount     decimal.Decimal `yaml:"amount"`
		Note       string          `yaml:"note"`
		Attachment string          `yaml:"attachment"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	id, err := h.store.AddCustomerReceipt(ctx, model.NewCustomerReceipt{
		CustomerID: in.CustomerID,
		CashBankID: in.CashBankID,
		Amount:     in.Amount,
		Note:       in.Note,
		Attachment: in.Attachment,
	})
	if err != nil {
		return nil, err
	}
	return map[string]string{"id": id}, nil
}

func actTodaysSales(ctx context.Context, h *Harness, _ map[string]interface{}) (interface{}, error) {
	return h.store.GetTodaysSales(ctx)
}

func actLastMonthSales(ctx context.Context, h *Harness, _ map[string]interface{}) (interface{}, error) {
	return h.store.GetLastMonthSales(ctx)
}

// batchFetcher serves the records of the current upsert_customers step in
// place of the remote endpoint.
type batchFetcher struct {
	batch []model.RemoteCustomer
}

func (f *batchFetcher) FetchCustomers(context.Context, int64) ([]model.RemoteCustomer, error) {
	return f.batch, nil
}
