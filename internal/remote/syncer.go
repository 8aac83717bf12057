package remote

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/fieldsync/internal/model"
	"github.com/roach88/fieldsync/internal/store"
)

// Fetcher retrieves remote customers. Implemented by *Client.
type Fetcher interface {
	FetchCustomers(ctx context.Context, companyID int64) ([]model.RemoteCustomer, error)
}

// Upserter writes a remote batch. Implemented by *store.Store.
type Upserter interface {
	UpsertCustomers(ctx context.Context, batch []model.RemoteCustomer) (int, error)
}

var (
	_ Fetcher  = (*Client)(nil)
	_ Upserter = (*store.Store)(nil)
)

// SyncResult summarizes one customer sync.
type SyncResult struct {
	Fetched int `json:"fetched"`
	Written int `json:"written"`
	// Error holds the absorbed fetch or write failure, if any.
	Error string `json:"error,omitempty"`
}

// Syncer copies remote customers into the local store.
type Syncer struct {
	fetcher Fetcher
	store   Upserter
	logger  *slog.Logger
}

// NewSyncer creates a Syncer. A nil logger discards output.
func NewSyncer(f Fetcher, s Upserter, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Syncer{fetcher: f, store: s, logger: logger}
}

// SyncCustomersToDB fetches the company's customers and upserts them by
// entity_id in one transaction. It never fails: a fetch error is logged and
// treated as an empty result, and a write error is logged and rolls the whole
// batch back. The result tells the caller what happened.
func (s *Syncer) SyncCustomersToDB(ctx context.Context, companyID int64) SyncResult {
	customers, err := s.fetcher.FetchCustomers(ctx, companyID)
	if err != nil {
		s.logger.Error("customer fetch failed", "company_id", companyID, "error", err)
		return SyncResult{Error: err.Error()}
	}

	res := SyncResult{Fetched: len(customers)}
	if len(customers) == 0 {
		s.logger.Info("no remote customers to sync", "company_id", companyID)
		return res
	}

	n, err := s.store.UpsertCustomers(ctx, customers)
	if err != nil {
		s.logger.Error("customer sync rolled back", "company_id", companyID, "records", len(customers), "error", err)
		res.Error = err.Error()
		return res
	}

	res.Written = n
	s.logger.Info("customers synced", "company_id", companyID, "records", n)
	return res
}
