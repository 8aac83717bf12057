package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQueries_Embedded(t *testing.T) {
	require.NoError(t, validateQueries(customersQuery))
}

func TestValidateQueries_RejectsUnknownField(t *testing.T) {
	err := validateQueries(`query { Customer { entity_id credit_limit } }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credit_limit")
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestFetchCustomers(t *testing.T) {
	var got graphQLRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"Customer":[
			{"entity_id": 1, "name": "Ali Raza", "phone": "0300-1234567", "last_seen": "2025-03-01"},
			{"entity_id": 9, "name": "New Outlet", "phone": null, "last_seen": null}
		]}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithHeader("Authorization", "Bearer abc"))
	require.NoError(t, err)

	customers, err := c.FetchCustomers(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, int64(1), customers[0].EntityID)
	assert.Equal(t, "Ali Raza", customers[0].Name)
	assert.Equal(t, "New Outlet", customers[1].Name)
	assert.Empty(t, customers[1].Phone)

	assert.Equal(t, customersQuery, got.Query)
	assert.EqualValues(t, 12, got.Variables["companyId"])
}

func TestFetchCustomers_GraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"company not found"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.FetchCustomers(context.Background(), 12)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company not found")
}

func TestFetchCustomers_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.FetchCustomers(context.Background(), 12)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
}

func TestFetchCustomers_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.FetchCustomers(context.Background(), 12)
	require.Error(t, err)
}
