package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldsync/internal/model"
)

// graphQLBackend serves a fixed customer list and records each request's
// company id and Authorization header.
type graphQLBackend struct {
	*httptest.Server

	mu        sync.Mutex
	companies []int64
	auth      []string
	status    int
}

func newGraphQLBackend(t *testing.T) *graphQLBackend {
	t.Helper()
	b := &graphQLBackend{status: http.StatusOK}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		b.mu.Lock()
		id, _ := req.Variables["companyId"].(float64)
		b.companies = append(b.companies, int64(id))
		b.auth = append(b.auth, r.Header.Get("Authorization"))
		status := b.status
		b.mu.Unlock()

		if status != http.StatusOK {
			http.Error(w, "backend down", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"Customer":[
			{"entity_id": 1, "name": "Ali Raza Traders", "phone": "0300-1111111", "last_seen": "2024-12-30"},
			{"entity_id": 8, "name": "Hamza Stores", "phone": null, "last_seen": null}
		]}}`))
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *graphQLBackend) lastCompany() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.companies) == 0 {
		return 0
	}
	return b.companies[len(b.companies)-1]
}

func (b *graphQLBackend) lastAuth() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.auth) == 0 {
		return ""
	}
	return b.auth[len(b.auth)-1]
}

func (b *graphQLBackend) setStatus(code int) {
	b.mu.Lock()
	b.status = code
	b.mu.Unlock()
}

func TestSyncCustomers_FromConfig(t *testing.T) {
	env := newCLIEnv(t)
	backend := newGraphQLBackend(t)
	env.httpClient = backend.Client()
	env.writeConfig(testConfig + fmt.Sprintf("graphql_url: %s\ncompany_id: 12\nauth_token: s3cret\n", backend.URL))

	// A visited, located customer is overwritten by the sync.
	env.runJSON(nil, "visit", "1")
	env.runJSON(nil, "customers", "locate", "1", "--lat", "24.8", "--lng", "67.0")

	var out SyncOutput
	env.runJSON(&out, "sync", "customers")
	assert.Equal(t, backend.URL, out.Endpoint)
	assert.Equal(t, int64(12), out.CompanyID)
	assert.Equal(t, 2, out.Fetched)
	assert.Equal(t, 2, out.Written)
	assert.Empty(t, out.Error)

	assert.Equal(t, int64(12), backend.lastCompany())
	assert.Equal(t, "Bearer s3cret", backend.lastAuth())

	var customers []model.Customer
	env.runJSON(&customers, "customers", "list")
	require.Len(t, customers, 6)

	byID := make(map[int64]model.Customer, len(customers))
	for _, c := range customers {
		byID[c.EntityID] = c
	}
	ali := byID[1]
	assert.Equal(t, "Ali Raza Traders", ali.Name)
	assert.Equal(t, model.VisitUnvisited, ali.Visited)
	assert.Nil(t, ali.Latitude)
	assert.Equal(t, model.DefaultLocationStatus, ali.LocationStatus)
	assert.Equal(t, "Hamza Stores", byID[8].Name)
	assert.Equal(t, "Bilal Ahmed", byID[3].Name, "customers missing from the batch are kept")

	env.runJSON(&out, "sync", "customers", "--company-id", "77")
	assert.Equal(t, int64(77), out.CompanyID)
	assert.Equal(t, int64(77), backend.lastCompany())
}

func TestSyncCustomers_ProvisionedConfigWins(t *testing.T) {
	env := newCLIEnv(t)
	configured := newGraphQLBackend(t)
	provisioned := newGraphQLBackend(t)
	env.writeConfig(testConfig + fmt.Sprintf("graphql_url: %s\ncompany_id: 12\n", configured.URL))

	payload := fmt.Sprintf(`{"base_url": "https://api.example.com", "sync_url": %q, "company_id": 42, "device_name": "tab-3"}`, provisioned.URL)
	var prov ProvisionOutput
	env.runJSON(&prov, "provision", env.writeFile("qr.json", payload))
	assert.Equal(t, int64(42), prov.CompanyID)
	assert.Equal(t, provisioned.URL, prov.SyncURL)
	assert.Equal(t, "tab-3", prov.DeviceName)
	assert.NotEmpty(t, prov.UpdatedAt)

	var out SyncOutput
	env.runJSON(&out, "sync", "customers")
	assert.Equal(t, provisioned.URL, out.Endpoint)
	assert.Equal(t, int64(42), out.CompanyID)
	assert.Equal(t, int64(42), provisioned.lastCompany())
	assert.Zero(t, configured.lastCompany(), "configured endpoint is not called")
}

func TestSyncCustomers_BackendFailure(t *testing.T) {
	env := newCLIEnv(t)
	backend := newGraphQLBackend(t)
	backend.setStatus(http.StatusInternalServerError)
	env.writeConfig(testConfig + fmt.Sprintf("graphql_url: %s\ncompany_id: 12\n", backend.URL))

	out, err := env.run("--format", "json", "sync", "customers")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRemote, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "unexpected status 500")

	var customers []model.Customer
	env.runJSON(&customers, "customers", "list")
	require.Len(t, customers, 5)
	assert.Equal(t, "Ali Raza", customers[0].Name)
}

func TestSyncCustomers_NotConfigured(t *testing.T) {
	env := newCLIEnv(t)

	cliErr, code := env.runJSONError("sync", "customers")
	assert.Equal(t, ErrCodeConfig, cliErr.Code)
	assert.Equal(t, ExitCommandError, code)

	backend := newGraphQLBackend(t)
	env.writeConfig(testConfig + fmt.Sprintf("graphql_url: %s\n", backend.URL))

	cliErr, code = env.runJSONError("sync", "customers")
	assert.Equal(t, ErrCodeConfig, cliErr.Code)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, cliErr.Message, "no company id")
	assert.Zero(t, backend.lastCompany())
}

func TestProvision_Base64Payload(t *testing.T) {
	env := newCLIEnv(t)
	payload := base64.StdEncoding.EncodeToString([]byte(`{"base_url": "https://a.example", "sync_url": "https://a.example/graphql", "company_id": 5}`))

	out, err := env.run("provision", env.writeFile("qr.txt", payload))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Provisioned for company 5")
	assert.Contains(t, out, "https://a.example/graphql")
}

func TestProvision_Rejected(t *testing.T) {
	env := newCLIEnv(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"empty", "   "},
		{"bad_url", `{"base_url": "ftp://x", "sync_url": "https://x", "company_id": 1}`},
		{"zero_company", `{"base_url": "https://x", "sync_url": "https://x", "company_id": 0}`},
		{"unknown_field", `{"base_url": "https://x", "sync_url": "https://x", "company_id": 1, "admin": true}`},
		{"not_json", "%%%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cliErr, code := env.runJSONError("provision", env.writeFile(tt.name+".qr", tt.payload))
			assert.Equal(t, ErrCodeInvalid, cliErr.Code)
			assert.Equal(t, ExitFailure, code)
		})
	}

	cliErr, code := env.runJSONError("provision", env.dir+"/missing.qr")
	assert.Equal(t, ErrCodeFile, cliErr.Code)
	assert.Equal(t, ExitCommandError, code)
}
