package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{Path: filepath.Join(t.TempDir(), "absent.yaml"), EnvFile: noEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_RequiredFileMissing(t *testing.T) {
	_, err := Load(Options{Path: filepath.Join(t.TempDir(), "absent.yaml"), Required: true, EnvFile: noEnvFile(t)})
	assert.Error(t, err)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "fieldsync.yaml", `
database: /data/field.db
graphql_url: https://erp.example.com/v1/graphql
company_id: 12
http_timeout: 5s
phone_region: US
created_by_id: rep-7
log_level: debug
`)

	cfg, err := Load(Options{Path: path, EnvFile: noEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, "/data/field.db", cfg.Database)
	assert.Equal(t, "https://erp.example.com/v1/graphql", cfg.GraphQLURL)
	assert.Equal(t, int64(12), cfg.CompanyID)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "US", cfg.PhoneRegion)
	assert.Equal(t, "rep-7", cfg.CreatedByID)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeFile(t, "fieldsync.yaml", "databse: typo.db\n")

	_, err := Load(Options{Path: path, EnvFile: noEnvFile(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "databse")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "fieldsync.yaml", "company_id: 12\ndatabase: file.db\n")
	t.Setenv("FIELDSYNC_COMPANY_ID", "99")
	t.Setenv("FIELDSYNC_HTTP_TIMEOUT", "2s")

	cfg, err := Load(Options{Path: path, EnvFile: noEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.CompanyID)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "file.db", cfg.Database)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	envFile := writeFile(t, ".env", "FIELDSYNC_DB=dotenv.db\nFIELDSYNC_CREATED_BY_ID=from-dotenv\n")
	t.Setenv("FIELDSYNC_DB", "shell.db")
	// Register for cleanup; godotenv sets it in the process environment.
	t.Setenv("FIELDSYNC_CREATED_BY_ID", "")
	require.NoError(t, os.Unsetenv("FIELDSYNC_CREATED_BY_ID"))

	cfg, err := Load(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "shell.db", cfg.Database)
	assert.Equal(t, "from-dotenv", cfg.CreatedByID)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"FIELDSYNC_COMPANY_ID":   "twelve",
		"FIELDSYNC_HTTP_TIMEOUT": "soon",
		"FIELDSYNC_LOG_LEVEL":    "chatty",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(Options{EnvFile: noEnvFile(t)})
			assert.Error(t, err)
		})
	}
}
