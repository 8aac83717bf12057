package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldsync/internal/model"
)

func TestReceiptsAddAndList(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("receipts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No receipts.")

	var added map[string]string
	env.runJSON(&added, "receipts", "add", "--customer", "2", "--amount", "800", "--note", "cash", "--cash-bank", "CB-1")
	require.NotEmpty(t, added["id"])

	var receipts []model.CustomerReceipt
	env.runJSON(&receipts, "receipts", "list")
	require.Len(t, receipts, 1)
	r := receipts[0]
	assert.Equal(t, added["id"], r.ID)
	assert.Equal(t, int64(2), r.CustomerID)
	assert.Equal(t, "Ayesha Khan", r.CustomerName)
	assert.Equal(t, "CB-1", r.CashBankID)
	assert.Equal(t, "cash", r.Note)
	assert.Equal(t, "2025-01-01 08:00:00", r.CreatedAt)
	assertDecimal(t, "800", r.Amount)

	out, err = env.run("receipts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Ayesha Khan")
	assert.Contains(t, out, "800.00")
}

func TestReceiptsAdd_Rejected(t *testing.T) {
	env := newCLIEnv(t)

	cliErr, code := env.runJSONError("receipts", "add", "--customer", "2", "--amount=-5")
	assert.Equal(t, ErrCodeInvalid, cliErr.Code)
	assert.Equal(t, ExitFailure, code)

	_, err := env.run("receipts", "add", "--customer", "2", "--amount", "abc")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid amount "abc"`)

	_, err = env.run("receipts", "add", "--amount", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	var receipts []model.CustomerReceipt
	env.runJSON(&receipts, "receipts", "list")
	assert.Empty(t, receipts)
}
