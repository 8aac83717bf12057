package cli

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldsync/internal/model"
)

// itemIDs maps seeded item names to their generated ids.
func itemIDs(t *testing.T, env *cliEnv) map[string]string {
	t.Helper()
	var items []model.Item
	env.runJSON(&items, "items", "list")
	ids := make(map[string]string, len(items))
	for _, it := range items {
		ids[it.Name] = it.ID
	}
	return ids
}

func TestItemsList(t *testing.T) {
	env := newCLIEnv(t)

	var items []model.Item
	env.runJSON(&items, "items", "list")
	require.Len(t, items, 6)
	assert.Equal(t, "Basmati Rice 5kg", items[0].Name)

	var tea []model.Item
	env.runJSON(&tea, "items", "list", "TEA")
	require.Len(t, tea, 1)
	assert.Equal(t, "Black Tea 475g", tea[0].Name)
	assert.True(t, decimal.NewFromInt(950).Equal(tea[0].Price))
	assert.Equal(t, "Beverages", tea[0].Type)
	assert.Equal(t, int64(35), tea[0].Stock)

	out, err := env.run("items", "list", "soap")
	require.NoError(t, err)
	assert.Contains(t, out, "Dish Soap 500ml")
	assert.Contains(t, out, "260.00")
}

func TestItemsAdd(t *testing.T) {
	env := newCLIEnv(t)

	var added map[string]string
	env.runJSON(&added, "items", "add", "--name", "Green Tea 100g", "--price", "425.50", "--stock", "4")
	require.NotEmpty(t, added["id"])

	var tea []model.Item
	env.runJSON(&tea, "items", "list", "tea")
	require.Len(t, tea, 2)
	assert.Equal(t, "Black Tea 475g", tea[0].Name)

	green := tea[1]
	assert.Equal(t, added["id"], green.ID)
	assert.True(t, decimal.RequireFromString("425.5").Equal(green.Price))
	assert.Equal(t, model.DefaultItemType, green.Type)
	assert.Equal(t, int64(4), green.Stock)
}

func TestItemsAdd_Rejected(t *testing.T) {
	env := newCLIEnv(t)

	cliErr, code := env.runJSONError("items", "add", "--name", "Free Sample", "--price", "0")
	assert.Equal(t, ErrCodeInvalid, cliErr.Code)
	assert.Equal(t, ExitFailure, code)

	_, err := env.run("items", "add", "--name", "Free Sample", "--price", "abc")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid price "abc"`)

	var items []model.Item
	env.runJSON(&items, "items", "list")
	assert.Len(t, items, 6)
}
