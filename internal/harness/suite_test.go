package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSuite_ExampleScenarios(t *testing.T) {
	result, err := RunSuite(context.Background(), filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalScenarios)
	assert.Equal(t, 3, result.Passed, "failures: %+v", result.Failures)
	assert.Zero(t, result.Failed)
}

func TestRunSuite_CollectsFailures(t *testing.T) {
	dir := t.TempDir()

	good := `
name: good
description: passes
flow: [{ invoke: rollover, args: {} }]
assertions: [{ type: trace_count, action: rollover, count: 1 }]
`
	failing := `
name: failing
description: assertion does not hold
flow: [{ invoke: rollover, args: {} }]
assertions: [{ type: trace_count, action: rollover, count: 2 }]
`
	broken := `
name: broken
flow: []
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_good.yaml"), []byte(good), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_failing.yml"), []byte(failing), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c_broken.yaml"), []byte(broken), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	result, err := RunSuite(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalScenarios)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Failures, 2)

	assert.Equal(t, "failing", result.Failures[0].Scenario)
	assert.Contains(t, result.Failures[0].Error, "scenario assertions failed")
	assert.Contains(t, result.Failures[1].Error, "failed to load scenario")
}

func TestFindScenarios_SingleFile(t *testing.T) {
	path := filepath.Join("testdata", "scenarios", "order_day.yaml")
	paths, err := FindScenarios(path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, paths)

	_, err = FindScenarios(filepath.Join("testdata", "missing"))
	assert.Error(t, err)
}

func TestRunSuite_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunSuite(ctx, filepath.Join("testdata", "scenarios"))
	assert.ErrorIs(t, err, context.Canceled)
}
