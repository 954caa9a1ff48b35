package workday

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftcli/internal/dataset"
	"shiftcli/internal/exporter"
	"shiftcli/internal/pipeline"
	"shiftcli/internal/transform"
	"shiftcli/pkg/contracts/domain"
)

func fullRegistry() *pipeline.Registry {
	r := pipeline.NewRegistry()
	transform.Register(r)
	Register(r)
	return r
}

func rawActivity(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds := dataset.New("employee_id", "app", "site", "start", "end",
		"active", "mouse_clicks", "keystrokes", "mouse_scroll", "mic", "camera")
	add := func(emp, app, site string, startH, startM, endH, endM int, active string) {
		require.NoError(t, ds.AppendRow([]string{
			emp, app, site,
			millis(ts(startH, startM, 0)), millis(ts(endH, endM, 0)),
			active, "1", "10", "0", "false", "false",
		}))
	}
	add("e1", "Slack", "", 9, 0, 9, 30, "true")
	add("e1", "Slack", "", 9, 30, 10, 0, "true") // contiguous, merges
	add("e1", "Chrome", "github.com", 10, 0, 10, 45, "true")
	add("e1", "Excel", "", 10, 50, 11, 30, "true") // 5m gap, Pause
	add("e1", "Slack", "", 15, 0, 16, 0, "true")   // 3.5h gap, new workday
	add("e2", "Excel", "", 8, 0, 9, 30, "true")
	return ds
}

func processingSpecs(t *testing.T) []pipeline.StepSpec {
	t.Helper()
	dir := t.TempDir()
	sites := filepath.Join(dir, "sites.csv")
	require.NoError(t, os.WriteFile(sites,
		[]byte("site,site_mapping\ngithub.com,GitHub\n"), 0644))
	apps := filepath.Join(dir, "apps.csv")
	require.NoError(t, os.WriteFile(apps,
		[]byte("app,app_mapping\nSlack,Messaging\n"), 0644))

	return []pipeline.StepSpec{
		{Name: "normalize_activity"},
		{Name: "apply_mappings", Params: map[interface{}]interface{}{
			"site_lookup": sites,
			"app_lookup":  apps,
		}},
		{Name: "merge_consecutive"},
		{Name: "sessionize", Params: map[interface{}]interface{}{
			"max_gap": "1h",
		}},
		{Name: "absorb_log_lost"},
		{Name: "workday_features"},
		{Name: "consolidate_workdays", Params: map[interface{}]interface{}{
			"min_duration": "30m",
		}},
	}
}

func TestProcessingChain(t *testing.T) {
	runner := pipeline.NewRunner(fullRegistry(), nil)

	out, err := runner.Run(context.Background(), rawActivity(t), processingSpecs(t))
	require.NoError(t, err)

	workdays, err := WorkdaysFromDataset(out)
	require.NoError(t, err)
	require.Len(t, workdays, 3)

	first := workdays[0]
	assert.Equal(t, "e1_1", first.ID)
	assert.Equal(t, ts(9, 0, 0), first.Start)
	assert.Equal(t, ts(11, 30, 0), first.End)
	// Contiguous Slack spans merged, mappings applied, the five minute
	// gap kept as a Pause entry.
	assert.Equal(t, []string{
		"Messaging", "GitHub", domain.AppPause, "Excel",
	}, first.Apps)
	assert.Equal(t, 150.0, first.DurationMinutes)
	assert.Equal(t, 3.5, first.HoursUntilNext)

	second := workdays[1]
	assert.Equal(t, "e1_2", second.ID)
	assert.Equal(t, []string{"Messaging"}, second.Apps)
	assert.Equal(t, -1.0, second.HoursUntilNext)

	third := workdays[2]
	assert.Equal(t, "e2_1", third.ID)
	assert.Equal(t, 90.0, third.DurationMinutes)
}

// Two runs over the same input must produce byte-identical output files.
func TestProcessingChainDeterministic(t *testing.T) {
	runner := pipeline.NewRunner(fullRegistry(), nil)
	specs := processingSpecs(t)
	dir := t.TempDir()

	var contents [][]byte
	for i, name := range []string{"run1.csv", "run2.csv"} {
		out, err := runner.Run(context.Background(), rawActivity(t), specs)
		require.NoError(t, err, "run %d", i+1)

		path := filepath.Join(dir, name)
		require.NoError(t, exporter.WriteDataset(path, out, exporter.WriteOptions{}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		contents = append(contents, data)
	}

	assert.Equal(t, contents[0], contents[1])
}

// A spec with a missing required parameter fails validation up front, so
// a caller that validates before running never writes partial output.
func TestProcessingChainFailFast(t *testing.T) {
	runner := pipeline.NewRunner(fullRegistry(), nil)
	specs := []pipeline.StepSpec{
		{Name: "normalize_activity"},
		{Name: "sessionize"}, // max_gap missing
	}

	err := runner.ValidateSpecs(specs)
	require.Error(t, err)
	assert.Equal(t, pipeline.ErrorKindValidation, pipeline.KindOf(err))

	outPath := filepath.Join(t.TempDir(), "workdays.csv")
	if _, err := runner.Run(context.Background(), rawActivity(t), specs); err == nil {
		t.Fatal("expected run to fail")
	}
	// Output is only written after a successful run.
	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr))
}
