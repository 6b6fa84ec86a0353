package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios against its
// golden trace. Regenerate with:
//
//	go test ./internal/harness -run TestScenarios -update
func TestScenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "file name and scenario name must match")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalSnapshot(t *testing.T) {
	cached := true
	result := NewResult()
	result.AddTrace(TraceEvent{Seq: 1, Op: OpEval, Target: "fx", Content: "fx", Cached: &cached})
	result.AddTrace(TraceEvent{Seq: 2, Op: OpRemove, Target: "x"})

	data, err := MarshalSnapshot("demo", result)
	require.NoError(t, err)

	want := `{
  "scenario_name": "demo",
  "trace": [
    {
      "seq": 1,
      "op": "eval",
      "target": "fx",
      "content": "fx",
      "cached": true
    },
    {
      "seq": 2,
      "op": "remove",
      "target": "x"
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/memoized_fx.yaml")
	require.NoError(t, err)

	r1, err := Run(scenario)
	require.NoError(t, err)
	r2, err := Run(scenario)
	require.NoError(t, err)

	d1, err := MarshalSnapshot(scenario.Name, r1)
	require.NoError(t, err)
	d2, err := MarshalSnapshot(scenario.Name, r2)
	require.NoError(t, err)
	assert.Equal(t, d1, d2, "fresh store per run")
}

func TestGoldenFilesHaveScenarios(t *testing.T) {
	goldens, err := filepath.Glob("testdata/golden/*.golden")
	require.NoError(t, err)

	for _, g := range goldens {
		name := strings.TrimSuffix(filepath.Base(g), ".golden")
		_, err := os.Stat(filepath.Join("testdata/scenarios", name+".yaml"))
		assert.NoError(t, err, "orphaned golden file %s", g)
	}
}
