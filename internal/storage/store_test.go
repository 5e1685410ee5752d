package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Frames: []sim.Frame{
			{Time: 0.01, Cost: 1.5, Telemetry: dynamo.Telemetry{RotationCount: 0, CubePosition: [3]float64{0.11, 0, 0}}},
			{Time: 0.02, Cost: 0.5, Telemetry: dynamo.Telemetry{RotationCount: 1, BestRotationCount: 1, GoalChanges: 2}},
		},
		Metrics:    map[string]float64{"cost": 1.0},
		StepsTaken: 2,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	id, err := st.Save(RunMetadata{Session: "s1", Controller: "tracker", Seed: 3, Dt: 0.01, Duration: 0.02}, testResult())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	meta, err := st.Load(id)
	require.NoError(t, err)
	assert.Equal(t, id, meta.ID)
	assert.Equal(t, "s1", meta.Session)
	assert.Equal(t, uint64(3), meta.Seed)
	assert.Equal(t, 2, meta.Steps)
	assert.Equal(t, 1.0, meta.Metrics["cost"])

	f, err := os.Open(filepath.Join(st.baseDir, id, "telemetry.csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, header, records[0])
	assert.Equal(t, "0.020000", records[2][0])
	assert.Equal(t, "1", records[2][3])
	for _, r := range records {
		assert.Len(t, r, len(header))
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	first, err := st.Save(RunMetadata{}, testResult())
	require.NoError(t, err)
	second, err := st.Save(RunMetadata{}, testResult())
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(st.baseDir, "junk"), 0755))

	runs, err := st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.ElementsMatch(t, []string{first, second}, ids)
	assert.False(t, runs[0].Timestamp.Before(runs[1].Timestamp))
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "none")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreLoadMissing(t *testing.T) {
	_, err := New(t.TempDir()).Load("nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
