package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpmigrate/internal/entities"
	"wpmigrate/internal/storage"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	disk, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)
	return NewTracker(disk, "state/import_run.json")
}

func TestTrackerLifecycle(t *testing.T) {
	tr := newTestTracker(t)

	_, err := tr.Read()
	require.ErrorIs(t, err, ErrNoRun)

	tr.Start("starting import")
	runID := tr.RunID()
	require.NotEmpty(t, runID)

	run, err := tr.Read()
	require.NoError(t, err)
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, entities.RunStatusRunning, run.Status)
	assert.Zero(t, run.Percent)

	tr.Publish(10, "categories done", true)
	tr.UpdateCounts(0, 0, 0, 0, 0, 12)
	tr.Publish(45, "media done", true)

	run, err = tr.Read()
	require.NoError(t, err)
	assert.InDelta(t, 55, run.Percent, 0.01)
	assert.Equal(t, "media done", run.Message)
	assert.Equal(t, 12, run.CategoriesCreated)

	tr.Complete("import finished")
	run, err = tr.Read()
	require.NoError(t, err)
	assert.Equal(t, entities.RunStatusCompleted, run.Status)
	assert.InDelta(t, 100, run.Percent, 0.01)
}

func TestTrackerUnpersistedUpdatesStayInMemory(t *testing.T) {
	tr := newTestTracker(t)
	tr.Start("begin")

	tr.Publish(30, "batch 1", false)
	run, err := tr.Read()
	require.NoError(t, err)
	assert.Zero(t, run.Percent, "unpersisted delta must not reach the file")

	tr.Publish(10, "batch 2", true)
	run, err = tr.Read()
	require.NoError(t, err)
	assert.InDelta(t, 40, run.Percent, 0.01, "persisted write carries the accumulated state")
}

func TestTrackerFail(t *testing.T) {
	tr := newTestTracker(t)
	tr.Start("begin")
	tr.Fail("lock held by another run")

	run, err := tr.Read()
	require.NoError(t, err)
	assert.Equal(t, entities.RunStatusFailed, run.Status)
	assert.Equal(t, "lock held by another run", run.Error)
}

func TestTrackerPercentClamped(t *testing.T) {
	tr := newTestTracker(t)
	tr.Start("begin")
	tr.Publish(80, "a", true)
	tr.Publish(80, "b", true)

	run, err := tr.Read()
	require.NoError(t, err)
	assert.InDelta(t, 100, run.Percent, 0.01)
}
