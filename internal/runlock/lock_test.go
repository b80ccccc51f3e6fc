package runlock

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLockExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "import.lock")
	first := New(path, time.Hour)
	second := New(path, time.Hour)

	require.NoError(t, first.TryLock())
	assert.True(t, first.IsLocked())
	require.ErrorIs(t, second.TryLock(), ErrLockHeld)

	first.Unlock()
	assert.False(t, first.IsLocked())
	require.NoError(t, second.TryLock())
	second.Unlock()
}

func TestTryLockReclaimsStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import.lock")
	require.NoError(t, os.WriteFile(path, []byte("4242\n"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	l := New(path, time.Hour)
	require.NoError(t, l.TryLock(), "a lock past its TTL is reclaimed")
	l.Unlock()
}

func TestTryLockKeepsFreshLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import.lock")
	require.NoError(t, os.WriteFile(path, []byte("4242\n"), 0o644))

	l := New(path, time.Hour)
	require.ErrorIs(t, l.TryLock(), ErrLockHeld)
}

func TestUnlockTwiceIsHarmless(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "import.lock"), time.Hour)
	require.NoError(t, l.TryLock())
	l.Unlock()
	l.Unlock()
	assert.False(t, l.IsLocked())
}
