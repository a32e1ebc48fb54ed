package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	filesource "github.com/veyrune/capprobe/internal/adapters/charsource/file"
	"github.com/veyrune/capprobe/internal/domain"
)

func writeBootstrap(t *testing.T, path, character string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(`{"character_name": "`+character+`"}`), 0o600))
}

func newTestWatcher(t *testing.T, path string) (*CharacterWatcher, chan domain.CharacterName) {
	t.Helper()

	changes := make(chan domain.CharacterName, 8)
	watcher, err := NewCharacterWatcher(path, filesource.NewSource(path), func(name domain.CharacterName) {
		changes <- name
	}, zap.NewNop())
	require.NoError(t, err)
	watcher.debounce = 20 * time.Millisecond

	return watcher, changes
}

func waitForChange(t *testing.T, changes chan domain.CharacterName) domain.CharacterName {
	t.Helper()

	select {
	case name := <-changes:
		return name
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for character change")
		return ""
	}
}

func TestWatcherEmitsSettledCharacterChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "your_character.json")
	writeBootstrap(t, path, "alden")

	watcher, changes := newTestWatcher(t, path)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	writeBootstrap(t, path, "brynn")
	assert.Equal(t, domain.CharacterName("brynn"), waitForChange(t, changes))
}

func TestWatcherIgnoresRewritesOfSameCharacter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "your_character.json")
	writeBootstrap(t, path, "alden")

	watcher, changes := newTestWatcher(t, path)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	writeBootstrap(t, path, "alden")

	select {
	case name := <-changes:
		t.Fatalf("unexpected change callback for %q", name)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherPicksUpFileCreatedAfterStart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "your_character.json")

	watcher, changes := newTestWatcher(t, path)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	writeBootstrap(t, path, "alden")
	assert.Equal(t, domain.CharacterName("alden"), waitForChange(t, changes))
}

func TestWatcherIgnoresOtherFilesInDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "your_character.json")
	writeBootstrap(t, path, "alden")

	watcher, changes := newTestWatcher(t, path)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "alden_capabilities.json"), []byte("{}"), 0o600))

	select {
	case name := <-changes:
		t.Fatalf("unexpected change callback for %q", name)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherStartTwiceErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "your_character.json")
	writeBootstrap(t, path, "alden")

	watcher, _ := newTestWatcher(t, path)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	assert.Error(t, watcher.Start())
	assert.True(t, watcher.Running())
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "your_character.json")
	writeBootstrap(t, path, "alden")

	watcher, _ := newTestWatcher(t, path)
	require.NoError(t, watcher.Start())

	watcher.Stop()
	watcher.Stop()
	assert.False(t, watcher.Running())
}

func TestWatcherStartFailureClosesNotifier(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "your_character.json")
	watcher, _ := newTestWatcher(t, path)

	require.Error(t, watcher.Start())
	assert.False(t, watcher.Running())

	_, open := <-watcher.watcher.Events
	assert.False(t, open)
}

func TestNewCharacterWatcherValidatesArguments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "your_character.json")

	_, err := NewCharacterWatcher(path, nil, func(domain.CharacterName) {}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewCharacterWatcher(path, filesource.NewSource(path), nil, zap.NewNop())
	assert.Error(t, err)
}
