package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileWatcher(t *testing.T) {
	fw, err := NewFileWatcher(50 * time.Millisecond)
	require.NoError(t, err)
	defer fw.Stop()

	assert.NotNil(t, fw.watcher)
	assert.NotNil(t, fw.debouncer)
}

func TestFileWatcher_DetectsWrite(t *testing.T) {
	chdir(t, t.TempDir())

	require.NoError(t, os.MkdirAll("docs", 0755))
	path := filepath.Join("docs", "index.dd")
	require.NoError(t, os.WriteFile(path, []byte("initial"), 0644))

	fw, err := NewFileWatcher(50 * time.Millisecond)
	require.NoError(t, err)
	defer fw.Stop()

	var mu sync.Mutex
	var received []ChangeEvent
	done := make(chan struct{}, 1)

	fw.AddFilter(DocFilter([]string{".dd"}))
	fw.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		received = append(received, events...)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	})

	require.NoError(t, fw.AddPath("docs"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	require.NoError(t, os.WriteFile(path, []byte("changed"), 0644))

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change event")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, received)
	assert.Contains(t, received[0].Path, "index.dd")
}

func TestFileWatcher_FilterDropsOtherFiles(t *testing.T) {
	chdir(t, t.TempDir())

	require.NoError(t, os.MkdirAll("docs", 0755))

	fw, err := NewFileWatcher(30 * time.Millisecond)
	require.NoError(t, err)
	defer fw.Stop()

	var mu sync.Mutex
	var count int
	fw.AddFilter(SourceFilter([]string{".dd"}))
	fw.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		count += len(events)
		mu.Unlock()
		return nil
	})

	require.NoError(t, fw.AddPath("docs"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join("docs", "ignored.txt"), []byte("x"), 0644))
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, count)
}

func TestFileWatcher_RejectsOutsidePath(t *testing.T) {
	fw, err := NewFileWatcher(50 * time.Millisecond)
	require.NoError(t, err)
	defer fw.Stop()

	assert.Error(t, fw.AddPath("/etc"))
	assert.Error(t, fw.AddPath("../sibling"))
}

func TestDebouncer_CollapsesRapidEvents(t *testing.T) {
	d := newDebouncer(40 * time.Millisecond)

	for i := 0; i < 10; i++ {
		d.addEvent(ChangeEvent{Type: EventTypeModified, Path: "docs/index.dd"})
	}

	select {
	case events := <-d.output:
		// Same path dedupes to one event
		assert.Len(t, events, 1)
	case <-time.After(time.Second):
		t.Fatal("debouncer never flushed")
	}
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "created", EventTypeCreated.String())
	assert.Equal(t, "modified", EventTypeModified.String())
	assert.Equal(t, "deleted", EventTypeDeleted.String())
	assert.Equal(t, "renamed", EventTypeRenamed.String())
	assert.Equal(t, "unknown", EventType(9).String())
}

func TestFilters(t *testing.T) {
	assert.True(t, MacroFilter("macros/site.ddoc"))
	assert.False(t, MacroFilter("docs/index.dd"))

	docs := DocFilter([]string{".dd"})
	assert.True(t, docs("docs/index.dd"))
	assert.False(t, docs("macros/site.ddoc"))

	src := SourceFilter([]string{".dd"})
	assert.True(t, src("docs/index.dd"))
	assert.True(t, src("macros/site.ddoc"))
	assert.False(t, src("README.md"))

	assert.False(t, NoBackupFilter("docs/index.dd~"))
	assert.False(t, NoBackupFilter("docs/index.bak"))
	assert.True(t, NoBackupFilter("docs/index.dd"))

	assert.False(t, NoGitFilter(".git/config"))
	assert.False(t, NoGitFilter("a/.git/config"))
	assert.True(t, NoGitFilter("docs/index.dd"))
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
