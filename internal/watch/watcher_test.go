package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tweers-project/tweers/internal/buildmodel"
)

func TestWatcher_TriggerBuildCoalescesFollowUp(t *testing.T) {
	dir := t.TempDir()

	var calls int
	release := make(chan struct{})
	build := func(ctx context.Context) (buildmodel.BuildResult, error) {
		calls++
		if calls == 1 {
			<-release
		}
		return buildmodel.BuildResult{HTML: "ok"}, nil
	}

	w, err := New([]string{dir}, build, nil)
	require.NoError(t, err)

	ctx := context.Background()
	go w.triggerBuild(ctx)
	time.Sleep(10 * time.Millisecond)
	go w.triggerBuild(ctx) // should set pending, not start a second build yet
	time.Sleep(10 * time.Millisecond)
	close(release)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 2, calls)
	result, ok := w.LastResult()
	assert.True(t, ok)
	assert.Equal(t, "ok", result.HTML)
}

func TestWatcher_BuildFailureDoesNotClobberLastResult(t *testing.T) {
	dir := t.TempDir()

	calls := 0
	build := func(ctx context.Context) (buildmodel.BuildResult, error) {
		calls++
		if calls == 1 {
			return buildmodel.BuildResult{HTML: "good"}, nil
		}
		return buildmodel.BuildResult{}, assert.AnError
	}

	w, err := New([]string{dir}, build, nil)
	require.NoError(t, err)

	w.triggerBuild(context.Background())
	w.triggerBuild(context.Background())

	result, ok := w.LastResult()
	assert.True(t, ok)
	assert.Equal(t, "good", result.HTML)
}

func TestIsSourceFile(t *testing.T) {
	assert.True(t, isSourceFile("story.twee"))
	assert.True(t, isSourceFile("story.tw"))
	assert.False(t, isSourceFile("story.json"))
}
