package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripple/internal/engine/stale"
)

func TestWatch_RebuildsAndPropagates(t *testing.T) {
	a := newProject(t)
	a.Config.Watch.DebounceMS = 50

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan WatchUpdate, 4)
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, func(u WatchUpdate) { updates <- u })
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(a.Paths.GraphArtifact)
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(a.Paths.ProjectRoot, "src", "c.ts")
	require.NoError(t, os.WriteFile(path, []byte("export const c = 2;\n"), 0o644))

	select {
	case u := <-updates:
		assert.Equal(t, []string{"src/c.ts"}, u.Changed)
		assert.Equal(t, 3, u.Build.Graph.Stats.TotalFiles)
		assert.Equal(t, []stale.PropagatedFile{
			{File: "src/b.ts", Level: 1, Source: "src/c.ts"},
			{File: "src/a.ts", Level: 2, Source: "src/b.ts"},
		}, u.Stale.PropagatedStale)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch update")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
