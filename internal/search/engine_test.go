package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/photobot/internal/disk"
)

type fakeLister struct {
	tree   map[string][]disk.Resource
	broken map[string]error
	calls  map[string]int
}

func newFakeLister(tree map[string][]disk.Resource) *fakeLister {
	return &fakeLister{
		tree:   tree,
		broken: map[string]error{},
		calls:  map[string]int{},
	}
}

func (f *fakeLister) List(_ context.Context, path string) ([]disk.Resource, error) {
	f.calls[path]++
	if err, ok := f.broken[path]; ok {
		return nil, err
	}
	items, ok := f.tree[path]
	if !ok {
		return nil, disk.ErrNotFound
	}
	return items, nil
}

func dir(path string) disk.Resource {
	return disk.Resource{Path: path, Name: splitName(path), Type: disk.TypeDir}
}

func file(path string) disk.Resource {
	return disk.Resource{Path: path, Name: splitName(path), Type: disk.TypeFile}
}

func splitName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func archiveTree() map[string][]disk.Resource {
	return map[string][]disk.Resource{
		"disk:/Badges": {
			dir("disk:/Badges/2026-08-30"),
			dir("disk:/Badges/2026-08-31"),
			file("disk:/Badges/stray.jpg"),
		},
		"disk:/Badges/2026-08-30": {
			file("disk:/Badges/2026-08-30/badge007.jpg"),
			file("disk:/Badges/2026-08-30/keycard.jpg"),
		},
		"disk:/Badges/2026-08-31": {
			file("disk:/Badges/2026-08-31/Badge008.jpg"),
		},
	}
}

func TestFindOrderAndCase(t *testing.T) {
	e := New(newFakeLister(archiveTree()), Options{})

	matches, err := e.Find(context.Background(), "disk:/Badges", "BADGE")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Depth-first in listing order: the 08-30 branch before the 08-31 one.
	assert.Equal(t, "badge007.jpg", matches[0].Name)
	assert.Equal(t, "2026-08-30", matches[0].Date)
	assert.Equal(t, "Badge008.jpg", matches[1].Name)
	assert.Equal(t, "2026-08-31", matches[1].Date)
}

func TestFindNoMatches(t *testing.T) {
	e := New(newFakeLister(archiveTree()), Options{})

	matches, err := e.Find(context.Background(), "disk:/Badges", "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindEmptyQuery(t *testing.T) {
	l := newFakeLister(archiveTree())
	e := New(l, Options{})

	matches, err := e.Find(context.Background(), "disk:/Badges", "   ")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Empty(t, l.calls, "blank query must not touch the remote")
}

func TestFindSkipsBrokenBranch(t *testing.T) {
	l := newFakeLister(archiveTree())
	l.broken["disk:/Badges/2026-08-30"] = errors.New("boom")
	e := New(l, Options{})

	matches, err := e.Find(context.Background(), "disk:/Badges", "badge")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Badge008.jpg", matches[0].Name)
}

func TestFindBrokenRoot(t *testing.T) {
	l := newFakeLister(archiveTree())
	l.broken["disk:/Badges"] = errors.New("boom")
	e := New(l, Options{})

	matches, err := e.Find(context.Background(), "disk:/Badges", "badge")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindTerminatesOnCycle(t *testing.T) {
	tree := map[string][]disk.Resource{
		"disk:/A": {dir("disk:/B"), file("disk:/A/x.jpg")},
		"disk:/B": {dir("disk:/A")},
	}
	e := New(newFakeLister(tree), Options{})

	matches, err := e.Find(context.Background(), "disk:/A", "x")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestFindMaxDepth(t *testing.T) {
	l := newFakeLister(archiveTree())
	e := New(l, Options{MaxDepth: 1})

	matches, err := e.Find(context.Background(), "disk:/Badges", "jpg")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "stray.jpg", matches[0].Name)
	assert.Zero(t, l.calls["disk:/Badges/2026-08-30"])
}

func TestFindCachesListings(t *testing.T) {
	l := newFakeLister(archiveTree())
	e := New(l, Options{CacheTTL: time.Minute})

	_, err := e.Find(context.Background(), "disk:/Badges", "badge")
	require.NoError(t, err)
	_, err = e.Find(context.Background(), "disk:/Badges", "keycard")
	require.NoError(t, err)

	for path, n := range l.calls {
		assert.Equalf(t, 1, n, "path %s listed more than once", path)
	}
}

func TestFindCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(newFakeLister(archiveTree()), Options{})

	_, err := e.Find(ctx, "disk:/Badges", "badge")
	require.ErrorIs(t, err, context.Canceled)
}
