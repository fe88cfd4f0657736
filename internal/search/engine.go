// Package search walks the remote archive tree and matches file names
// against a case-insensitive substring query.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/m3rciful/photobot/core/logger"
	"github.com/m3rciful/photobot/internal/disk"
)

// Lister supplies the direct children of a remote directory.
type Lister interface {
	List(ctx context.Context, path string) ([]disk.Resource, error)
}

// Options tune a search engine.
type Options struct {
	// MaxDepth bounds how many directory levels below the search root are
	// entered; 0 means unbounded.
	MaxDepth int
	// CacheTTL enables caching of directory listings when positive.
	CacheTTL time.Duration
}

// Match is one archived file whose name contains the query.
type Match struct {
	Path string
	Name string
	// Date is the name of the file's parent directory, which holds the
	// archive date under the category layout. "?" when the path is too
	// shallow to tell.
	Date string
}

// Engine performs depth-first traversal over a Lister.
type Engine struct {
	lister   Lister
	maxDepth int
	cache    *gocache.Cache
}

// New builds an Engine on top of the given lister.
func New(lister Lister, opts Options) *Engine {
	var c *gocache.Cache
	if opts.CacheTTL > 0 {
		c = gocache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return &Engine{
		lister:   lister,
		maxDepth: opts.MaxDepth,
		cache:    c,
	}
}

// Find walks the tree under root and returns every file whose name
// contains query, compared case-insensitively. Matches come back in
// traversal order: listing order within a directory, subdirectories
// entered as they are encountered. Directories that fail to list are
// logged and skipped so one broken branch cannot sink the whole search.
func (e *Engine) Find(ctx context.Context, root, query string) ([]Match, error) {
	start := time.Now()
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}

	type frame struct {
		res   disk.Resource
		depth int
	}
	var stack []frame
	push := func(items []disk.Resource, depth int) {
		for i := len(items) - 1; i >= 0; i-- {
			stack = append(stack, frame{res: items[i], depth: depth})
		}
	}

	visited := map[string]struct{}{root: {}}

	items, err := e.listDir(ctx, root)
	if err != nil {
		logger.Warn(ctx, "search", "walk.skip",
			slog.String("path", root),
			slog.String("error", err.Error()),
		)
		return nil, ctx.Err()
	}
	push(items, 1)

	var out []Match
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch f.res.Type {
		case disk.TypeDir:
			if e.maxDepth > 0 && f.depth >= e.maxDepth {
				continue
			}
			if _, seen := visited[f.res.Path]; seen {
				continue
			}
			visited[f.res.Path] = struct{}{}
			children, err := e.listDir(ctx, f.res.Path)
			if err != nil {
				logger.Warn(ctx, "search", "walk.skip",
					slog.String("path", f.res.Path),
					slog.String("error", err.Error()),
				)
				continue
			}
			push(children, f.depth+1)
		case disk.TypeFile:
			if strings.Contains(strings.ToLower(f.res.Name), needle) {
				out = append(out, Match{
					Path: f.res.Path,
					Name: f.res.Name,
					Date: dateFromPath(f.res.Path),
				})
			}
		}
	}

	logger.Debug(ctx, "search", "find.done",
		slog.String("status", "ok"),
		slog.String("path", root),
		slog.String("query", needle),
		slog.Int("results", len(out)),
		slog.Duration("duration", logger.Took(start)),
	)
	return out, nil
}

func (e *Engine) listDir(ctx context.Context, path string) ([]disk.Resource, error) {
	if e.cache != nil {
		if v, ok := e.cache.Get(path); ok {
			return v.([]disk.Resource), nil
		}
	}
	items, err := e.lister.List(ctx, path)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(path, items, gocache.DefaultExpiration)
	}
	return items, nil
}

// dateFromPath extracts the parent directory name from a remote path.
func dateFromPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return "?"
	}
	return parts[len(parts)-2]
}
