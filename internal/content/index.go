package content

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"techblog/internal/domain"
)

// Config configures the episode index.
type Config struct {
	// Dir is the content root scanned for episode documents.
	Dir string
	// Cache retains the parsed index and rendered bodies for the life of
	// the process. When false every read re-scans the directory.
	Cache bool
}

// Index scans a content directory of markdown documents with frontmatter and
// serves episode metadata and rendered bodies. Expensive parse work is done
// once per process when caching is enabled; Invalidate drops the snapshot.
type Index struct {
	dir    string
	cache  bool
	md     goldmark.Markdown
	logger *slog.Logger

	mu       sync.Mutex
	entries  []entry           // nil until first successful build
	rendered map[string]string // slug -> HTML, only populated when caching
}

func NewIndex(cfg Config, logger *slog.Logger) *Index {
	return &Index{
		dir:   cfg.Dir,
		cache: cfg.Cache,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		logger: logger.With("component", "content_index"),
	}
}

// Episodes returns metadata for all episodes, newest first.
func (ix *Index) Episodes(ctx context.Context) ([]Meta, error) {
	entries, err := ix.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	metas := make([]Meta, len(entries))
	for i, e := range entries {
		metas[i] = e.Meta
	}
	return metas, nil
}

// Slugs returns all episode slugs, newest first.
func (ix *Index) Slugs(ctx context.Context) ([]string, error) {
	entries, err := ix.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	slugs := make([]string, len(entries))
	for i, e := range entries {
		slugs[i] = e.Slug
	}
	return slugs, nil
}

// MetaBySlug returns metadata for one episode.
func (ix *Index) MetaBySlug(ctx context.Context, slug string) (Meta, error) {
	e, err := ix.entryBySlug(ctx, slug)
	if err != nil {
		return Meta{}, err
	}
	return e.Meta, nil
}

// EpisodeBySlug returns metadata plus the rendered HTML body. Rendered bodies
// are memoized per slug when caching is enabled.
func (ix *Index) EpisodeBySlug(ctx context.Context, slug string) (*Episode, error) {
	e, err := ix.entryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if ix.cache {
		ix.mu.Lock()
		cached, ok := ix.rendered[slug]
		ix.mu.Unlock()
		if ok {
			return &Episode{Meta: e.Meta, HTML: cached}, nil
		}
	}

	rendered, err := ix.render(e.body)
	if err != nil {
		return nil, fmt.Errorf("render episode %q: %w", slug, err)
	}

	if ix.cache {
		ix.mu.Lock()
		if ix.rendered == nil {
			ix.rendered = make(map[string]string)
		}
		ix.rendered[slug] = rendered
		ix.mu.Unlock()
	}

	return &Episode{Meta: e.Meta, HTML: rendered}, nil
}

// Invalidate drops the cached index and rendered bodies. The next read
// rebuilds from the filesystem.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	ix.entries = nil
	ix.rendered = nil
	ix.mu.Unlock()
}

// Reindex rebuilds the index immediately. Used by the background reindexer.
func (ix *Index) Reindex(ctx context.Context) error {
	ix.Invalidate()
	_, err := ix.snapshot(ctx)
	return err
}

func (ix *Index) entryBySlug(ctx context.Context, slug string) (entry, error) {
	entries, err := ix.snapshot(ctx)
	if err != nil {
		return entry{}, err
	}

	for _, e := range entries {
		if e.Slug == slug {
			return e, nil
		}
	}
	return entry{}, fmt.Errorf("%w: %q", domain.ErrEpisodeNotFound, slug)
}

func (ix *Index) snapshot(ctx context.Context) ([]entry, error) {
	if !ix.cache {
		return ix.build(ctx)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.entries != nil {
		return ix.entries, nil
	}

	entries, err := ix.build(ctx)
	if err != nil {
		return nil, err
	}
	ix.entries = entries
	return entries, nil
}

func (ix *Index) build(ctx context.Context) ([]entry, error) {
	start := time.Now()

	files, err := ix.collectFiles()
	if err != nil {
		return nil, fmt.Errorf("scan content dir: %w", err)
	}

	entries := make([]entry, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e, err := ix.loadFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	sortByDateDesc(entries)

	ix.logger.Debug("index built",
		"episodes", len(entries),
		"duration", time.Since(start),
	)

	return entries, nil
}

func (ix *Index) collectFiles() ([]string, error) {
	if err := os.MkdirAll(ix.dir, 0o755); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(ix.dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".md", ".mdx":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func (ix *Index) loadFile(path string) (entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return entry{}, fmt.Errorf("read %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return entry{}, fmt.Errorf("stat %s: %w", path, err)
	}

	meta, body, err := parseDocument(raw, ix.fallbackSlug(path))
	if err != nil {
		return entry{}, err
	}

	return entry{
		Meta:     meta,
		filePath: path,
		body:     body,
		modTime:  info.ModTime(),
	}, nil
}

// fallbackSlug derives a slug from the file path relative to the content
// root: extension stripped, path separators replaced with "-".
func (ix *Index) fallbackSlug(path string) string {
	rel, err := filepath.Rel(ix.dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
}

func (ix *Index) render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := ix.md.Convert(body, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sortByDateDesc orders entries newest first. Entries whose dates cannot be
// parsed keep their relative position.
func sortByDateDesc(entries []entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, okA := parseDate(entries[i].Date)
		b, okB := parseDate(entries[j].Date)
		if !okA || !okB {
			return false
		}
		return a.After(b)
	})
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
