// Package chartcache implements the per-id content-addressed chart cache
// (spec's C5): an upstream chart_updated timestamp decides hit vs miss, a
// per-id OS file lock on {id}.meta serializes concurrent installs across
// processes, and an in-memory singleflight layer collapses concurrent
// in-process callers onto one upstream fetch before either ever touches
// the lock.
package chartcache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/sync/singleflight"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chartcodec"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/diag"
)

// Fetcher retrieves chart metadata and content from the upstream API. The
// cache never parses a chart zip itself; Download is expected to do the
// full fetch-and-parse and return an already-validated chart.Chart.
type Fetcher interface {
	FetchMetadata(ctx context.Context, id string) (chartUpdated string, err error)
	Download(ctx context.Context, id string) (*chart.Info, *chart.Chart, error)
}

// Cache is a directory-backed chart cache.
type Cache struct {
	dir     string
	fetcher Fetcher
	group   singleflight.Group
}

// New builds a Cache rooted at dir, creating it if necessary.
func New(dir string, fetcher Fetcher) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &Cache{dir: dir, fetcher: fetcher}, nil
}

type metaFile struct {
	ChartUpdated string `json:"chart_updated"`
}

func (c *Cache) metaPath(id string) string { return filepath.Join(c.dir, id+".meta") }
func (c *Cache) binPath(id string) string  { return filepath.Join(c.dir, id+".bin") }
func (c *Cache) tmpPath(id string) string  { return filepath.Join(c.dir, id+".bin.tmp") }

// Result is what Get returns: the path to the installed .bin file and
// whether this call observed a cache hit (no download performed).
type Result struct {
	BinPath string
	Hit     bool
}

// Get resolves a chart id to its cached .bin path, downloading and
// installing it first if the cache is stale or empty. Concurrent callers
// for the same id within this process share one fetch via singleflight;
// concurrent callers across processes serialize on the per-id file lock.
func (c *Cache) Get(ctx context.Context, id string) (Result, error) {
	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		return c.getLocked(ctx, id)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (c *Cache) getLocked(ctx context.Context, id string) (Result, error) {
	chartUpdated, err := c.fetcher.FetchMetadata(ctx, id)
	if err != nil {
		return Result{}, diag.New(diag.TransientUpstream, "chartcache.FetchMetadata", err)
	}

	lock := flock.New(c.metaPath(id))
	if err := lock.Lock(); err != nil {
		return Result{}, fmt.Errorf("locking %s: %w", c.metaPath(id), err)
	}
	defer lock.Unlock()

	if meta, ok := c.readMeta(id); ok && meta.ChartUpdated == chartUpdated {
		if _, err := os.Stat(c.binPath(id)); err == nil {
			return Result{BinPath: c.binPath(id), Hit: true}, nil
		}
		// meta parses but the companion .bin is missing: CacheCorruption,
		// fall through and treat as a miss.
	}

	info, ch, err := c.fetcher.Download(ctx, id)
	if err != nil {
		return Result{}, diag.New(diag.ParseError, "chartcache.Download", err)
	}

	data, err := chartcodec.Encode(info, ch)
	if err != nil {
		return Result{}, diag.New(diag.ParseError, "chartcache.Encode", err)
	}

	if err := os.WriteFile(c.tmpPath(id), data, 0644); err != nil {
		return Result{}, fmt.Errorf("writing temp bin: %w", err)
	}
	if err := os.Rename(c.tmpPath(id), c.binPath(id)); err != nil {
		return Result{}, fmt.Errorf("installing bin: %w", err)
	}

	metaData, err := json.Marshal(metaFile{ChartUpdated: chartUpdated})
	if err != nil {
		return Result{}, fmt.Errorf("marshaling meta: %w", err)
	}
	if err := os.WriteFile(c.metaPath(id), metaData, 0644); err != nil {
		return Result{}, fmt.Errorf("writing meta: %w", err)
	}

	return Result{BinPath: c.binPath(id), Hit: false}, nil
}

// readMeta reads and parses {id}.meta, returning ok=false on any error
// (missing file, truncated JSON) — the caller treats that as a miss
// rather than surfacing a CacheCorruption error, matching spec's "treated
// as a miss; a fresh download replaces both" policy.
func (c *Cache) readMeta(id string) (metaFile, bool) {
	data, err := os.ReadFile(c.metaPath(id))
	if err != nil {
		return metaFile{}, false
	}
	var m metaFile
	if err := json.Unmarshal(data, &m); err != nil {
		return metaFile{}, false
	}
	return m, true
}

// Load reads and decodes an already-installed .bin file for id.
func (c *Cache) Load(id string) (*chart.Info, *chart.Chart, error) {
	data, err := os.ReadFile(c.binPath(id))
	if err != nil {
		return nil, nil, fmt.Errorf("reading cached bin: %w", err)
	}
	return chartcodec.Decode(data)
}
