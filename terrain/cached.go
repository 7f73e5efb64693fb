package terrain

import (
	"context"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/signalsfoundry/coverage-planner/core"
	"github.com/signalsfoundry/coverage-planner/model"
)

// cacheQuantum is the coordinate resolution of cache keys in radians
// (about 6 mm at the equator).
const cacheQuantum = 1e-7

// DefaultCacheSize is the number of elevations a Cached provider keeps.
const DefaultCacheSize = 100_000

type cacheKey struct {
	lon, lat int64
}

func keyFor(p model.GeoPoint) cacheKey {
	return cacheKey{
		lon: int64(math.Round(p.Longitude / cacheQuantum)),
		lat: int64(math.Round(p.Latitude / cacheQuantum)),
	}
}

// Cached memoises another provider. Unresolved (NaN) samples are not cached.
type Cached struct {
	inner core.TerrainProvider
	cache *lru.Cache[cacheKey, float64]
}

var _ core.TerrainProvider = (*Cached)(nil)

// NewCached wraps inner with an LRU of the given size; size <= 0 selects
// DefaultCacheSize.
func NewCached(inner core.TerrainProvider, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[cacheKey, float64](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: c}, nil
}

// Len returns the number of cached elevations.
func (c *Cached) Len() int { return c.cache.Len() }

// SampleTerrain implements core.TerrainProvider. Cache misses are resolved
// with a single call to the wrapped provider.
func (c *Cached) SampleTerrain(ctx context.Context, points []model.GeoPoint) ([]float64, error) {
	out := make([]float64, len(points))

	var missing []model.GeoPoint
	pending := map[cacheKey][]int{}
	for i, p := range points {
		k := keyFor(p)
		if h, ok := c.cache.Get(k); ok {
			out[i] = h
			continue
		}
		if _, seen := pending[k]; !seen {
			missing = append(missing, p)
		}
		pending[k] = append(pending[k], i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	heights, err := c.inner.SampleTerrain(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(heights) != len(missing) {
		return nil, core.ErrTerrainMismatch
	}
	for j, p := range missing {
		k := keyFor(p)
		h := heights[j]
		if !math.IsNaN(h) {
			c.cache.Add(k, h)
		}
		for _, i := range pending[k] {
			out[i] = h
		}
	}
	return out, nil
}
