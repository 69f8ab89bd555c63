// Package sources fetches the external statistics the calculations depend
// on: UN WPP life tables, ILOSTAT average earnings, and World Bank context
// indicators. All responses go through a shared SQLite cache so repeated
// runs, and fully offline runs, do not touch the network.
package sources

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Cached API responses stay valid for 30 days; the underlying statistical
// series revise no faster than that.
const defaultCacheTTL = 30 * 24 * time.Hour

// Per-upstream request budget. The UN portal in particular throttles hard.
const defaultRequestsPerSecond = 2.0

// Hub owns the shared cache and one client per upstream.
type Hub struct {
	Cache     *Cache
	UNData    *UNDataClient
	ILOStat   *ILOStatClient
	WorldBank *WorldBankClient
}

// NewHub wires the data layer. cacheDir holds the response cache (":memory:"
// for tests); offline forbids network access, serving cache hits only.
func NewHub(cacheDir string, wppYear int, offline bool, log zerolog.Logger) (*Hub, error) {
	path := ":memory:"
	if cacheDir != "" && cacheDir != ":memory:" {
		path = filepath.Join(cacheDir, "api_cache.db")
	}
	cache, err := OpenCache(path, defaultCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to open response cache: %w", err)
	}
	cache.WithLogger(log)

	rc := newRESTClient(cache, defaultRequestsPerSecond, offline, log)
	return &Hub{
		Cache:     cache,
		UNData:    NewUNDataClient(rc, wppYear, log),
		ILOStat:   NewILOStatClient(rc, log),
		WorldBank: NewWorldBankClient(rc, log),
	}, nil
}

// Close releases the cache.
func (h *Hub) Close() error {
	return h.Cache.Close()
}
