package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/truthscan/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix is bumped when a cached value's encoding changes
const keyPrefix = "truthscan:v1:"

// Key builds a namespaced cache key from its parts ("search", query) etc.
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyPrefix + namespace + ":" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg: memory first, then disk and Redis when configured.
// It returns nil when caching is disabled.
func New(cfg model.CacheConfig, logger *slog.Logger) Cache {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	layers := []Cache{NewMemoryCache(cfg.TTL, 10*time.Minute, cfg.MaxEntries)}
	if cfg.Dir != "" {
		disk := NewDiskCache(cfg.Dir, cfg.TTL)
		if removed, err := disk.Prune(); err != nil {
			logger.Warn("disk cache prune failed", "dir", cfg.Dir, "error", err)
		} else if removed > 0 {
			logger.Debug("disk cache pruned", "dir", cfg.Dir, "removed", removed)
		}
		layers = append(layers, disk)
	}
	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(cfg.RedisURL, cfg.TTL)
		if err != nil {
			logger.Warn("redis cache disabled", "error", err)
		} else {
			layers = append(layers, rc)
		}
	}

	if len(layers) == 1 {
		return layers[0]
	}
	return NewLayeredCache(layers...)
}
