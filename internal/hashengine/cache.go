package hashengine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/progress"
)

const cacheFileName = "cache.json"

// loadCache reads <root>/cache.json. A missing or malformed cache is treated
// as empty and logged, never returned as an error.
func loadCache(root string, log *logging.Logger) HashMap {
	data, err := os.ReadFile(filepath.Join(root, cacheFileName))
	if err != nil {
		if log != nil {
			log.Info("no hash cache found, starting empty", logging.String("root", root))
		}
		return nil
	}

	var cache HashMap
	if err := json.Unmarshal(data, &cache); err != nil {
		if log != nil {
			log.Warn("hash cache is malformed, ignoring", logging.Error(err))
		}
		return nil
	}
	return cache
}

// saveCache writes hashes to <root>/cache.json, dropping any entry whose
// path no longer exists under root. Write failures are logged, never fatal.
func saveCache(root string, hashes HashMap, log *logging.Logger) {
	pruned := make(HashMap, len(hashes))
	for relPath, info := range hashes {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(relPath))); err == nil {
			pruned[relPath] = info
		}
	}

	data, err := json.MarshalIndent(pruned, "", "  ")
	if err != nil {
		if log != nil {
			log.Warn("failed to marshal hash cache", logging.Error(err))
		}
		return
	}

	if err := os.WriteFile(filepath.Join(root, cacheFileName), data, 0644); err != nil {
		if log != nil {
			log.Warn("failed to write hash cache", logging.Error(err))
		}
	}
}

// HashDirCached is HashDir wrapped with load/save of <root>/cache.json.
func HashDirCached(ctx context.Context, root string, maxWorkers int, prog *progress.Reporter, log *logging.Logger) (HashMap, error) {
	cache := loadCache(root, log)

	hashes, err := HashDir(ctx, root, cache, maxWorkers, prog)
	if err != nil {
		return nil, err
	}

	saveCache(root, hashes, log)
	return hashes, nil
}
