package generator

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/hashengine"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/metrics"
	"github.com/obsproject/obs-updater-builder/internal/progress"
)

// patch describes one delta to generate: the content hash of the old file,
// the relative path it is shipped under, and both file system locations.
type patch struct {
	hash    string
	name    string
	oldFile string
	newFile string
}

// analysis is the output of the analyse phase: the classified file sets,
// the list of patches to generate, and the (not-yet-populated) package
// routing table, threaded explicitly through the later phases rather than
// stashed behind a lazily-filled, unwrap-guarded field.
type analysis struct {
	inputMap hashengine.HashMap

	patchList []patch

	addedFiles     map[string]bool
	allFiles       map[string]bool
	changedFiles   map[string]bool
	removedFiles   map[string]bool
	unchangedFiles map[string]bool

	defaultPkg string
	packageMap map[string]string
}

// backCompatPrefixes are historical package folders that were folded into
// the flat install tree; a path under either is reported without it.
var backCompatPrefixes = []string{"core/", "obs-browser/"}

// analyse hashes the new install tree (uncached) and the previous build tree
// (cached via cache.json), classifies every path into added/changed/
// unchanged/removed, dedupes across old versions that shipped identical
// bytes at the same path, and builds the patch list unless skipPatches is
// set. It also writes added.txt/changed.txt/unchanged.txt/removed.txt under
// outDir.
func (g *Generator) analyse(ctx context.Context, skipPatches bool) (*analysis, error) {
	g.log.Info("building hash list for new build", logging.String("path", g.inputDir))
	inputMap, err := hashengine.HashDir(ctx, g.inputDir, nil, 0, progress.New("hash new", nil))
	if err != nil {
		return nil, err
	}

	g.log.Info("building hash list for old builds", logging.String("path", g.oldDir))
	var oldMap hashengine.HashMap
	if _, statErr := os.Stat(g.oldDir); statErr != nil {
		g.log.Warn("no previous builds directory found, treating old build set as empty",
			logging.String("path", g.oldDir))
	} else {
		oldMap, err = hashengine.HashDirCached(ctx, g.oldDir, 0, progress.New("hash old", nil), g.log)
		if err != nil {
			return nil, err
		}
	}

	a := &analysis{
		inputMap:       inputMap,
		addedFiles:     make(map[string]bool, len(inputMap)),
		allFiles:       make(map[string]bool, len(inputMap)),
		changedFiles:   make(map[string]bool),
		removedFiles:   make(map[string]bool),
		unchangedFiles: make(map[string]bool),
		packageMap:     make(map[string]string),
	}
	for name := range inputMap {
		a.addedFiles[name] = true
		a.allFiles[name] = true
	}

	g.log.Info("building list of changes/patches")
	seen := make(map[[2]string]bool)

	for origPath, oldInfo := range oldMap {
		relPath := stripVersionComponent(origPath)

		seenKey := [2]string{oldInfo.Hash, relPath}
		if seen[seenKey] {
			continue
		}

		if _, ok := inputMap[relPath]; !ok {
			if !containsAny(relPath, g.cfg.Generate.ExcludeFromRemoval) {
				a.removedFiles[relPath] = true
			}
			continue
		}

		delete(a.addedFiles, relPath)
		if inputMap[relPath].Hash == oldInfo.Hash {
			a.unchangedFiles[relPath] = true
			continue
		}
		a.changedFiles[relPath] = true

		if !skipPatches {
			a.patchList = append(a.patchList, patch{
				hash:    oldInfo.Hash,
				name:    relPath,
				oldFile: filepath.Join(g.oldDir, filepath.FromSlash(origPath)),
				newFile: filepath.Join(g.inputDir, filepath.FromSlash(relPath)),
			})
		}

		seen[seenKey] = true
	}

	for _, removed := range g.cfg.Generate.RemovedFiles {
		a.removedFiles[removed] = true
	}
	for removed := range a.removedFiles {
		a.allFiles[removed] = true
	}

	if err := g.writeFileLists(a); err != nil {
		return nil, err
	}

	return a, nil
}

// stripVersionComponent drops the leading "<version>/" component of a path
// reported under the previous-builds root, plus a historical "core/" or
// "obs-browser/" package-folder prefix if one remains afterwards.
func stripVersionComponent(path string) string {
	relPath := path
	if i := strings.Index(relPath, "/"); i >= 0 {
		relPath = relPath[i+1:]
	}
	for _, prefix := range backCompatPrefixes {
		if strings.HasPrefix(relPath, prefix) {
			relPath = strings.TrimPrefix(relPath, prefix)
			break
		}
	}
	return relPath
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	list := make([]string, 0, len(m))
	for k := range m {
		list = append(list, k)
	}
	sort.Slice(list, func(i, j int) bool {
		return strings.ToLower(list[i]) < strings.ToLower(list[j])
	})
	return list
}

func (g *Generator) writeFileLists(a *analysis) error {
	added := sortedKeys(a.addedFiles)
	removed := sortedKeys(a.removedFiles)
	changed := sortedKeys(a.changedFiles)
	unchanged := sortedKeys(a.unchangedFiles)

	g.log.Info("analysis complete",
		logging.Int("added", len(added)),
		logging.Int("changed", len(changed)),
		logging.Int("unchanged", len(unchanged)),
		logging.Int("removed", len(removed)),
		logging.Int("patches", len(a.patchList)))

	metrics.SetFileCounts(len(added), len(changed), len(unchanged), len(removed))
	metrics.SetPatchCount(len(a.patchList))

	files := map[string][]string{
		"added.txt":     added,
		"removed.txt":   removed,
		"changed.txt":   changed,
		"unchanged.txt": unchanged,
	}
	for name, list := range files {
		path := filepath.Join(g.outDir, name)
		if err := os.WriteFile(path, []byte(strings.Join(list, "\n")), 0644); err != nil {
			return errors.NewIOError("write", path, err)
		}
	}
	return nil
}
