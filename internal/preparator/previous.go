package preparator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/obsproject/obs-updater-builder/internal/errors"
	"github.com/obsproject/obs-updater-builder/internal/hashengine"
	"github.com/obsproject/obs-updater-builder/internal/logging"
	"github.com/obsproject/obs-updater-builder/internal/obsversion"
)

func (p *Preparator) buildsDir() string { return filepath.Join(p.cfg.Env.PreviousDir, "builds") }
func (p *Preparator) prevPDBsDir() string {
	return filepath.Join(p.cfg.Env.PreviousDir, "pdbs")
}

// FindPrevious enumerates previous/builds/*, parses each directory name as
// a version, and selects the greatest version strictly less than
// newVersion. Prerelease previous builds are skipped unless newVersion is
// itself a prerelease. Returns (nil, nil) when none qualifies.
func (p *Preparator) FindPrevious(newVersion obsversion.Version) (*obsversion.Version, error) {
	entries, err := os.ReadDir(p.buildsDir())
	if err != nil {
		if os.IsNotExist(err) {
			p.log.Warn("no previous builds directory found, skipping reclamation",
				logging.String("path", p.buildsDir()))
			return nil, nil
		}
		return nil, errors.NewIOError("read", p.buildsDir(), err)
	}

	var best *obsversion.Version
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, err := obsversion.Parse(e.Name())
		if err != nil {
			p.log.Warn("skipping unparseable previous build directory",
				logging.String("name", e.Name()), logging.Error(err))
			continue
		}
		if v.Compare(newVersion) >= 0 {
			continue
		}
		if v.IsPrerelease() && !newVersion.IsPrerelease() {
			continue
		}
		if best == nil || v.Compare(*best) > 0 {
			vCopy := v
			best = &vCopy
		}
	}

	if best == nil {
		p.log.Warn("no eligible previous build found, skipping reclamation")
		return nil, nil
	}

	name := dirName(*best)
	if _, err := os.Stat(filepath.Join(p.prevPDBsDir(), name)); err != nil {
		return nil, errors.NewPrereqError(fmt.Sprintf(
			"previous build %s exists under builds/ but not under pdbs/", name))
	}

	return best, nil
}

// dirName is the directory-name form of a version, matching what
// FindPrevious parses back via obsversion.Parse.
func dirName(v obsversion.Version) string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	switch {
	case v.Beta > 0:
		s += fmt.Sprintf("-beta%d", v.Beta)
	case v.RC > 0:
		s += fmt.Sprintf("-rc%d", v.RC)
	case v.Commit != "":
		s += "-g" + v.Commit
	}
	return s
}

// CodeAnalysis hashes the code sections of every {exe,dll,pyd} under the new
// install tree and under the previous build, and returns the set of
// basename-without-extension prefixes (each suffixed with ".") whose code is
// identical between the two - those files get reclaimed from the previous
// build in CopyPrevious instead of shipped fresh, to avoid a patch-worthy
// diff caused only by non-deterministic linker output.
func (p *Preparator) CodeAnalysis(ctx context.Context, previous obsversion.Version) (map[string]bool, error) {
	newCode, err := hashengine.HashDirCodeSections(ctx, p.installDir(), 0, nil)
	if err != nil {
		return nil, err
	}

	oldDir := filepath.Join(p.buildsDir(), dirName(previous))
	oldCode, err := hashengine.HashDirCodeSections(ctx, oldDir, 0, nil)
	if err != nil {
		return nil, err
	}

	excluded := map[string]bool{}
	for relPath, info := range newCode {
		oldInfo, ok := oldCode[relPath]
		if !ok || oldInfo.Hash != info.Hash {
			continue
		}
		base := filepath.Base(relPath)
		ext := filepath.Ext(base)
		excluded[strings.TrimSuffix(base, ext)+"."] = true
	}

	p.log.Info("code analysis complete", logging.Int("reclaimable", len(excluded)))
	return excluded, nil
}

// CopyPrevious overlays the previous build's binaries and PDBs into
// install/ and pdbs/ respectively, restricted to files whose basename
// matches the exclusion set produced by CodeAnalysis.
func (p *Preparator) CopyPrevious(previous obsversion.Version, excluded map[string]bool) error {
	name := dirName(previous)
	pairs := []struct{ oldRoot, newRoot string }{
		{filepath.Join(p.buildsDir(), name), p.installDir()},
		{filepath.Join(p.prevPDBsDir(), name), p.pdbsDir()},
	}

	for _, pair := range pairs {
		err := filepath.Walk(pair.oldRoot, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			if !matchesExclusion(filepath.Base(path), excluded) {
				return nil
			}
			rel, err := filepath.Rel(pair.oldRoot, path)
			if err != nil {
				return err
			}
			dest := filepath.Join(pair.newRoot, rel)
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return err
			}
			return copyFile(path, dest)
		})
		if err != nil {
			return errors.NewIOError("walk", pair.oldRoot, err)
		}
	}

	return nil
}

func matchesExclusion(base string, excluded map[string]bool) bool {
	for prefix := range excluded {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}
	return false
}
